// Package session owns one player's mutable game state: the wallet and the
// creature collection, plus the battles, mini-games and trade offers in
// flight. Every mutation is written through to the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/gachamon/internal/battle"
	"github.com/xtding233/gachamon/internal/config"
	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/minigame"
	"github.com/xtding233/gachamon/internal/species"
	"github.com/xtding233/gachamon/internal/store"
	"github.com/xtding233/gachamon/internal/wallet"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("creature not found")
	ErrBattleNotFound    = errors.New("battle not found")
	ErrNoOffer           = errors.New("no pending trade offer")
	ErrBusy              = errors.New("another pull is in progress")
	ErrImmutable         = errors.New("only history and token id can be updated")
	ErrPersist           = errors.New("persist session")
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Settings func() config.Settings
	Provider species.Provider
	Chart    battle.Chart
	Store    store.Store
	RNG      gacha.RandomSource
	Now      func() time.Time
	NewID    func() string
}

func (d Deps) withDefaults() Deps {
	if d.RNG == nil {
		d.RNG = gacha.DefaultRNG()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Store == nil {
		d.Store = store.NewMemory()
	}
	return d
}

// Session is one wallet address's game. Long operations (species fetches,
// battle turns, toss pacing) run outside the state lock.
type Session struct {
	Address string

	deps    Deps
	pulling atomic.Bool

	mu         sync.Mutex
	wallet     *wallet.Wallet
	collection []creature.Record
	offers     map[string]Offer
	battles    map[string]*battle.Battle
	battleOf   map[string]string // creature uid -> battle id
	shuffles   map[string]*minigame.Shuffle
	tosses     map[string]*minigame.Toss
}

// Open loads the address's collection and wallet. An address with no saved
// wallet starts with the configured initial balance.
func Open(ctx context.Context, addr string, deps Deps) (*Session, error) {
	addr, err := store.NormalizeAddress(addr)
	if err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	recs, err := deps.Store.LoadCollection(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}
	snap, ok, err := deps.Store.LoadWallet(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	s := &Session{
		Address:    addr,
		deps:       deps,
		collection: recs,
		offers:     make(map[string]Offer),
		battles:    make(map[string]*battle.Battle),
		battleOf:   make(map[string]string),
		shuffles:   make(map[string]*minigame.Shuffle),
		tosses:     make(map[string]*minigame.Toss),
	}
	if ok {
		s.wallet = wallet.FromSnapshot(snap)
	} else {
		s.wallet = wallet.New(deps.Settings().InitialTokens)
	}
	s.wallet.SetClock(deps.Now)
	if !ok {
		if err := deps.Store.SaveWallet(ctx, addr, s.wallet.Snapshot()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}
	return s, nil
}

func (s *Session) settings() config.Settings { return s.deps.Settings() }

func (s *Session) engine() *gacha.Engine {
	return &gacha.Engine{
		Table:    s.settings().Table,
		Provider: s.deps.Provider,
		RNG:      s.deps.RNG,
		Now:      s.deps.Now,
		NewID:    s.deps.NewID,
	}
}

// Wallet returns the balance and transaction log.
func (s *Session) Wallet() wallet.Snapshot { return s.wallet.Snapshot() }

// Collection returns copies of the owned creatures in acquisition order.
func (s *Session) Collection() []creature.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]creature.Record, len(s.collection))
	for i := range s.collection {
		out[i] = s.collection[i].Clone()
	}
	return out
}

// Creature returns a copy of one owned creature.
func (s *Session) Creature(uid string) (creature.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(uid)
	if i < 0 {
		return creature.Record{}, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return s.collection[i].Clone(), nil
}

// Update accepts client-side changes to an owned creature: new history
// entries appended after the stored ones, and the token id. Everything else
// must match the stored record; stats and worth only move through the
// mini-games.
func (s *Session) Update(ctx context.Context, rec creature.Record) (creature.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(rec.UID)
	if i < 0 {
		return creature.Record{}, fmt.Errorf("%w: %s", ErrNotFound, rec.UID)
	}
	cur := s.collection[i]
	if !sameCreature(cur, rec) || len(rec.History) < len(cur.History) {
		return creature.Record{}, ErrImmutable
	}
	for j := range cur.History {
		if rec.History[j] != cur.History[j] {
			return creature.Record{}, ErrImmutable
		}
	}
	for j := max(1, len(cur.History)); j < len(rec.History); j++ {
		if rec.History[j].TS <= rec.History[j-1].TS {
			return creature.Record{}, ErrImmutable
		}
	}
	next := cur.Clone()
	next.History = append(next.History, rec.History[len(cur.History):]...)
	if rec.TokenID != nil {
		id := *rec.TokenID
		next.TokenID = &id
	}
	s.collection[i] = next
	if err := s.persistCollection(ctx); err != nil {
		return creature.Record{}, err
	}
	return next.Clone(), nil
}

// sameCreature compares everything Update refuses to change.
func sameCreature(a, b creature.Record) bool {
	return a.AcquiredAt == b.AcquiredAt &&
		a.Name == b.Name &&
		a.SpeciesID == b.SpeciesID &&
		a.Sprite == b.Sprite &&
		a.Cry == b.Cry &&
		slices.Equal(a.Types, b.Types) &&
		a.BaseStats == b.BaseStats &&
		a.Stats == b.Stats &&
		a.Rarity == b.Rarity &&
		a.Worth == b.Worth
}

// Appraise recomputes the valuation from the creature's current stats.
func (s *Session) Appraise(uid string) (int, error) {
	rec, err := s.Creature(uid)
	if err != nil {
		return 0, err
	}
	return creature.Worth(rec.Stats, rec.Rarity), nil
}

// Sell removes the creature and credits its recomputed valuation.
func (s *Session) Sell(ctx context.Context, uid string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(uid)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	rec := s.collection[i]
	price := creature.Worth(rec.Stats, rec.Rarity)
	s.remove(i)
	s.wallet.Credit(price, "Sold "+rec.Name)
	return price, s.persist(ctx)
}

func (s *Session) index(uid string) int {
	for i := range s.collection {
		if s.collection[i].UID == uid {
			return i
		}
	}
	return -1
}

// remove drops the creature at i along with its per-creature surfaces.
func (s *Session) remove(i int) {
	uid := s.collection[i].UID
	s.collection = append(s.collection[:i], s.collection[i+1:]...)
	delete(s.offers, uid)
	if id, ok := s.battleOf[uid]; ok {
		delete(s.battles, id)
		delete(s.battleOf, uid)
	}
	delete(s.shuffles, uid)
	delete(s.tosses, uid)
}

func (s *Session) persist(ctx context.Context) error {
	if err := s.persistCollection(ctx); err != nil {
		return err
	}
	return s.persistWallet(ctx)
}

func (s *Session) persistCollection(ctx context.Context) error {
	if err := s.deps.Store.SaveCollection(ctx, s.Address, s.collection); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *Session) persistWallet(ctx context.Context) error {
	if err := s.deps.Store.SaveWallet(ctx, s.Address, s.wallet.Snapshot()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}
