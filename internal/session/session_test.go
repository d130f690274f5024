package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xtding233/gachamon/internal/battle"
	"github.com/xtding233/gachamon/internal/config"
	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/minigame"
	"github.com/xtding233/gachamon/internal/species"
	"github.com/xtding233/gachamon/internal/store"
	"github.com/xtding233/gachamon/internal/token"
	"github.com/xtding233/gachamon/internal/typechart"
	"github.com/xtding233/gachamon/internal/wallet"
)

const addr = "0xabc"

func settingsWith(t *testing.T, initial int, tiers ...gacha.Tier) func() config.Settings {
	t.Helper()
	tbl, err := gacha.NewTable(tiers)
	if err != nil {
		t.Fatal(err)
	}
	s := config.Settings{
		Table:          tbl,
		Token:          token.Token{Name: "CMC", PerPull: 55, Bundles: []token.Bundle{{Pulls: 10, Cost: 500}}},
		InitialTokens:  initial,
		TraderPrefixes: []string{"Alpha"},
	}
	return func() config.Settings { return s }
}

func exOnly(t *testing.T) func() config.Settings {
	return settingsWith(t, 5000, gacha.Tier{Name: creature.EX, Weight: 1, Pool: []string{"mew", "mewtwo"}})
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func testDeps(settings func() config.Settings, rng gacha.RandomSource) Deps {
	n := 0
	var mu sync.Mutex
	c := &clock{t: time.UnixMilli(1_700_000_000_000)}
	return Deps{
		Settings: settings,
		Provider: species.Fixture(),
		Chart:    typechart.Default(),
		Store:    store.NewMemory(),
		RNG:      rng,
		Now:      c.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
}

func open(t *testing.T, deps Deps) *Session {
	t.Helper()
	s, err := Open(context.Background(), addr, deps)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestOpenCreatesWallet(t *testing.T) {
	deps := testDeps(exOnly(t), gacha.NewSeededRNG(1))
	s := open(t, deps)
	if s.Wallet().Balance != 5000 {
		t.Fatalf("balance = %d", s.Wallet().Balance)
	}
	snap, ok, _ := deps.Store.LoadWallet(context.Background(), addr)
	if !ok || snap.Balance != 5000 {
		t.Fatalf("new wallet not persisted: %+v ok=%v", snap, ok)
	}
	if _, err := Open(context.Background(), "  ", deps); !errors.Is(err, store.ErrInvalidAddress) {
		t.Fatalf("blank address: %v", err)
	}
}

func TestPullDebitsAndPersists(t *testing.T) {
	deps := testDeps(exOnly(t), gacha.NewSequenceRNG(0.1, 0))
	s := open(t, deps)
	rec, err := s.Pull(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "mew" || rec.Rarity != creature.EX || rec.Worth != 685 {
		t.Fatalf("pulled %+v", rec)
	}
	if len(rec.History) != 1 || rec.History[0].Event != "Pulled (EX)" {
		t.Fatalf("history %+v", rec.History)
	}
	w := s.Wallet()
	if w.Balance != 4945 || len(w.History) != 1 || w.History[0].Type != wallet.Debit || w.History[0].Note != "Pull" {
		t.Fatalf("wallet %+v", w)
	}
	stored, _ := deps.Store.LoadCollection(context.Background(), addr)
	if len(stored) != 1 || stored[0].UID != rec.UID {
		t.Fatalf("stored %+v", stored)
	}
}

func TestPullFetchFailureRefunds(t *testing.T) {
	settings := settingsWith(t, 5000, gacha.Tier{Name: creature.Common, Weight: 1, Pool: []string{"missingno"}})
	s := open(t, testDeps(settings, gacha.NewSeededRNG(2)))
	_, err := s.Pull(context.Background())
	if !errors.Is(err, gacha.ErrDataFetch) {
		t.Fatalf("want ErrDataFetch, got %v", err)
	}
	w := s.Wallet()
	if w.Balance != 5000 {
		t.Fatalf("balance = %d after refund", w.Balance)
	}
	if len(w.History) != 2 || w.History[1].Type != wallet.Credit || w.History[1].Amount != 55 {
		t.Fatalf("history %+v", w.History)
	}
	if len(s.Collection()) != 0 {
		t.Fatal("failed pull added a creature")
	}
}

func TestPullInsufficientFunds(t *testing.T) {
	settings := settingsWith(t, 54, gacha.Tier{Name: creature.EX, Weight: 1, Pool: []string{"mew"}})
	s := open(t, testDeps(settings, gacha.NewSeededRNG(3)))
	if _, err := s.Pull(context.Background()); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if w := s.Wallet(); w.Balance != 54 || len(w.History) != 0 {
		t.Fatalf("wallet mutated: %+v", w)
	}
	if q := s.Affordable(); q.Pulls != 0 {
		t.Fatalf("affordable = %+v", q)
	}
}

func TestPullManyUsesBundlePrice(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSeededRNG(4)))
	if q := s.Quote(10); q.Cost != 500 {
		t.Fatalf("quote %+v", q)
	}
	recs, err := s.PullMany(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 10 || len(s.Collection()) != 10 {
		t.Fatalf("pulled %d, collection %d", len(recs), len(s.Collection()))
	}
	w := s.Wallet()
	if w.Balance != 4500 || w.History[0].Note != "Pull x10" {
		t.Fatalf("wallet %+v", w)
	}
}

type gatedProvider struct {
	species.Provider
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedProvider) Species(ctx context.Context, name string) (species.Species, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.Provider.Species(ctx, name)
}

func TestPullRejectsOverlap(t *testing.T) {
	deps := testDeps(exOnly(t), gacha.NewSeededRNG(5))
	gp := &gatedProvider{Provider: deps.Provider, entered: make(chan struct{}), gate: make(chan struct{})}
	deps.Provider = gp
	s := open(t, deps)

	done := make(chan error)
	go func() {
		_, err := s.Pull(context.Background())
		done <- err
	}()
	<-gp.entered
	if _, err := s.Pull(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	close(gp.gate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if w := s.Wallet(); w.Balance != 4945 {
		t.Fatalf("only one pull should be charged: %d", w.Balance)
	}
}

func TestSellCreditsRecomputedWorth(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSequenceRNG(0.1, 0, 0.3, 0.7, 0.2, 0.9)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}
	res, ok, err := s.Toss(ctx, rec.UID)
	if err != nil || !ok {
		t.Fatalf("toss ok=%v err=%v", ok, err)
	}
	if res.Delta <= 0 {
		t.Fatalf("an EX toss always gains: %+v", res)
	}

	cur, _ := s.Creature(rec.UID)
	appraised, err := s.Appraise(rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Worth == appraised {
		t.Fatalf("running worth %d should drift from appraisal %d", cur.Worth, appraised)
	}
	// an EX worth equals its stat sum, so the appraisal tracks the stat delta 1:1
	if cur.Worth != rec.Worth+res.WorthDelta || appraised != rec.Worth+res.Delta {
		t.Fatalf("worth %d appraisal %d after %+v", cur.Worth, appraised, res)
	}

	before := s.Wallet().Balance
	price, err := s.Sell(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if price != appraised || s.Wallet().Balance != before+price {
		t.Fatalf("price %d balance %d", price, s.Wallet().Balance)
	}
	if len(s.Collection()) != 0 {
		t.Fatal("sold creature still owned")
	}
	if _, err := s.Sell(ctx, rec.UID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second sell: %v", err)
	}
	w := s.Wallet()
	if last := w.History[len(w.History)-1]; last.Note != "Sold mew" || last.Amount != price {
		t.Fatalf("last tx %+v", last)
	}
}

func TestTradeAcceptAndDecline(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSequenceRNG(0.1, 0, 0, 0, 0.5)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeclineTrade(rec.UID); !errors.Is(err, ErrNoOffer) {
		t.Fatalf("decline without offer: %v", err)
	}
	offer, err := s.OfferTrade(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if offer.Creature.Name != "mewtwo" || offer.Creature.Rarity != creature.EX {
		t.Fatalf("offer %+v", offer.Creature)
	}
	if !strings.HasPrefix(offer.Trader, "Alpha-") {
		t.Fatalf("trader %q", offer.Trader)
	}
	var n int
	if _, err := fmt.Sscanf(offer.Trader, "Alpha-%d", &n); err != nil || n < 100 || n > 9099 {
		t.Fatalf("trader number %q", offer.Trader)
	}
	if h := offer.Creature.History; len(h) != 1 || h[0].Event != "Offered by "+offer.Trader {
		t.Fatalf("offer history %+v", h)
	}

	if err := s.DeclineTrade(rec.UID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AcceptTrade(ctx, rec.UID); !errors.Is(err, ErrNoOffer) {
		t.Fatalf("accept after decline: %v", err)
	}
	if c := s.Collection(); len(c) != 1 || c[0].UID != rec.UID {
		t.Fatal("decline changed the collection")
	}

	if _, err := s.OfferTrade(ctx, rec.UID); err != nil {
		t.Fatal(err)
	}
	got, err := s.AcceptTrade(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	c := s.Collection()
	if len(c) != 1 || c[0].UID != got.UID || c[0].Name != "mewtwo" {
		t.Fatalf("collection after accept %+v", c)
	}
	if _, ok := s.PendingOffer(rec.UID); ok {
		t.Fatal("accepted offer still pending")
	}
}

func TestBattleLeavesRecordUntouched(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSeededRNG(6)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}
	view, err := s.StartBattle(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if view.State != battle.Active || view.Player.Stats != rec.Stats {
		t.Fatalf("view %+v", view)
	}
	for i := 0; i < 1000; i++ {
		turn, ok, err := s.Turn(view.ID, 0)
		if err != nil || !ok {
			t.Fatalf("turn %d ok=%v err=%v", i, ok, err)
		}
		if turn.State == battle.Over {
			break
		}
	}
	if v, _ := s.Battle(view.ID); v.State != battle.Over {
		t.Fatalf("battle did not finish: %+v", v)
	}
	if _, ok, _ := s.Turn(view.ID, 0); ok {
		t.Fatal("turn accepted after battle over")
	}

	after, _ := s.Creature(rec.UID)
	if after.Stats != rec.Stats || after.Worth != rec.Worth || len(after.History) != len(rec.History) {
		t.Fatalf("battle mutated the record: %+v", after)
	}

	s.EndBattle(view.ID)
	if _, err := s.Battle(view.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("ended battle: %v", err)
	}
}

func TestShuffleAppliesOnce(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSequenceRNG(0.1, 0, 0, 0, 0, 0, 0.5, 0)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cards, err := s.ShuffleCards(rec.UID)
	if err != nil || len(cards) != len(minigame.StatLabels) {
		t.Fatalf("cards %v err %v", cards, err)
	}
	res, ok, err := s.Shuffle(ctx, rec.UID, 0)
	if err != nil || !ok {
		t.Fatalf("pick ok=%v err=%v", ok, err)
	}
	// deck dealt from zeros starts with attack; EX success gains 8
	if !res.Success || res.StatKey != creature.Attack || res.Delta != 8 || res.WorthDelta != 40 {
		t.Fatalf("result %+v", res)
	}
	if _, ok, _ := s.Shuffle(ctx, rec.UID, 1); ok {
		t.Fatal("second pick accepted")
	}
	cur, _ := s.Creature(rec.UID)
	if cur.Stats.Attack != rec.Stats.Attack+8 || cur.Worth != rec.Worth+40 || len(cur.History) != 2 {
		t.Fatalf("record after shuffle %+v", cur)
	}
	if cur.History[1].Event != "StatBoostShuffle: "+res.Message || cur.History[1].WorthDelta != 40 {
		t.Fatalf("history %+v", cur.History[1])
	}

	if err := s.ResetShuffle(rec.UID); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Shuffle(ctx, rec.UID, 1); !ok {
		t.Fatal("pick after reset rejected")
	}
	if _, _, err := s.Shuffle(ctx, "nope", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown creature: %v", err)
	}
}

func TestUpdateGuardsRarityAndHistory(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSeededRNG(7)))
	ctx := context.Background()
	rec, _ := s.Pull(ctx)

	changed := rec.Clone()
	changed.Rarity = creature.Common
	if _, err := s.Update(ctx, changed); !errors.Is(err, ErrImmutable) {
		t.Fatalf("rarity change: %v", err)
	}
	changed = rec.Clone()
	changed.History = nil
	if _, err := s.Update(ctx, changed); !errors.Is(err, ErrImmutable) {
		t.Fatalf("history truncation: %v", err)
	}

	changed = rec.Clone()
	id := int64(42)
	changed.TokenID = &id
	changed.History = append(changed.History, creature.HistoryEntry{
		TS: rec.History[0].TS + 10, Event: "Minted", WorthDelta: 0,
	})
	got, err := s.Update(ctx, changed)
	if err != nil {
		t.Fatal(err)
	}
	if got.TokenID == nil || *got.TokenID != 42 || len(got.History) != 2 || got.History[1].Event != "Minted" {
		t.Fatalf("updated %+v", got)
	}
	if got.Stats != rec.Stats || got.Worth != rec.Worth {
		t.Fatalf("update moved stats or worth: %+v", got)
	}
	changed.UID = "missing"
	if _, err := s.Update(ctx, changed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown uid: %v", err)
	}
}

func TestManagerReloadsFromStore(t *testing.T) {
	deps := testDeps(exOnly(t), gacha.NewSeededRNG(8))
	m := NewManager(deps)
	ctx := context.Background()

	s1, err := m.Get(ctx, "0xABC")
	if err != nil {
		t.Fatal(err)
	}
	s2, _ := m.Get(ctx, "0xabc")
	if s1 != s2 || m.Len() != 1 {
		t.Fatal("addresses should normalize to one session")
	}
	rec, err := s1.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}

	m.Drop("0xabc")
	s3, err := m.Get(ctx, "0xabc")
	if err != nil {
		t.Fatal(err)
	}
	if s3 == s1 {
		t.Fatal("dropped session reused")
	}
	if c := s3.Collection(); len(c) != 1 || c[0].UID != rec.UID {
		t.Fatalf("reloaded collection %+v", c)
	}
	if s3.Wallet().Balance != 4945 {
		t.Fatalf("reloaded balance %d", s3.Wallet().Balance)
	}
}

func TestUpdateCannotInflateSellPrice(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSeededRNG(9)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}

	edits := map[string]func(*creature.Record){
		"stats":      func(r *creature.Record) { r.Stats.HP = 10_000_000 },
		"worth":      func(r *creature.Record) { r.Worth = 10_000_000 },
		"base stats": func(r *creature.Record) { r.BaseStats.Attack++ },
		"name":       func(r *creature.Record) { r.Name = "mewtwo" },
		"types":      func(r *creature.Record) { r.Types = append(r.Types, "dragon") },
	}
	for name, edit := range edits {
		changed := rec.Clone()
		edit(&changed)
		if _, err := s.Update(ctx, changed); !errors.Is(err, ErrImmutable) {
			t.Fatalf("%s edit: %v", name, err)
		}
	}

	before := s.Wallet().Balance
	price, err := s.Sell(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if price != creature.Worth(rec.Stats, rec.Rarity) || s.Wallet().Balance != before+price {
		t.Fatalf("price %d, balance %d -> %d", price, before, s.Wallet().Balance)
	}
}

func TestNewBattleReplacesPrevious(t *testing.T) {
	s := open(t, testDeps(exOnly(t), gacha.NewSeededRNG(10)))
	ctx := context.Background()
	rec, err := s.Pull(ctx)
	if err != nil {
		t.Fatal(err)
	}
	first, err := s.StartBattle(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.StartBattle(ctx, rec.UID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Battle(first.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("replaced battle still held: %v", err)
	}
	if _, err := s.Battle(second.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Sell(ctx, rec.UID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Battle(second.ID); !errors.Is(err, ErrBattleNotFound) {
		t.Fatalf("battle outlived its creature: %v", err)
	}
}

func TestManagerOpensConcurrentlyOnce(t *testing.T) {
	m := NewManager(testDeps(exOnly(t), gacha.NewSeededRNG(11)))
	ctx := context.Background()

	const n = 16
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(ctx, "0xFEED")
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = s
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatal("concurrent opens returned different sessions")
		}
	}
	if m.Len() != 1 {
		t.Fatalf("sessions = %d", m.Len())
	}
}
