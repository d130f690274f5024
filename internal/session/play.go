package session

import (
	"context"
	"fmt"

	"github.com/xtding233/gachamon/internal/battle"
	"github.com/xtding233/gachamon/internal/minigame"
)

// StartBattle loads a battle for an owned creature against a random
// opponent of the same rarity. The record itself is never modified. A
// creature fights one battle at a time: starting a new one drops the last.
func (s *Session) StartBattle(ctx context.Context, uid string) (battle.View, error) {
	rec, err := s.Creature(uid)
	if err != nil {
		return battle.View{}, err
	}
	cfg := s.settings()
	b, err := battle.Load(ctx, battle.LoadRequest{
		ID:       s.deps.NewID(),
		Record:   rec,
		Table:    cfg.Table,
		Provider: s.deps.Provider,
		Chart:    s.deps.Chart,
		RNG:      s.deps.RNG,
	})
	if err != nil {
		return battle.View{}, err
	}
	b.Delay = cfg.TurnDelay

	s.mu.Lock()
	if old, ok := s.battleOf[uid]; ok {
		delete(s.battles, old)
	}
	s.battles[b.ID] = b
	s.battleOf[uid] = b.ID
	s.mu.Unlock()
	return b.View(), nil
}

func (s *Session) battle(id string) (*battle.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.battles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBattleNotFound, id)
	}
	return b, nil
}

// Battle returns the current view of a battle.
func (s *Session) Battle(id string) (battle.View, error) {
	b, err := s.battle(id)
	if err != nil {
		return battle.View{}, err
	}
	return b.View(), nil
}

// Turn submits the player's move. ok is false when the battle is over, the
// move index is invalid, or a turn is still resolving.
func (s *Session) Turn(id string, moveIndex int) (turn battle.Turn, ok bool, err error) {
	b, err := s.battle(id)
	if err != nil {
		return battle.Turn{}, false, err
	}
	turn, ok = b.ResolveTurn(moveIndex)
	return turn, ok, nil
}

// EndBattle forgets a battle.
func (s *Session) EndBattle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, id)
	for uid, bid := range s.battleOf {
		if bid == id {
			delete(s.battleOf, uid)
		}
	}
}

func (s *Session) shuffleFor(uid string) (*minigame.Shuffle, error) {
	i := s.index(uid)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	sh, ok := s.shuffles[uid]
	if !ok {
		sh = minigame.NewShuffle(s.collection[i].Rarity, s.deps.RNG)
		s.shuffles[uid] = sh
	}
	return sh, nil
}

// ShuffleCards returns the face-down deck for a creature.
func (s *Session) ShuffleCards(uid string) ([]minigame.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.shuffleFor(uid)
	if err != nil {
		return nil, err
	}
	return sh.Cards(), nil
}

// Shuffle reveals one card and applies the result to the creature. A second
// pick on the same deal returns ok=false and changes nothing.
func (s *Session) Shuffle(ctx context.Context, uid string, card int) (res minigame.Result, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.shuffleFor(uid)
	if err != nil {
		return minigame.Result{}, false, err
	}
	res, ok = sh.Pick(card)
	if !ok {
		return res, false, nil
	}
	s.apply(uid, res)
	return res, true, s.persistCollection(ctx)
}

// ResetShuffle deals a fresh deck for the creature.
func (s *Session) ResetShuffle(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, err := s.shuffleFor(uid)
	if err != nil {
		return err
	}
	sh.Reset()
	return nil
}

// Toss plays the elemental toss for a creature and applies the result.
// ok is false while a toss for the same creature is still landing.
func (s *Session) Toss(ctx context.Context, uid string) (res minigame.Result, ok bool, err error) {
	s.mu.Lock()
	i := s.index(uid)
	if i < 0 {
		s.mu.Unlock()
		return minigame.Result{}, false, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	t, found := s.tosses[uid]
	if !found {
		rec := s.collection[i]
		t = minigame.NewToss(rec.Rarity, rec.Types, s.deps.RNG)
		t.Delay = s.settings().TossDelay
		s.tosses[uid] = t
	}
	s.mu.Unlock()

	res, ok = t.Toss()
	if !ok {
		return res, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.apply(uid, res) {
		return res, false, fmt.Errorf("%w: %s", ErrNotFound, uid)
	}
	return res, true, s.persistCollection(ctx)
}

// apply mutates the owned record; it reports false if the creature is gone.
func (s *Session) apply(uid string, res minigame.Result) bool {
	i := s.index(uid)
	if i < 0 {
		return false
	}
	s.collection[i].Apply(res.Change(), s.deps.Now())
	return true
}
