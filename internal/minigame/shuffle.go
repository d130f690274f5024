package minigame

import (
	"fmt"
	"sync"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
)

const ShuffleSource = "StatBoostShuffle"

// Label is a face-down card in the shuffle game.
type Label struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// StatLabels are the cards dealt each game. Special defense is not offered.
var StatLabels = []Label{
	{creature.HP, "HP"},
	{creature.Attack, "Attack"},
	{creature.Defense, "Defense"},
	{creature.Speed, "Speed"},
	{creature.SpecialAttack, "Special"},
}

// ShuffleConfig tunes one rarity.
type ShuffleConfig struct {
	Chance    float64 `json:"chance"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
	WorthMult float64 `json:"worth_mult"`
}

// ShuffleConfigFor returns the tuning row for a rarity.
func ShuffleConfigFor(r creature.Rarity) ShuffleConfig {
	switch r {
	case creature.EX:
		return ShuffleConfig{Chance: 0.88, Min: 8, Max: 15, WorthMult: 5}
	case creature.UltraRare:
		return ShuffleConfig{Chance: 0.80, Min: 5, Max: 9, WorthMult: 3}
	case creature.Rare:
		return ShuffleConfig{Chance: 0.72, Min: 3, Max: 6, WorthMult: 2}
	case creature.Uncommon:
		return ShuffleConfig{Chance: 0.65, Min: 2, Max: 4, WorthMult: 1.5}
	default:
		return ShuffleConfig{Chance: 0.58, Min: 1, Max: 3, WorthMult: 1}
	}
}

// Card is the public view of one dealt label.
type Card struct {
	Index    int    `json:"index"`
	Revealed bool   `json:"revealed"`
	Label    *Label `json:"label,omitempty"`
}

// Shuffle is one game instance: one reveal per deal.
type Shuffle struct {
	mu     sync.Mutex
	cfg    ShuffleConfig
	rng    gacha.RandomSource
	deck   []Label
	picked int
	last   *Result
}

// NewShuffle deals a freshly shuffled deck for a creature of the given rarity.
func NewShuffle(r creature.Rarity, rng gacha.RandomSource) *Shuffle {
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	s := &Shuffle{cfg: ShuffleConfigFor(r), rng: rng}
	s.deal()
	return s
}

func (s *Shuffle) deal() {
	deck := append([]Label(nil), StatLabels...)
	for i := len(deck) - 1; i > 0; i-- {
		j := gacha.IntN(s.rng, i+1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	s.deck = deck
	s.picked = -1
	s.last = nil
}

// Reset reshuffles and allows another pick.
func (s *Shuffle) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deal()
}

// Cards returns the deck with only the picked card face up.
func (s *Shuffle) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Card, len(s.deck))
	for i := range s.deck {
		out[i] = Card{Index: i}
		if i == s.picked {
			l := s.deck[i]
			out[i].Revealed = true
			out[i].Label = &l
		}
	}
	return out
}

// Last returns the result of the current deal's pick, if any.
func (s *Shuffle) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Pick reveals card i. The success roll passes when roll <= chance; a
// successful pick gains a uniform [min,max] delta and round(delta*mult)
// worth, at least 1. A failed pick changes nothing but still reports a
// message. Any pick after the first, or an index outside the deck, is a
// no-op returning false.
func (s *Shuffle) Pick(i int) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.picked >= 0 || i < 0 || i >= len(s.deck) {
		return Result{}, false
	}
	s.picked = i
	card := s.deck[i]

	res := Result{Source: ShuffleSource, StatKey: card.Key}
	if s.rng.Float64() <= s.cfg.Chance {
		res.Success = true
		res.Delta = gacha.IntRange(s.rng, s.cfg.Min, s.cfg.Max)
		res.WorthDelta = max(1, round(float64(res.Delta)*s.cfg.WorthMult))
		res.Message = fmt.Sprintf("Success! %s +%d (worth +%d)", card.Name, res.Delta, res.WorthDelta)
	} else {
		res.Message = "No effect. Better luck next time."
	}
	s.last = &res
	return res, true
}
