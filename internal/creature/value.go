package creature

import (
	"math"
	"time"
)

// Species data arrives raw; owned creatures get a flat boost on top.
const (
	HPOffset    = 60
	OtherOffset = 5
)

// Boost applies the fixed per-stat offsets to raw species stats.
func Boost(raw Stats) Stats {
	return Stats{
		HP:             raw.HP + HPOffset,
		Attack:         raw.Attack + OtherOffset,
		Defense:        raw.Defense + OtherOffset,
		SpecialAttack:  raw.SpecialAttack + OtherOffset,
		SpecialDefense: raw.SpecialDefense + OtherOffset,
		Speed:          raw.Speed + OtherOffset,
	}
}

// Multiplier is the rarity factor used by the valuation.
func Multiplier(r Rarity) float64 {
	switch r {
	case EX:
		return 10
	case UltraRare:
		return 5
	case Rare:
		return 2.5
	case Uncommon:
		return 1.5
	default:
		return 1
	}
}

// Worth values a stat line: round(sum/10 * multiplier), never below 1.
func Worth(s Stats, r Rarity) int {
	w := int(math.Round(float64(s.Sum()) / 10 * Multiplier(r)))
	if w < 1 {
		return 1
	}
	return w
}

// Change is a stat/worth delta produced by a mini-game.
type Change struct {
	Source     string
	StatKey    string
	Delta      int
	WorthDelta int
	Message    string
}

// Apply mutates the record with c. The stat is clamped at zero, worth is
// adjusted incrementally (not recomputed) and clamped at zero, and exactly
// one history entry is appended.
func (r *Record) Apply(c Change, now time.Time) {
	if c.StatKey != "" {
		cur, _ := r.Stats.Get(c.StatKey)
		r.Stats.Set(c.StatKey, max(0, cur+c.Delta))
	}
	r.Worth = max(0, r.Worth+c.WorthDelta)
	r.AppendHistory(now, c.Source+": "+c.Message, c.WorthDelta)
}
