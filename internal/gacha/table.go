package gacha

import (
	"errors"
	"fmt"
	"math"

	"github.com/xtding233/gachamon/internal/creature"
)

var (
	ErrEmptyTable  = errors.New("rarity table has no tiers")
	ErrEmptyPool   = errors.New("empty species pool")
	ErrInvalidTier = errors.New("invalid tier")
)

// Tier is one rarity class with its draw weight and species pool.
// Weights need not sum to 1; they are normalized when the table is built.
type Tier struct {
	Name   creature.Rarity
	Weight float64
	Pool   []string
}

// Table holds tiers in draw order with their cumulative bounds.
type Table struct {
	tiers  []Tier
	bounds []float64
}

// NewTable validates tiers and precomputes the cumulative partition.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, ErrEmptyTable
	}
	weights := make([]float64, len(tiers))
	for i, t := range tiers {
		if !(t.Weight > 0) || math.IsInf(t.Weight, 0) {
			return nil, fmt.Errorf("%w: %s weight must be positive", ErrInvalidTier, t.Name)
		}
		if len(t.Pool) == 0 {
			return nil, fmt.Errorf("%w: tier %s", ErrEmptyPool, t.Name)
		}
		weights[i] = t.Weight
	}
	cp := make([]Tier, len(tiers))
	for i, t := range tiers {
		cp[i] = Tier{Name: t.Name, Weight: t.Weight, Pool: append([]string(nil), t.Pool...)}
	}
	return &Table{tiers: cp, bounds: Cumulative(weights)}, nil
}

// Cumulative normalizes weights against their sum and returns ascending
// bounds capped at 1.0.
func Cumulative(weights []float64) []float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	if total <= 0 {
		return out
	}
	var sum float64
	for i, w := range weights {
		sum += w / total
		out[i] = math.Min(1, sum)
	}
	return out
}

// PickIndex returns the first index whose bound is >= r, or the last index
// when rounding leaves r above every bound. bounds must be non-empty.
func PickIndex(bounds []float64, r float64) int {
	for i, b := range bounds {
		if r <= b {
			return i
		}
	}
	return len(bounds) - 1
}

// PickTier maps r in [0,1) onto a tier.
func (t *Table) PickTier(r float64) Tier {
	return t.tiers[PickIndex(t.bounds, r)]
}

// PickSpecies draws uniformly from the tier's pool.
func (t *Table) PickSpecies(tier Tier, rng RandomSource) (string, error) {
	if len(tier.Pool) == 0 {
		return "", fmt.Errorf("%w: tier %s", ErrEmptyPool, tier.Name)
	}
	return tier.Pool[IntN(rng, len(tier.Pool))], nil
}

// Tier returns the tier with the given rarity.
func (t *Table) Tier(r creature.Rarity) (Tier, bool) {
	for _, tier := range t.tiers {
		if tier.Name == r {
			return tier, true
		}
	}
	return Tier{}, false
}

// Pool returns the species pool for a rarity (nil if the rarity is absent).
func (t *Table) Pool(r creature.Rarity) []string {
	tier, ok := t.Tier(r)
	if !ok {
		return nil
	}
	return tier.Pool
}

// Tiers returns the tiers in draw order.
func (t *Table) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}

// Bounds returns the cumulative bounds aligned with Tiers.
func (t *Table) Bounds() []float64 {
	return append([]float64(nil), t.bounds...)
}

// Probabilities returns each tier's normalized draw probability.
func (t *Table) Probabilities() map[creature.Rarity]float64 {
	out := make(map[creature.Rarity]float64, len(t.tiers))
	prev := 0.0
	for i, tier := range t.tiers {
		out[tier.Name] += t.bounds[i] - prev
		prev = t.bounds[i]
	}
	return out
}
