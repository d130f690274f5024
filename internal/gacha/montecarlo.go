package gacha

import (
	"math"
	"sort"

	"github.com/xtding233/gachamon/internal/creature"
)

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64
	Var    float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// RateReport compares configured and observed tier rates.
type RateReport struct {
	Trials   int                         `json:"trials"`
	Expected map[creature.Rarity]float64 `json:"expected"`
	Observed map[creature.Rarity]float64 `json:"observed"`
	// DrawsToTop measures pulls until the first top-tier hit, per trial.
	// Only DrawsToTopTrials trials fit in the draw budget.
	DrawsToTop       Stats `json:"draws_to_top"`
	DrawsToTopTrials int   `json:"draws_to_top_trials"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	// mean
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)
	stddev := math.Sqrt(variance)

	// percentiles
	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  stddev,
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// MaxSimulationDraws caps the tier draws a single Simulate call makes for
// the draws-to-top statistics, however rare the top tier is.
const MaxSimulationDraws = 5_000_000

// Simulate runs tier draws only (no species fetch) and reports observed
// frequencies plus draws-until-top-tier statistics. The top tier is the
// rarest configured rarity.
func Simulate(t *Table, trials int, rng RandomSource) RateReport {
	rep := RateReport{
		Trials:   trials,
		Expected: t.Probabilities(),
		Observed: make(map[creature.Rarity]float64),
	}
	if trials <= 0 {
		return rep
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	top := t.tiers[0].Name
	for _, tier := range t.tiers {
		if tier.Name.Rank() > top.Rank() {
			top = tier.Name
		}
	}

	counts := make(map[creature.Rarity]int)
	for i := 0; i < trials; i++ {
		counts[t.PickTier(rng.Float64()).Name]++
	}
	for r, c := range counts {
		rep.Observed[r] = float64(c) / float64(trials)
	}

	samples := make([]int, 0, trials)
	budget := MaxSimulationDraws
	for i := 0; i < trials && budget > 0; i++ {
		draws, hit := 0, false
		for !hit && draws < budget {
			draws++
			hit = t.PickTier(rng.Float64()).Name == top
		}
		budget -= draws
		if hit {
			samples = append(samples, draws)
		}
	}
	rep.DrawsToTopTrials = len(samples)
	rep.DrawsToTop = calcStats(samples)
	return rep
}
