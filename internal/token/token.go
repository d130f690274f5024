package token

import (
	"math"
	"sort"
)

// Token defines how many tokens a pull costs. Bundles are optional
// multi-pull discounts.
type Token struct {
	Name    string   `yaml:"name" json:"name"`         // e.g. "CMC"
	PerPull int      `yaml:"per_pull" json:"per_pull"` // tokens per single pull
	Bundles []Bundle `yaml:"bundles" json:"bundles,omitempty"`
}

// Bundle sells Pulls pulls for Cost tokens.
type Bundle struct {
	Pulls int `yaml:"pulls" json:"pulls"`
	Cost  int `yaml:"cost" json:"cost"`
}

// Line is one item of a quote.
type Line struct {
	Pulls int `json:"pulls"` // pulls per unit; 1 for single pulls
	Qty   int `json:"qty"`
	Cost  int `json:"cost"` // per unit
}

// Quote is the cheapest way to buy Pulls pulls.
type Quote struct {
	Pulls int    `json:"pulls"`
	Cost  int    `json:"cost"`
	Lines []Line `json:"lines,omitempty"`
}

// maxQuotePulls caps the table built by MaxPulls.
const maxQuotePulls = 100_000

func (t Token) units() []Bundle {
	units := []Bundle{{Pulls: 1, Cost: t.PerPull}}
	for _, b := range t.Bundles {
		if b.Pulls > 0 && b.Cost >= 0 {
			units = append(units, b)
		}
	}
	return units
}

// TokensForPulls returns the cheapest cost of exactly n pulls.
func (t Token) TokensForPulls(n int) int {
	return t.Quote(n).Cost
}

// Quote returns the minimum-cost combination of singles and bundles that
// yields exactly n pulls.
func (t Token) Quote(n int) Quote {
	if n <= 0 {
		return Quote{}
	}
	if t.PerPull <= 0 {
		return Quote{Pulls: n, Lines: []Line{{Pulls: 1, Qty: n}}}
	}
	dp, choice := t.table(n)
	return t.rebuild(n, dp, choice)
}

// MaxPulls returns the largest number of pulls affordable with budget.
func (t Token) MaxPulls(budget int) Quote {
	if budget <= 0 || t.PerPull <= 0 {
		return Quote{}
	}
	units := t.units()
	rate := math.Inf(1)
	for _, u := range units {
		if u.Cost <= 0 {
			continue
		}
		rate = math.Min(rate, float64(u.Cost)/float64(u.Pulls))
	}
	upper := min(maxQuotePulls, int(float64(budget)/rate)+1)
	dp, choice := t.table(upper)
	best := 0
	for k := 1; k <= upper; k++ {
		if dp[k] <= budget {
			best = k
		}
	}
	return t.rebuild(best, dp, choice)
}

// table is an unbounded knapsack: dp[k] is the min cost of exactly k pulls.
func (t Token) table(n int) (dp, choice []int) {
	const inf = math.MaxInt
	units := t.units()
	dp = make([]int, n+1)
	choice = make([]int, n+1)
	for k := 1; k <= n; k++ {
		dp[k], choice[k] = inf, -1
		for i, u := range units {
			if u.Pulls > k || dp[k-u.Pulls] == inf {
				continue
			}
			if c := dp[k-u.Pulls] + u.Cost; c < dp[k] {
				dp[k], choice[k] = c, i
			}
		}
	}
	return dp, choice
}

func (t Token) rebuild(n int, dp, choice []int) Quote {
	if n <= 0 {
		return Quote{}
	}
	units := t.units()
	counts := map[int]int{}
	for k := n; k > 0 && choice[k] >= 0; k -= units[choice[k]].Pulls {
		counts[choice[k]]++
	}
	q := Quote{Pulls: n, Cost: dp[n]}
	for i, qty := range counts {
		q.Lines = append(q.Lines, Line{Pulls: units[i].Pulls, Qty: qty, Cost: units[i].Cost})
	}
	sort.Slice(q.Lines, func(a, b int) bool { return q.Lines[a].Pulls > q.Lines[b].Pulls })
	return q
}
