package minigame

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
)

const TossSource = "ElementalLuckToss"

// Zone is a landing area; each prefers one or two stats.
type Zone struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Prefers []string `json:"prefers"`
}

var Zones = []Zone{
	{"fire", "Fire", []string{creature.Attack, creature.SpecialAttack}},
	{"water", "Water", []string{creature.SpecialAttack, creature.Defense}},
	{"electric", "Electric", []string{creature.Speed, creature.Attack}},
	{"psychic", "Psychic", []string{creature.SpecialAttack, creature.SpecialDefense}},
	{"ice", "Ice", []string{creature.Defense, creature.Speed}},
	{"grass", "Grass", []string{creature.HP, creature.SpecialAttack}},
}

const (
	zoneBaseWeight  = 1
	zoneTypeBoost   = 4
	unmatchedFactor = 0.6
	extraBonus      = 0.5
)

// TossConfig tunes one rarity.
type TossConfig struct {
	MatchMult   float64 `json:"match_mult"`
	BaseMin     int     `json:"base_min"`
	BaseMax     int     `json:"base_max"`
	WorthMult   float64 `json:"worth_mult"`
	ExtraChance float64 `json:"extra_chance"`
}

// TossConfigFor returns the tuning row for a rarity.
func TossConfigFor(r creature.Rarity) TossConfig {
	switch r {
	case creature.EX:
		return TossConfig{MatchMult: 6, BaseMin: 6, BaseMax: 12, WorthMult: 5, ExtraChance: 0.15}
	case creature.UltraRare:
		return TossConfig{MatchMult: 4, BaseMin: 4, BaseMax: 9, WorthMult: 3, ExtraChance: 0.12}
	case creature.Rare:
		return TossConfig{MatchMult: 3, BaseMin: 3, BaseMax: 6, WorthMult: 2, ExtraChance: 0.1}
	case creature.Uncommon:
		return TossConfig{MatchMult: 1.8, BaseMin: 2, BaseMax: 4, WorthMult: 1.5, ExtraChance: 0.07}
	default:
		return TossConfig{MatchMult: 1.2, BaseMin: 1, BaseMax: 3, WorthMult: 1, ExtraChance: 0.05}
	}
}

// ZoneWeights gives each zone weight 1, plus 4 when the creature has the
// zone's type. The slice is aligned with Zones.
func ZoneWeights(types []string) []float64 {
	out := make([]float64, len(Zones))
	for i, z := range Zones {
		out[i] = zoneBaseWeight
		for _, t := range types {
			if t == z.ID {
				out[i] += zoneTypeBoost
				break
			}
		}
	}
	return out
}

// Toss is the elemental toss game bound to one creature.
type Toss struct {
	// Delay paces the toss animation; overlapping tosses are rejected.
	Delay time.Duration

	busy   atomic.Bool
	types  []string
	cfg    TossConfig
	bounds []float64
	rng    gacha.RandomSource
}

// NewToss prepares a toss for a creature's rarity and types.
func NewToss(r creature.Rarity, types []string, rng gacha.RandomSource) *Toss {
	if rng == nil {
		rng = gacha.DefaultRNG()
	}
	return &Toss{
		types:  append([]string(nil), types...),
		cfg:    TossConfigFor(r),
		bounds: gacha.Cumulative(ZoneWeights(types)),
		rng:    rng,
	}
}

// Weights exposes the per-zone weights, keyed by zone id.
func (t *Toss) Weights() map[string]float64 {
	w := ZoneWeights(t.types)
	out := make(map[string]float64, len(Zones))
	for i, z := range Zones {
		out[z.ID] = w[i]
	}
	return out
}

// Toss picks a zone with the shared cumulative algorithm and computes the
// reward. A matched zone scales the base delta by the rarity's match
// multiplier (min 1); otherwise by 0.6 (min 0). A separate roll may add a
// 50% bonus, rounded up. It returns false if a toss is already in flight.
func (t *Toss) Toss() (Result, bool) {
	if !t.busy.CompareAndSwap(false, true) {
		return Result{}, false
	}
	defer t.busy.Store(false)

	zone := Zones[gacha.PickIndex(t.bounds, t.rng.Float64())]
	matched := false
	for _, ty := range t.types {
		if ty == zone.ID {
			matched = true
			break
		}
	}
	stat := zone.Prefers[gacha.IntN(t.rng, len(zone.Prefers))]
	base := gacha.IntRange(t.rng, t.cfg.BaseMin, t.cfg.BaseMax)

	var delta int
	if matched {
		delta = max(1, round(float64(base)*t.cfg.MatchMult))
	} else {
		delta = max(0, round(float64(base)*unmatchedFactor))
	}
	if extra, _ := gacha.Draw(t.cfg.ExtraChance, t.rng); extra {
		delta += int(math.Ceil(float64(delta) * extraBonus))
	}
	worth := max(0, round(float64(delta)*t.cfg.WorthMult))

	if t.Delay > 0 {
		time.Sleep(t.Delay)
	}

	msg := fmt.Sprintf("Toss landed in %s, minor gain. %s +%d (worth +%d)", zone.Label, stat, delta, worth)
	if matched {
		msg = fmt.Sprintf("Toss landed in %s, matched type! %s +%d (worth +%d)", zone.Label, stat, delta, worth)
	}
	return Result{
		Source:     TossSource,
		StatKey:    stat,
		Delta:      delta,
		WorthDelta: worth,
		Success:    delta > 0,
		Matched:    matched,
		Zone:       zone.Label,
		ZoneID:     zone.ID,
		Message:    msg,
	}, true
}
