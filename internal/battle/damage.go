package battle

import (
	"math"

	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/species"
)

// Level is fixed; there are no individual or effort values.
const Level = 50

const (
	critChance     = 1.0 / 16
	critMultiplier = 1.5
	stabMultiplier = 1.5
)

// Chart answers type-effectiveness queries.
type Chart interface {
	Effectiveness(moveType string, defender []string) float64
}

// Hit is one computed attack with its modifiers.
type Hit struct {
	Move          species.Move `json:"move"`
	Damage        int          `json:"damage"`
	Critical      bool         `json:"critical"`
	Random        float64      `json:"random"`
	STAB          float64      `json:"stab"`
	Effectiveness float64      `json:"effectiveness"`
}

// Modifiers are the random and situational factors of the damage formula.
type Modifiers struct {
	Critical      float64
	Random        float64
	STAB          float64
	Effectiveness float64
}

// Formula is the level-50 damage equation. A non-positive defense is
// treated as 1.
func Formula(power, attack, defense int, m Modifiers) int {
	if defense <= 0 {
		defense = 1
	}
	base := float64(2*Level/5+2)*float64(power)*(float64(attack)/float64(defense))/50 + 2
	return int(math.Floor(base * m.Critical * m.Random * m.STAB * m.Effectiveness))
}

// Damage rolls crit then the 85..100 random factor and applies the formula.
func Damage(move species.Move, attacker, defender *Participant, chart Chart, rng gacha.RandomSource) Hit {
	crit := rng.Float64() < critChance
	m := Modifiers{
		Critical:      1,
		Random:        float64(gacha.IntRange(rng, 85, 100)) / 100,
		STAB:          1,
		Effectiveness: 1,
	}
	if crit {
		m.Critical = critMultiplier
	}
	if attacker.HasType(move.Type) {
		m.STAB = stabMultiplier
	}
	if chart != nil {
		m.Effectiveness = chart.Effectiveness(move.Type, defender.Types)
	}

	atk, def := attacker.Stats.Attack, defender.Stats.Defense
	if move.Class != species.Physical {
		atk, def = attacker.Stats.SpecialAttack, defender.Stats.SpecialDefense
	}
	return Hit{
		Move:          move,
		Damage:        Formula(move.Power, atk, def, m),
		Critical:      crit,
		Random:        m.Random,
		STAB:          m.STAB,
		Effectiveness: m.Effectiveness,
	}
}
