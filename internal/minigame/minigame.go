// Package minigame implements the stat-raising side games. Each game turns
// a creature's rarity and a random source into a Result; applying that
// result to a record is left to creature.Record.Apply.
package minigame

import (
	"math"

	"github.com/xtding233/gachamon/internal/creature"
)

// Result is the outcome of one play.
type Result struct {
	Source     string `json:"source"`
	StatKey    string `json:"stat_key"`
	Delta      int    `json:"delta"`
	WorthDelta int    `json:"worth_delta"`
	Success    bool   `json:"success"`
	Matched    bool   `json:"matched,omitempty"`
	Zone       string `json:"zone,omitempty"`
	ZoneID     string `json:"zone_id,omitempty"`
	Message    string `json:"message"`
}

// Change converts the result for creature.Record.Apply.
func (r Result) Change() creature.Change {
	return creature.Change{
		Source:     r.Source,
		StatKey:    r.StatKey,
		Delta:      r.Delta,
		WorthDelta: r.WorthDelta,
		Message:    r.Message,
	}
}

func round(x float64) int { return int(math.Round(x)) }
