// Package species provides read-only creature data: base stats, types,
// sprites and damaging moves.
package species

import (
	"context"
	"errors"

	"github.com/xtding233/gachamon/internal/creature"
)

var (
	ErrNotFound = errors.New("species not found")
	ErrFetch    = errors.New("species data fetch failed")
)

// Damage classes.
const (
	Physical = "physical"
	Special  = "special"
	Status   = "status"
)

// MaxMoves is the battle move-set size.
const MaxMoves = 4

// Species is the raw provider view; Stats carry no offsets.
type Species struct {
	ID     int            `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Sprite string         `json:"sprite" yaml:"sprite"`
	Cry    string         `json:"cry" yaml:"cry"`
	Front  string         `json:"front" yaml:"front"`
	Back   string         `json:"back" yaml:"back"`
	Types  []string       `json:"types" yaml:"types"`
	Stats  creature.Stats `json:"stats" yaml:"stats"`
}

// Move is a damaging move as used in battle.
type Move struct {
	Name  string `json:"name" yaml:"name"`
	Class string `json:"class" yaml:"class"`
	Power int    `json:"power" yaml:"power"`
	Type  string `json:"type" yaml:"type"`
	PP    int    `json:"pp" yaml:"pp"`
}

// Provider looks species up by name or numeric id.
type Provider interface {
	Species(ctx context.Context, nameOrID string) (Species, error)
	// Moves returns every usable damaging move the species can learn.
	Moves(ctx context.Context, nameOrID string) ([]Move, error)
}

// RandomSource matches gacha.RandomSource without importing it.
type RandomSource interface {
	Float64() float64
}

// Usable drops status moves and moves without power.
func Usable(all []Move) []Move {
	out := make([]Move, 0, len(all))
	for _, m := range all {
		if m.Class == Status || m.Power <= 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SampleMoves picks up to n moves uniformly without replacement. When n or
// more moves qualify the result has exactly n entries; otherwise all of them
// are returned in random order.
func SampleMoves(moves []Move, rng RandomSource, n int) []Move {
	pool := append([]Move(nil), moves...)
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]Move, 0, n)
	for len(out) < n {
		i := int(rng.Float64() * float64(len(pool)))
		if i >= len(pool) {
			i = len(pool) - 1
		}
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}
