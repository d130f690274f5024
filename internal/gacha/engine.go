package gacha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/species"
)

var ErrDataFetch = errors.New("species data unavailable")

// Engine turns a paid pull into a new creature. Cost handling is the
// caller's concern; the engine only generates the reward.
type Engine struct {
	Table    *Table
	Provider species.Provider
	RNG      RandomSource
	Now      func() time.Time
	NewID    func() string
}

// NewEngine wires an engine with the default RNG, wall clock and UUIDs.
func NewEngine(table *Table, provider species.Provider, rng RandomSource) *Engine {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Engine{
		Table:    table,
		Provider: provider,
		RNG:      rng,
		Now:      time.Now,
		NewID:    func() string { return uuid.NewString() },
	}
}

// Pull draws a tier, then a species from that tier, and instantiates it.
// A provider failure aborts the pull with ErrDataFetch and no side effects.
func (e *Engine) Pull(ctx context.Context) (creature.Record, error) {
	tier := e.Table.PickTier(e.RNG.Float64())
	name, err := e.Table.PickSpecies(tier, e.RNG)
	if err != nil {
		return creature.Record{}, err
	}
	return e.PullFrom(ctx, tier.Name, name)
}

// PullFrom instantiates a known species at a known rarity.
func (e *Engine) PullFrom(ctx context.Context, rarity creature.Rarity, name string) (creature.Record, error) {
	rec, err := e.Instantiate(ctx, rarity, name)
	if err != nil {
		return creature.Record{}, err
	}
	rec.AppendHistory(time.UnixMilli(rec.AcquiredAt), fmt.Sprintf("Pulled (%s)", rarity), 0)
	return rec, nil
}

// Instantiate fetches species data and builds a record without history.
// Trade offers reuse it with their own history line.
func (e *Engine) Instantiate(ctx context.Context, rarity creature.Rarity, name string) (creature.Record, error) {
	sp, err := e.Provider.Species(ctx, name)
	if err != nil {
		return creature.Record{}, fmt.Errorf("%w: %s: %v", ErrDataFetch, name, err)
	}
	stats := creature.Boost(sp.Stats)
	return creature.Record{
		UID:        e.NewID(),
		AcquiredAt: e.Now().UnixMilli(),
		Name:       sp.Name,
		SpeciesID:  sp.ID,
		Sprite:     sp.Sprite,
		Cry:        sp.Cry,
		Types:      append([]string(nil), sp.Types...),
		BaseStats:  stats,
		Stats:      stats,
		Rarity:     rarity,
		Worth:      creature.Worth(stats, rarity),
	}, nil
}
