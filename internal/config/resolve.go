package config

import (
	"time"

	"github.com/xtding233/gachamon/internal/creature"
	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/token"
)

// Resolve normalizes a validated RawConfig into Settings.
func Resolve(raw RawConfig) (Settings, error) {
	tiers := make([]gacha.Tier, 0, len(raw.Tiers))
	for _, t := range raw.Tiers {
		r, err := creature.ParseRarity(t.Name)
		if err != nil {
			return Settings{}, err
		}
		var w float64
		if t.Weight != nil {
			w = *t.Weight
		}
		tiers = append(tiers, gacha.Tier{Name: r, Weight: w, Pool: t.Pool})
	}
	table, err := gacha.NewTable(tiers)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{Version: raw.Version, Table: table}
	if e := raw.Economy; e != nil {
		if e.InitialTokens != nil {
			s.InitialTokens = *e.InitialTokens
		}
		if e.Token != nil {
			s.Token = token.Token{Name: e.Token.Name, Bundles: append([]token.Bundle(nil), e.Token.Bundles...)}
			if e.Token.PerPull != nil {
				s.Token.PerPull = *e.Token.PerPull
			}
		}
	}
	if p := raw.Pacing; p != nil {
		if p.TurnDelayMS != nil {
			s.TurnDelay = time.Duration(*p.TurnDelayMS) * time.Millisecond
		}
		if p.TossDelayMS != nil {
			s.TossDelay = time.Duration(*p.TossDelayMS) * time.Millisecond
		}
	}
	if raw.Trade != nil {
		s.TraderPrefixes = append([]string(nil), raw.Trade.TraderPrefixes...)
	}
	return s, nil
}
