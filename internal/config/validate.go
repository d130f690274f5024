package config

import (
	"fmt"
	"strings"

	"github.com/xtding233/gachamon/internal/creature"
)

// ValidateRaw checks semantic constraints of a RawConfig.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// tiers
	if len(cfg.Tiers) == 0 {
		errs = append(errs, "tiers must not be empty")
	}
	seen := make(map[creature.Rarity]bool)
	for i, t := range cfg.Tiers {
		r, err := creature.ParseRarity(t.Name)
		if err != nil {
			errs = append(errs, fmt.Sprintf("tiers[%d].name %q is not a rarity", i, t.Name))
			continue
		}
		if seen[r] {
			errs = append(errs, fmt.Sprintf("tiers[%d].name %q is duplicated", i, t.Name))
		}
		seen[r] = true
		if t.Weight == nil || !(*t.Weight > 0) {
			errs = append(errs, fmt.Sprintf("tiers[%d].weight must be > 0", i))
		}
		if len(t.Pool) == 0 {
			errs = append(errs, fmt.Sprintf("tiers[%d].pool must not be empty", i))
		}
		for j, name := range t.Pool {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Sprintf("tiers[%d].pool[%d] is blank", i, j))
			}
		}
	}

	// economy
	if cfg.Economy != nil {
		if cfg.Economy.InitialTokens != nil && *cfg.Economy.InitialTokens < 0 {
			errs = append(errs, "economy.initial_tokens must be >= 0")
		}
		if tok := cfg.Economy.Token; tok != nil {
			if tok.PerPull != nil && *tok.PerPull < 0 {
				errs = append(errs, "economy.token.per_pull must be >= 0")
			}
			for i, b := range tok.Bundles {
				if b.Pulls <= 1 {
					errs = append(errs, fmt.Sprintf("economy.token.bundles[%d].pulls must be > 1", i))
				}
				if b.Cost < 0 {
					errs = append(errs, fmt.Sprintf("economy.token.bundles[%d].cost must be >= 0", i))
				}
			}
		}
	}

	// pacing
	if cfg.Pacing != nil {
		if cfg.Pacing.TurnDelayMS != nil && *cfg.Pacing.TurnDelayMS < 0 {
			errs = append(errs, "pacing.turn_delay_ms must be >= 0")
		}
		if cfg.Pacing.TossDelayMS != nil && *cfg.Pacing.TossDelayMS < 0 {
			errs = append(errs, "pacing.toss_delay_ms must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
