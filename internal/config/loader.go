// Package config loads game tuning from YAML: the embedded defaults merged
// with an optional override file, validated and normalized into Settings.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

const (
	keyDefault = "$default"
	keyMerged  = "merged"
)

// Loader reads the override file and merges default → override.
type Loader struct {
	path string // override file; empty means defaults only

	mu    sync.RWMutex
	cache map[string]RawConfig
}

// NewLoader creates a loader for an optional override file.
func NewLoader(path string) *Loader {
	return &Loader{path: path, cache: make(map[string]RawConfig)}
}

// Path returns the override file path, if any.
func (l *Loader) Path() string { return l.path }

// LoadMerged returns the merged RawConfig (without normalization).
func (l *Loader) LoadMerged() (RawConfig, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[keyMerged]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := parseYAML(defaultYAML)
	if err != nil {
		return RawConfig{}, fmt.Errorf("parse default: %w", err)
	}
	merged := defCfg
	if l.path != "" {
		override, err := readYAML(l.path)
		if err != nil {
			return RawConfig{}, fmt.Errorf("read %s: %w", l.path, err)
		}
		merged = mergeRaw(defCfg, override)
	}

	l.mu.Lock()
	l.cache[keyDefault] = defCfg
	l.cache[keyMerged] = merged
	l.mu.Unlock()
	return merged, nil
}

// Settings loads, validates and resolves the merged config.
func (l *Loader) Settings() (Settings, error) {
	raw, err := l.LoadMerged()
	if err != nil {
		return Settings{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return Settings{}, err
	}
	return Resolve(raw)
}

// Invalidate clears the cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// Default resolves the embedded tuning alone.
func Default() (Settings, error) {
	return NewLoader("").Settings()
}

// readYAML loads a YAML file. Missing files return a zero config, no error.
func readYAML(path string) (RawConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	return parseYAML(b)
}

func parseYAML(b []byte) (RawConfig, error) {
	var cfg RawConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: b overrides a where set. Tiers merge by
// name; bundle and prefix lists are replaced wholesale.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// economy
	switch {
	case out.Economy == nil && b.Economy != nil:
		c := *b.Economy
		out.Economy = &c
	case out.Economy != nil && b.Economy != nil:
		c := *out.Economy
		if b.Economy.InitialTokens != nil {
			c.InitialTokens = b.Economy.InitialTokens
		}
		switch {
		case c.Token == nil && b.Economy.Token != nil:
			t := *b.Economy.Token
			c.Token = &t
		case c.Token != nil && b.Economy.Token != nil:
			t := *c.Token
			if b.Economy.Token.Name != "" {
				t.Name = b.Economy.Token.Name
			}
			if b.Economy.Token.PerPull != nil {
				t.PerPull = b.Economy.Token.PerPull
			}
			if b.Economy.Token.Bundles != nil {
				t.Bundles = append(t.Bundles[:0:0], b.Economy.Token.Bundles...)
			}
			c.Token = &t
		}
		out.Economy = &c
	}

	// pacing
	switch {
	case out.Pacing == nil && b.Pacing != nil:
		c := *b.Pacing
		out.Pacing = &c
	case out.Pacing != nil && b.Pacing != nil:
		c := *out.Pacing
		if b.Pacing.TurnDelayMS != nil {
			c.TurnDelayMS = b.Pacing.TurnDelayMS
		}
		if b.Pacing.TossDelayMS != nil {
			c.TossDelayMS = b.Pacing.TossDelayMS
		}
		out.Pacing = &c
	}

	// trade
	if b.Trade != nil && len(b.Trade.TraderPrefixes) > 0 {
		out.Trade = &TradeConfig{TraderPrefixes: append([]string(nil), b.Trade.TraderPrefixes...)}
	}

	// tiers
	if len(b.Tiers) > 0 {
		tiers := make([]TierConfig, len(a.Tiers))
		copy(tiers, a.Tiers)
		for _, bt := range b.Tiers {
			i := indexTier(tiers, bt.Name)
			if i < 0 {
				tiers = append(tiers, bt)
				continue
			}
			if bt.Weight != nil {
				tiers[i].Weight = bt.Weight
			}
			if len(bt.Pool) > 0 {
				tiers[i].Pool = append([]string(nil), bt.Pool...)
			}
		}
		out.Tiers = tiers
	}

	return out
}

func indexTier(tiers []TierConfig, name string) int {
	for i, t := range tiers {
		if t.Name == name {
			return i
		}
	}
	return -1
}
