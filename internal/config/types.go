package config

import (
	"time"

	"github.com/xtding233/gachamon/internal/gacha"
	"github.com/xtding233/gachamon/internal/token"
)

// RawConfig is the YAML schema. Pointer fields distinguish "unset" from
// zero so an override file only replaces what it names.
type RawConfig struct {
	Version string         `yaml:"version"`
	Notes   string         `yaml:"notes,omitempty"`
	Economy *EconomyConfig `yaml:"economy,omitempty"`
	Pacing  *PacingConfig  `yaml:"pacing,omitempty"`
	Trade   *TradeConfig   `yaml:"trade,omitempty"`
	Tiers   []TierConfig   `yaml:"tiers,omitempty"`
}

type EconomyConfig struct {
	InitialTokens *int         `yaml:"initial_tokens"`
	Token         *TokenConfig `yaml:"token,omitempty"`
}

type TokenConfig struct {
	Name    string         `yaml:"name,omitempty"`
	PerPull *int           `yaml:"per_pull"`
	Bundles []token.Bundle `yaml:"bundles,omitempty"`
}

type PacingConfig struct {
	TurnDelayMS *int `yaml:"turn_delay_ms"`
	TossDelayMS *int `yaml:"toss_delay_ms"`
}

type TradeConfig struct {
	TraderPrefixes []string `yaml:"trader_prefixes"`
}

// TierConfig is one rarity row. In an override file a tier with a known
// name patches the default row; Weight and Pool are replaced only if set.
type TierConfig struct {
	Name   string   `yaml:"name"`
	Weight *float64 `yaml:"weight"`
	Pool   []string `yaml:"pool,omitempty"`
}

// Settings is the normalized, validated form consumed by the game.
type Settings struct {
	Version        string
	Table          *gacha.Table
	Token          token.Token
	InitialTokens  int
	TurnDelay      time.Duration
	TossDelay      time.Duration
	TraderPrefixes []string
}
