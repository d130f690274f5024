package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// serverEnv is the process configuration. Game rules live in the YAML
// override file named by ConfigPath.
type serverEnv struct {
	HTTPAddr      string        `env:"GACHAMON_HTTP_ADDR"      envDefault:":8080"`
	GRPCAddr      string        `env:"GACHAMON_GRPC_ADDR"      envDefault:":9090"`
	ConfigPath    string        `env:"GACHAMON_CONFIG"`
	WatchInterval time.Duration `env:"GACHAMON_CONFIG_WATCH"   envDefault:"2s"`
	Species       string        `env:"GACHAMON_SPECIES"        envDefault:"pokeapi"`
	PokeAPIURL    string        `env:"GACHAMON_POKEAPI_URL"`
	Store         string        `env:"GACHAMON_STORE"          envDefault:"memory"`
	RedisAddr     string        `env:"GACHAMON_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string        `env:"GACHAMON_REDIS_PASSWORD"`
	RedisDB       int           `env:"GACHAMON_REDIS_DB"       envDefault:"0"`
	RedisPrefix   string        `env:"GACHAMON_REDIS_PREFIX"   envDefault:"gachamon:"`
}

func loadEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := env.Parse(&cfg); err != nil {
		return serverEnv{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Species {
	case "pokeapi", "fixture":
	default:
		return serverEnv{}, fmt.Errorf("GACHAMON_SPECIES must be pokeapi or fixture, got %q", cfg.Species)
	}
	switch cfg.Store {
	case "memory", "redis":
	default:
		return serverEnv{}, fmt.Errorf("GACHAMON_STORE must be memory or redis, got %q", cfg.Store)
	}
	if cfg.WatchInterval <= 0 {
		return serverEnv{}, fmt.Errorf("GACHAMON_CONFIG_WATCH must be positive")
	}
	return cfg, nil
}
