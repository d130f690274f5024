package main

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg, err := loadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != ":9090" || cfg.Store != "memory" || cfg.Species != "pokeapi" {
		t.Fatalf("defaults %+v", cfg)
	}
	if cfg.WatchInterval != 2*time.Second || cfg.RedisPrefix != "gachamon:" {
		t.Fatalf("defaults %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GACHAMON_STORE", "redis")
	t.Setenv("GACHAMON_REDIS_DB", "3")
	t.Setenv("GACHAMON_SPECIES", "fixture")
	t.Setenv("GACHAMON_CONFIG", "configs/offline.yaml")
	cfg, err := loadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != "redis" || cfg.RedisDB != 3 || cfg.Species != "fixture" || cfg.ConfigPath != "configs/offline.yaml" {
		t.Fatalf("overrides %+v", cfg)
	}
	if _, ok := provider(cfg).(interface{ Names() []string }); !ok {
		t.Fatal("fixture provider expected")
	}
}

func TestLoadEnvRejects(t *testing.T) {
	for key, val := range map[string]string{
		"GACHAMON_STORE":        "postgres",
		"GACHAMON_SPECIES":      "csv",
		"GACHAMON_CONFIG_WATCH": "0s",
		"GACHAMON_REDIS_DB":     "x",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := loadEnv(); err == nil {
				t.Fatalf("%s=%s accepted", key, val)
			}
		})
	}
}
