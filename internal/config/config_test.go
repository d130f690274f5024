package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xtding233/gachamon/internal/creature"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultSettings(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if s.InitialTokens != 5000 || s.Token.PerPull != 55 {
		t.Fatalf("economy = %d / %d", s.InitialTokens, s.Token.PerPull)
	}
	if s.TurnDelay != 600*time.Millisecond || s.TossDelay != 900*time.Millisecond {
		t.Fatalf("pacing = %v / %v", s.TurnDelay, s.TossDelay)
	}
	if len(s.TraderPrefixes) != 26 || s.TraderPrefixes[0] != "Alpha" {
		t.Fatalf("prefixes = %v", s.TraderPrefixes)
	}

	order := []creature.Rarity{creature.EX, creature.UltraRare, creature.Rare, creature.Uncommon, creature.Common}
	tiers := s.Table.Tiers()
	if len(tiers) != len(order) {
		t.Fatalf("tiers = %d", len(tiers))
	}
	for i, r := range order {
		if tiers[i].Name != r || len(tiers[i].Pool) == 0 {
			t.Fatalf("tier %d = %s (%d species)", i, tiers[i].Name, len(tiers[i].Pool))
		}
	}
	want := map[creature.Rarity]float64{
		creature.EX: 0.003, creature.UltraRare: 0.02, creature.Rare: 0.06,
		creature.Uncommon: 0.1887, creature.Common: 0.7283,
	}
	for r, p := range s.Table.Probabilities() {
		if math.Abs(p-want[r]) > 1e-9 {
			t.Fatalf("%s probability %v, want %v", r, p, want[r])
		}
	}
}

func TestOverrideMerge(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "game.yaml", `
version: "2"
economy:
  token:
    per_pull: 60
tiers:
  - name: Common
    weight: 0.5
    pool: [rattata]
`)
	s, err := NewLoader(p).Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Version != "2" || s.Token.PerPull != 60 || s.Token.Name != "CMC" || s.InitialTokens != 5000 {
		t.Fatalf("merged economy: %+v", s)
	}
	if len(s.Token.Bundles) != 1 {
		t.Fatalf("bundles should survive a partial override: %+v", s.Token.Bundles)
	}
	if pool := s.Table.Pool(creature.Common); len(pool) != 1 || pool[0] != "rattata" {
		t.Fatalf("common pool = %v", pool)
	}
	if len(s.Table.Pool(creature.EX)) < 2 {
		t.Fatal("untouched tiers should keep their default pools")
	}
	if tiers := s.Table.Tiers(); tiers[len(tiers)-1].Weight != 0.5 {
		t.Fatalf("common weight = %v", tiers[len(tiers)-1].Weight)
	}
}

func TestMissingOverrideUsesDefaults(t *testing.T) {
	s, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Token.PerPull != 55 {
		t.Fatalf("per_pull = %d", s.Token.PerPull)
	}
}

func TestValidateRaw(t *testing.T) {
	neg := -1
	zero := 0.0
	cfg := RawConfig{
		Economy: &EconomyConfig{InitialTokens: &neg, Token: &TokenConfig{PerPull: &neg}},
		Tiers: []TierConfig{
			{Name: "Legendary", Weight: &zero},
			{Name: "Common", Weight: &zero},
			{Name: "Common"},
		},
	}
	err := ValidateRaw(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, frag := range []string{
		`"Legendary" is not a rarity`,
		"tiers[1].weight must be > 0",
		"tiers[1].pool must not be empty",
		`tiers[2].name "Common" is duplicated`,
		"economy.initial_tokens must be >= 0",
		"economy.token.per_pull must be >= 0",
	} {
		if !strings.Contains(err.Error(), frag) {
			t.Fatalf("error %q missing %q", err, frag)
		}
	}
	if err := ValidateRaw(RawConfig{}); err == nil {
		t.Fatal("empty config should not validate")
	}
}

func TestCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "game.yaml", "version: a\n")
	l := NewLoader(p)
	first, err := l.LoadMerged()
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "game.yaml", "version: b\n")
	cached, _ := l.LoadMerged()
	if cached.Version != first.Version {
		t.Fatal("cache should hold until invalidated")
	}
	l.Invalidate()
	fresh, _ := l.LoadMerged()
	if fresh.Version != "b" {
		t.Fatalf("version = %q", fresh.Version)
	}
}

func TestLiveReloadKeepsLastGood(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "game.yaml", "economy:\n  token:\n    per_pull: 70\n")
	live, err := NewLive(NewLoader(p))
	if err != nil {
		t.Fatal(err)
	}
	if live.Get().Token.PerPull != 70 {
		t.Fatalf("per_pull = %d", live.Get().Token.PerPull)
	}

	writeFile(t, dir, "game.yaml", "tiers:\n  - name: Common\n    weight: -1\n")
	live.OnChange(p)
	if live.Get().Token.PerPull != 70 {
		t.Fatal("bad reload replaced settings")
	}

	writeFile(t, dir, "game.yaml", "economy:\n  token:\n    per_pull: 80\n")
	if err := live.Reload(); err != nil {
		t.Fatal(err)
	}
	if live.Get().Token.PerPull != 80 {
		t.Fatalf("per_pull = %d", live.Get().Token.PerPull)
	}
}

func TestFileWatcherScan(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "game.yaml", "version: a\n")
	late := filepath.Join(dir, "late.yaml")

	var changed []string
	w := NewFileWatcher([]string{p, late}, time.Hour, func(path string) { changed = append(changed, path) })
	w.Scan(true)
	w.Scan(false)
	if len(changed) != 0 {
		t.Fatalf("unchanged files reported: %v", changed)
	}

	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(p, future, future); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "late.yaml", "version: b\n")
	w.Scan(false)
	if len(changed) != 2 || changed[0] != p || changed[1] != late {
		t.Fatalf("changed = %v", changed)
	}
}
