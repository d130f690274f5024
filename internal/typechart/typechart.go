// Package typechart holds the read-only elemental damage relations.
package typechart

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed types.yaml
var defaultChart []byte

// Relation lists the defending types an attacking type is strong, weak or
// useless against.
type Relation struct {
	DoubleDamageTo []string `yaml:"double_damage_to" json:"double_damage_to"`
	HalfDamageTo   []string `yaml:"half_damage_to" json:"half_damage_to"`
	NoDamageTo     []string `yaml:"no_damage_to" json:"no_damage_to"`
}

// Chart maps attacking type to its relation. Safe for concurrent reads.
type Chart struct {
	rel map[string]Relation
}

// Default returns the built-in chart.
func Default() *Chart {
	c, err := Parse(defaultChart)
	if err != nil {
		panic("typechart: embedded chart is invalid: " + err.Error())
	}
	return c
}

// Load reads a chart from a YAML file.
func Load(path string) (*Chart, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read type chart: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML chart.
func Parse(b []byte) (*Chart, error) {
	rel := make(map[string]Relation)
	if err := yaml.Unmarshal(b, &rel); err != nil {
		return nil, fmt.Errorf("decode type chart: %w", err)
	}
	if len(rel) == 0 {
		return nil, fmt.Errorf("decode type chart: no types")
	}
	return &Chart{rel: rel}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Effectiveness multiplies 2, 0.5 or 0 per defending type. An attacking type
// missing from the chart is neutral.
func (c *Chart) Effectiveness(moveType string, defender []string) float64 {
	rel, ok := c.rel[moveType]
	if !ok {
		return 1
	}
	mult := 1.0
	for _, t := range defender {
		if contains(rel.DoubleDamageTo, t) {
			mult *= 2
		}
		if contains(rel.HalfDamageTo, t) {
			mult *= 0.5
		}
		if contains(rel.NoDamageTo, t) {
			mult *= 0
		}
	}
	return mult
}

// Relation returns the entry for an attacking type.
func (c *Chart) Relation(moveType string) (Relation, bool) {
	r, ok := c.rel[moveType]
	return r, ok
}

// Types lists the attacking types in the chart, sorted.
func (c *Chart) Types() []string {
	out := make([]string, 0, len(c.rel))
	for t := range c.rel {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
