package species

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Entry is one species in a fixture file, moves included.
type Entry struct {
	Species `yaml:",inline"`
	Moves   []Move `yaml:"moves"`
}

type fixture struct {
	Species []Entry `yaml:"species"`
}

// Static serves species from memory. It backs offline mode and tests.
type Static struct {
	mu     sync.RWMutex
	byName map[string]Entry
	byID   map[int]string
}

// NewStatic indexes the given entries by lowercase name and id.
func NewStatic(entries ...Entry) *Static {
	s := &Static{byName: make(map[string]Entry), byID: make(map[int]string)}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// LoadStatic reads a YAML fixture of the form `species: [ ... ]`.
func LoadStatic(path string) (*Static, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read species fixture: %w", err)
	}
	return ParseStatic(b)
}

// ParseStatic decodes a YAML fixture.
func ParseStatic(b []byte) (*Static, error) {
	var f fixture
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode species fixture: %w", err)
	}
	return NewStatic(f.Species...), nil
}

// Add inserts or replaces an entry.
func (s *Static) Add(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(e.Name)
	s.byName[key] = e
	if e.ID != 0 {
		s.byID[e.ID] = key
	}
}

func (s *Static) lookup(nameOrID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if id, err := strconv.Atoi(key); err == nil {
		if name, ok := s.byID[id]; ok {
			key = name
		}
	}
	e, ok := s.byName[key]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, nameOrID)
	}
	return e, nil
}

// Species implements Provider.
func (s *Static) Species(_ context.Context, nameOrID string) (Species, error) {
	e, err := s.lookup(nameOrID)
	if err != nil {
		return Species{}, err
	}
	sp := e.Species
	sp.Types = append([]string(nil), sp.Types...)
	return sp, nil
}

// Moves implements Provider.
func (s *Static) Moves(_ context.Context, nameOrID string) ([]Move, error) {
	e, err := s.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	return Usable(e.Moves), nil
}

// Names lists every species name in the fixture.
func (s *Static) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byName))
	for _, e := range s.byName {
		out = append(out, e.Name)
	}
	return out
}

var _ Provider = (*Static)(nil)
