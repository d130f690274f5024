package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/xtding233/gachamon/internal/store"
)

// Manager hands out one Session per wallet address, opening it from the
// store on first use.
type Manager struct {
	deps Deps

	opening singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps.withDefaults(), sessions: make(map[string]*Session)}
}

func (m *Manager) lookup(key string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// Get returns the address's session, opening it if needed. Store reads run
// without holding the manager lock; concurrent first calls for one address
// share a single Open.
func (m *Manager) Get(ctx context.Context, addr string) (*Session, error) {
	key, err := store.NormalizeAddress(addr)
	if err != nil {
		return nil, err
	}
	if s, ok := m.lookup(key); ok {
		return s, nil
	}
	v, err, _ := m.opening.Do(key, func() (any, error) {
		if s, ok := m.lookup(key); ok {
			return s, nil
		}
		s, err := Open(ctx, key, m.deps)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.sessions[key] = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Drop forgets a session; the next Get reloads it from the store.
func (m *Manager) Drop(addr string) {
	key, err := store.NormalizeAddress(addr)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
