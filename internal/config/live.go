package config

import (
	"log"
	"sync/atomic"
)

// Live holds the current Settings and swaps them on reload. A failed reload
// keeps the previous Settings.
type Live struct {
	loader  *Loader
	current atomic.Pointer[Settings]
}

// NewLive loads the initial Settings.
func NewLive(loader *Loader) (*Live, error) {
	s, err := loader.Settings()
	if err != nil {
		return nil, err
	}
	l := &Live{loader: loader}
	l.current.Store(&s)
	return l, nil
}

// Get returns the current Settings.
func (l *Live) Get() Settings { return *l.current.Load() }

// Reload re-reads the override file.
func (l *Live) Reload() error {
	l.loader.Invalidate()
	s, err := l.loader.Settings()
	if err != nil {
		return err
	}
	l.current.Store(&s)
	return nil
}

// OnChange is a FileWatcher callback.
func (l *Live) OnChange(path string) {
	if err := l.Reload(); err != nil {
		log.Printf("config reload %s: %v (keeping version %s)", path, err, l.Get().Version)
		return
	}
	log.Printf("config reloaded from %s (version %s)", path, l.Get().Version)
}
