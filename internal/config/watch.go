package config

import (
	"context"
	"os"
	"sync"
	"time"
)

// FileWatcher polls file modification times and triggers a callback on change.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration

	onChange func(string) // called with the path that changed

	mu        sync.Mutex
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run primes the mtimes and polls until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.Scan(true)
	for {
		select {
		case <-ticker.C:
			w.Scan(false)
		case <-ctx.Done():
			return
		}
	}
}

// Scan checks mtimes and invokes onChange for files that changed since the
// last scan. A file seen for the first time only primes its mtime; a file
// that appears after priming counts as changed.
func (w *FileWatcher) Scan(prime bool) {
	var changed []string
	w.mu.Lock()
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			changed = append(changed, p)
		}
	}
	w.mu.Unlock()

	if w.onChange == nil {
		return
	}
	for _, p := range changed {
		w.onChange(p)
	}
}
