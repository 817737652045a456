package service

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is how long an identical raw payload is ignored
// after it was last admitted.
const DefaultDebounceWindow = 3 * time.Second

// DebounceGuard remembers the last admitted raw payload for one device.
type DebounceGuard struct {
	mu     sync.Mutex
	window time.Duration
	last   string
	lastAt time.Time
}

func NewDebounceGuard(window time.Duration) *DebounceGuard {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &DebounceGuard{window: window}
}

// Admit reports whether raw should be processed at now. An admitted payload
// becomes the new reference; an ignored one does not extend the window.
func (g *DebounceGuard) Admit(raw string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if raw == g.last && !g.lastAt.IsZero() && now.Sub(g.lastAt) < g.window {
		return false
	}
	g.last = raw
	g.lastAt = now
	return true
}
