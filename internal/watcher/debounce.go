package watcher

import (
	"sync"
	"time"
)

// cleanupEvery bounds the debounce map: every N emissions, entries older
// than cleanupAge are dropped.
const (
	cleanupEvery = 100
	cleanupAge   = time.Minute
)

// debouncer rate-limits repeated events per key: the first event for a key
// passes, later ones are suppressed until delay has elapsed. Empty keys are
// never tracked and always pass.
type debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	last  map[string]time.Time
	calls int
}

func newDebouncer(delay time.Duration) *debouncer {
	if delay <= 0 {
		delay = defaultDebounceDelay
	}
	return &debouncer{
		delay: delay,
		last:  make(map[string]time.Time),
	}
}

// ShouldEmit reports whether an event for key should pass right now, and
// records the emission when it does. Nil debouncers pass everything.
func (d *debouncer) ShouldEmit(key string) bool {
	if d == nil || key == "" {
		return true
	}
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.calls >= cleanupEvery {
		d.calls = 0
		d.cleanupLocked(now)
	}

	if last, ok := d.last[key]; ok && now.Sub(last) < d.delay {
		return false
	}
	d.last[key] = now
	return true
}

func (d *debouncer) cleanupLocked(now time.Time) {
	for key, last := range d.last {
		if now.Sub(last) > cleanupAge {
			delete(d.last, key)
		}
	}
}
