// Package rate implements the in-process keyed counter store behind the
// engine's admission gate: one fixed window per (caller, route-class) key,
// linearizable per key, with periodic eviction of idle windows.
//
// # Window semantics
//
// Admit performs the whole check-reset-increment sequence under the key's own
// mutex, so concurrent calls for one key can never both slip past the limit
// across a window reset. A rejected request is still charged against the
// window. Different keys never contend beyond the map access itself.
//
// # What this package must NOT do
//
//   - Touch the network: the store is process-local and advisory only.
//   - Return errors: the only outcome is an admit/deny decision with quota
//     metadata.
package rate

import (
	"sync"
	"sync/atomic"
	"time"
)

// Decision is the outcome of one Admit call. ResetAt and RetryAfter let the
// caller emit quota headers and a Retry-After value on rejection.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type window struct {
	mu    sync.Mutex
	start time.Time
	count int
}

// Limiter owns the window map, the retention policy, and the sweep timestamp.
// No package-level state: construct one per process and share it.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*window

	retention     time.Duration
	sweepInterval time.Duration
	lastSweep     atomic.Int64 // unix nanos
}

// New creates a Limiter that evicts windows idle longer than retention,
// checking at most once per sweepInterval.
func New(retention, sweepInterval time.Duration) *Limiter {
	if retention <= 0 {
		retention = time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = retention / 4
	}
	return &Limiter{
		windows:       make(map[string]*window),
		retention:     retention,
		sweepInterval: sweepInterval,
	}
}

// Admit charges one request for key against a limit-per-windowDuration quota
// at time now and reports whether it is admitted.
func (l *Limiter) Admit(key string, limit int, windowDuration time.Duration, now time.Time) Decision {
	w := l.window(key)

	w.mu.Lock()
	if w.start.IsZero() || now.Sub(w.start) >= windowDuration {
		w.start = now
		w.count = 0
	}
	w.count++
	count := w.count
	start := w.start
	w.mu.Unlock()

	l.maybeSweep(now)

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:    count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAt:    start.Add(windowDuration),
		RetryAfter: windowDuration - now.Sub(start),
	}
}

// Size returns the number of live windows. Intended for tests and gauges.
func (l *Limiter) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// Sweep evicts every window idle longer than the retention threshold. Safe to
// run concurrently with Admit calls.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		w.mu.Lock()
		stale := now.Sub(w.start) > l.retention
		w.mu.Unlock()
		if stale {
			// An in-flight Admit holding this window's pointer starts a fresh
			// window whose count is discarded with it; at retention scale that
			// forgets at most one request.
			delete(l.windows, key)
		}
	}
}

func (l *Limiter) window(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[key]; ok {
		return w
	}
	w = &window{}
	l.windows[key] = w
	return w
}

// maybeSweep triggers an asynchronous sweep at most once per sweepInterval.
// The CAS keeps the hot path to a single atomic load in the common case.
func (l *Limiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < l.sweepInterval.Nanoseconds() {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	go l.Sweep(now)
}
