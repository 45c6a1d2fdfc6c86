// Package ratelimit is fixed-window per-user admission control. State
// is process-local; it guards a single instance, not a fleet.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter admits up to maxRequests per user per window.
type Limiter struct {
	mu          sync.Mutex
	windows     map[string]*window
	windowLen   time.Duration
	maxRequests int
	now         func() time.Time
}

func New(windowLen time.Duration, maxRequests int) *Limiter {
	if windowLen <= 0 {
		windowLen = 60 * time.Second
	}
	if maxRequests <= 0 {
		maxRequests = 30
	}
	return &Limiter{
		windows:     make(map[string]*window),
		windowLen:   windowLen,
		maxRequests: maxRequests,
		now:         time.Now,
	}
}

// Allow performs an atomic increment-if-under-limit for the user's
// current window, opening a fresh window on first use or after expiry.
func (l *Limiter) Allow(userID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[userID]
	if !ok || !now.Before(w.resetAt) {
		l.sweep(now)
		w = &window{count: 0, resetAt: now.Add(l.windowLen)}
		l.windows[userID] = w
	}

	if w.count >= l.maxRequests {
		return Decision{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Decision{
		Allowed:   true,
		Remaining: l.maxRequests - w.count,
		ResetAt:   w.resetAt,
	}
}

// sweep drops expired windows so the map stays bounded by the set of
// users active within one window length. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	for userID, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, userID)
		}
	}
}
