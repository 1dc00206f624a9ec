// Package ratelimit implements the sliding-window admission policy that
// gates every outbound Unsplash API call.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxRequests mirrors the Unsplash demo-tier hourly quota.
	DefaultMaxRequests = 50
	// DefaultWindow is the trailing window the quota applies to.
	DefaultWindow = time.Hour
)

// Limiter tracks request timestamps inside a trailing window and answers
// whether another request may be issued. Expired entries are purged lazily
// on every query; there is no background timer.
//
// All methods are safe for concurrent use. Admit is the only way to consume
// a slot: check and record happen under one lock so two concurrent callers
// can never both claim the last remaining slot.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time // chronological, oldest first

	now func() time.Time
}

// New returns a Limiter allowing max requests per window. Non-positive
// arguments fall back to the defaults.
func New(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// purgeLocked drops entries that have aged past the window boundary.
// Callers must hold l.mu.
func (l *Limiter) purgeLocked(now time.Time) {
	i := 0
	for i < len(l.stamps) && now.Sub(l.stamps[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// Admit performs the atomic admission transaction: if a slot is free it is
// consumed immediately and ok is true. On refusal, remaining is 0 and eta
// reports how long until the oldest recorded request ages out.
//
// The slot is consumed at admission time, before the network call is made,
// so the quota accounts for every attempt regardless of its outcome.
func (l *Limiter) Admit() (ok bool, remaining int, eta time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purgeLocked(now)

	if len(l.stamps) >= l.max {
		return false, 0, l.etaLocked(now)
	}
	l.stamps = append(l.stamps, now)
	return true, l.max - len(l.stamps), 0
}

// CanRequest reports whether a request would currently be admitted. It does
// not consume a slot; use Admit for the combined check-and-record.
func (l *Limiter) CanRequest() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeLocked(l.now())
	return len(l.stamps) < l.max
}

// Record appends the current timestamp without an admission check. It exists
// for callers that already hold an admission grant obtained elsewhere; the
// client itself always goes through Admit.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stamps = append(l.stamps, l.now())
}

// Remaining returns how many requests are left in the current window,
// floored at zero.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeLocked(l.now())
	if n := l.max - len(l.stamps); n > 0 {
		return n
	}
	return 0
}

// Max returns the configured window capacity.
func (l *Limiter) Max() int {
	return l.max
}

// ResetETA returns the time until the oldest recorded request leaves the
// window. ok is false when the window is empty.
func (l *Limiter) ResetETA() (eta time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.purgeLocked(now)
	if len(l.stamps) == 0 {
		return 0, false
	}
	return l.etaLocked(now), true
}

func (l *Limiter) etaLocked(now time.Time) time.Duration {
	if len(l.stamps) == 0 {
		return 0
	}
	eta := l.stamps[0].Add(l.window).Sub(now)
	if eta < 0 {
		return 0
	}
	return eta
}

// SetClock overrides the time source. Intended for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	if now == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
