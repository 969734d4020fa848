package resilience

import (
	"context"
	"sync"
	"time"
)

// Limiter implements sliding-window admission control.
//
// At most MaxRequests admissions may exist within any trailing Window
// interval. The window models a single account-level budget at the external
// backend, so one Limiter instance is shared by every caller and all access
// to the admission record is serialized.
type Limiter struct {
	settings Settings

	mu       sync.Mutex
	admitted []time.Time
}

// Settings configures the limiter behavior
type Settings struct {
	// MaxRequests is the maximum number of admissions within the window
	MaxRequests int
	// Window is the width of the trailing interval
	Window time.Duration
	// Now returns the current time; overridable for tests
	Now func() time.Time
}

// New creates a new limiter with the given settings
func New(settings Settings) *Limiter {
	if settings.MaxRequests <= 0 {
		settings.MaxRequests = 5
	}
	if settings.Window <= 0 {
		settings.Window = 60 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	return &Limiter{settings: settings}
}

// Acquire blocks until admitting the call would not exceed MaxRequests within
// the trailing Window, then records the admission and returns nil. It returns
// the context error if ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		ok, wait := l.TryAcquire()
		if ok {
			return nil
		}

		// Suspend off-lock so concurrent acquisitions can proceed
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire attempts a non-blocking admission. On success it records the
// admission timestamp and returns (true, 0). Otherwise it returns false and
// the duration until the oldest admission leaves the window.
func (l *Limiter) TryAcquire() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.settings.Now()
	l.purge(now)

	if len(l.admitted) < l.settings.MaxRequests {
		l.admitted = append(l.admitted, now)
		return true, 0
	}

	wait := l.settings.Window - now.Sub(l.admitted[0])
	if wait < 0 {
		// Clock skew guard
		wait = 0
	}
	return false, wait
}

// Pending returns the number of admissions currently inside the window
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(l.settings.Now())
	return len(l.admitted)
}

// purge drops admissions older than the trailing window. Caller holds mu.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-l.settings.Window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
