// Package ratelimit paces outbound requests for a single client instance.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jmylchreest/staylens/internal/logger"
)

// Limiter enforces a minimum interval between completed Wait calls.
// It is safe for concurrent use; waiters queue on the shared timestamp
// but sleep outside the lock.
type Limiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time // earliest time the next caller may proceed
	now  func() time.Time
}

// MaxInterval caps the spacing derived from a very small rate.
const MaxInterval = time.Hour

// New returns a Limiter allowing rps requests per second. A non-positive
// rate disables pacing; a rate slower than one request per MaxInterval is
// held at MaxInterval.
func New(rps float64) *Limiter {
	var interval time.Duration
	if rps > 0 {
		if secs := 1 / rps; secs < MaxInterval.Seconds() {
			interval = time.Duration(secs * float64(time.Second))
		} else {
			logger.Warn("rate limit too slow, clamping", "requests_per_second", rps, "interval", MaxInterval)
			interval = MaxInterval
		}
	} else {
		logger.Warn("rate limit disabled", "requests_per_second", rps)
	}
	return &Limiter{interval: interval, now: time.Now}
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Wait blocks until the caller may issue a request or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.interval == 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.now()
	slot := now
	if l.next.After(now) {
		slot = l.next
	}
	l.next = slot.Add(l.interval)
	l.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	logger.Debug("rate limiter waiting", "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.release(slot)
		return ctx.Err()
	}
}

// release hands back a reserved slot if no later caller has queued behind it.
func (l *Limiter) release(slot time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.next.Equal(slot.Add(l.interval)) {
		l.next = slot
	}
}
