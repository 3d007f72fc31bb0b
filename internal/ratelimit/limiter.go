// Package ratelimit spaces outbound requests by a minimum interval.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between two requests.
const DefaultInterval = 500 * time.Millisecond

// Limiter enforces a minimum interval between successive requests.
// A zero interval disables limiting.
type Limiter struct {
	mu       sync.RWMutex
	limiter  *rate.Limiter
	interval time.Duration
	waits    int64
}

// NewInterval creates a limiter that allows one request per interval.
// The first request passes immediately.
func NewInterval(interval time.Duration) *Limiter {
	l := &Limiter{}
	l.SetInterval(interval)
	return l
}

// Wait blocks until a request is allowed or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.RLock()
	lim := l.limiter
	l.mu.RUnlock()

	if lim == nil {
		return ctx.Err()
	}

	r := lim.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	l.mu.Lock()
	l.waits++
	l.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// Allow reports whether a request may proceed now, consuming the slot if so.
func (l *Limiter) Allow() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

// SetInterval replaces the spacing. Pending reservations keep their delay.
func (l *Limiter) SetInterval(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.interval = interval
	if interval <= 0 {
		l.limiter = nil
		return
	}
	l.limiter = rate.NewLimiter(rate.Every(interval), 1)
}

// Interval returns the configured spacing.
func (l *Limiter) Interval() time.Duration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.interval
}

// Stats returns rate limiter statistics.
func (l *Limiter) Stats() LimiterStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return LimiterStats{
		Interval: l.interval,
		Waits:    l.waits,
	}
}

// LimiterStats contains rate limiter statistics.
type LimiterStats struct {
	Interval time.Duration `json:"interval"`
	Waits    int64         `json:"waits"`
}
