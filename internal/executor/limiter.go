package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// RateLimiter bounds how many payloads run at the same time, independent of
// how many goroutines or workers exist. It optionally paces how quickly
// permits are handed out.
//
// The limiter never fails, it only blocks. Capacity should not exceed the
// number of workers feeding it, otherwise it has no effect; that relation is
// up to the caller.
type RateLimiter struct {
	capacity int64
	sem      *semaphore.Weighted
	pace     *rate.Limiter

	held atomic.Int64
	peak atomic.Int64
}

// NewRateLimiter creates a limiter allowing capacity concurrent holders.
// capacity below 1 is treated as 1. When perSecond is positive, at most
// perSecond permits are granted per second (burst 1).
func NewRateLimiter(capacity int, perSecond float64) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}

	l := &RateLimiter{
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
	if perSecond > 0 {
		l.pace = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return l
}

// Acquire blocks until a permit is available and returns the function that
// releases it. Calling release more than once is a no-op.
func (l *RateLimiter) Acquire() (release func()) {
	// Background contexts never expire, so neither call can fail.
	if l.pace != nil {
		_ = l.pace.Wait(context.Background())
	}
	_ = l.sem.Acquire(context.Background(), 1)

	n := l.held.Add(1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.held.Add(-1)
			l.sem.Release(1)
		})
	}
}

// Do runs fn while holding a permit. The permit is released even if fn panics.
func (l *RateLimiter) Do(fn func()) {
	release := l.Acquire()
	defer release()
	fn()
}

// Capacity returns the maximum number of concurrent holders
func (l *RateLimiter) Capacity() int {
	return int(l.capacity)
}

// InFlight returns the number of permits currently held
func (l *RateLimiter) InFlight() int {
	return int(l.held.Load())
}

// Peak returns the highest number of permits held at once
func (l *RateLimiter) Peak() int {
	return int(l.peak.Load())
}
