// Package ratelimit holds the in-process limiters: a sliding-log limiter
// for per-tenant quotas and a token-bucket burst throttle per client.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

const sweepEvery = 1024

// SlidingWindow remembers hit times per key and admits a hit only when fewer
// than limit hits fall inside the trailing window. State is per process.
type SlidingWindow struct {
	mu    sync.Mutex
	hits  map[string][]time.Time
	now   func() time.Time
	calls int
}

func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{hits: make(map[string][]time.Time), now: time.Now}
}

func (l *SlidingWindow) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	now := l.now()
	cutoff := now.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(cutoff)
	}

	recent := trim(l.hits[key], cutoff)
	if len(recent) >= limit {
		l.hits[key] = recent
		return false, nil
	}
	l.hits[key] = append(recent, now)
	return true, nil
}

// sweep drops keys with no hits newer than cutoff. Keys limited with a longer
// window than the caller's may be trimmed early; all callers share one window.
func (l *SlidingWindow) sweep(cutoff time.Time) {
	for key, times := range l.hits {
		if len(trim(times, cutoff)) == 0 {
			delete(l.hits, key)
		}
	}
}

func trim(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0:0], times[i:]...)
}

var _ ports.RateLimiter = (*SlidingWindow)(nil)
