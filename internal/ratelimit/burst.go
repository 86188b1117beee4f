package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Burst is a per-identifier token bucket. It satisfies Echo's
// middleware.RateLimiterStore.
type Burst struct {
	perSecond rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewBurst(perSecond float64, burst int) *Burst {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Burst{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		idle:      5 * time.Minute,
		now:       time.Now,
		visitors:  make(map[string]*visitor),
	}
}

func (b *Burst) Allow(identifier string) (bool, error) {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if now.Sub(b.lastSweep) > b.idle {
		for id, v := range b.visitors {
			if now.Sub(v.lastSeen) > b.idle {
				delete(b.visitors, id)
			}
		}
		b.lastSweep = now
	}

	v, ok := b.visitors[identifier]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(b.perSecond, b.burst)}
		b.visitors[identifier] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}
