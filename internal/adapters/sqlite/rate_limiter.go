package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

// RateLimiter keeps a sliding log of hits in SQLite so several processes
// sharing one database file enforce a single limit.
type RateLimiter struct {
	db  rateLimitDatabase
	now func() time.Time
}

func NewRateLimiter(database rateLimitDatabase) *RateLimiter {
	return &RateLimiter{db: database, now: time.Now}
}

func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	allowed, err := l.db.SlidingWindowHit(ctx, key, limit, window, l.now())
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return allowed, nil
}

var _ ports.RateLimiter = (*RateLimiter)(nil)
