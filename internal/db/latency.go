package db

import (
	"context"
	"log/slog"
	"time"
)

// QueryObserver receives the latency of every executed query.
type QueryObserver interface {
	ObserveQuery(name string, duration time.Duration)
}

// ObserveQueries forwards query latencies to an external sink such as Prometheus.
func (c *Database) ObserveQueries(observer QueryObserver) {
	if c == nil || c.tracker == nil {
		return
	}
	c.tracker.setObserver(observer)
}

// QueryLatencyStats returns current per-query latency distribution samples.
func (c *Database) QueryLatencyStats() []queryLatencyStats {
	if c == nil || c.tracker == nil {
		return nil
	}
	return c.tracker.snapshot()
}

// LogLatencyStats logs the slowest queries seen so far.
func (c *Database) LogLatencyStats(ctx context.Context, log *slog.Logger, limit int) {
	stats := c.QueryLatencyStats()
	if len(stats) == 0 || log == nil {
		return
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	for _, stat := range stats {
		log.InfoContext(ctx, "DB query latency",
			"query", stat.Name,
			"count", stat.Count,
			"p50", stat.P50.String(),
			"p95", stat.P95.String(),
			"max", stat.Max.String(),
		)
	}
}
