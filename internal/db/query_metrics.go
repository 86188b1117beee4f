package db

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fr0stylo/cashwidget/internal/db/queries"
	"github.com/fr0stylo/cashwidget/internal/observability"
)

const maxSamplesPerQuery = 512

type queryLatencyStats struct {
	Name  string
	Count int
	P50   time.Duration
	P95   time.Duration
	Max   time.Duration
}

// queryLatencyTracker keeps a rolling window of durations per sqlc query
// name and forwards each sample to an optional observer.
type queryLatencyTracker struct {
	mu       sync.Mutex
	samples  map[string][]time.Duration
	observer QueryObserver
}

func newQueryLatencyTracker() *queryLatencyTracker {
	return &queryLatencyTracker{samples: make(map[string][]time.Duration)}
}

func (t *queryLatencyTracker) observe(name string, duration time.Duration) {
	if t == nil {
		return
	}

	t.mu.Lock()
	window := append(t.samples[name], duration)
	if over := len(window) - maxSamplesPerQuery; over > 0 {
		window = window[over:]
	}
	t.samples[name] = window
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer.ObserveQuery(name, duration)
	}
}

func (t *queryLatencyTracker) setObserver(observer QueryObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observer = observer
}

// snapshot returns per-query percentiles, slowest p95 first.
func (t *queryLatencyTracker) snapshot() []queryLatencyStats {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	stats := make([]queryLatencyStats, 0, len(t.samples))
	for name, durations := range t.samples {
		if len(durations) == 0 {
			continue
		}
		sorted := slices.Clone(durations)
		slices.Sort(sorted)
		last := len(sorted) - 1
		stats = append(stats, queryLatencyStats{
			Name:  name,
			Count: len(sorted),
			P50:   sorted[last/2],
			P95:   sorted[last*95/100],
			Max:   sorted[last],
		})
	}
	slices.SortFunc(stats, func(a, b queryLatencyStats) int {
		if c := cmp.Compare(b.P95, a.P95); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats
}

// instrumentedDBTX wraps every sqlc call in a DB span and a latency sample.
type instrumentedDBTX struct {
	inner   queries.DBTX
	tracker *queryLatencyTracker
}

func newInstrumentedDBTX(inner queries.DBTX, tracker *queryLatencyTracker) queries.DBTX {
	if tracker == nil {
		return inner
	}
	return &instrumentedDBTX{inner: inner, tracker: tracker}
}

func (d *instrumentedDBTX) start(ctx context.Context, query, operation string) (context.Context, func(error)) {
	name := queryName(query)
	ctx, span := observability.StartDBSpan(ctx, name, operation)
	began := time.Now()
	return ctx, func(err error) {
		d.tracker.observe(name, time.Since(began))
		span.RecordError(err)
		span.End()
	}
}

func (d *instrumentedDBTX) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, done := d.start(ctx, query, "exec")
	result, err := d.inner.ExecContext(ctx, query, args...)
	done(err)
	return result, err
}

func (d *instrumentedDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	ctx, done := d.start(ctx, query, "prepare")
	stmt, err := d.inner.PrepareContext(ctx, query)
	done(err)
	return stmt, err
}

func (d *instrumentedDBTX) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	ctx, done := d.start(ctx, query, "query")
	rows, err := d.inner.QueryContext(ctx, query, args...)
	done(err)
	return rows, err
}

func (d *instrumentedDBTX) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	ctx, done := d.start(ctx, query, "query_row")
	row := d.inner.QueryRowContext(ctx, query, args...)
	done(row.Err())
	return row
}

// queryName extracts the sqlc name from a "-- name: GetTenant :one" header.
func queryName(query string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(query), "\n")
	rest, ok := strings.CutPrefix(strings.TrimSpace(first), "-- name:")
	if !ok {
		return "unknown"
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "unknown"
	}
	return fields[0]
}
