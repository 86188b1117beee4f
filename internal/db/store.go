package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// GetTenant fetches a tenant row by public key.
func (c *Database) GetTenant(ctx context.Context, publicKey string) (queries.Tenant, error) {
	row, err := c.Queries.GetTenantByPublicKey(ctx, publicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return queries.Tenant{}, ErrNotFound
	}
	return row, err
}

// GetTenantVersion returns the current version and enabled flag of a tenant.
func (c *Database) GetTenantVersion(ctx context.Context, publicKey string) (queries.GetTenantVersionRow, error) {
	row, err := c.Queries.GetTenantVersion(ctx, publicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return queries.GetTenantVersionRow{}, ErrNotFound
	}
	return row, err
}

// GetPurchaseByOrder fetches the purchase recorded for one tenant order.
func (c *Database) GetPurchaseByOrder(ctx context.Context, publicKey, orderID string) (queries.Purchase, error) {
	row, err := c.Queries.GetPurchaseByOrder(ctx, queries.GetPurchaseByOrderParams{PublicKey: publicKey, OrderID: orderID})
	if errors.Is(err, sql.ErrNoRows) {
		return queries.Purchase{}, ErrNotFound
	}
	return row, err
}

// SlidingWindowHit records one hit in bucket if fewer than limit hits happened
// within window before now. It reports whether the hit was admitted.
func (c *Database) SlidingWindowHit(ctx context.Context, bucket string, limit int, window time.Duration, now time.Time) (bool, error) {
	allowed := false
	err := c.WithTx(ctx, func(q *queries.Queries) error {
		cutoff := now.Add(-window).UnixNano()
		if err := q.PruneRateLimitHits(ctx, queries.PruneRateLimitHitsParams{Bucket: bucket, HitAt: cutoff}); err != nil {
			return err
		}
		count, err := q.CountRateLimitHits(ctx, queries.CountRateLimitHitsParams{Bucket: bucket, HitAt: cutoff})
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return nil
		}
		allowed = true
		return q.InsertRateLimitHit(ctx, queries.InsertRateLimitHitParams{Bucket: bucket, HitAt: now.UnixNano()})
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// Ping checks the connection is usable.
func (c *Database) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// WithTx runs a function within a transaction.
func (c *Database) WithTx(ctx context.Context, fn func(*queries.Queries) error) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(queries.New(newInstrumentedDBTX(tx, c.tracker))); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}
	return tx.Commit()
}
