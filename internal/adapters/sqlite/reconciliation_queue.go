package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

// ReconciliationQueue persists credits that no ledger sink accepted.
type ReconciliationQueue struct {
	db reconciliationDatabase
}

func NewReconciliationQueue(database reconciliationDatabase) *ReconciliationQueue {
	return &ReconciliationQueue{db: database}
}

func (q *ReconciliationQueue) Enqueue(ctx context.Context, req ports.CreditRequest, lastError string) error {
	if err := q.db.EnqueueReconciliation(ctx, queries.EnqueueReconciliationParams{
		PurchaseID:     req.PurchaseID,
		PublicKey:      req.PublicKey,
		OrderID:        req.OrderID,
		UserID:         req.UserID,
		Amount:         req.Amount.StringFixed(2),
		IdempotencyKey: req.IdempotencyKey,
		LastError:      lastError,
		ShopName:       req.ShopName,
	}); err != nil {
		return fmt.Errorf("enqueue reconciliation %s: %w", req.IdempotencyKey, err)
	}
	return nil
}

func (q *ReconciliationQueue) ListPending(ctx context.Context, limit int) ([]domain.Reconciliation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.ListPendingReconciliations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending reconciliations: %w", err)
	}
	out := make([]domain.Reconciliation, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("reconciliation %d: decode amount: %w", row.ID, err)
		}
		out = append(out, domain.Reconciliation{
			ID:             row.ID,
			PurchaseID:     row.PurchaseID,
			PublicKey:      row.PublicKey,
			OrderID:        row.OrderID,
			UserID:         row.UserID,
			ShopName:       row.ShopName,
			Amount:         amount,
			IdempotencyKey: row.IdempotencyKey,
			LastError:      row.LastError,
			Attempts:       row.Attempts,
			CreatedAt:      parseTimestamp(row.CreatedAt),
		})
	}
	return out, nil
}

func (q *ReconciliationQueue) Resolve(ctx context.Context, id int64) error {
	if err := q.db.ResolveReconciliation(ctx, id); err != nil {
		return fmt.Errorf("resolve reconciliation %d: %w", id, err)
	}
	return nil
}

func (q *ReconciliationQueue) RecordFailure(ctx context.Context, id int64, lastError string) error {
	if err := q.db.RecordReconciliationFailure(ctx, queries.RecordReconciliationFailureParams{LastError: lastError, ID: id}); err != nil {
		return fmt.Errorf("record reconciliation %d failure: %w", id, err)
	}
	return nil
}

var _ ports.ReconciliationQueue = (*ReconciliationQueue)(nil)
