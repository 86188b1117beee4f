package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

// Redeliverer retries a queued credit against the ledger without queueing it again.
type Redeliverer interface {
	Redeliver(ctx context.Context, req ports.CreditRequest) (domain.CreditResult, error)
}

// ReconcileSummary counts the outcome of one reconciliation pass.
type ReconcileSummary struct {
	Resolved int
	Failed   int
}

// Reconciler re-drives credits that no ledger sink accepted.
type Reconciler struct {
	queue     ports.ReconciliationQueue
	purchases ports.PurchaseStore
	ledger    Redeliverer
	audit     ports.AuditLog
	log       *slog.Logger
	now       func() time.Time
}

// NewReconciler constructs a reconciler. audit may be nil.
func NewReconciler(queue ports.ReconciliationQueue, purchases ports.PurchaseStore, ledger Redeliverer, audit ports.AuditLog, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		queue:     queue,
		purchases: purchases,
		ledger:    ledger,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
}

// Run processes up to limit pending entries, oldest first. Ledger failures
// are recorded on the entry; only storage errors abort the pass.
func (r *Reconciler) Run(ctx context.Context, limit int) (ReconcileSummary, error) {
	pending, err := r.queue.ListPending(ctx, limit)
	if err != nil {
		return ReconcileSummary{}, err
	}

	var summary ReconcileSummary
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result, err := r.ledger.Redeliver(ctx, ports.CreditRequest{
			PurchaseID:     entry.PurchaseID,
			UserID:         entry.UserID,
			PublicKey:      entry.PublicKey,
			OrderID:        entry.OrderID,
			ShopName:       entry.ShopName,
			Amount:         entry.Amount,
			IdempotencyKey: entry.IdempotencyKey,
			Description:    creditDescription(entry.OrderID, entry.ShopName),
		})
		if err != nil {
			summary.Failed++
			r.log.WarnContext(ctx, "Reconciliation attempt failed",
				"order_id", entry.OrderID,
				"attempts", entry.Attempts+1,
				"error", err,
			)
			if recErr := r.queue.RecordFailure(ctx, entry.ID, err.Error()); recErr != nil {
				return summary, recErr
			}
			continue
		}

		if err := r.purchases.MarkCredited(ctx, entry.PurchaseID, result); err != nil {
			return summary, err
		}
		if err := r.queue.Resolve(ctx, entry.ID); err != nil {
			return summary, err
		}
		summary.Resolved++
		r.log.InfoContext(ctx, "Reconciliation resolved",
			"order_id", entry.OrderID,
			"transaction_id", result.TransactionID,
			"sink", result.Sink,
		)
		r.emit(ctx, entry, result)
	}
	return summary, nil
}

// Sweep queues purchases left in received or pending_reconciliation for
// longer than olderThan without a pending queue entry. It covers a process
// that died between claim and credit, a credit whose state update failed and
// an enqueue that failed after every sink refused. It returns how many
// purchases were queued.
func (r *Reconciler) Sweep(ctx context.Context, finder ports.StalePurchaseFinder, olderThan time.Duration, limit int) (int, error) {
	stale, err := finder.ListStale(ctx, r.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, record := range stale {
		if err := ctx.Err(); err != nil {
			return queued, err
		}
		reason := fmt.Sprintf("stale %s claim since %s", record.State, record.UpdatedAt.Format(time.RFC3339))
		if err := r.queue.Enqueue(ctx, ports.CreditRequest{
			PurchaseID:     record.ID,
			UserID:         record.UserID,
			PublicKey:      record.PublicKey,
			OrderID:        record.OrderID,
			ShopName:       record.ShopName,
			Amount:         record.CashbackAmount,
			IdempotencyKey: domain.CreditIdempotencyKey(record.PublicKey, record.OrderID),
		}, reason); err != nil {
			return queued, err
		}
		queued++
		r.log.WarnContext(ctx, "Queued stale purchase for reconciliation",
			"order_id", record.OrderID,
			"state", string(record.State),
			"updated_at", record.UpdatedAt,
		)
	}
	return queued, nil
}

func (r *Reconciler) emit(ctx context.Context, entry domain.Reconciliation, result domain.CreditResult) {
	if r.audit == nil {
		return
	}
	event, err := newAuditEvent(r.now().UTC(), reconcileEventSource, EventCashbackCredited, entry.PublicKey, entry.OrderID, entry.PurchaseID, map[string]any{
		"transaction_id": result.TransactionID,
		"provisional":    result.Provisional,
		"sink":           result.Sink,
		"reconciled":     true,
	})
	if err == nil {
		err = r.audit.Append(ctx, event)
	}
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to append audit event", "order_id", entry.OrderID, "error", err)
	}
}
