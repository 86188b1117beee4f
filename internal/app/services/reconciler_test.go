package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	portmocks "github.com/fr0stylo/cashwidget/internal/app/ports/mocks"
)

type fakeQueue struct {
	pending  []domain.Reconciliation
	enqueued []ports.CreditRequest
	reasons  []string
	resolved []int64
	failures map[int64]string
}

func (q *fakeQueue) Enqueue(_ context.Context, req ports.CreditRequest, lastError string) error {
	q.enqueued = append(q.enqueued, req)
	q.reasons = append(q.reasons, lastError)
	return nil
}

func (q *fakeQueue) ListPending(_ context.Context, limit int) ([]domain.Reconciliation, error) {
	if limit < len(q.pending) {
		return q.pending[:limit], nil
	}
	return q.pending, nil
}

func (q *fakeQueue) Resolve(_ context.Context, id int64) error {
	q.resolved = append(q.resolved, id)
	return nil
}

func (q *fakeQueue) RecordFailure(_ context.Context, id int64, lastError string) error {
	if q.failures == nil {
		q.failures = map[int64]string{}
	}
	q.failures[id] = lastError
	return nil
}

type scriptedLedger struct {
	failOrders map[string]bool
	requests   []ports.CreditRequest
}

func (l *scriptedLedger) Redeliver(_ context.Context, req ports.CreditRequest) (domain.CreditResult, error) {
	l.requests = append(l.requests, req)
	if l.failOrders[req.OrderID] {
		return domain.CreditResult{}, errors.New("credit: ledger returned status=502")
	}
	return domain.CreditResult{Status: domain.CreditStatusCredited, TransactionID: "ltx_" + req.OrderID, Sink: "credit"}, nil
}

func TestReconciler_ResolvesAndRecordsFailures(t *testing.T) {
	queue := &fakeQueue{pending: []domain.Reconciliation{
		{ID: 1, PurchaseID: "pur_1", PublicKey: "PUB_abc123", OrderID: "o1", UserID: "u1", ShopName: "Shop NL", Amount: decimal.RequireFromString("10.00"), IdempotencyKey: "cashback:PUB_abc123:o1"},
		{ID: 2, PurchaseID: "pur_2", PublicKey: "PUB_abc123", OrderID: "o2", UserID: "u2", Amount: decimal.RequireFromString("3.50"), IdempotencyKey: "cashback:PUB_abc123:o2", Attempts: 2},
	}}
	ledger := &scriptedLedger{failOrders: map[string]bool{"o2": true}}
	purchases := portmocks.NewMockPurchaseStore(t)
	audit := portmocks.NewMockAuditLog(t)

	purchases.EXPECT().MarkCredited(mock.Anything, "pur_1", mock.MatchedBy(func(result domain.CreditResult) bool {
		return result.TransactionID == "ltx_o1"
	})).Return(nil).Once()
	audit.EXPECT().Append(mock.Anything, mock.MatchedBy(func(event ports.AuditEvent) bool {
		return event.Type == EventCashbackCredited && event.OrderID == "o1" && event.Source == reconcileEventSource
	})).Return(nil).Once()

	summary, err := NewReconciler(queue, purchases, ledger, audit, quietLogger()).Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Resolved != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(queue.resolved) != 1 || queue.resolved[0] != 1 {
		t.Fatalf("expected entry 1 resolved, got %v", queue.resolved)
	}
	if queue.failures[2] == "" {
		t.Fatal("expected failure recorded for entry 2")
	}
	if ledger.requests[0].IdempotencyKey != "cashback:PUB_abc123:o1" {
		t.Fatalf("expected stored idempotency key reused, got %q", ledger.requests[0].IdempotencyKey)
	}
	if ledger.requests[0].ShopName != "Shop NL" {
		t.Fatalf("expected shop name carried to the ledger, got %q", ledger.requests[0].ShopName)
	}
}

type fakeStaleFinder struct {
	before  time.Time
	records []domain.PurchaseRecord
}

func (f *fakeStaleFinder) ListStale(_ context.Context, before time.Time, limit int) ([]domain.PurchaseRecord, error) {
	f.before = before
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func TestReconciler_SweepQueuesStaleClaims(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	queue := &fakeQueue{}
	finder := &fakeStaleFinder{records: []domain.PurchaseRecord{
		{ID: "pur_1", PublicKey: "PUB_abc123", OrderID: "o1", UserID: "u1", ShopName: "Shop NL", CashbackAmount: decimal.RequireFromString("10.00"), State: domain.PurchaseStateReceived, UpdatedAt: now.Add(-time.Hour)},
		{ID: "pur_2", PublicKey: "PUB_abc123", OrderID: "o2", UserID: "u2", CashbackAmount: decimal.RequireFromString("2.50"), State: domain.PurchaseStatePendingReconciliation, UpdatedAt: now.Add(-time.Hour)},
	}}
	reconciler := NewReconciler(queue, portmocks.NewMockPurchaseStore(t), &scriptedLedger{}, nil, quietLogger())
	reconciler.now = func() time.Time { return now }

	queued, err := reconciler.Sweep(context.Background(), finder, 5*time.Minute, 10)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if queued != 2 || len(queue.enqueued) != 2 {
		t.Fatalf("expected 2 queued purchases, got %d (%d enqueued)", queued, len(queue.enqueued))
	}
	if !finder.before.Equal(now.Add(-5 * time.Minute)) {
		t.Fatalf("unexpected cutoff %s", finder.before)
	}
	first := queue.enqueued[0]
	if first.IdempotencyKey != "cashback:PUB_abc123:o1" || first.PurchaseID != "pur_1" || first.ShopName != "Shop NL" {
		t.Fatalf("unexpected queued request %+v", first)
	}
	if !first.Amount.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("expected stored cashback queued, got %s", first.Amount)
	}
	if queue.reasons[0] == "" {
		t.Fatal("expected a reason recorded for the stale claim")
	}
}

func TestReconciler_StopsOnCancelledContext(t *testing.T) {
	queue := &fakeQueue{pending: []domain.Reconciliation{{ID: 1, OrderID: "o1"}}}
	ledger := &scriptedLedger{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReconciler(queue, portmocks.NewMockPurchaseStore(t), ledger, nil, quietLogger()).Run(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(ledger.requests) != 0 {
		t.Fatalf("expected no ledger calls, got %d", len(ledger.requests))
	}
}
