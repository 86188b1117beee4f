package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/adapters/sqlite"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db"
)

func TestRunRequiresLedger(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_LEDGER_BASE_URL", "")

	if code := run([]string{"-db", filepath.Join(t.TempDir(), "reconcile")}); code != 1 {
		t.Fatalf("expected exit code 1 without a ledger, got %d", code)
	}
}

func TestRunRedeliversQueuedCreditAndReleasesDatabase(t *testing.T) {
	var credits atomic.Int32
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		credits.Add(1)
		_, _ = w.Write([]byte(`{"transaction_id":"ltx_1","new_balance":"10.00"}`))
	}))
	defer ledger.Close()

	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_LEDGER_BASE_URL", ledger.URL)
	t.Setenv("CASHWIDGET_LEDGER_ROUTES", "credit")

	path := filepath.Join(t.TempDir(), "reconcile")
	database, err := db.New(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ctx := context.Background()
	if _, _, err := sqlite.NewPurchaseStore(database).Claim(ctx, ports.PurchaseClaim{
		ID: "pur_1", PublicKey: "pk", OrderID: "o1", UserID: "u1",
		OrderValue: decimal.RequireFromString("100"), CashbackAmount: decimal.RequireFromString("10"),
	}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := sqlite.NewReconciliationQueue(database).Enqueue(ctx, ports.CreditRequest{
		PurchaseID: "pur_1", UserID: "u1", PublicKey: "pk", OrderID: "o1",
		Amount: decimal.RequireFromString("10"), IdempotencyKey: "cashback:pk:o1",
	}, "ledger down"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	if code := run([]string{"-db", path}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if credits.Load() != 1 {
		t.Fatalf("expected one ledger credit, got %d", credits.Load())
	}

	reopened, err := db.New(path)
	if err != nil {
		t.Fatalf("reopen db after run: %v", err)
	}
	defer reopened.Close()
	record, err := sqlite.NewPurchaseStore(reopened).Get(ctx, "pk", "o1")
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	if record.TransactionID != "ltx_1" {
		t.Fatalf("expected credited purchase, got %+v", record)
	}
}
