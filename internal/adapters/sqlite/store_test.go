package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db"
)

func openTestDatabase(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "adapters"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func sampleTenant() domain.TenantWidgetConfig {
	return domain.TenantWidgetConfig{
		CompanyID:          "company-42",
		PublicKey:          "pk_live_42",
		Name:               "Harbor Shop",
		Brand:              "harbor",
		AllowedDomains:     []string{"shop.example.com", "*.harbor.io"},
		Theme:              json.RawMessage(`{"primary":"#0af"}`),
		Features:           json.RawMessage(`{"chat":true}`),
		RateLimitPerMinute: 30,
		CashbackRate:       decimal.RequireFromString("0.05"),
		Enabled:            true,
	}
}

func TestTenantStoreRoundTripAndVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewTenantStore(openTestDatabase(t))

	version, err := store.Upsert(ctx, sampleTenant())
	if err != nil {
		t.Fatalf("upsert tenant: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	cfg, found, err := store.Lookup(ctx, "pk_live_42")
	if err != nil || !found {
		t.Fatalf("lookup tenant: found=%v err=%v", found, err)
	}
	if cfg.CompanyID != "company-42" || cfg.RateLimitPerMinute != 30 || len(cfg.AllowedDomains) != 2 {
		t.Fatalf("unexpected tenant mapping: %+v", cfg)
	}
	if !cfg.CashbackRate.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("unexpected cashback rate %s", cfg.CashbackRate)
	}
	if string(cfg.Behavior) != "{}" {
		t.Fatalf("expected empty behavior object, got %s", cfg.Behavior)
	}

	if version, err = store.Upsert(ctx, sampleTenant()); err != nil || version != 1 {
		t.Fatalf("expected unchanged re-import to keep version 1, got %d err=%v", version, err)
	}

	changed := sampleTenant()
	changed.AllowedDomains = append(changed.AllowedDomains, "checkout.example.com")
	if version, err = store.Upsert(ctx, changed); err != nil || version != 2 {
		t.Fatalf("expected settings change to bump to version 2, got %d err=%v", version, err)
	}

	current, found, err := store.Version(ctx, "pk_live_42")
	if err != nil || !found || current != 2 {
		t.Fatalf("expected version 2, got %d found=%v err=%v", current, found, err)
	}
}

func TestTenantStoreUnknownAndDisabledAreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewTenantStore(openTestDatabase(t))

	if _, found, err := store.Lookup(ctx, "missing"); err != nil || found {
		t.Fatalf("expected missing tenant not found, got found=%v err=%v", found, err)
	}

	disabled := sampleTenant()
	disabled.Enabled = false
	if _, err := store.Upsert(ctx, disabled); err != nil {
		t.Fatalf("upsert disabled tenant: %v", err)
	}
	if _, found, err := store.Lookup(ctx, disabled.PublicKey); err != nil || found {
		t.Fatalf("expected disabled tenant not found, got found=%v err=%v", found, err)
	}
	if _, found, err := store.Version(ctx, disabled.PublicKey); err != nil || found {
		t.Fatalf("expected disabled tenant version not found, got found=%v err=%v", found, err)
	}
}

func TestPurchaseStoreClaimIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewPurchaseStore(openTestDatabase(t))

	claim := ports.PurchaseClaim{
		ID:             "pur_1",
		PublicKey:      "pk_live_42",
		OrderID:        "ORD-1",
		UserID:         "user-1",
		OrderValue:     decimal.RequireFromString("100.00"),
		CashbackAmount: decimal.RequireFromString("10"),
	}
	record, created, err := store.Claim(ctx, claim)
	if err != nil || !created {
		t.Fatalf("expected first claim to create, created=%v err=%v", created, err)
	}
	if record.State != domain.PurchaseStateReceived {
		t.Fatalf("expected received state, got %s", record.State)
	}

	balance := decimal.RequireFromString("42.50")
	if err := store.MarkCredited(ctx, record.ID, domain.CreditResult{
		Status: domain.CreditStatusCredited, TransactionID: "tx_1", NewBalance: &balance,
	}); err != nil {
		t.Fatalf("mark credited: %v", err)
	}
	if err := store.MarkPending(ctx, record.ID); err != nil {
		t.Fatalf("mark pending: %v", err)
	}

	claim.ID = "pur_2"
	replay, created, err := store.Claim(ctx, claim)
	if err != nil || created {
		t.Fatalf("expected replayed claim not to create, created=%v err=%v", created, err)
	}
	if replay.ID != "pur_1" || replay.State != domain.PurchaseStateCredited || replay.TransactionID != "tx_1" {
		t.Fatalf("expected stored credited record, got %+v", replay)
	}
	if replay.WalletBalance == nil || !replay.WalletBalance.Equal(balance) {
		t.Fatalf("expected stored wallet balance, got %v", replay.WalletBalance)
	}
	if replay.CashbackAmount.StringFixed(2) != "10.00" {
		t.Fatalf("unexpected cashback %s", replay.CashbackAmount)
	}
}

func TestAuditLogAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	log := NewAuditLog(openTestDatabase(t))
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, typ := range []string{"observed", "credited"} {
		if err := log.Append(ctx, ports.AuditEvent{
			ID: typ, Type: typ, Source: "test", PublicKey: "pk", OrderID: "o1",
			Time: at.Add(time.Duration(i) * time.Second), Payload: []byte(`{}`),
		}); err != nil {
			t.Fatalf("append %s: %v", typ, err)
		}
	}
	events, err := log.ListByOrder(ctx, "pk", "o1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].Type != "observed" || events[1].Type != "credited" {
		t.Fatalf("unexpected audit trail: %+v", events)
	}
	if !events[1].Time.Equal(at.Add(time.Second)) {
		t.Fatalf("unexpected event time %s", events[1].Time)
	}
}

func TestReconciliationQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	queue := NewReconciliationQueue(openTestDatabase(t))

	req := ports.CreditRequest{
		PurchaseID: "pur_1", UserID: "u1", PublicKey: "pk", OrderID: "o1",
		Amount: decimal.RequireFromString("10"), IdempotencyKey: "cashback:pk:o1",
	}
	if err := queue.Enqueue(ctx, req, "ledger down"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := queue.Enqueue(ctx, req, "ledger still down"); err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}

	pending, err := queue.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending entry per idempotency key, got %d", len(pending))
	}
	if pending[0].Attempts != 2 || pending[0].LastError != "ledger still down" {
		t.Fatalf("unexpected pending entry %+v", pending[0])
	}

	if err := queue.RecordFailure(ctx, pending[0].ID, "timeout"); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if err := queue.Resolve(ctx, pending[0].ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	pending, err = queue.ListPending(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected empty queue after resolve, got %d err=%v", len(pending), err)
	}
}

func TestPurchaseStoreListStaleSkipsSettledAndQueued(t *testing.T) {
	ctx := context.Background()
	database := openTestDatabase(t)
	store := NewPurchaseStore(database)
	queue := NewReconciliationQueue(database)

	claim := func(id, orderID string) domain.PurchaseRecord {
		t.Helper()
		record, created, err := store.Claim(ctx, ports.PurchaseClaim{
			ID: id, PublicKey: "pk", OrderID: orderID, UserID: "u1", ShopName: "Shop NL",
			OrderValue: decimal.RequireFromString("100"), CashbackAmount: decimal.RequireFromString("10"),
		})
		if err != nil || !created {
			t.Fatalf("claim %s: created=%v err=%v", orderID, created, err)
		}
		return record
	}
	orphan := claim("pur_orphan", "o-orphan")
	pending := claim("pur_pending", "o-pending")
	queued := claim("pur_queued", "o-queued")
	credited := claim("pur_credited", "o-credited")

	if err := store.MarkPending(ctx, pending.ID); err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	if err := store.MarkPending(ctx, queued.ID); err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	if err := queue.Enqueue(ctx, ports.CreditRequest{
		PurchaseID: queued.ID, UserID: "u1", PublicKey: "pk", OrderID: "o-queued",
		Amount: decimal.RequireFromString("10"), IdempotencyKey: "cashback:pk:o-queued",
	}, "ledger down"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.MarkCredited(ctx, credited.ID, domain.CreditResult{Status: domain.CreditStatusCredited, TransactionID: "tx_1"}); err != nil {
		t.Fatalf("mark credited: %v", err)
	}

	fresh, err := store.ListStale(ctx, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(fresh) != 0 {
		t.Fatalf("expected nothing older than an hour, got %d", len(fresh))
	}

	stale, err := store.ListStale(ctx, time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	ids := map[string]domain.PurchaseState{}
	for _, record := range stale {
		ids[record.ID] = record.State
	}
	if len(ids) != 2 || ids[orphan.ID] != domain.PurchaseStateReceived || ids[pending.ID] != domain.PurchaseStatePendingReconciliation {
		t.Fatalf("expected orphaned and unqueued pending purchases, got %v", ids)
	}
	if stale[0].ShopName != "Shop NL" || !stale[0].CashbackAmount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("unexpected stale record %+v", stale[0])
	}
}

func TestReconciliationQueueKeepsShopName(t *testing.T) {
	ctx := context.Background()
	queue := NewReconciliationQueue(openTestDatabase(t))

	if err := queue.Enqueue(ctx, ports.CreditRequest{
		PurchaseID: "pur_1", UserID: "u1", PublicKey: "pk", OrderID: "o1", ShopName: "Shop NL",
		Amount: decimal.RequireFromString("10"), IdempotencyKey: "cashback:pk:o1",
	}, "ledger down"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	pending, err := queue.ListPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d err=%v", len(pending), err)
	}
	if pending[0].ShopName != "Shop NL" {
		t.Fatalf("expected shop name stored, got %q", pending[0].ShopName)
	}
}

func TestRateLimiterAdmitsLimitThenRejects(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(openTestDatabase(t))
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		ok, err := limiter.Allow(ctx, "pk|1.2.3.4", 5, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d: expected allowed, got %v err=%v", i+1, ok, err)
		}
		now = now.Add(time.Second)
	}
	if ok, err := limiter.Allow(ctx, "pk|1.2.3.4", 5, time.Minute); err != nil || ok {
		t.Fatalf("expected request 6 rejected, got %v err=%v", ok, err)
	}
	if ok, err := limiter.Allow(ctx, "pk|5.6.7.8", 5, time.Minute); err != nil || !ok {
		t.Fatalf("expected other client allowed, got %v err=%v", ok, err)
	}

	now = now.Add(time.Minute)
	if ok, err := limiter.Allow(ctx, "pk|1.2.3.4", 5, time.Minute); err != nil || !ok {
		t.Fatalf("expected request allowed after window, got %v err=%v", ok, err)
	}
}
