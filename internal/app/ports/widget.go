package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
)

// ConfigStore resolves a tenant's widget configuration by public key.
// A missing or disabled tenant is reported as found=false, never as a default.
type ConfigStore interface {
	Lookup(ctx context.Context, publicKey string) (domain.TenantWidgetConfig, bool, error)
}

// VersionedConfigStore can report the current version without loading the
// whole configuration. Caches use it to revalidate entries.
type VersionedConfigStore interface {
	ConfigStore
	Version(ctx context.Context, publicKey string) (int64, bool, error)
}

// RateLimiter admits at most limit hits per key inside a rolling window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PurchaseClaim is the first write for a reported purchase.
type PurchaseClaim struct {
	ID             string
	PublicKey      string
	OrderID        string
	UserID         string
	ShopName       string
	OrderValue     decimal.Decimal
	CashbackAmount decimal.Decimal
}

// PurchaseStore persists attributed purchases keyed by (public key, order id).
type PurchaseStore interface {
	// Claim records the purchase if absent. It returns the stored record and
	// whether this call created it.
	Claim(ctx context.Context, claim PurchaseClaim) (domain.PurchaseRecord, bool, error)
	MarkCredited(ctx context.Context, purchaseID string, result domain.CreditResult) error
	MarkPending(ctx context.Context, purchaseID string) error
}

// StalePurchaseFinder lists claimed purchases that neither settled nor have a
// pending reconciliation entry, oldest first.
type StalePurchaseFinder interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]domain.PurchaseRecord, error)
}

// AuditEvent is one append-only audit entry.
type AuditEvent struct {
	ID        string
	Type      string
	Source    string
	Subject   string
	PublicKey string
	OrderID   string
	Time      time.Time
	Payload   []byte
}

// AuditLog appends purchase lifecycle events.
type AuditLog interface {
	Append(ctx context.Context, event AuditEvent) error
}

// CreditRequest asks the wallet ledger to credit a user once.
type CreditRequest struct {
	PurchaseID     string
	UserID         string
	PublicKey      string
	OrderID        string
	ShopName       string
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// CreditGateway credits a wallet. Failures are reported in the result, not as
// errors, so callers always get a definite status.
type CreditGateway interface {
	Credit(ctx context.Context, req CreditRequest) domain.CreditResult
}

// ReconciliationQueue holds credits that no ledger sink accepted.
type ReconciliationQueue interface {
	Enqueue(ctx context.Context, req CreditRequest, lastError string) error
	ListPending(ctx context.Context, limit int) ([]domain.Reconciliation, error)
	Resolve(ctx context.Context, id int64) error
	RecordFailure(ctx context.Context, id int64, lastError string) error
}

// SignedBody is a rendered config response and its signature.
type SignedBody struct {
	Body      []byte
	Signature string
}

// SignedBodyCache memoizes signed config bodies per (public key, version).
type SignedBodyCache interface {
	Get(publicKey string, version int64) (SignedBody, bool)
	Set(publicKey string, version int64, body SignedBody)
}
