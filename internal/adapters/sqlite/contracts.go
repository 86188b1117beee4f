package sqlite

import (
	"context"
	"time"

	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

type tenantDatabase interface {
	GetTenant(ctx context.Context, publicKey string) (queries.Tenant, error)
	GetTenantVersion(ctx context.Context, publicKey string) (queries.GetTenantVersionRow, error)
	ListTenants(ctx context.Context) ([]queries.Tenant, error)
	UpsertTenant(ctx context.Context, arg queries.UpsertTenantParams) (int64, error)
}

type purchaseDatabase interface {
	GetPurchaseByOrder(ctx context.Context, publicKey, orderID string) (queries.Purchase, error)
	MarkPurchaseCredited(ctx context.Context, arg queries.MarkPurchaseCreditedParams) error
	MarkPurchasePending(ctx context.Context, id string) error
	ListStalePurchases(ctx context.Context, arg queries.ListStalePurchasesParams) ([]queries.Purchase, error)
	WithTx(ctx context.Context, fn func(*queries.Queries) error) error
}

type auditDatabase interface {
	AppendPurchaseEvent(ctx context.Context, arg queries.AppendPurchaseEventParams) error
	ListPurchaseEventsByOrder(ctx context.Context, arg queries.ListPurchaseEventsByOrderParams) ([]queries.PurchaseEvent, error)
}

type reconciliationDatabase interface {
	EnqueueReconciliation(ctx context.Context, arg queries.EnqueueReconciliationParams) error
	ListPendingReconciliations(ctx context.Context, limit int64) ([]queries.CreditReconciliation, error)
	ResolveReconciliation(ctx context.Context, id int64) error
	RecordReconciliationFailure(ctx context.Context, arg queries.RecordReconciliationFailureParams) error
}

type rateLimitDatabase interface {
	SlidingWindowHit(ctx context.Context, bucket string, limit int, window time.Duration, now time.Time) (bool, error)
}

const sqliteTimestampLayout = "2006-01-02 15:04:05"

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(sqliteTimestampLayout, value)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
