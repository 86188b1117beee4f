package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TenantWidgetConfig is the per-partner widget configuration.
// CompanyID is internal and never leaves the service.
type TenantWidgetConfig struct {
	CompanyID          string
	PublicKey          string
	Name               string
	Brand              string
	AllowedDomains     []string
	Theme              json.RawMessage
	Behavior           json.RawMessage
	Features           json.RawMessage
	I18n               json.RawMessage
	Integrations       json.RawMessage
	VisibilityRules    json.RawMessage
	RateLimitPerMinute int
	CashbackRate       decimal.Decimal
	SigningSecret      string
	Sandbox            bool
	Version            int64
	Enabled            bool
}

// DefaultRateLimitPerMinute applies when a tenant has no explicit limit.
const DefaultRateLimitPerMinute = 60

// EffectiveRateLimit returns the configured per-minute limit or the default.
func (c TenantWidgetConfig) EffectiveRateLimit() int {
	if c.RateLimitPerMinute > 0 {
		return c.RateLimitPerMinute
	}
	return DefaultRateLimitPerMinute
}

// PurchaseEvent is a purchase reported by a partner page.
type PurchaseEvent struct {
	UserID     string
	OrderID    string
	OrderValue decimal.Decimal
	ShopName   string
	PublicKey  string
	Timestamp  string
	Signature  string
}

type CreditStatus string

const (
	CreditStatusCredited              CreditStatus = "credited"
	CreditStatusPendingReconciliation CreditStatus = "pending_reconciliation"
)

// CreditResult is the outcome of one wallet credit.
type CreditResult struct {
	Status        CreditStatus
	NewBalance    *decimal.Decimal
	TransactionID string
	Provisional   bool
	Sink          string
	Error         string
}

func (r CreditResult) Success() bool {
	return r.Status == CreditStatusCredited
}

// PurchaseState is the lifecycle state of a recorded purchase.
type PurchaseState string

const (
	PurchaseStateReceived              PurchaseState = "received"
	PurchaseStateCredited              PurchaseState = "credited"
	PurchaseStatePendingReconciliation PurchaseState = "pending_reconciliation"
)

// PurchaseRecord is the persisted form of an attributed purchase.
type PurchaseRecord struct {
	ID             string
	PublicKey      string
	OrderID        string
	UserID         string
	ShopName       string
	OrderValue     decimal.Decimal
	CashbackAmount decimal.Decimal
	State          PurchaseState
	TransactionID  string
	Provisional    bool
	WalletBalance  *decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreditIdempotencyKey is the stable ledger key for one tenant order.
func CreditIdempotencyKey(publicKey, orderID string) string {
	return "cashback:" + publicKey + ":" + orderID
}

// Reconciliation is a credit that every ledger sink failed to apply.
type Reconciliation struct {
	ID             int64
	PurchaseID     string
	PublicKey      string
	OrderID        string
	UserID         string
	ShopName       string
	Amount         decimal.Decimal
	IdempotencyKey string
	LastError      string
	Attempts       int64
	CreatedAt      time.Time
}
