package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ceevent "github.com/cloudevents/sdk-go/v2/event"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/observability"
	"github.com/fr0stylo/cashwidget/internal/signing"
)

// Audit event types written for every newly observed purchase.
const (
	EventPurchaseObserved   = "com.cashwidget.purchase.observed"
	EventCashbackCredited   = "com.cashwidget.cashback.credited"
	EventCashbackPending    = "com.cashwidget.cashback.pending_reconciliation"
	purchaseEventSource     = "/widget/track-purchase"
	reconcileEventSource    = "/cashwidget/reconcile"
	publicKeyExtension      = "publickey"
	signatureField          = "signature"
	defaultCashbackFraction = "0.10"
	defaultStaleClaimAfter  = 2 * time.Minute
)

// Order values outside these bounds are rejected before any arithmetic.
const (
	maxOrderValueLength    = 32
	maxOrderIntegerDigits  = 12
	maxOrderFractionDigits = 4
)

// TrackPurchaseResult is the outcome of one purchase report.
type TrackPurchaseResult struct {
	PurchaseID     string
	OrderID        string
	CashbackAmount decimal.Decimal
	WalletBalance  *decimal.Decimal
	TransactionID  string
	Provisional    bool
	Status         domain.CreditStatus
	Replayed       bool
	Details        string
}

// PurchaseAttributorOptions carries optional collaborators.
type PurchaseAttributorOptions struct {
	// Relaxed skips the signature requirement for every tenant. Only local
	// deployments may set it; sandbox tenants are always relaxed.
	Relaxed      bool
	CashbackRate decimal.Decimal
	// StaleClaimAfter is how long a claim may stay in received before a
	// repeated report re-drives the ledger. Defaults to two minutes.
	StaleClaimAfter time.Duration
	Audit           ports.AuditLog
	Recorder        Recorder
	Logger          *slog.Logger
}

// PurchaseAttributor validates purchase reports and credits cashback once per order.
type PurchaseAttributor struct {
	store      ports.ConfigStore
	purchases  ports.PurchaseStore
	gateway    ports.CreditGateway
	signer     *signing.Service
	audit      ports.AuditLog
	recorder   Recorder
	log        *slog.Logger
	relaxed    bool
	rate       decimal.Decimal
	staleAfter time.Duration
	now        func() time.Time
}

// NewPurchaseAttributor constructs a purchase attributor.
func NewPurchaseAttributor(store ports.ConfigStore, purchases ports.PurchaseStore, gateway ports.CreditGateway, signer *signing.Service, opts PurchaseAttributorOptions) *PurchaseAttributor {
	a := &PurchaseAttributor{
		store:      store,
		purchases:  purchases,
		gateway:    gateway,
		signer:     signer,
		audit:      opts.Audit,
		recorder:   opts.Recorder,
		log:        opts.Logger,
		relaxed:    opts.Relaxed,
		rate:       opts.CashbackRate,
		staleAfter: opts.StaleClaimAfter,
		now:        time.Now,
	}
	if a.staleAfter <= 0 {
		a.staleAfter = defaultStaleClaimAfter
	}
	if a.rate.IsZero() {
		a.rate = decimal.RequireFromString(defaultCashbackFraction)
	}
	if a.recorder == nil {
		a.recorder = noopRecorder{}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// Track handles one raw purchase report body.
func (a *PurchaseAttributor) Track(ctx context.Context, body []byte) (TrackPurchaseResult, error) {
	result, err := a.track(ctx, body)
	a.recorder.PurchaseOutcome(purchaseOutcome(result, err))
	return result, err
}

func (a *PurchaseAttributor) track(ctx context.Context, body []byte) (TrackPurchaseResult, error) {
	event, err := ParsePurchaseEvent(body)
	if err != nil {
		return TrackPurchaseResult{}, err
	}
	ctx = observability.WithTenant(ctx, event.PublicKey)

	tenant, found, err := a.store.Lookup(ctx, event.PublicKey)
	if err != nil {
		return TrackPurchaseResult{}, fmt.Errorf("lookup tenant: %w", err)
	}
	if !found {
		return TrackPurchaseResult{}, ErrUnknownPublicKey
	}

	if err := a.verify(ctx, body, event, tenant); err != nil {
		return TrackPurchaseResult{}, err
	}

	cashback := CashbackAmount(event.OrderValue, a.rateFor(tenant))
	record, created, err := a.purchases.Claim(ctx, ports.PurchaseClaim{
		ID:             "pur_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		PublicKey:      event.PublicKey,
		OrderID:        event.OrderID,
		UserID:         event.UserID,
		ShopName:       event.ShopName,
		OrderValue:     event.OrderValue,
		CashbackAmount: cashback,
	})
	if err != nil {
		return TrackPurchaseResult{}, fmt.Errorf("claim purchase: %w", err)
	}
	if !created {
		return a.replay(ctx, record)
	}

	a.log.InfoContext(ctx, "Purchase observed",
		"public_key", event.PublicKey,
		"order_id", event.OrderID,
		"user_id", event.UserID,
		"order_value", event.OrderValue.StringFixed(2),
		"cashback_amount", cashback.StringFixed(2),
		"signature_prefix", signing.Prefix(event.Signature),
	)
	a.emit(ctx, EventPurchaseObserved, record, map[string]any{
		"user_id":         event.UserID,
		"shop_name":       event.ShopName,
		"order_value":     json.Number(event.OrderValue.StringFixed(2)),
		"cashback_amount": json.Number(cashback.StringFixed(2)),
		"reported_at":     event.Timestamp,
	})

	return a.settle(ctx, record)
}

// settle delegates the stored cashback to the gateway and records the outcome.
func (a *PurchaseAttributor) settle(ctx context.Context, record domain.PurchaseRecord) (TrackPurchaseResult, error) {
	credit := a.gateway.Credit(ctx, ports.CreditRequest{
		PurchaseID:  record.ID,
		UserID:      record.UserID,
		PublicKey:   record.PublicKey,
		OrderID:     record.OrderID,
		ShopName:    record.ShopName,
		Amount:      record.CashbackAmount,
		Description: creditDescription(record.OrderID, record.ShopName),
	})

	result := TrackPurchaseResult{
		PurchaseID:     record.ID,
		OrderID:        record.OrderID,
		CashbackAmount: record.CashbackAmount,
		Status:         credit.Status,
	}
	if !credit.Success() {
		if err := a.purchases.MarkPending(ctx, record.ID); err != nil {
			a.log.ErrorContext(ctx, "Failed to mark purchase pending", "order_id", record.OrderID, "error", err)
		}
		a.log.WarnContext(ctx, "Cashback pending reconciliation",
			"public_key", record.PublicKey,
			"order_id", record.OrderID,
			"error", credit.Error,
		)
		a.emit(ctx, EventCashbackPending, record, map[string]any{"error": credit.Error})
		result.Details = credit.Error
		return result, fmt.Errorf("%w: %s", ErrCreditPending, credit.Error)
	}

	if err := a.purchases.MarkCredited(ctx, record.ID, credit); err != nil {
		a.log.ErrorContext(ctx, "Failed to mark purchase credited", "order_id", record.OrderID, "error", err)
	}
	result.WalletBalance = credit.NewBalance
	result.TransactionID = credit.TransactionID
	result.Provisional = credit.Provisional
	a.log.InfoContext(ctx, "Cashback credited",
		"public_key", record.PublicKey,
		"order_id", record.OrderID,
		"transaction_id", credit.TransactionID,
		"provisional", credit.Provisional,
		"sink", credit.Sink,
	)
	a.emit(ctx, EventCashbackCredited, record, map[string]any{
		"transaction_id": credit.TransactionID,
		"provisional":    credit.Provisional,
		"sink":           credit.Sink,
	})
	return result, nil
}

func (a *PurchaseAttributor) verify(ctx context.Context, body []byte, event domain.PurchaseEvent, tenant domain.TenantWidgetConfig) error {
	relaxed := a.relaxed || tenant.Sandbox
	if event.Signature == "" {
		if relaxed {
			a.log.DebugContext(ctx, "Unsigned purchase accepted in relaxed mode", "public_key", event.PublicKey)
			return nil
		}
		return ErrSignatureRequired
	}
	canonical, err := signing.CanonicalPayload(body, signatureField)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	if !a.signer.VerifyPurchase(canonical, tenant.SigningSecret, event.Signature) {
		a.log.InfoContext(ctx, "Purchase signature rejected",
			"public_key", event.PublicKey,
			"order_id", event.OrderID,
			"signature_prefix", signing.Prefix(event.Signature),
		)
		return ErrInvalidSignature
	}
	return nil
}

// replay answers a report for an order that was already claimed. Credited
// orders are answered from storage. Pending orders and claims stuck in
// received past the stale threshold re-drive the gateway under the same
// idempotency key.
func (a *PurchaseAttributor) replay(ctx context.Context, record domain.PurchaseRecord) (TrackPurchaseResult, error) {
	a.log.InfoContext(ctx, "Duplicate purchase report",
		"public_key", record.PublicKey,
		"order_id", record.OrderID,
		"state", string(record.State),
	)
	switch record.State {
	case domain.PurchaseStateCredited:
		return TrackPurchaseResult{
			PurchaseID:     record.ID,
			OrderID:        record.OrderID,
			CashbackAmount: record.CashbackAmount,
			WalletBalance:  record.WalletBalance,
			TransactionID:  record.TransactionID,
			Provisional:    record.Provisional,
			Status:         domain.CreditStatusCredited,
			Replayed:       true,
		}, nil
	case domain.PurchaseStateReceived:
		if a.now().Sub(record.UpdatedAt) < a.staleAfter {
			return TrackPurchaseResult{PurchaseID: record.ID, OrderID: record.OrderID, Replayed: true}, ErrPurchaseInFlight
		}
	}
	a.log.InfoContext(ctx, "Re-driving unsettled purchase",
		"public_key", record.PublicKey,
		"order_id", record.OrderID,
		"state", string(record.State),
		"updated_at", record.UpdatedAt,
	)
	return a.settle(ctx, record)
}

func (a *PurchaseAttributor) rateFor(tenant domain.TenantWidgetConfig) decimal.Decimal {
	if tenant.CashbackRate.IsPositive() {
		return tenant.CashbackRate
	}
	return a.rate
}

func (a *PurchaseAttributor) emit(ctx context.Context, eventType string, record domain.PurchaseRecord, data map[string]any) {
	if a.audit == nil {
		return
	}
	event, err := a.auditEvent(eventType, record, data)
	if err == nil {
		err = a.audit.Append(ctx, event)
	}
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to append audit event",
			"type", eventType,
			"order_id", record.OrderID,
			"error", err,
		)
	}
}

func (a *PurchaseAttributor) auditEvent(eventType string, record domain.PurchaseRecord, data map[string]any) (ports.AuditEvent, error) {
	return newAuditEvent(a.now().UTC(), purchaseEventSource, eventType, record.PublicKey, record.OrderID, record.ID, data)
}

// newAuditEvent wraps data in a CloudEvents envelope keyed by the order.
func newAuditEvent(at time.Time, source, eventType, publicKey, orderID, purchaseID string, data map[string]any) (ports.AuditEvent, error) {
	data["purchase_id"] = purchaseID
	data["order_id"] = orderID

	ce := ceevent.New()
	ce.SetID(uuid.NewString())
	ce.SetType(eventType)
	ce.SetSource(source)
	ce.SetSubject(orderID)
	ce.SetTime(at)
	ce.SetExtension(publicKeyExtension, publicKey)
	if err := ce.SetData(ceevent.ApplicationJSON, data); err != nil {
		return ports.AuditEvent{}, err
	}
	if err := ce.Validate(); err != nil {
		return ports.AuditEvent{}, err
	}
	raw, err := json.Marshal(ce)
	if err != nil {
		return ports.AuditEvent{}, err
	}
	return ports.AuditEvent{
		ID:        ce.ID(),
		Type:      ce.Type(),
		Source:    ce.Source(),
		Subject:   ce.Subject(),
		PublicKey: publicKey,
		OrderID:   orderID,
		Time:      ce.Time(),
		Payload:   raw,
	}, nil
}

// CashbackAmount rounds orderValue*rate half-up to cents.
func CashbackAmount(orderValue, rate decimal.Decimal) decimal.Decimal {
	return orderValue.Mul(rate).Round(2)
}

// ParsePurchaseEvent decodes a purchase report. Snake case keys are
// canonical; camel case keys are accepted for older widget builds.
func ParsePurchaseEvent(body []byte) (domain.PurchaseEvent, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var object map[string]any
	if err := decoder.Decode(&object); err != nil || object == nil {
		return domain.PurchaseEvent{}, fmt.Errorf("%w: body is not a JSON object", ErrMissingFields)
	}

	event := domain.PurchaseEvent{
		UserID:    stringField(object, "user_id", "userId"),
		OrderID:   stringField(object, "order_id", "orderId"),
		PublicKey: stringField(object, "public_key", "publicKey"),
		ShopName:  stringField(object, "shop_name", "shopName"),
		Timestamp: stringField(object, "timestamp"),
		Signature: stringField(object, signatureField),
	}
	if event.UserID == "" || event.OrderID == "" || event.PublicKey == "" {
		return domain.PurchaseEvent{}, fmt.Errorf("%w: user_id, order_id and public_key are required", ErrMissingFields)
	}

	value, ok := decimalField(object, "order_value", "orderValue")
	if !ok || !value.IsPositive() {
		return domain.PurchaseEvent{}, fmt.Errorf("%w: order_value must be a positive number", ErrMissingFields)
	}
	if !orderValueInRange(value) {
		return domain.PurchaseEvent{}, fmt.Errorf("%w: order_value must have at most %d integer and %d fractional digits",
			ErrMissingFields, maxOrderIntegerDigits, maxOrderFractionDigits)
	}
	event.OrderValue = value
	return event, nil
}

func stringField(object map[string]any, keys ...string) string {
	for _, key := range keys {
		switch value := object[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		case json.Number:
			return value.String()
		}
	}
	return ""
}

func decimalField(object map[string]any, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		var raw string
		switch value := object[key].(type) {
		case json.Number:
			raw = value.String()
		case string:
			raw = strings.TrimSpace(value)
		default:
			continue
		}
		if len(raw) > maxOrderValueLength {
			return decimal.Decimal{}, false
		}
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return parsed, true
	}
	return decimal.Decimal{}, false
}

// orderValueInRange checks the exponent before rescaling so a value like
// 1e20000000 never reaches big.Int arithmetic.
func orderValueInRange(value decimal.Decimal) bool {
	exp := value.Exponent()
	if exp < -maxOrderValueLength || exp > maxOrderIntegerDigits {
		return false
	}
	if value.NumDigits()+int(exp) > maxOrderIntegerDigits {
		return false
	}
	return value.Equal(value.Truncate(maxOrderFractionDigits))
}

func creditDescription(orderID, shopName string) string {
	if shopName == "" {
		return "Cashback for order " + orderID
	}
	return "Cashback for order " + orderID + " at " + shopName
}

func purchaseOutcome(result TrackPurchaseResult, err error) string {
	switch {
	case err != nil:
		return string(ClassifyError(err))
	case result.Replayed:
		return "replayed"
	default:
		return string(result.Status)
	}
}
