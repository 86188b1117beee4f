package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

// PurchaseStore records attributed purchases, one row per (public key, order id).
type PurchaseStore struct {
	db purchaseDatabase
}

func NewPurchaseStore(database purchaseDatabase) *PurchaseStore {
	return &PurchaseStore{db: database}
}

func (s *PurchaseStore) Claim(ctx context.Context, claim ports.PurchaseClaim) (domain.PurchaseRecord, bool, error) {
	var (
		row     queries.Purchase
		created bool
	)
	err := s.db.WithTx(ctx, func(q *queries.Queries) error {
		inserted, err := q.ClaimPurchase(ctx, queries.ClaimPurchaseParams{
			ID:             claim.ID,
			PublicKey:      claim.PublicKey,
			OrderID:        claim.OrderID,
			UserID:         claim.UserID,
			ShopName:       claim.ShopName,
			OrderValue:     claim.OrderValue.String(),
			CashbackAmount: claim.CashbackAmount.StringFixed(2),
		})
		if err != nil {
			return err
		}
		created = inserted > 0
		row, err = q.GetPurchaseByOrder(ctx, queries.GetPurchaseByOrderParams{PublicKey: claim.PublicKey, OrderID: claim.OrderID})
		return err
	})
	if err != nil {
		return domain.PurchaseRecord{}, false, fmt.Errorf("claim purchase %s/%s: %w", claim.PublicKey, claim.OrderID, err)
	}
	record, err := purchaseFromRow(row)
	if err != nil {
		return domain.PurchaseRecord{}, false, err
	}
	return record, created, nil
}

func (s *PurchaseStore) MarkCredited(ctx context.Context, purchaseID string, result domain.CreditResult) error {
	balance := ""
	if result.NewBalance != nil {
		balance = result.NewBalance.String()
	}
	if err := s.db.MarkPurchaseCredited(ctx, queries.MarkPurchaseCreditedParams{
		TransactionID: result.TransactionID,
		Provisional:   boolToInt(result.Provisional),
		WalletBalance: balance,
		ID:            purchaseID,
	}); err != nil {
		return fmt.Errorf("mark purchase %s credited: %w", purchaseID, err)
	}
	return nil
}

func (s *PurchaseStore) MarkPending(ctx context.Context, purchaseID string) error {
	if err := s.db.MarkPurchasePending(ctx, purchaseID); err != nil {
		return fmt.Errorf("mark purchase %s pending: %w", purchaseID, err)
	}
	return nil
}

// ListStale returns unsettled purchases last touched before the cutoff that
// have no pending reconciliation entry.
func (s *PurchaseStore) ListStale(ctx context.Context, before time.Time, limit int) ([]domain.PurchaseRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.ListStalePurchases(ctx, queries.ListStalePurchasesParams{
		UpdatedAt: before.UTC().Format(sqliteTimestampLayout),
		Limit:     int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list stale purchases: %w", err)
	}
	out := make([]domain.PurchaseRecord, 0, len(rows))
	for _, row := range rows {
		record, err := purchaseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Get loads the purchase stored for one tenant order.
func (s *PurchaseStore) Get(ctx context.Context, publicKey, orderID string) (domain.PurchaseRecord, error) {
	row, err := s.db.GetPurchaseByOrder(ctx, publicKey, orderID)
	if err != nil {
		return domain.PurchaseRecord{}, err
	}
	return purchaseFromRow(row)
}

func purchaseFromRow(row queries.Purchase) (domain.PurchaseRecord, error) {
	orderValue, err := decimal.NewFromString(row.OrderValue)
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("purchase %s: decode order value: %w", row.ID, err)
	}
	cashback, err := decimal.NewFromString(row.CashbackAmount)
	if err != nil {
		return domain.PurchaseRecord{}, fmt.Errorf("purchase %s: decode cashback: %w", row.ID, err)
	}
	record := domain.PurchaseRecord{
		ID:             row.ID,
		PublicKey:      row.PublicKey,
		OrderID:        row.OrderID,
		UserID:         row.UserID,
		ShopName:       row.ShopName,
		OrderValue:     orderValue,
		CashbackAmount: cashback,
		State:          domain.PurchaseState(row.State),
		TransactionID:  row.TransactionID,
		Provisional:    row.Provisional != 0,
		CreatedAt:      parseTimestamp(row.CreatedAt),
		UpdatedAt:      parseTimestamp(row.UpdatedAt),
	}
	if value := strings.TrimSpace(row.WalletBalance); value != "" {
		balance, err := decimal.NewFromString(value)
		if err == nil {
			record.WalletBalance = &balance
		}
	}
	return record, nil
}

var (
	_ ports.PurchaseStore       = (*PurchaseStore)(nil)
	_ ports.StalePurchaseFinder = (*PurchaseStore)(nil)
)
