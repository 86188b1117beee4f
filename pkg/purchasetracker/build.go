package purchasetracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/signing"
)

// BuildPurchaseBody renders a signed purchase report. An empty secret
// produces an unsigned body, which only sandbox tenants accept.
func BuildPurchaseBody(purchase Purchase, secret, scheme string) ([]byte, error) {
	fields, err := purchaseFields(purchase)
	if err != nil {
		return nil, err
	}
	unsigned, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode purchase: %w", err)
	}
	if strings.TrimSpace(secret) == "" {
		return unsigned, nil
	}

	deriver, err := signing.DeriverForScheme(scheme)
	if err != nil {
		return nil, err
	}
	canonical, err := signing.CanonicalPayload(unsigned)
	if err != nil {
		return nil, err
	}
	fields["signature"] = signing.NewService(secret, deriver).SignPurchase(canonical, "")
	return json.Marshal(fields)
}

func purchaseFields(purchase Purchase) (map[string]any, error) {
	publicKey := strings.TrimSpace(purchase.PublicKey)
	userID := strings.TrimSpace(purchase.UserID)
	orderID := strings.TrimSpace(purchase.OrderID)
	if publicKey == "" || userID == "" || orderID == "" {
		return nil, fmt.Errorf("public key, user id and order id are required")
	}
	value, err := decimal.NewFromString(strings.TrimSpace(purchase.OrderValue))
	if err != nil {
		return nil, fmt.Errorf("invalid order value %q: %w", purchase.OrderValue, err)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("order value must be positive, got %s", value)
	}

	timestamp := purchase.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	fields := map[string]any{
		"public_key":  publicKey,
		"user_id":     userID,
		"order_id":    orderID,
		"order_value": json.Number(value.String()),
		"timestamp":   timestamp.UTC().Format(time.RFC3339),
	}
	if shop := strings.TrimSpace(purchase.ShopName); shop != "" {
		fields["shop_name"] = shop
	}
	return fields, nil
}
