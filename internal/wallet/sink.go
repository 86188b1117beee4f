package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

// Receipt is what a ledger reported for an accepted credit.
type Receipt struct {
	TransactionID  string
	Balance        *decimal.Decimal
	AlreadyApplied bool
}

// CreditSink is one way of asking a ledger to credit a wallet.
type CreditSink interface {
	Name() string
	Credit(ctx context.Context, req ports.CreditRequest) (Receipt, error)
}

// StatusError is a non-success ledger HTTP response.
type StatusError struct {
	Sink   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ledger %s rejected credit: status=%d", e.Sink, e.Status)
}

// Route names the request shape a ledger endpoint expects.
type Route string

const (
	RouteCredit       Route = "credit"
	RouteTransactions Route = "transactions"
	RouteAddFunds     Route = "add_funds"
)

var routePaths = map[Route]string{
	RouteCredit:       "/wallet/credit",
	RouteTransactions: "/wallet/transactions",
	RouteAddFunds:     "/wallet/add-funds",
}

// HTTPSink posts credits to one ledger route.
type HTTPSink struct {
	route   Route
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

func NewHTTPSink(route Route, baseURL string, client *http.Client, tokens TokenSource) (*HTTPSink, error) {
	if _, ok := routePaths[route]; !ok {
		return nil, fmt.Errorf("unknown ledger route %q", route)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ledger base url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	if tokens == nil {
		return nil, errors.New("ledger token source is required")
	}
	return &HTTPSink{route: route, baseURL: baseURL, client: client, tokens: tokens}, nil
}

func (s *HTTPSink) Name() string {
	return string(s.route)
}

func (s *HTTPSink) Credit(ctx context.Context, req ports.CreditRequest) (Receipt, error) {
	body, err := json.Marshal(s.payload(req))
	if err != nil {
		return Receipt{}, fmt.Errorf("encode credit request: %w", err)
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("ledger credential: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+routePaths[s.route], bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Receipt{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusConflict {
		receipt := parseReceipt(payload)
		receipt.AlreadyApplied = true
		return receipt, nil
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Receipt{}, &StatusError{Sink: s.Name(), Status: resp.StatusCode}
	}
	return parseReceipt(payload), nil
}

func (s *HTTPSink) payload(req ports.CreditRequest) map[string]any {
	amount := json.Number(req.Amount.StringFixed(2))
	metadata := map[string]any{
		"type":      "cashback",
		"order_id":  req.OrderID,
		"shop_name": req.ShopName,
	}
	switch s.route {
	case RouteTransactions:
		return map[string]any{
			"user_id":     req.UserID,
			"type":        "credit",
			"amount":      amount,
			"description": req.Description,
			"reference":   req.IdempotencyKey,
			"metadata":    metadata,
		}
	case RouteAddFunds:
		return map[string]any{
			"user_id":   req.UserID,
			"amount":    amount,
			"source":    "cashback",
			"reference": req.IdempotencyKey,
			"metadata":  metadata,
		}
	default:
		return map[string]any{
			"user_id":   req.UserID,
			"amount":    amount,
			"reason":    req.Description,
			"reference": req.IdempotencyKey,
			"metadata":  metadata,
		}
	}
}

var (
	balancePaths     = []string{"new_balance", "balance", "data.new_balance", "data.balance", "wallet.balance", "data.wallet.balance"}
	transactionPaths = []string{"transaction_id", "transactionId", "data.transaction_id", "data.transaction.id", "transaction.id", "id", "data.id"}
)

func parseReceipt(payload []byte) Receipt {
	var receipt Receipt
	if !gjson.ValidBytes(payload) {
		return receipt
	}
	for _, path := range transactionPaths {
		if value := gjson.GetBytes(payload, path); value.Exists() && strings.TrimSpace(value.String()) != "" {
			receipt.TransactionID = strings.TrimSpace(value.String())
			break
		}
	}
	for _, path := range balancePaths {
		value := gjson.GetBytes(payload, path)
		if !value.Exists() {
			continue
		}
		raw := value.Raw
		if value.Type == gjson.String {
			raw = value.String()
		}
		if balance, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			receipt.Balance = &balance
			break
		}
	}
	return receipt
}
