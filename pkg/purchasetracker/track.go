package purchasetracker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const trackPath = "/widget/track-purchase"

// Track signs and submits one purchase. Non-2xx responses are returned as
// errors carrying the server's error and details fields.
func (c Client) Track(ctx context.Context, purchase Purchase) (Receipt, error) {
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		return Receipt{}, fmt.Errorf("endpoint is required")
	}
	body, err := BuildPurchaseBody(purchase, c.Secret, c.Scheme)
	if err != nil {
		return Receipt{}, err
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(endpoint, "/")+trackPath, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		message := gjson.GetBytes(payload, "error").String()
		if details := gjson.GetBytes(payload, "details").String(); details != "" {
			message += ": " + details
		}
		if message == "" {
			message = strings.TrimSpace(string(payload))
		}
		return Receipt{}, fmt.Errorf("purchase rejected: status=%s %s", resp.Status, message)
	}

	data := gjson.GetBytes(payload, "data")
	return Receipt{
		PurchaseID:     data.Get("purchase_id").String(),
		CashbackAmount: data.Get("cashback_amount").Raw,
		WalletBalance:  nullable(data.Get("wallet_balance")),
		TransactionID:  data.Get("transaction_id").String(),
		Provisional:    data.Get("provisional").Bool(),
		Replayed:       gjson.GetBytes(payload, "message").String() == "Purchase already tracked",
	}, nil
}

func nullable(value gjson.Result) string {
	if !value.Exists() || value.Type == gjson.Null {
		return ""
	}
	return value.Raw
}
