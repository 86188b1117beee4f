package purchasetracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fr0stylo/cashwidget/internal/signing"
)

func samplePurchase() Purchase {
	return Purchase{
		PublicKey:  "PUB_abc123",
		UserID:     "u1",
		OrderID:    "o1",
		OrderValue: "100.00",
		ShopName:   "Shop NL",
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildPurchaseBodySignsCanonicalPayload(t *testing.T) {
	body, err := BuildPurchaseBody(samplePurchase(), "partner-secret", "concat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	signature, _ := fields["signature"].(string)
	if signature == "" {
		t.Fatal("expected signature in body")
	}

	canonical, err := signing.CanonicalPayload(body, "signature")
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	verifier := signing.NewService("partner-secret", signing.ConcatDeriver{})
	if !verifier.VerifyPurchase(canonical, "", signature) {
		t.Fatal("signature does not verify against canonical payload")
	}
	if !strings.Contains(string(canonical), `"order_value":100`) {
		t.Fatalf("expected numeric order_value, got %s", canonical)
	}
}

func TestBuildPurchaseBodyWithoutSecretIsUnsigned(t *testing.T) {
	body, err := BuildPurchaseBody(samplePurchase(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(body), "signature") {
		t.Fatalf("expected unsigned body, got %s", body)
	}
}

func TestBuildPurchaseBodyRejectsInvalidInput(t *testing.T) {
	cases := map[string]Purchase{
		"missing order": {PublicKey: "PUB_abc123", UserID: "u1", OrderValue: "10"},
		"bad value":     {PublicKey: "PUB_abc123", UserID: "u1", OrderID: "o1", OrderValue: "ten"},
		"zero value":    {PublicKey: "PUB_abc123", UserID: "u1", OrderID: "o1", OrderValue: "0"},
	}
	for name, purchase := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := BuildPurchaseBody(purchase, "partner-secret", ""); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestTrackPostsAndParsesReceipt(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Purchase tracked and cashback credited","data":{"purchase_id":"o1","cashback_amount":10.00,"wallet_balance":42.50,"transaction_id":"ltx_1","provisional":false}}`))
	}))
	defer server.Close()

	client := Client{Endpoint: server.URL + "/", Secret: "partner-secret"}
	receipt, err := client.Track(context.Background(), samplePurchase())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/widget/track-purchase" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type: %s", gotContentType)
	}
	if !strings.Contains(string(gotBody), `"signature"`) {
		t.Fatalf("expected signed body, got %s", gotBody)
	}
	if receipt.PurchaseID != "o1" || receipt.CashbackAmount != "10.00" || receipt.WalletBalance != "42.50" || receipt.TransactionID != "ltx_1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if receipt.Replayed || receipt.Provisional {
		t.Fatalf("unexpected flags: %+v", receipt)
	}
}

func TestTrackReturnsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to credit wallet","details":"credit: ledger returned status=502","status":"pending_reconciliation"}`))
	}))
	defer server.Close()

	_, err := Client{Endpoint: server.URL, Secret: "partner-secret"}.Track(context.Background(), samplePurchase())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Failed to credit wallet: credit: ledger returned status=502") {
		t.Fatalf("unexpected error: %v", err)
	}
}
