package wallet

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

type recordedQueue struct {
	mu       sync.Mutex
	enqueued []ports.CreditRequest
	errors   []string
}

func (q *recordedQueue) Enqueue(_ context.Context, req ports.CreditRequest, lastError string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, req)
	q.errors = append(q.errors, lastError)
	return nil
}

func (q *recordedQueue) ListPending(context.Context, int) ([]domain.Reconciliation, error) {
	return nil, nil
}

func (q *recordedQueue) Resolve(context.Context, int64) error { return nil }

func (q *recordedQueue) RecordFailure(context.Context, int64, string) error { return nil }

type countingRecorder struct {
	mu       sync.Mutex
	attempts map[string]int
}

func (r *countingRecorder) LedgerAttempt(sink, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = map[string]int{}
	}
	r.attempts[sink+"/"+result]++
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRequest() ports.CreditRequest {
	return ports.CreditRequest{
		PurchaseID:  "pur_1",
		UserID:      "user-7",
		PublicKey:   "pk_live_42",
		OrderID:     "ORD-9",
		ShopName:    "Acme Store",
		Amount:      decimal.RequireFromString("12.35"),
		Description: "Cashback for order ORD-9",
	}
}

func TestGatewayFallsBackToNextSink(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		require.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		require.Equal(t, "cashback:pk_live_42:ORD-9", r.Header.Get("Idempotency-Key"))

		switch r.URL.Path {
		case "/wallet/credit":
			w.WriteHeader(http.StatusBadGateway)
		case "/wallet/transactions":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "credit", body["type"])
			require.Equal(t, 12.35, body["amount"])
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"transaction_id":"ltx_77","balance":"112.35"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit", "transactions", "add_funds"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	recorder := &countingRecorder{}
	queue := &recordedQueue{}
	gateway := NewGateway(sinks, queue, WithLogger(quietLogger()), WithRecorder(recorder))

	result := gateway.Credit(context.Background(), sampleRequest())

	require.True(t, result.Success())
	require.Equal(t, "ltx_77", result.TransactionID)
	require.False(t, result.Provisional)
	require.Equal(t, "transactions", result.Sink)
	require.NotNil(t, result.NewBalance)
	require.True(t, result.NewBalance.Equal(decimal.RequireFromString("112.35")))
	require.Equal(t, []string{"/wallet/credit", "/wallet/transactions"}, paths)
	require.Empty(t, queue.enqueued)
	require.Equal(t, 1, recorder.attempts["credit/error"])
	require.Equal(t, 1, recorder.attempts["transactions/credited"])
}

func TestGatewaySendsCashbackMetadataOnEveryRoute(t *testing.T) {
	var mu sync.Mutex
	bodies := map[string]map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		bodies[r.URL.Path] = body
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit", "transactions", "add_funds"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	NewGateway(sinks, &recordedQueue{}, WithLogger(quietLogger())).Credit(context.Background(), sampleRequest())

	require.Len(t, bodies, 3)
	for path, body := range bodies {
		metadata, ok := body["metadata"].(map[string]any)
		require.Truef(t, ok, "%s: metadata missing in %v", path, body)
		require.Equal(t, "cashback", metadata["type"], path)
		require.Equal(t, "ORD-9", metadata["order_id"], path)
		require.Equal(t, "Acme Store", metadata["shop_name"], path)
		require.Equal(t, "user-7", body["user_id"], path)
	}
	require.Equal(t, "Cashback for order ORD-9", bodies["/wallet/credit"]["reason"])
}

func TestGatewayAllSinksFailQueuesReconciliation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit", "add_funds"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	queue := &recordedQueue{}
	gateway := NewGateway(sinks, queue, WithLogger(quietLogger()))

	result := gateway.Credit(context.Background(), sampleRequest())

	require.False(t, result.Success())
	require.Equal(t, domain.CreditStatusPendingReconciliation, result.Status)
	require.Empty(t, result.TransactionID)
	require.Contains(t, result.Error, "status=500")
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, "cashback:pk_live_42:ORD-9", queue.enqueued[0].IdempotencyKey)
}

func TestGatewayWithoutSinksNeverFabricatesSuccess(t *testing.T) {
	queue := &recordedQueue{}
	result := NewGateway(nil, queue, WithLogger(quietLogger())).Credit(context.Background(), sampleRequest())

	require.Equal(t, domain.CreditStatusPendingReconciliation, result.Status)
	require.Equal(t, ErrNoSinks.Error(), result.Error)
	require.Len(t, queue.enqueued, 1)
}

func TestGatewayProvisionalTransactionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"add_funds"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	gateway := NewGateway(sinks, &recordedQueue{}, WithLogger(quietLogger()))
	gateway.now = func() time.Time { return time.Unix(1_760_000_000, 0) }

	result := gateway.Credit(context.Background(), sampleRequest())

	require.True(t, result.Success())
	require.True(t, result.Provisional)
	require.Regexp(t, regexp.MustCompile(`^tx_1760000000_[0-9a-f]{12}$`), result.TransactionID)
	require.Nil(t, result.NewBalance)
}

func TestGatewayTreatsConflictAsAlreadyApplied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"transaction":{"id":"ltx_first"},"wallet":{"balance":50}}`))
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	recorder := &countingRecorder{}
	gateway := NewGateway(sinks, &recordedQueue{}, WithLogger(quietLogger()), WithRecorder(recorder))

	result := gateway.Credit(context.Background(), sampleRequest())

	require.True(t, result.Success())
	require.Equal(t, "ltx_first", result.TransactionID)
	require.True(t, result.NewBalance.Equal(decimal.NewFromInt(50)))
	require.Equal(t, 1, recorder.attempts["credit/already_applied"])
}

func TestGatewayIgnoresCallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"transaction_id":"ltx_1","new_balance":1}`))
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	gateway := NewGateway(sinks, &recordedQueue{}, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := gateway.Credit(ctx, sampleRequest())

	require.True(t, result.Success())
	require.Equal(t, "ltx_1", result.TransactionID)
}

func TestGatewayTimesOutSlowSink(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	sinks, err := SinksFromRoutes([]string{"credit"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	queue := &recordedQueue{}
	gateway := NewGateway(sinks, queue, WithLogger(quietLogger()), WithTimeout(50*time.Millisecond))

	result := gateway.Credit(context.Background(), sampleRequest())

	require.Equal(t, domain.CreditStatusPendingReconciliation, result.Status)
	require.Len(t, queue.enqueued, 1)
}

func TestJWTSourceMintsVerifiableToken(t *testing.T) {
	source := NewJWTSource("ledger-secret", "cashwidget", "wallet-ledger", time.Minute)

	raw, err := source.Token(context.Background())
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return []byte("ledger-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience("wallet-ledger"), jwt.WithIssuer("cashwidget"))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestSinksFromRoutesRejectsUnknownRoute(t *testing.T) {
	_, err := SinksFromRoutes([]string{"teleport"}, "http://ledger", nil, StaticToken("x"))
	require.Error(t, err)

	sinks, err := SinksFromRoutes([]string{"credit"}, "", nil, StaticToken("x"))
	require.NoError(t, err)
	require.Empty(t, sinks)
}

func TestGatewayRedeliverDoesNotRequeue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sinks, err := SinksFromRoutes([]string{"credit"}, server.URL, server.Client(), StaticToken("svc-token"))
	require.NoError(t, err)
	queue := &recordedQueue{}
	gateway := NewGateway(sinks, queue, WithLogger(quietLogger()))

	_, err = gateway.Redeliver(context.Background(), sampleRequest())
	require.Error(t, err)
	require.Empty(t, queue.enqueued)
}
