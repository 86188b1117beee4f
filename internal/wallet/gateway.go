// Package wallet credits cashback to user wallets through an ordered list of
// ledger sinks. A credit either lands on a sink or is queued for
// reconciliation; it is never reported as successful otherwise.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/observability"
)

// ErrNoSinks is recorded when no ledger is configured.
var ErrNoSinks = errors.New("no ledger sinks configured")

// Recorder counts ledger attempts.
type Recorder interface {
	LedgerAttempt(sink, result string)
}

type Gateway struct {
	sinks    []CreditSink
	queue    ports.ReconciliationQueue
	timeout  time.Duration
	log      *slog.Logger
	recorder Recorder
	now      func() time.Time
}

type Option func(*Gateway)

func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(g *Gateway) {
		g.recorder = recorder
	}
}

// NewGateway tries sinks in order, primary first.
func NewGateway(sinks []CreditSink, queue ports.ReconciliationQueue, opts ...Option) *Gateway {
	g := &Gateway{
		sinks:   sinks,
		queue:   queue,
		timeout: 5 * time.Second,
		log:     slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Credit runs the sink cascade. Outbound calls are detached from the caller's
// cancellation so a client disconnect cannot abort a credit midway.
func (g *Gateway) Credit(ctx context.Context, req ports.CreditRequest) domain.CreditResult {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = domain.CreditIdempotencyKey(req.PublicKey, req.OrderID)
	}
	base := context.WithoutCancel(ctx)

	result, err := g.deliver(base, req)
	if err == nil {
		return result
	}

	message := err.Error()
	g.log.WarnContext(ctx, "Wallet credit pending reconciliation",
		"order_id", req.OrderID,
		"idempotency_key", req.IdempotencyKey,
		"error", message,
	)
	if g.queue != nil {
		if err := g.queue.Enqueue(base, req, message); err != nil {
			g.log.ErrorContext(ctx, "Failed to enqueue reconciliation", "order_id", req.OrderID, "error", err)
		}
	}
	return domain.CreditResult{
		Status: domain.CreditStatusPendingReconciliation,
		Error:  message,
	}
}

// Redeliver runs the sink cascade for a queued credit. Failures are returned
// to the caller instead of being queued again.
func (g *Gateway) Redeliver(ctx context.Context, req ports.CreditRequest) (domain.CreditResult, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		req.IdempotencyKey = domain.CreditIdempotencyKey(req.PublicKey, req.OrderID)
	}
	return g.deliver(ctx, req)
}

func (g *Gateway) deliver(ctx context.Context, req ports.CreditRequest) (domain.CreditResult, error) {
	var lastErr error = ErrNoSinks
	for _, sink := range g.sinks {
		receipt, err := g.attempt(ctx, sink, req)
		if err != nil {
			lastErr = err
			continue
		}
		result := domain.CreditResult{
			Status:        domain.CreditStatusCredited,
			NewBalance:    receipt.Balance,
			TransactionID: receipt.TransactionID,
			Sink:          sink.Name(),
		}
		if result.TransactionID == "" {
			result.TransactionID = g.provisionalID()
			result.Provisional = true
		}
		return result, nil
	}
	return domain.CreditResult{}, lastErr
}

func (g *Gateway) attempt(base context.Context, sink CreditSink, req ports.CreditRequest) (Receipt, error) {
	ctx, cancel := context.WithTimeout(base, g.timeout)
	defer cancel()
	ctx, span := observability.StartLedgerSpan(ctx, sink.Name())
	defer span.End()

	started := time.Now()
	receipt, err := sink.Credit(ctx, req)
	elapsed := time.Since(started)
	if err != nil {
		span.RecordError(err)
		g.record(sink.Name(), "error")
		g.log.WarnContext(ctx, "Ledger credit attempt failed",
			"sink", sink.Name(),
			"order_id", req.OrderID,
			"duration", elapsed.String(),
			"error", err,
		)
		return Receipt{}, fmt.Errorf("%s: %w", sink.Name(), err)
	}
	outcome := "credited"
	if receipt.AlreadyApplied {
		outcome = "already_applied"
	}
	g.record(sink.Name(), outcome)
	g.log.InfoContext(ctx, "Ledger credit attempt succeeded",
		"sink", sink.Name(),
		"order_id", req.OrderID,
		"outcome", outcome,
		"duration", elapsed.String(),
	)
	return receipt, nil
}

func (g *Gateway) record(sink, result string) {
	if g.recorder != nil {
		g.recorder.LedgerAttempt(sink, result)
	}
}

func (g *Gateway) provisionalID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("tx_%d_%s", g.now().Unix(), random[:12])
}

// SinksFromRoutes builds HTTP sinks for the configured route order.
func SinksFromRoutes(routes []string, baseURL string, client *http.Client, tokens TokenSource) ([]CreditSink, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, nil
	}
	sinks := make([]CreditSink, 0, len(routes))
	for _, route := range routes {
		sink, err := NewHTTPSink(Route(route), baseURL, client, tokens)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

var _ ports.CreditGateway = (*Gateway)(nil)
