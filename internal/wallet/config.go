package wallet

import (
	"time"

	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/config"
	"github.com/fr0stylo/cashwidget/internal/observability"
)

const (
	tokenIssuer   = "cashwidget"
	tokenAudience = "wallet-ledger"
)

// TokenSourceFromConfig prefers minted JWTs over a static bearer token.
func TokenSourceFromConfig(cfg config.LedgerConfig) TokenSource {
	if cfg.JWTSecret != "" {
		return NewJWTSource(cfg.JWTSecret, tokenIssuer, tokenAudience, 5*time.Minute)
	}
	return StaticToken(cfg.Token)
}

// GatewayFromConfig wires the configured route cascade behind an
// instrumented HTTP client.
func GatewayFromConfig(cfg config.LedgerConfig, queue ports.ReconciliationQueue, opts ...Option) (*Gateway, error) {
	client := observability.NewHTTPClient(cfg.Timeout)
	sinks, err := SinksFromRoutes(cfg.Routes, cfg.BaseURL, client, TokenSourceFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	return NewGateway(sinks, queue, append([]Option{WithTimeout(cfg.Timeout)}, opts...)...), nil
}
