package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer credential for ledger calls. Credentials
// are always server-side; nothing from the partner request reaches the ledger.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed API token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	value := strings.TrimSpace(string(t))
	if value == "" {
		return "", errors.New("ledger token is empty")
	}
	return value, nil
}

// JWTSource mints short-lived HS256 service tokens.
type JWTSource struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	now      func() time.Time
}

func NewJWTSource(secret, issuer, audience string, ttl time.Duration) *JWTSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JWTSource{Secret: []byte(secret), Issuer: issuer, Audience: audience, TTL: ttl, now: time.Now}
}

func (s *JWTSource) Token(context.Context) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("ledger jwt secret is empty")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   "cashback-service",
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}
	if s.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}
