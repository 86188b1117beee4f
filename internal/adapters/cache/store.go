// Package cache keeps tenant configuration and signed config bodies in an
// in-process fastcache. Entries are keyed by tenant version, so a version
// bump makes stale entries unreachable. The cache is per process; multiple
// instances each revalidate against the backing store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

type versionCheck struct {
	version   int64
	checkedAt time.Time
}

// Store wraps a VersionedConfigStore. After ttl it asks the backing store for
// the current version before serving a cached entry.
type Store struct {
	inner ports.VersionedConfigStore
	cache *fastcache.Cache
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	checked map[string]versionCheck
}

// New creates a cache of roughly maxBytes. The cache must be shared with
// NewBodyCache through Cache() to keep one memory budget.
func New(inner ports.VersionedConfigStore, maxBytes int, ttl time.Duration) *Store {
	if maxBytes <= 0 {
		maxBytes = 32 * 1024 * 1024
	}
	return &Store{
		inner:   inner,
		cache:   fastcache.New(maxBytes),
		ttl:     ttl,
		now:     time.Now,
		checked: make(map[string]versionCheck),
	}
}

// Cache exposes the underlying fastcache.
func (s *Store) Cache() *fastcache.Cache {
	return s.cache
}

func (s *Store) Lookup(ctx context.Context, publicKey string) (domain.TenantWidgetConfig, bool, error) {
	version, found, err := s.currentVersion(ctx, publicKey)
	if err != nil || !found {
		return domain.TenantWidgetConfig{}, false, err
	}

	key := configKey(publicKey, version)
	if raw := s.cache.GetBig(nil, key); len(raw) > 0 {
		cfg, err := decodeConfig(raw)
		if err == nil {
			return cfg, true, nil
		}
		s.cache.Del(key)
	}

	cfg, found, err := s.inner.Lookup(ctx, publicKey)
	if err != nil || !found {
		s.forget(publicKey)
		return domain.TenantWidgetConfig{}, false, err
	}
	if raw, err := encodeConfig(cfg); err == nil {
		s.cache.SetBig(configKey(publicKey, cfg.Version), raw)
	}
	s.remember(publicKey, cfg.Version)
	return cfg, true, nil
}

func (s *Store) Version(ctx context.Context, publicKey string) (int64, bool, error) {
	return s.currentVersion(ctx, publicKey)
}

// Invalidate drops the remembered version so the next lookup revalidates.
func (s *Store) Invalidate(publicKey string) {
	s.forget(publicKey)
}

func (s *Store) currentVersion(ctx context.Context, publicKey string) (int64, bool, error) {
	s.mu.Lock()
	check, ok := s.checked[publicKey]
	s.mu.Unlock()
	if ok && s.now().Sub(check.checkedAt) < s.ttl {
		return check.version, true, nil
	}

	version, found, err := s.inner.Version(ctx, publicKey)
	if err != nil {
		return 0, false, err
	}
	if !found {
		s.forget(publicKey)
		return 0, false, nil
	}
	s.remember(publicKey, version)
	return version, true, nil
}

func (s *Store) remember(publicKey string, version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked[publicKey] = versionCheck{version: version, checkedAt: s.now()}
}

func (s *Store) forget(publicKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checked, publicKey)
}

func configKey(publicKey string, version int64) []byte {
	return []byte("cfg|" + publicKey + "|" + strconv.FormatInt(version, 10))
}

type cachedConfig struct {
	CompanyID          string   `cbor:"1,keyasint"`
	PublicKey          string   `cbor:"2,keyasint"`
	Name               string   `cbor:"3,keyasint"`
	Brand              string   `cbor:"4,keyasint"`
	AllowedDomains     []string `cbor:"5,keyasint"`
	Theme              []byte   `cbor:"6,keyasint"`
	Behavior           []byte   `cbor:"7,keyasint"`
	Features           []byte   `cbor:"8,keyasint"`
	I18n               []byte   `cbor:"9,keyasint"`
	Integrations       []byte   `cbor:"10,keyasint"`
	VisibilityRules    []byte   `cbor:"11,keyasint"`
	RateLimitPerMinute int      `cbor:"12,keyasint"`
	CashbackRate       string   `cbor:"13,keyasint"`
	SigningSecret      string   `cbor:"14,keyasint"`
	Sandbox            bool     `cbor:"15,keyasint"`
	Version            int64    `cbor:"16,keyasint"`
	Enabled            bool     `cbor:"17,keyasint"`
}

func encodeConfig(cfg domain.TenantWidgetConfig) ([]byte, error) {
	return cbor.Marshal(cachedConfig{
		CompanyID:          cfg.CompanyID,
		PublicKey:          cfg.PublicKey,
		Name:               cfg.Name,
		Brand:              cfg.Brand,
		AllowedDomains:     cfg.AllowedDomains,
		Theme:              cfg.Theme,
		Behavior:           cfg.Behavior,
		Features:           cfg.Features,
		I18n:               cfg.I18n,
		Integrations:       cfg.Integrations,
		VisibilityRules:    cfg.VisibilityRules,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CashbackRate:       cfg.CashbackRate.String(),
		SigningSecret:      cfg.SigningSecret,
		Sandbox:            cfg.Sandbox,
		Version:            cfg.Version,
		Enabled:            cfg.Enabled,
	})
}

func decodeConfig(raw []byte) (domain.TenantWidgetConfig, error) {
	var entry cachedConfig
	if err := cbor.Unmarshal(raw, &entry); err != nil {
		return domain.TenantWidgetConfig{}, fmt.Errorf("decode cached config: %w", err)
	}
	rate, err := decimal.NewFromString(entry.CashbackRate)
	if err != nil {
		return domain.TenantWidgetConfig{}, fmt.Errorf("decode cached cashback rate: %w", err)
	}
	return domain.TenantWidgetConfig{
		CompanyID:          entry.CompanyID,
		PublicKey:          entry.PublicKey,
		Name:               entry.Name,
		Brand:              entry.Brand,
		AllowedDomains:     entry.AllowedDomains,
		Theme:              json.RawMessage(entry.Theme),
		Behavior:           json.RawMessage(entry.Behavior),
		Features:           json.RawMessage(entry.Features),
		I18n:               json.RawMessage(entry.I18n),
		Integrations:       json.RawMessage(entry.Integrations),
		VisibilityRules:    json.RawMessage(entry.VisibilityRules),
		RateLimitPerMinute: entry.RateLimitPerMinute,
		CashbackRate:       rate,
		SigningSecret:      entry.SigningSecret,
		Sandbox:            entry.Sandbox,
		Version:            entry.Version,
		Enabled:            entry.Enabled,
	}, nil
}

var _ ports.VersionedConfigStore = (*Store)(nil)
