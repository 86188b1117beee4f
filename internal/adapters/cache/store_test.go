package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

type countingStore struct {
	tenants  map[string]domain.TenantWidgetConfig
	lookups  int
	versions int
}

func (s *countingStore) Lookup(_ context.Context, publicKey string) (domain.TenantWidgetConfig, bool, error) {
	s.lookups++
	cfg, ok := s.tenants[publicKey]
	return cfg, ok, nil
}

func (s *countingStore) Version(_ context.Context, publicKey string) (int64, bool, error) {
	s.versions++
	cfg, ok := s.tenants[publicKey]
	return cfg.Version, ok, nil
}

func newCountingStore() *countingStore {
	return &countingStore{tenants: map[string]domain.TenantWidgetConfig{
		"pk": {
			CompanyID:          "c1",
			PublicKey:          "pk",
			AllowedDomains:     []string{"shop.example.com"},
			Theme:              json.RawMessage(`{"primary":"#0af"}`),
			RateLimitPerMinute: 10,
			CashbackRate:       decimal.RequireFromString("0.07"),
			Version:            1,
			Enabled:            true,
		},
	}}
}

func TestStoreServesCachedEntryWithinTTL(t *testing.T) {
	inner := newCountingStore()
	store := New(inner, 1<<20, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		cfg, found, err := store.Lookup(context.Background(), "pk")
		if err != nil || !found {
			t.Fatalf("lookup %d: found=%v err=%v", i, found, err)
		}
		if string(cfg.Theme) != `{"primary":"#0af"}` || !cfg.CashbackRate.Equal(decimal.RequireFromString("0.07")) {
			t.Fatalf("unexpected cached config %+v", cfg)
		}
	}
	if inner.lookups != 1 || inner.versions != 1 {
		t.Fatalf("expected one backing lookup and version check, got lookups=%d versions=%d", inner.lookups, inner.versions)
	}
}

func TestStoreRevalidatesAfterTTLAndFollowsVersionBump(t *testing.T) {
	inner := newCountingStore()
	store := New(inner, 1<<20, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	if _, _, err := store.Lookup(context.Background(), "pk"); err != nil {
		t.Fatalf("warm lookup: %v", err)
	}

	updated := inner.tenants["pk"]
	updated.Version = 2
	updated.Theme = json.RawMessage(`{"primary":"#f00"}`)
	inner.tenants["pk"] = updated

	cfg, _, _ := store.Lookup(context.Background(), "pk")
	if cfg.Version != 1 {
		t.Fatalf("expected stale version within TTL, got %d", cfg.Version)
	}

	now = now.Add(2 * time.Minute)
	cfg, found, err := store.Lookup(context.Background(), "pk")
	if err != nil || !found {
		t.Fatalf("lookup after ttl: found=%v err=%v", found, err)
	}
	if cfg.Version != 2 || string(cfg.Theme) != `{"primary":"#f00"}` {
		t.Fatalf("expected version 2 config after revalidation, got %+v", cfg)
	}
}

func TestStoreForgetsRemovedTenant(t *testing.T) {
	inner := newCountingStore()
	store := New(inner, 1<<20, 0)

	if _, found, _ := store.Lookup(context.Background(), "pk"); !found {
		t.Fatal("expected tenant found")
	}
	delete(inner.tenants, "pk")
	if _, found, err := store.Lookup(context.Background(), "pk"); err != nil || found {
		t.Fatalf("expected removed tenant to be not found, got found=%v err=%v", found, err)
	}
}

func TestBodyCacheKeyedByVersion(t *testing.T) {
	store := New(newCountingStore(), 1<<20, time.Minute)
	bodies := NewBodyCache(store.Cache())

	bodies.Set("pk", 1, ports.SignedBody{Body: []byte(`{"version":1}`), Signature: "abc"})
	entry, ok := bodies.Get("pk", 1)
	if !ok || string(entry.Body) != `{"version":1}` || entry.Signature != "abc" {
		t.Fatalf("unexpected cached body %+v ok=%v", entry, ok)
	}
	if _, ok := bodies.Get("pk", 2); ok {
		t.Fatal("expected miss for a different version")
	}
}
