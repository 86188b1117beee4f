package sqlite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/db"
	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

// TenantStore serves widget configuration from the tenants table.
type TenantStore struct {
	db tenantDatabase
}

func NewTenantStore(database tenantDatabase) *TenantStore {
	return &TenantStore{db: database}
}

func (s *TenantStore) Lookup(ctx context.Context, publicKey string) (domain.TenantWidgetConfig, bool, error) {
	row, err := s.db.GetTenant(ctx, publicKey)
	if errors.Is(err, db.ErrNotFound) {
		return domain.TenantWidgetConfig{}, false, nil
	}
	if err != nil {
		return domain.TenantWidgetConfig{}, false, fmt.Errorf("load tenant: %w", err)
	}
	if row.Enabled == 0 {
		return domain.TenantWidgetConfig{}, false, nil
	}
	cfg, err := tenantFromRow(row)
	if err != nil {
		return domain.TenantWidgetConfig{}, false, err
	}
	return cfg, true, nil
}

func (s *TenantStore) Version(ctx context.Context, publicKey string) (int64, bool, error) {
	row, err := s.db.GetTenantVersion(ctx, publicKey)
	if errors.Is(err, db.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load tenant version: %w", err)
	}
	if row.Enabled == 0 {
		return 0, false, nil
	}
	return row.Version, true, nil
}

// List returns every stored tenant, including disabled ones.
func (s *TenantStore) List(ctx context.Context) ([]domain.TenantWidgetConfig, error) {
	rows, err := s.db.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out := make([]domain.TenantWidgetConfig, 0, len(rows))
	for _, row := range rows {
		cfg, err := tenantFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Upsert stores a tenant and returns its version. The version only moves
// when a partner-visible or behavioural setting changed.
func (s *TenantStore) Upsert(ctx context.Context, cfg domain.TenantWidgetConfig) (int64, error) {
	publicKey := strings.TrimSpace(cfg.PublicKey)
	if publicKey == "" {
		return 0, errors.New("tenant public key is required")
	}
	if strings.TrimSpace(cfg.CompanyID) == "" {
		return 0, fmt.Errorf("tenant %s: company id is required", publicKey)
	}
	domains, err := json.Marshal(nonNilStrings(cfg.AllowedDomains))
	if err != nil {
		return 0, fmt.Errorf("encode allowed domains: %w", err)
	}
	hash, err := SettingsHash(cfg)
	if err != nil {
		return 0, err
	}
	cashbackRate := ""
	if !cfg.CashbackRate.IsZero() {
		cashbackRate = cfg.CashbackRate.String()
	}
	version, err := s.db.UpsertTenant(ctx, queries.UpsertTenantParams{
		PublicKey:          publicKey,
		CompanyID:          strings.TrimSpace(cfg.CompanyID),
		Name:               cfg.Name,
		Brand:              cfg.Brand,
		AllowedDomains:     string(domains),
		Theme:              rawOrEmpty(cfg.Theme),
		Behavior:           rawOrEmpty(cfg.Behavior),
		Features:           rawOrEmpty(cfg.Features),
		I18n:               rawOrEmpty(cfg.I18n),
		Integrations:       rawOrEmpty(cfg.Integrations),
		VisibilityRules:    rawOrEmpty(cfg.VisibilityRules),
		RateLimitPerMinute: int64(cfg.RateLimitPerMinute),
		CashbackRate:       cashbackRate,
		SigningSecret:      cfg.SigningSecret,
		Sandbox:            boolToInt(cfg.Sandbox),
		Enabled:            boolToInt(cfg.Enabled),
		SettingsHash:       hash,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert tenant %s: %w", publicKey, err)
	}
	return version, nil
}

// SettingsHash fingerprints every tenant setting except the version.
func SettingsHash(cfg domain.TenantWidgetConfig) (string, error) {
	fingerprint := struct {
		CompanyID          string          `json:"company_id"`
		Name               string          `json:"name"`
		Brand              string          `json:"brand"`
		AllowedDomains     []string        `json:"allowed_domains"`
		Theme              json.RawMessage `json:"theme"`
		Behavior           json.RawMessage `json:"behavior"`
		Features           json.RawMessage `json:"features"`
		I18n               json.RawMessage `json:"i18n"`
		Integrations       json.RawMessage `json:"integrations"`
		VisibilityRules    json.RawMessage `json:"visibility_rules"`
		RateLimitPerMinute int             `json:"rate_limit_per_minute"`
		CashbackRate       string          `json:"cashback_rate"`
		SigningSecret      string          `json:"signing_secret"`
		Sandbox            bool            `json:"sandbox"`
		Enabled            bool            `json:"enabled"`
	}{
		CompanyID:          strings.TrimSpace(cfg.CompanyID),
		Name:               cfg.Name,
		Brand:              cfg.Brand,
		AllowedDomains:     nonNilStrings(cfg.AllowedDomains),
		Theme:              json.RawMessage(rawOrEmpty(cfg.Theme)),
		Behavior:           json.RawMessage(rawOrEmpty(cfg.Behavior)),
		Features:           json.RawMessage(rawOrEmpty(cfg.Features)),
		I18n:               json.RawMessage(rawOrEmpty(cfg.I18n)),
		Integrations:       json.RawMessage(rawOrEmpty(cfg.Integrations)),
		VisibilityRules:    json.RawMessage(rawOrEmpty(cfg.VisibilityRules)),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CashbackRate:       cfg.CashbackRate.String(),
		SigningSecret:      cfg.SigningSecret,
		Sandbox:            cfg.Sandbox,
		Enabled:            cfg.Enabled,
	}
	raw, err := json.Marshal(fingerprint)
	if err != nil {
		return "", fmt.Errorf("fingerprint tenant settings: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func tenantFromRow(row queries.Tenant) (domain.TenantWidgetConfig, error) {
	var domains []string
	if strings.TrimSpace(row.AllowedDomains) != "" {
		if err := json.Unmarshal([]byte(row.AllowedDomains), &domains); err != nil {
			return domain.TenantWidgetConfig{}, fmt.Errorf("tenant %s: decode allowed domains: %w", row.PublicKey, err)
		}
	}
	cashbackRate := decimal.Zero
	if value := strings.TrimSpace(row.CashbackRate); value != "" {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return domain.TenantWidgetConfig{}, fmt.Errorf("tenant %s: decode cashback rate: %w", row.PublicKey, err)
		}
		cashbackRate = parsed
	}
	return domain.TenantWidgetConfig{
		CompanyID:          row.CompanyID,
		PublicKey:          row.PublicKey,
		Name:               row.Name,
		Brand:              row.Brand,
		AllowedDomains:     domains,
		Theme:              json.RawMessage(row.Theme),
		Behavior:           json.RawMessage(row.Behavior),
		Features:           json.RawMessage(row.Features),
		I18n:               json.RawMessage(row.I18n),
		Integrations:       json.RawMessage(row.Integrations),
		VisibilityRules:    json.RawMessage(row.VisibilityRules),
		RateLimitPerMinute: int(row.RateLimitPerMinute),
		CashbackRate:       cashbackRate,
		SigningSecret:      row.SigningSecret,
		Sandbox:            row.Sandbox != 0,
		Version:            row.Version,
		Enabled:            row.Enabled != 0,
	}, nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return "{}"
	}
	return string(raw)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ ports.VersionedConfigStore = (*TenantStore)(nil)
