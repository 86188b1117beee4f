// Package file loads tenant widget configuration from YAML or JSONC documents.
// It backs single-file deployments and the tenant import tool.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/fr0stylo/cashwidget/internal/app/domain"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
)

// Format selects the document syntax.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSONC Format = "jsonc"
)

// Store is an immutable in-memory tenant set.
type Store struct {
	tenants map[string]domain.TenantWidgetConfig
	order   []string
}

type document struct {
	Tenants []tenantDocument `json:"tenants" yaml:"tenants"`
}

type tenantDocument struct {
	PublicKey          string   `json:"public_key" yaml:"public_key"`
	CompanyID          string   `json:"company_id" yaml:"company_id"`
	Name               string   `json:"name" yaml:"name"`
	Brand              string   `json:"brand" yaml:"brand"`
	AllowedDomains     []string `json:"allowed_domains" yaml:"allowed_domains"`
	Theme              any      `json:"theme" yaml:"theme"`
	Behavior           any      `json:"behavior" yaml:"behavior"`
	Features           any      `json:"features" yaml:"features"`
	I18n               any      `json:"i18n" yaml:"i18n"`
	Integrations       any      `json:"integrations" yaml:"integrations"`
	VisibilityRules    any      `json:"visibility_rules" yaml:"visibility_rules"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	CashbackRate       rate     `json:"cashback_rate" yaml:"cashback_rate"`
	SigningSecret      string   `json:"signing_secret" yaml:"signing_secret"`
	Sandbox            bool     `json:"sandbox" yaml:"sandbox"`
	Enabled            *bool    `json:"enabled" yaml:"enabled"`
	Version            int64    `json:"version" yaml:"version"`
}

// rate accepts both quoted and bare decimal values.
type rate struct {
	decimal.Decimal
}

func (r *rate) UnmarshalJSON(data []byte) error {
	return r.parse(strings.Trim(string(data), `"`))
}

func (r *rate) UnmarshalYAML(node *yaml.Node) error {
	return r.parse(node.Value)
}

func (r *rate) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		r.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid cashback rate %q: %w", raw, err)
	}
	r.Decimal = parsed
	return nil
}

// FormatForPath infers the document format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSONC
	default:
		return FormatYAML
	}
}

// Load reads and parses a tenants document.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	store, err := Parse(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Parse decodes a tenants document in the given format.
func Parse(data []byte, format Format) (*Store, error) {
	var doc document
	switch format {
	case FormatJSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing tenants: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing tenants: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported tenants format %q", format)
	}

	store := &Store{tenants: make(map[string]domain.TenantWidgetConfig, len(doc.Tenants))}
	for i, entry := range doc.Tenants {
		cfg, err := entry.toDomain()
		if err != nil {
			return nil, fmt.Errorf("tenant %d: %w", i, err)
		}
		if _, dup := store.tenants[cfg.PublicKey]; dup {
			return nil, fmt.Errorf("tenant %d: duplicate public key %s", i, cfg.PublicKey)
		}
		store.tenants[cfg.PublicKey] = cfg
		store.order = append(store.order, cfg.PublicKey)
	}
	return store, nil
}

func (d tenantDocument) toDomain() (domain.TenantWidgetConfig, error) {
	publicKey := strings.TrimSpace(d.PublicKey)
	if publicKey == "" {
		return domain.TenantWidgetConfig{}, errors.New("public_key is required")
	}
	companyID := strings.TrimSpace(d.CompanyID)
	if companyID == "" {
		return domain.TenantWidgetConfig{}, fmt.Errorf("%s: company_id is required", publicKey)
	}
	if d.CashbackRate.IsNegative() || d.CashbackRate.GreaterThan(decimal.NewFromInt(1)) {
		return domain.TenantWidgetConfig{}, fmt.Errorf("%s: cashback_rate must be within [0, 1]", publicKey)
	}

	cfg := domain.TenantWidgetConfig{
		CompanyID:          companyID,
		PublicKey:          publicKey,
		Name:               d.Name,
		Brand:              d.Brand,
		AllowedDomains:     d.AllowedDomains,
		RateLimitPerMinute: d.RateLimitPerMinute,
		CashbackRate:       d.CashbackRate.Decimal,
		SigningSecret:      d.SigningSecret,
		Sandbox:            d.Sandbox,
		Version:            d.Version,
		Enabled:            d.Enabled == nil || *d.Enabled,
	}
	if cfg.Version <= 0 {
		cfg.Version = 1
	}
	blocks := []struct {
		name  string
		value any
		into  *json.RawMessage
	}{
		{"theme", d.Theme, &cfg.Theme},
		{"behavior", d.Behavior, &cfg.Behavior},
		{"features", d.Features, &cfg.Features},
		{"i18n", d.I18n, &cfg.I18n},
		{"integrations", d.Integrations, &cfg.Integrations},
		{"visibility_rules", d.VisibilityRules, &cfg.VisibilityRules},
	}
	for _, block := range blocks {
		raw, err := rawBlock(block.value)
		if err != nil {
			return domain.TenantWidgetConfig{}, fmt.Errorf("%s: %s: %w", publicKey, block.name, err)
		}
		*block.into = raw
	}
	return cfg, nil
}

func rawBlock(value any) (json.RawMessage, error) {
	if value == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *Store) Lookup(_ context.Context, publicKey string) (domain.TenantWidgetConfig, bool, error) {
	cfg, ok := s.tenants[publicKey]
	if !ok || !cfg.Enabled {
		return domain.TenantWidgetConfig{}, false, nil
	}
	return cfg, true, nil
}

func (s *Store) Version(ctx context.Context, publicKey string) (int64, bool, error) {
	cfg, ok, err := s.Lookup(ctx, publicKey)
	if err != nil || !ok {
		return 0, false, err
	}
	return cfg.Version, true, nil
}

// Tenants returns every tenant in document order, including disabled ones.
func (s *Store) Tenants() []domain.TenantWidgetConfig {
	out := make([]domain.TenantWidgetConfig, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.tenants[key])
	}
	return out
}

var _ ports.VersionedConfigStore = (*Store)(nil)
