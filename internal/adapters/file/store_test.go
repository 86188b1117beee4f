package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const yamlTenants = `
tenants:
  - public_key: pk_live_yaml
    company_id: company-1
    name: Harbor Shop
    allowed_domains: ["shop.example.com", "*.harbor.io"]
    theme:
      primary: "#0af"
      radius: 8
    rate_limit_per_minute: 20
    cashback_rate: 0.05
  - public_key: pk_disabled
    company_id: company-2
    enabled: false
`

const jsoncTenants = `{
  // partner onboarding batch
  "tenants": [
    {
      "public_key": "pk_live_json",
      "company_id": "company-3",
      "sandbox": true,
      "cashback_rate": "0.125",
      "features": {"chat": true, "score": 1.50},
      "version": 4,
    },
  ],
}`

func TestParseYAML(t *testing.T) {
	store, err := Parse([]byte(yamlTenants), FormatYAML)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}

	cfg, found, err := store.Lookup(context.Background(), "pk_live_yaml")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if cfg.RateLimitPerMinute != 20 || cfg.CashbackRate.String() != "0.05" {
		t.Fatalf("unexpected tenant: %+v", cfg)
	}
	if string(cfg.Theme) != `{"primary":"#0af","radius":8}` {
		t.Fatalf("unexpected theme %s", cfg.Theme)
	}
	if string(cfg.Behavior) != `{}` {
		t.Fatalf("expected empty behavior, got %s", cfg.Behavior)
	}
	if cfg.Version != 1 || !cfg.Enabled {
		t.Fatalf("expected defaults version=1 enabled=true, got %+v", cfg)
	}

	if _, found, _ := store.Lookup(context.Background(), "pk_disabled"); found {
		t.Fatal("expected disabled tenant to be not found")
	}
	if len(store.Tenants()) != 2 {
		t.Fatalf("expected both tenants listed, got %d", len(store.Tenants()))
	}
}

func TestParseJSONCKeepsNumbersAndComments(t *testing.T) {
	store, err := Parse([]byte(jsoncTenants), FormatJSONC)
	if err != nil {
		t.Fatalf("parse jsonc: %v", err)
	}
	cfg, found, err := store.Lookup(context.Background(), "pk_live_json")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if !cfg.Sandbox || cfg.CashbackRate.String() != "0.125" {
		t.Fatalf("unexpected tenant %+v", cfg)
	}
	if string(cfg.Features) != `{"chat":true,"score":1.50}` {
		t.Fatalf("unexpected features %s", cfg.Features)
	}
	version, found, err := store.Version(context.Background(), "pk_live_json")
	if err != nil || !found || version != 4 {
		t.Fatalf("expected version 4, got %d found=%v err=%v", version, found, err)
	}
}

func TestParseRejectsInvalidTenants(t *testing.T) {
	cases := map[string]string{
		"missing key":     "tenants:\n  - company_id: c\n",
		"missing company": "tenants:\n  - public_key: pk\n",
		"duplicate":       "tenants:\n  - {public_key: pk, company_id: c}\n  - {public_key: pk, company_id: c}\n",
		"rate too high":   "tenants:\n  - {public_key: pk, company_id: c, cashback_rate: 1.5}\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc), FormatYAML); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestLoadInfersFormatFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.jsonc")
	if err := os.WriteFile(path, []byte(jsoncTenants), 0o600); err != nil {
		t.Fatalf("write tenants: %v", err)
	}
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, found, _ := store.Lookup(context.Background(), "pk_live_json"); !found {
		t.Fatal("expected tenant from jsonc file")
	}
}
