package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_SIGNING_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Signing.Secret != localSigningSecret {
		t.Fatalf("expected local fallback secret, got %q", cfg.Signing.Secret)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Signing.Scheme != "concat" {
		t.Fatalf("expected concat signature scheme, got %q", cfg.Signing.Scheme)
	}
	if cfg.Tracking.CashbackRate.String() != "0.1" {
		t.Fatalf("expected default cashback rate 0.1, got %s", cfg.Tracking.CashbackRate)
	}
	if cfg.Ledger.Timeout != 5*time.Second {
		t.Fatalf("expected 5s ledger timeout, got %s", cfg.Ledger.Timeout)
	}
	if len(cfg.Ledger.Routes) != 3 || cfg.Ledger.Routes[0] != "credit" {
		t.Fatalf("unexpected default ledger routes: %#v", cfg.Ledger.Routes)
	}
	if cfg.Tracking.StaleClaimAfter != 2*time.Minute {
		t.Fatalf("expected 2m stale claim threshold, got %s", cfg.Tracking.StaleClaimAfter)
	}
}

func TestLoadRequiresSigningSecretOutsideLocal(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "production")
	t.Setenv("CASHWIDGET_SIGNING_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing signing secret in production")
	}
}

func TestLoadForToolAllowsMissingSigningSecretOutsideLocal(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "production")
	t.Setenv("CASHWIDGET_SIGNING_SECRET", "")

	cfg, err := LoadForTool()
	if err != nil {
		t.Fatalf("expected no error for tool config load, got %v", err)
	}
	if cfg.Signing.Secret != "" {
		t.Fatalf("expected empty signing secret for tool load, got %q", cfg.Signing.Secret)
	}
}

func TestLoadRejectsRelaxedSignaturesInProduction(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "production")
	t.Setenv("CASHWIDGET_SIGNING_SECRET", "prod-secret")
	t.Setenv("CASHWIDGET_RELAXED_SIGNATURES", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected relaxed signatures to be refused in production")
	}
}

func TestLoadRejectsUnknownSignatureScheme(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_SIGNATURE_SCHEME", "md5")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown signature scheme")
	}
}

func TestLoadRequiresTenantsFileForFileSource(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_CONFIG_SOURCE", "file")
	t.Setenv("CASHWIDGET_TENANTS_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when file source has no tenants file")
	}
}

func TestLoadParsesLedgerRoutesAndClampsTimeout(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("CASHWIDGET_LEDGER_BASE_URL", "https://ledger.example.com/")
	t.Setenv("CASHWIDGET_LEDGER_ROUTES", " transactions , credit,transactions ")
	t.Setenv("CASHWIDGET_LEDGER_TIMEOUT_MS", "90000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Ledger.BaseURL != "https://ledger.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Ledger.BaseURL)
	}
	if !cfg.LedgerEnabled() {
		t.Fatal("expected ledger enabled")
	}
	if len(cfg.Ledger.Routes) != 2 || cfg.Ledger.Routes[0] != "transactions" || cfg.Ledger.Routes[1] != "credit" {
		t.Fatalf("unexpected ledger routes: %#v", cfg.Ledger.Routes)
	}
	if cfg.Ledger.Timeout != 30*time.Second {
		t.Fatalf("expected timeout clamp to 30s, got %s", cfg.Ledger.Timeout)
	}
}

func TestLoadParsesOTLPHeadersAndMetricsConsole(t *testing.T) {
	t.Setenv("CASHWIDGET_ENV", "dev")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer common,x-org=abc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_HEADERS", "x-trace=trace-only")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_HEADERS", "x-metric=metric-only")
	t.Setenv("CASHWIDGET_OTEL_METRICS_CONSOLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Observability.Enabled {
		t.Fatal("expected observability enabled when console metrics is true")
	}
	if cfg.Observability.OTLPTraceHeaders["authorization"] != "Bearer common" {
		t.Fatalf("expected common header to be in trace headers, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPTraceHeaders["x-trace"] != "trace-only" {
		t.Fatalf("expected trace-specific header, got %#v", cfg.Observability.OTLPTraceHeaders)
	}
	if cfg.Observability.OTLPMetricHeaders["x-metric"] != "metric-only" {
		t.Fatalf("expected metric-specific header, got %#v", cfg.Observability.OTLPMetricHeaders)
	}
}
