package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const localSigningSecret = "cashwidget-local-dev"

type Config struct {
	Environment   string
	Server        ServerConfig
	Database      DatabaseConfig
	Signing       SigningConfig
	Widget        WidgetConfig
	Tracking      TrackingConfig
	Ledger        LedgerConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Path      string
	LogTiming bool
}

type SigningConfig struct {
	Secret string
	Scheme string
}

type WidgetConfig struct {
	ConfigSource     string
	TenantsFile      string
	CacheTTL         time.Duration
	CacheMaxBytes    int
	RateLimitBackend string
	AssetsVersion    string
}

type TrackingConfig struct {
	RelaxedSignatures bool
	CashbackRate      decimal.Decimal
	BurstPerSecond    float64
	StaleClaimAfter   time.Duration
}

type LedgerConfig struct {
	BaseURL   string
	Token     string
	JWTSecret string
	Routes    []string
	Timeout   time.Duration
}

type LoggingConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type ObservabilityConfig struct {
	Enabled           bool
	OTLPEndpoint      string
	OTLPTraceHeaders  map[string]string
	OTLPMetricHeaders map[string]string
	ServiceName       string
	ServiceVer        string
	SamplingRatio     float64
	MetricsConsole    bool
}

func Load() (Config, error) {
	return load(true)
}

// LoadForTool loads config for CLI tools that do not require the signing secret.
func LoadForTool() (Config, error) {
	return load(false)
}

func load(requireSigningSecret bool) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("cashwidget_env", "")
	v.SetDefault("app_env", "")
	v.SetDefault("go_env", "")
	v.SetDefault("cashwidget_port", 8080)
	v.SetDefault("cashwidget_db_path", "data/cashwidget")
	v.SetDefault("cashwidget_db_timing", false)
	v.SetDefault("cashwidget_signing_secret", "")
	v.SetDefault("cashwidget_signature_scheme", "concat")
	v.SetDefault("cashwidget_relaxed_signatures", false)
	v.SetDefault("cashwidget_cashback_rate", "0.10")
	v.SetDefault("cashwidget_track_burst_per_second", 5.0)
	v.SetDefault("cashwidget_stale_claim_after", "2m")
	v.SetDefault("cashwidget_config_source", "sqlite")
	v.SetDefault("cashwidget_tenants_file", "")
	v.SetDefault("cashwidget_config_cache_ttl", "30s")
	v.SetDefault("cashwidget_config_cache_mb", 32)
	v.SetDefault("cashwidget_rate_limit_backend", "memory")
	v.SetDefault("cashwidget_assets_version", "1")
	v.SetDefault("cashwidget_ledger_base_url", "")
	v.SetDefault("cashwidget_ledger_token", "")
	v.SetDefault("cashwidget_ledger_jwt_secret", "")
	v.SetDefault("cashwidget_ledger_routes", "credit,transactions,add_funds")
	v.SetDefault("cashwidget_ledger_timeout_ms", 5000)
	v.SetDefault("cashwidget_log_file", "")
	v.SetDefault("cashwidget_log_max_size_mb", 100)
	v.SetDefault("cashwidget_log_max_backups", 5)
	v.SetDefault("cashwidget_otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_traces_headers", "")
	v.SetDefault("otel_exporter_otlp_metrics_headers", "")
	v.SetDefault("otel_service_name", "")
	v.SetDefault("cashwidget_service_name", "cashwidget")
	v.SetDefault("cashwidget_version", "dev")
	v.SetDefault("otel_service_version", "")
	v.SetDefault("cashwidget_otel_sampling_ratio", 1.0)
	v.SetDefault("cashwidget_otel_metrics_console", false)

	env := resolveEnvironment(v)
	port := v.GetInt("cashwidget_port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid CASHWIDGET_PORT: %d", port)
	}

	samplingRatio := v.GetFloat64("cashwidget_otel_sampling_ratio")
	if samplingRatio < 0 {
		samplingRatio = 0
	}
	if samplingRatio > 1 {
		samplingRatio = 1
	}

	scheme := strings.ToLower(strings.TrimSpace(v.GetString("cashwidget_signature_scheme")))
	switch scheme {
	case "", "concat":
		scheme = "concat"
	case "hkdf":
	default:
		return Config{}, fmt.Errorf("invalid CASHWIDGET_SIGNATURE_SCHEME: %q", scheme)
	}

	cashbackRate, err := decimal.NewFromString(strings.TrimSpace(v.GetString("cashwidget_cashback_rate")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CASHWIDGET_CASHBACK_RATE: %w", err)
	}
	if cashbackRate.IsNegative() || cashbackRate.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("CASHWIDGET_CASHBACK_RATE must be within [0, 1], got %s", cashbackRate)
	}

	burst := v.GetFloat64("cashwidget_track_burst_per_second")
	if burst < 0 {
		burst = 0
	}

	staleClaimAfter, err := time.ParseDuration(strings.TrimSpace(v.GetString("cashwidget_stale_claim_after")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CASHWIDGET_STALE_CLAIM_AFTER: %w", err)
	}
	if staleClaimAfter <= 0 {
		return Config{}, fmt.Errorf("CASHWIDGET_STALE_CLAIM_AFTER must be positive, got %s", staleClaimAfter)
	}

	source := strings.ToLower(strings.TrimSpace(v.GetString("cashwidget_config_source")))
	switch source {
	case "", "sqlite":
		source = "sqlite"
	case "file":
	default:
		return Config{}, fmt.Errorf("invalid CASHWIDGET_CONFIG_SOURCE: %q", source)
	}
	tenantsFile := strings.TrimSpace(v.GetString("cashwidget_tenants_file"))
	if source == "file" && tenantsFile == "" {
		return Config{}, fmt.Errorf("CASHWIDGET_TENANTS_FILE is required when CASHWIDGET_CONFIG_SOURCE=file")
	}

	cacheTTL, err := time.ParseDuration(strings.TrimSpace(v.GetString("cashwidget_config_cache_ttl")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CASHWIDGET_CONFIG_CACHE_TTL: %w", err)
	}
	if cacheTTL < 0 {
		cacheTTL = 0
	}
	cacheMB := v.GetInt("cashwidget_config_cache_mb")
	if cacheMB <= 0 {
		cacheMB = 32
	}

	rateBackend := strings.ToLower(strings.TrimSpace(v.GetString("cashwidget_rate_limit_backend")))
	switch rateBackend {
	case "", "memory":
		rateBackend = "memory"
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("invalid CASHWIDGET_RATE_LIMIT_BACKEND: %q", rateBackend)
	}

	timeoutMS := v.GetInt("cashwidget_ledger_timeout_ms")
	if timeoutMS <= 0 {
		timeoutMS = 5000
	}
	if timeoutMS > 30000 {
		timeoutMS = 30000
	}

	serviceName := strings.TrimSpace(v.GetString("otel_service_name"))
	if serviceName == "" {
		serviceName = strings.TrimSpace(v.GetString("cashwidget_service_name"))
	}
	if serviceName == "" {
		serviceName = "cashwidget"
	}

	serviceVersion := strings.TrimSpace(v.GetString("cashwidget_version"))
	if serviceVersion == "" {
		serviceVersion = strings.TrimSpace(v.GetString("otel_service_version"))
	}
	if serviceVersion == "" {
		serviceVersion = "dev"
	}

	otlpEndpoint := strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint"))
	otlpCommonHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_headers"))
	otlpTraceHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_traces_headers"))
	otlpMetricHeaders := parseOTLPHeaders(v.GetString("otel_exporter_otlp_metrics_headers"))
	metricsConsole := v.GetBool("cashwidget_otel_metrics_console")
	otelEnabled := v.GetBool("cashwidget_otel_enabled") || otlpEndpoint != "" || metricsConsole

	cfg := Config{
		Environment: env,
		Server:      ServerConfig{Port: port},
		Database: DatabaseConfig{
			Path:      strings.TrimSpace(v.GetString("cashwidget_db_path")),
			LogTiming: v.GetBool("cashwidget_db_timing"),
		},
		Signing: SigningConfig{
			Secret: strings.TrimSpace(v.GetString("cashwidget_signing_secret")),
			Scheme: scheme,
		},
		Widget: WidgetConfig{
			ConfigSource:     source,
			TenantsFile:      tenantsFile,
			CacheTTL:         cacheTTL,
			CacheMaxBytes:    cacheMB * 1024 * 1024,
			RateLimitBackend: rateBackend,
			AssetsVersion:    strings.TrimSpace(v.GetString("cashwidget_assets_version")),
		},
		Tracking: TrackingConfig{
			RelaxedSignatures: v.GetBool("cashwidget_relaxed_signatures"),
			CashbackRate:      cashbackRate,
			BurstPerSecond:    burst,
			StaleClaimAfter:   staleClaimAfter,
		},
		Ledger: LedgerConfig{
			BaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("cashwidget_ledger_base_url")), "/"),
			Token:     strings.TrimSpace(v.GetString("cashwidget_ledger_token")),
			JWTSecret: strings.TrimSpace(v.GetString("cashwidget_ledger_jwt_secret")),
			Routes:    parseList(v.GetString("cashwidget_ledger_routes")),
			Timeout:   time.Duration(timeoutMS) * time.Millisecond,
		},
		Logging: LoggingConfig{
			File:       strings.TrimSpace(v.GetString("cashwidget_log_file")),
			MaxSizeMB:  v.GetInt("cashwidget_log_max_size_mb"),
			MaxBackups: v.GetInt("cashwidget_log_max_backups"),
		},
		Observability: ObservabilityConfig{
			Enabled:           otelEnabled,
			OTLPEndpoint:      otlpEndpoint,
			OTLPTraceHeaders:  mergeHeaderMaps(otlpCommonHeaders, otlpTraceHeaders),
			OTLPMetricHeaders: mergeHeaderMaps(otlpCommonHeaders, otlpMetricHeaders),
			ServiceName:       serviceName,
			ServiceVer:        serviceVersion,
			SamplingRatio:     samplingRatio,
			MetricsConsole:    metricsConsole,
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/cashwidget"
	}
	if cfg.Widget.AssetsVersion == "" {
		cfg.Widget.AssetsVersion = "1"
	}
	if !cfg.IsLocalDevelopment() && cfg.Tracking.RelaxedSignatures {
		return Config{}, fmt.Errorf("CASHWIDGET_RELAXED_SIGNATURES is only allowed in local/dev environments")
	}
	if requireSigningSecret && !cfg.IsLocalDevelopment() && cfg.Signing.Secret == "" {
		return Config{}, fmt.Errorf("CASHWIDGET_SIGNING_SECRET is required outside local/dev environments")
	}
	if cfg.IsLocalDevelopment() && cfg.Signing.Secret == "" {
		cfg.Signing.Secret = localSigningSecret
	}

	return cfg, nil
}

func parseOTLPHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pair := strings.SplitN(part, "=", 2)
		if len(pair) != 2 {
			continue
		}
		key := strings.TrimSpace(pair[0])
		value := strings.TrimSpace(pair[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeHeaderMaps(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

func parseList(raw string) []string {
	out := make([]string, 0, 4)
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		value := strings.ToLower(strings.TrimSpace(part))
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

func (c Config) IsLocalDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "", "local", "dev", "development", "test":
		return true
	default:
		return false
	}
}

// LedgerEnabled reports whether an upstream wallet ledger is configured.
func (c Config) LedgerEnabled() bool {
	return c.Ledger.BaseURL != ""
}

func resolveEnvironment(v *viper.Viper) string {
	for _, key := range []string{"cashwidget_env", "app_env", "go_env"} {
		value := strings.TrimSpace(v.GetString(key))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}
