package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4/middleware"
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/cashwidget/internal/adapters/cache"
	"github.com/fr0stylo/cashwidget/internal/adapters/file"
	"github.com/fr0stylo/cashwidget/internal/adapters/sqlite"
	"github.com/fr0stylo/cashwidget/internal/app/ports"
	"github.com/fr0stylo/cashwidget/internal/app/services"
	"github.com/fr0stylo/cashwidget/internal/config"
	"github.com/fr0stylo/cashwidget/internal/db"
	"github.com/fr0stylo/cashwidget/internal/observability"
	"github.com/fr0stylo/cashwidget/internal/ratelimit"
	"github.com/fr0stylo/cashwidget/internal/server"
	"github.com/fr0stylo/cashwidget/internal/server/routes"
	"github.com/fr0stylo/cashwidget/internal/signing"
	"github.com/fr0stylo/cashwidget/internal/wallet"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log, logCloser := observability.NewLogger(observability.LogSink{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Debug:      cfg.IsLocalDevelopment(),
	})
	slog.SetDefault(log)
	defer func() {
		if err := logCloser.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "close log file:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		Environment:       cfg.Environment,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		slog.Error("Failed to set up OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			slog.Error("Failed to flush telemetry", "error", err)
		}
	}()

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		return
	}
	defer func() {
		if cfg.Database.LogTiming {
			database.LogLatencyStats(context.Background(), log, 20)
		}
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	metrics := observability.NewMetrics()
	database.ObserveQueries(metrics)

	source, err := configSource(cfg, database)
	if err != nil {
		slog.Error("Failed to load widget configuration source", "source", cfg.Widget.ConfigSource, "error", err)
		return
	}
	configs := cache.New(source, cfg.Widget.CacheMaxBytes, cfg.Widget.CacheTTL)

	deriver, err := signing.DeriverForScheme(cfg.Signing.Scheme)
	if err != nil {
		slog.Error("Invalid signature scheme", "error", err)
		return
	}
	signer := signing.NewService(cfg.Signing.Secret, deriver)

	queue := sqlite.NewReconciliationQueue(database)
	gateway, err := wallet.GatewayFromConfig(cfg.Ledger, queue,
		wallet.WithLogger(log),
		wallet.WithRecorder(metrics),
	)
	if err != nil {
		slog.Error("Invalid ledger configuration", "error", err)
		return
	}
	if !cfg.LedgerEnabled() {
		slog.Warn("CASHWIDGET_LEDGER_BASE_URL not set, every credit will be queued for reconciliation")
	}

	distributor := services.NewConfigDistributor(configs, rateLimiter(cfg, database), signer, services.ConfigDistributorOptions{
		Bodies:        cache.NewBodyCache(configs.Cache()),
		Recorder:      metrics,
		Logger:        log,
		AssetsVersion: cfg.Widget.AssetsVersion,
	})
	attributor := services.NewPurchaseAttributor(configs, sqlite.NewPurchaseStore(database), gateway, signer, services.PurchaseAttributorOptions{
		Relaxed:         cfg.Tracking.RelaxedSignatures,
		CashbackRate:    cfg.Tracking.CashbackRate,
		StaleClaimAfter: cfg.Tracking.StaleClaimAfter,
		Audit:           sqlite.NewAuditLog(database),
		Recorder:        metrics,
		Logger:          log,
	})
	if cfg.Tracking.RelaxedSignatures {
		slog.Warn("Purchase signatures are not required for any tenant")
	}

	var burst middleware.RateLimiterStore
	if cfg.Tracking.BurstPerSecond > 0 {
		burst = ratelimit.NewBurst(cfg.Tracking.BurstPerSecond, 0)
	}

	srv := server.New(log, server.Options{
		ServiceName: cfg.Observability.ServiceName,
		Metrics:     metrics,
	})
	srv.RegisterRouter(routes.NewHealthRoutes(database, metrics.Handler()))
	srv.RegisterRouter(routes.NewWidgetRoutes(distributor, attributor, burst, metrics, log))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server")
		if err := srv.Shutdown(context.Background(), shutdownTimeout); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	slog.Info("Starting server",
		"port", cfg.Server.Port,
		"env", cfg.Environment,
		"config_source", cfg.Widget.ConfigSource,
		"rate_limit_backend", cfg.Widget.RateLimitBackend,
	)
	if err := srv.Start(addr); err != nil {
		slog.Error("Closing server", "error", err)
	}
}

func configSource(cfg config.Config, database *db.Database) (ports.VersionedConfigStore, error) {
	if cfg.Widget.ConfigSource == "file" {
		store, err := file.Load(cfg.Widget.TenantsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return sqlite.NewTenantStore(database), nil
}

func rateLimiter(cfg config.Config, database *db.Database) ports.RateLimiter {
	if cfg.Widget.RateLimitBackend == "sqlite" {
		return sqlite.NewRateLimiter(database)
	}
	return ratelimit.NewSlidingWindow()
}
