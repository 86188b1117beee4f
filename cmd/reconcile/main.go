package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/cashwidget/internal/adapters/sqlite"
	"github.com/fr0stylo/cashwidget/internal/app/services"
	"github.com/fr0stylo/cashwidget/internal/config"
	"github.com/fr0stylo/cashwidget/internal/db"
	"github.com/fr0stylo/cashwidget/internal/observability"
	"github.com/fr0stylo/cashwidget/internal/wallet"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadForTool()
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	flags := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	dbPath := flags.String("db", cfg.Database.Path, "database path without .sqlite suffix")
	limit := flags.Int("limit", 100, "maximum pending credits to redeliver")
	staleAfter := flags.Duration("stale-after", cfg.Tracking.StaleClaimAfter, "queue unsettled purchases untouched for this long")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if !cfg.LedgerEnabled() {
		log.Printf("CASHWIDGET_LEDGER_BASE_URL is required")
		return 1
	}

	logger, closer := observability.NewLogger(observability.LogSink{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer func() { _ = closer.Close() }()

	database, err := db.New(strings.TrimSpace(*dbPath))
	if err != nil {
		log.Printf("open db: %v", err)
		return 1
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	queue := sqlite.NewReconciliationQueue(database)
	gateway, err := wallet.GatewayFromConfig(cfg.Ledger, queue, wallet.WithLogger(logger))
	if err != nil {
		log.Printf("configure ledger: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	purchases := sqlite.NewPurchaseStore(database)
	reconciler := services.NewReconciler(queue, purchases, gateway, sqlite.NewAuditLog(database), logger)

	swept, err := reconciler.Sweep(ctx, purchases, *staleAfter, *limit)
	if err != nil {
		log.Printf("sweep stale purchases: %v", err)
		return 1
	}

	summary, err := reconciler.Run(ctx, *limit)
	if err != nil {
		log.Printf("reconcile stopped early: %v", err)
	}
	log.Printf("reconcile done swept=%d resolved=%d failed=%d", swept, summary.Resolved, summary.Failed)
	if summary.Failed > 0 || err != nil {
		return 1
	}
	return 0
}
