package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/cashwidget/internal/adapters/file"
	"github.com/fr0stylo/cashwidget/internal/adapters/sqlite"
	"github.com/fr0stylo/cashwidget/internal/config"
	"github.com/fr0stylo/cashwidget/internal/db"
)

func main() {
	ctx := context.Background()
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.LoadForTool()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbPath := flag.String("db", cfg.Database.Path, "database path without .sqlite suffix")
	tenantsFile := flag.String("file", cfg.Widget.TenantsFile, "tenants document (.yaml, .json or .jsonc)")
	dryRun := flag.Bool("dry-run", false, "validate the document without writing")
	flag.Parse()

	path := strings.TrimSpace(*tenantsFile)
	if path == "" {
		log.Fatalf("-file or CASHWIDGET_TENANTS_FILE is required")
	}
	doc, err := file.Load(path)
	if err != nil {
		log.Fatalf("load tenants: %v", err)
	}
	tenants := doc.Tenants()
	if *dryRun {
		log.Printf("dry-run: %d tenants valid in %s", len(tenants), path)
		return
	}

	database, err := db.New(strings.TrimSpace(*dbPath))
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()

	store := sqlite.NewTenantStore(database)
	for _, tenant := range tenants {
		version, err := store.Upsert(ctx, tenant)
		if err != nil {
			log.Fatalf("upsert tenant %s: %v", tenant.PublicKey, err)
		}
		log.Printf("tenant %s version=%d enabled=%t", tenant.PublicKey, version, tenant.Enabled)
	}
	log.Printf("imported %d tenants", len(tenants))
}
