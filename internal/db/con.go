package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/cashwidget/internal/db/queries"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	driver      = "sqlite"
	defaultPath = "data/cashwidget"
)

var pragmas = []string{
	"foreign_keys(ON)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"temp_store(MEMORY)",
	"cache_size(-64000)",
}

// Database wraps sqlc queries with the shared connection.
type Database struct {
	*queries.Queries
	db      *sql.DB
	tracker *queryLatencyTracker
}

// New opens the SQLite database at path (without the .sqlite suffix) and
// applies pending migrations.
func New(path string, openParams ...string) (*Database, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	conn, err := sql.Open(driver, sqliteDSN(path, openParams...))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(context.Background(), conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	tracker := newQueryLatencyTracker()
	return &Database{
		Queries: queries.New(newInstrumentedDBTX(conn, tracker)),
		db:      conn,
		tracker: tracker,
	}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// sqliteDSN builds a modernc DSN. Every widget transaction writes, so
// transactions take the write lock on BEGIN.
func sqliteDSN(path string, openParams ...string) string {
	values := url.Values{}
	values.Set("_txlock", "immediate")
	for _, pragma := range pragmas {
		values.Add("_pragma", pragma)
	}
	for _, param := range openParams {
		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(param, "&")), "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		values.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return "file:" + path + ".sqlite?" + values.Encode()
}

// Close closes the underlying database connection.
func (c *Database) Close() error {
	return c.db.Close()
}
