// Package database opens the SQL database shared by the health probe and the
// database runtime config backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/mattn/go-sqlite3"    // cgo sqlite driver
	_ "modernc.org/sqlite"             // pure Go sqlite driver
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects and tunes the database.
type Config struct {
	// Driver is one of DriverSQLite, DriverSQLite3, or DriverPostgres.
	Driver string

	// DSN is a file path for the sqlite drivers and a connection URL for
	// postgres.
	DSN string

	MaxOpenConns int
	MaxIdleConns int

	// BusyTimeout is how long sqlite waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Open opens the database, applies pool limits, and pings it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Driver != DriverPostgres {
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(name, DataSource(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DataSource builds the driver-specific DSN. The sqlite drivers get WAL
// journaling and a busy timeout.
func DataSource(cfg Config) string {
	ms := cfg.BusyTimeout.Milliseconds()
	switch cfg.Driver {
	case DriverSQLite:
		return fmt.Sprintf("%s%s_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
			cfg.DSN, querySep(cfg.DSN), ms)
	case DriverSQLite3:
		return fmt.Sprintf("%s%s_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
			cfg.DSN, querySep(cfg.DSN), ms)
	default:
		return cfg.DSN
	}
}

func driverName(driver string) (string, error) {
	switch driver {
	case DriverSQLite, DriverSQLite3:
		return driver, nil
	case DriverPostgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func querySep(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}

// ensureDir creates the parent directory of a sqlite file path.
func ensureDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %q: %w", dir, err)
	}
	return nil
}
