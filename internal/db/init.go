// Package db opens the relational store and keeps its schema up to date.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/atinyakov/ContactKeeper/internal/db/migrations"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// dialects maps a database/sql driver name to its goose dialect.
var dialects = map[string]goose.Dialect{
	DriverPostgres: goose.DialectPostgres,
	DriverPgx:      goose.DialectPostgres,
	DriverSQLite:   goose.DialectSQLite3,
}

// Init opens a connection for the given driver, checks it and applies all
// pending migrations.
func Init(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// An in-memory database lives in a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	provider, err := goose.NewProvider(dialect, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
