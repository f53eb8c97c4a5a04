package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens a SQLite database at path with WAL mode and a single writer connection
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writes, so the UNIQUE constraint decides concurrent inserts.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// AutoMigrateSQLite brings the SQLite schema up to date
func AutoMigrateSQLite(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return runMigrations(ctx, db, database.DialectSQLite3, "migrations/sqlite", logger)
}
