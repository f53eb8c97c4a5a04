package config

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// runMigrations applies the embedded migrations for dialect using a goose provider
func runMigrations(ctx context.Context, db *sql.DB, dialect database.Dialect, dir string, logger *slog.Logger) error {
	fsys, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations dir %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	for _, r := range results {
		logger.InfoContext(ctx, "Migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Could not determine migration version", slog.Any("error", err))
		return nil
	}
	logger.InfoContext(ctx, "AutoMigrate applied successfully", slog.String("dialect", string(dialect)), slog.Int64("version", version))
	return nil
}
