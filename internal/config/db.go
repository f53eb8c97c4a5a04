package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3/database"
	"github.com/spf13/viper"
)

// DBConfig holds database connection parameters
type DBConfig struct {
	DSN  string
	Host string
	Name string
}

// loadDBConfig loads database configuration from environment variables
func loadDBConfig(v *viper.Viper) (*DBConfig, error) {
	dbHost := v.GetString("DB_HOST")
	dbPort := v.GetString("DB_PORT")
	dbUser := v.GetString("DB_USER")
	dbPassword := v.GetString("DB_PASSWORD")
	dbName := v.GetString("DB_NAME")

	if dbHost == "" || dbPort == "" || dbUser == "" || dbName == "" {
		return nil, fmt.Errorf("database environment variables not set (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	query := url.Values{}
	query.Set("sslmode", v.GetString("DB_SSLMODE"))

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPassword),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: query.Encode(),
	}

	return &DBConfig{DSN: dsn.String(), Host: dsn.Host, Name: dbName}, nil
}

// ConnectDB establishes a connection to the PostgreSQL database
func ConnectDB(ctx context.Context, cfg *DBConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error

	// Retry connecting to the database a few times
	maxRetries := 5
	retryInterval := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.New(ctx, cfg.DSN)
		if err == nil {
			// Try to ping the database
			err = pool.Ping(ctx)
			if err == nil {
				logger.InfoContext(ctx, "Successfully connected to PostgreSQL",
					slog.String("host", cfg.Host), slog.String("database", cfg.Name))
				return pool, nil
			}
			pool.Close()
		}
		logger.WarnContext(ctx, "Failed to connect to database, retrying",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", maxRetries),
			slog.Duration("retry_in", retryInterval),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", maxRetries, err)
}

// AutoMigrate brings the PostgreSQL schema up to date
func AutoMigrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return runMigrations(ctx, db, database.DialectPostgres, "migrations/postgres", logger)
}
