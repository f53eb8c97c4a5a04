package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds the process-wide settings, read once at startup
type Config struct {
	Env               string
	ServerPort        string
	FrontendURL       string
	JWTSecret         string
	JWTExpiration     time.Duration
	BcryptCost        int
	InitialAdminEmail string
	StoreDriver       string
	SQLitePath        string
	TraceStdout       bool
	DB                DBConfig
}

// IsDevelopment reports whether the app runs with development defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("SQLITE_PATH", "gym.db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("TRACE_STDOUT", false)

	cfg := &Config{
		Env:               v.GetString("APP_ENV"),
		ServerPort:        v.GetString("SERVER_PORT"),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		JWTSecret:         v.GetString("JWT_SECRET_KEY"),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
		InitialAdminEmail: strings.ToLower(strings.TrimSpace(v.GetString("INITIAL_ADMIN_EMAIL"))),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:        v.GetString("SQLITE_PATH"),
		TraceStdout:       v.GetBool("TRACE_STDOUT"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY not set in environment")
	}

	expHours := v.GetInt64("JWT_EXPIRATION_HOURS")
	if expHours <= 0 {
		expHours = 24
	}
	cfg.JWTExpiration = time.Duration(expHours) * time.Hour

	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = 12
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		dbCfg, err := loadDBConfig(v)
		if err != nil {
			return nil, err
		}
		cfg.DB = *dbCfg
	case StoreDriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH must not be empty")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverSQLite)
	}

	return cfg, nil
}
