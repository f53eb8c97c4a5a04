package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym_backend/internal/config"
	"gym_backend/internal/handler"
	"gym_backend/internal/logger"
	"gym_backend/internal/metrics"
	"gym_backend/internal/repository"
	"gym_backend/internal/service"
	"gym_backend/internal/tracer"
	"gym_backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"
)

const serviceName = "gym-backend"

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(logger)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	userRepo, ping, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Observability ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.New(reg)

	var traceOpts []sdktrace.TracerProviderOption
	if cfg.TraceStdout {
		exporter, err := tracer.WithStdoutExporter(os.Stdout)
		if err != nil {
			return err
		}
		traceOpts = append(traceOpts, exporter)
	}
	tp := tracer.NewProvider(serviceName, traceOpts...)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	// --- Initialize Utilities ---
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpiration)
	logger.Info("Auth settings loaded",
		slog.Int("bcrypt_cost", hasher.Cost()),
		slog.Duration("token_lifetime", jwtUtil.Lifetime()),
	)

	// --- Initialize Services ---
	authService := service.NewAuthService(service.AuthServiceDeps{
		Users:             userRepo,
		Hasher:            hasher,
		Tokens:            jwtUtil,
		Metrics:           authMetrics,
		Tracer:            tp.Tracer(serviceName),
		Logger:            logger,
		InitialAdminEmail: cfg.InitialAdminEmail,
	})
	userService := service.NewUserService(userRepo)

	// --- Setup Gin Router ---
	router := handler.NewRouter(handler.RouterConfig{
		AuthService:    authService,
		UserService:    userService,
		Tokens:         jwtUtil,
		Users:          userRepo,
		Metrics:        authMetrics,
		Gatherer:       reg,
		Ping:           ping,
		AllowedOrigins: []string{cfg.FrontendURL},
		Logger:         logger,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", slog.String("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server exiting")
	return nil
}

// openStore connects the configured credential store and migrates its schema
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.UserRepository, func(context.Context) error, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverSQLite:
		db, err := config.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := config.AutoMigrateSQLite(ctx, db, logger); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		logger.Info("Using SQLite store", slog.String("path", cfg.SQLitePath))
		return repository.NewSQLiteUserRepository(db), db.PingContext, func() { db.Close() }, nil
	default:
		pool, err := config.ConnectDB(ctx, &cfg.DB, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := config.AutoMigrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return repository.NewUserRepository(pool), pool.Ping, pool.Close, nil
	}
}
