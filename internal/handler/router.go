package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gym_backend/internal/metrics"
	"gym_backend/internal/middleware"
	"gym_backend/internal/model"
	"gym_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries everything the HTTP layer needs
type RouterConfig struct {
	AuthService    service.AuthService
	UserService    service.UserService
	Tokens         middleware.TokenVerifier
	Users          middleware.UserFinder
	Metrics        *metrics.AuthMetrics
	Gatherer       prometheus.Gatherer // nil disables /metrics
	Ping           func(ctx context.Context) error
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(cfg.AllowedOrigins...))
	}

	// --- Initialize Middlewares ---
	strictAuth := middleware.AuthGate(middleware.StrictAuth, cfg.Tokens, cfg.Users, cfg.Metrics, logger)
	optionalAuth := middleware.AuthGate(middleware.OptionalAuth, cfg.Tokens, cfg.Users, cfg.Metrics, logger)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	authHandler := NewAuthHandler(cfg.AuthService, logger)
	adminHandler := NewAdminHandler(cfg.UserService, logger)

	apiGroup := router.Group("/api")
	authHandler.RegisterAuthRoutes(apiGroup, strictAuth)
	adminHandler.RegisterAdminRoutes(apiGroup, strictAuth, adminRoleMW)

	router.GET("/", optionalAuth, rootStatus)
	router.GET("/health", healthCheck(cfg.Ping))
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router
}

func rootStatus(c *gin.Context) {
	body := gin.H{"message": "Gym API is running"}
	if user, ok := middleware.CurrentUser(c); ok {
		body["user"] = model.NewUserResponse(user)
	}
	c.JSON(http.StatusOK, body)
}

func healthCheck(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	}
}
