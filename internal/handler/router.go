package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"storefront_accounts/internal/metrics"
	"storefront_accounts/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig collects what NewRouter wires together
type RouterConfig struct {
	Accounts      *AccountHandler
	Validator     middleware.TokenValidator
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	AllowedOrigin string
	Store         Pinger // nil for stores without a connection
}

// NewRouter builds the gin engine serving the account API
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigin))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Storefront accounts API is running")
	})

	router.GET("/health", func(c *gin.Context) {
		if cfg.Store != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Store.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api")
	cfg.Accounts.RegisterAccountRoutes(api, middleware.JWTAuthMiddleware(cfg.Validator))

	return router
}
