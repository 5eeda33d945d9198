package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront_accounts/internal/config"
	"storefront_accounts/internal/handler"
	"storefront_accounts/internal/logging"
	"storefront_accounts/internal/metrics"
	"storefront_accounts/internal/repository"
	"storefront_accounts/internal/service"
	"storefront_accounts/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Service: "storefront-accounts",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	gin.SetMode(cfg.GinMode)

	// --- Initialize Utilities ---
	jwtUtil, err := utils.NewJWTUtil(cfg.JWTSecret)
	if err != nil {
		logger.Error("invalid token configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize Repositories ---
	var (
		accountRepo repository.AccountRepository
		store       handler.Pinger
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory account store, data is lost on restart")
		accountRepo = repository.NewMemoryAccountRepository()
	default:
		dbPool, err := config.ConnectDB(ctx, cfg.DB)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := config.Migrate(ctx, dbPool); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		accountRepo = repository.NewAccountRepository(dbPool)
		store = dbPool
	}

	// --- Initialize Services and Handlers ---
	m := metrics.New()
	accountService := service.NewAccountService(accountRepo, jwtUtil)
	accountHandler := handler.NewAccountHandler(accountService, m)

	router := handler.NewRouter(handler.RouterConfig{
		Accounts:      accountHandler,
		Validator:     jwtUtil,
		Logger:        logger,
		Metrics:       m,
		AllowedOrigin: cfg.ClientOrigin,
		Store:         store,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exiting")
}
