package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/config"
	"github.com/imelnik/fintrack/internal/handler"
	"github.com/imelnik/fintrack/internal/infra/cache"
	"github.com/imelnik/fintrack/internal/infra/observability"
	"github.com/imelnik/fintrack/internal/infra/resilience"
	"github.com/imelnik/fintrack/internal/infra/sqlite"
	"github.com/imelnik/fintrack/internal/service"
)

func main() {
	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "fintrack")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open data store", zap.Error(err))
	}
	defer store.Close()

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	err = resilience.RetryWithBackoff(pingCtx, resilienceCfg, func() error {
		return store.Ping(pingCtx)
	})
	cancelPing()
	if err != nil {
		logger.Fatal("data store unreachable", zap.Error(err))
	}

	// --- Cache ---
	reportCache := cache.New(cfg.CacheSweep)
	defer reportCache.Close()
	guardedCache := cache.NewGuarded(reportCache, resilience.NewCircuitBreaker("report-cache"))

	// --- Service ---
	svc := service.NewReportService(store, guardedCache, service.Config{
		CacheTTL:        cfg.CacheTTL,
		CategoryAliases: cfg.CategoryAliases,
	}, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
