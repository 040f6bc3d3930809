package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-erp/meridian-ledger/internal/ap"
	"github.com/meridian-erp/meridian-ledger/internal/app"
	"github.com/meridian-erp/meridian-ledger/internal/ar"
	"github.com/meridian-erp/meridian-ledger/internal/audit"
	"github.com/meridian-erp/meridian-ledger/internal/costs"
	"github.com/meridian-erp/meridian-ledger/internal/ledger"
	"github.com/meridian-erp/meridian-ledger/internal/mappings"
	"github.com/meridian-erp/meridian-ledger/internal/observability"
	"github.com/meridian-erp/meridian-ledger/internal/platform/cache"
	"github.com/meridian-erp/meridian-ledger/internal/platform/db"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
	"github.com/meridian-erp/meridian-ledger/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	for _, raw := range cfg.Tenants {
		tn, err := tenant.Parse(raw)
		if err != nil {
			logger.Error("invalid tenant in config", slog.String("tenant", raw), slog.Any("error", err))
			os.Exit(1)
		}
		if err := db.Migrate(cfg.PGDSN, tn.Schema(), migrations.FS); err != nil {
			logger.Error("migrate tenant schema", slog.String("tenant", raw), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("tenant schema ready", slog.String("tenant", raw))
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MaxIdleTime: cfg.PGMaxIdleTime})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := audit.NewLogger(pool)

	repo := ledger.NewRepository(pool)
	service := ledger.NewService(repo, auditLogger, metrics, logger)
	ledgerHandler := ledger.NewHandler(logger, service)

	mappingRepo := mappings.NewRepository(pool)
	mappingCache := mappings.NewCache(mappingRepo, redisClient, cfg.MappingCacheTTL, logger)
	mappingHandler := mappings.NewHandler(logger, mappingRepo, mappingCache)

	apHandler := ap.NewHandler(logger, service, mappingCache)
	arHandler := ar.NewHandler(logger, service, mappingCache)
	costsHandler := costs.NewHandler(logger, service, mappingCache)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		LedgerHandler:   ledgerHandler,
		APHandler:       apHandler,
		ARHandler:       arHandler,
		CostsHandler:    costsHandler,
		MappingsHandler: mappingHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
