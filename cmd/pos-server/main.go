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

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/catalog"
	catalogsqlite "github.com/jcmexdev/profitus-pos/internal/catalog/sqlite"
	"github.com/jcmexdev/profitus-pos/internal/config"
	"github.com/jcmexdev/profitus-pos/internal/httpx"
	"github.com/jcmexdev/profitus-pos/internal/pkg/cache"
	"github.com/jcmexdev/profitus-pos/internal/pkg/sqlitedb"
	"github.com/jcmexdev/profitus-pos/internal/pkg/telemetry"
	"github.com/jcmexdev/profitus-pos/internal/sale"
	salelogsqlite "github.com/jcmexdev/profitus-pos/internal/sale/salelog/sqlite"
	salesqlite "github.com/jcmexdev/profitus-pos/internal/sale/sqlite"
	"github.com/jcmexdev/profitus-pos/internal/settings"
	settingssqlite "github.com/jcmexdev/profitus-pos/internal/settings/sqlite"
)

func main() {
	telemetry.InitLogger(slog.LevelInfo)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, getEnv("OTEL_SERVICE_NAME", "pos-server"))
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	db, err := sqlitedb.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := sqlitedb.Seed(db, cfg.DefaultRate); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	defaultRate, err := decimal.NewFromString(cfg.DefaultRate)
	if err != nil {
		slog.Error("invalid default rate", "value", cfg.DefaultRate, "error", err)
		os.Exit(1)
	}

	settingsRepo := settingssqlite.New(db)
	rates := settings.NewRateStore(settingsRepo, defaultRate)
	if err := rates.Load(ctx); err != nil {
		slog.Error("failed to load exchange rate", "error", err)
		os.Exit(1)
	}

	// The sale flow reads through the (optionally cached) accessor; the
	// admin surface always hits storage directly.
	catalogRepo := catalogsqlite.New(db)
	var cat catalog.Accessor = catalogRepo
	if cfg.RedisAddr != "" {
		cat = catalog.NewCached(cat, cache.NewRedisCache(cfg.RedisAddr, "catalog"), cfg.CacheTTL)
		slog.Info("catalog cache enabled", "redis", cfg.RedisAddr)
	}

	auditLog, err := salelogsqlite.New(db)
	if err != nil {
		slog.Error("failed to initialise checkout log", "error", err)
		os.Exit(1)
	}

	engine := sale.NewEngine(rates, salesqlite.New(db), auditLog, cfg.StorageTimeout)

	handler := httpx.NewHandler(cat, catalogRepo, rates, settingsRepo, engine, httpx.NewSessions())
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpx.NewRouter(handler),
	}

	go func() {
		slog.Info("pos server running", "addr", cfg.HTTPAddr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
