package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kagisom/gatehouse/api/routes"
	"github.com/kagisom/gatehouse/internal/reconcile"
	"github.com/kagisom/gatehouse/internal/register"
	"github.com/kagisom/gatehouse/pkg/config"
	"github.com/kagisom/gatehouse/pkg/localdb"
	"github.com/kagisom/gatehouse/pkg/logger"
	"github.com/kagisom/gatehouse/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "agent"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "agent",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	localClient, err := localdb.Open(context.Background(), cfg.LocalDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open local database", err)
		os.Exit(1)
	}
	defer func() {
		if err := localClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing local database", err)
		}
	}()

	store := register.NewStore(localClient.DB())

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	runner := reconcile.NewRunner(reconcile.RunnerParams{
		Pusher:   reconcile.NewClient(cfg.Sync, store),
		Interval: cfg.Sync.Interval,
		Metrics:  syncMetrics,
		Logger:   logg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go runner.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"local_db": cfg.LocalDB.Path,
		"sync_url": cfg.Sync.BaseURL,
	})
	logg.Info(ctx, "starting agent")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewAgentRouter(cfg, logg, store, runner, registry),
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "agent stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "agent shutting down gracefully")
}
