package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/pactwine/pact-backend/internal/cron"
	"github.com/pactwine/pact-backend/internal/fx"
	"github.com/pactwine/pact-backend/internal/notify"
	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/internal/producers"
	"github.com/pactwine/pact-backend/internal/wines"
	"github.com/pactwine/pact-backend/pkg/cache"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db"
	"github.com/pactwine/pact-backend/pkg/logger"
	"github.com/pactwine/pact-backend/pkg/metrics"
	"github.com/pactwine/pact-backend/pkg/migrate"
	"github.com/pactwine/pact-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	fxOpts := []fx.Option{}
	if cfg.FX.BaseURL != "" {
		fxOpts = append(fxOpts, fx.WithBaseURL(cfg.FX.BaseURL))
	}
	rateCache := cache.NewTTL[decimal.Decimal](cfg.FX.CacheTTL)
	rates, err := fx.NewCachedProvider(fx.NewHTTPProvider(cfg.FX.Timeout, fxOpts...), rateCache)
	if err != nil {
		logg.Error(context.Background(), "failed to create fx provider", err)
		os.Exit(1)
	}

	var notifier notify.CompletionNotifier
	if cfg.Notify.CompletionWebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(cfg.Notify.CompletionWebhookURL, cfg.Notify.Timeout)
	} else {
		notifier, err = notify.NewLogNotifier(logg)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create completion notifier", err)
		os.Exit(1)
	}

	palletRepo := pallets.NewRepository(gormDB)
	palletService, err := pallets.NewService(
		palletRepo,
		wines.NewRepository(gormDB),
		producers.NewRepository(gormDB),
		rates,
		notifier,
		cfg.Fulfillment,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create pallet service", err)
		os.Exit(1)
	}

	reconcileMetrics := metrics.NewReconcileMetrics(prometheus.DefaultRegisterer)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("pallet-reconcile"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	job, err := cron.NewPalletReconcileJob(cron.PalletReconcileJobParams{
		Logger:  logg,
		Pallets: palletRepo,
		Settler: palletService,
		Metrics: reconcileMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  reconcileMetrics,
		Interval: cfg.Cron.ReconcileInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	go serveMetrics(ctx, cfg.App.Port, logg)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, port string, logg *logger.Logger) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics listener stopped", err)
	}
}
