package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/pactwine/pact-backend/api/routes"
	"github.com/pactwine/pact-backend/internal/checkout"
	"github.com/pactwine/pact-backend/internal/fx"
	"github.com/pactwine/pact-backend/internal/notify"
	"github.com/pactwine/pact-backend/internal/pallets"
	"github.com/pactwine/pact-backend/internal/producers"
	"github.com/pactwine/pact-backend/internal/reservations"
	"github.com/pactwine/pact-backend/internal/wines"
	"github.com/pactwine/pact-backend/internal/zones"
	"github.com/pactwine/pact-backend/pkg/cache"
	"github.com/pactwine/pact-backend/pkg/config"
	"github.com/pactwine/pact-backend/pkg/db"
	"github.com/pactwine/pact-backend/pkg/logger"
	"github.com/pactwine/pact-backend/pkg/migrate"
	"github.com/pactwine/pact-backend/pkg/redis"
	"github.com/shopspring/decimal"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	wineRepo := wines.NewRepository(gormDB)
	producerRepo := producers.NewRepository(gormDB)
	zoneRepo := zones.NewRepository(gormDB)
	palletRepo := pallets.NewRepository(gormDB)
	reservationRepo := reservations.NewRepository(gormDB)

	wineService, err := wines.NewService(wineRepo, rates, cfg.Fulfillment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wine service", err)
		os.Exit(1)
	}

	zoneService, err := zones.NewService(zoneRepo, producerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create zone service", err)
		os.Exit(1)
	}

	var notifier notify.CompletionNotifier
	if cfg.Notify.CompletionWebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(cfg.Notify.CompletionWebhookURL, cfg.Notify.Timeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create completion notifier", err)
			os.Exit(1)
		}
	} else {
		notifier, err = notify.NewLogNotifier(logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create completion notifier", err)
			os.Exit(1)
		}
	}

	palletService, err := pallets.NewService(palletRepo, wineRepo, producerRepo, rates, notifier, cfg.Fulfillment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pallet service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(reservationRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(dbClient, wineRepo, producerRepo, reservationRepo, zoneService, palletService, cfg.Fulfillment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, checkoutService, palletService, reservationService, wineService, zoneService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
