package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tna-backend/api/controllers"
	"github.com/angelmondragon/tna-backend/api/routes"
	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/progress"
	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/instance"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
	"github.com/angelmondragon/tna-backend/pkg/migrate"
	"github.com/angelmondragon/tna-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
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

	// Redis only backs the dashboard cache, so the api runs without it.
	var (
		cache       redis.Cache
		cachePinger controllers.Pinger
	)
	if cfg.Redis.Enabled() {
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
		cache, cachePinger = redisClient, redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, dashboard cache disabled")
	}

	invalidator := progress.NewCacheInvalidator(cache, logg)

	conn := dbClient.DB()
	stageRepo := stages.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	shipmentRepo := shipments.NewRepository(conn)

	stagesService, err := stages.NewService(stageRepo, stages.LifecycleParams{
		Metrics:     metrics.NewStageMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
		Invalidator: invalidator,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stages service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:        orderRepo,
		Stages:      stageRepo,
		Shipments:   shipmentRepo,
		Tx:          dbClient,
		Logger:      logg,
		Invalidator: invalidator,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	shipmentsService, err := shipments.NewService(shipments.ServiceParams{
		Repo:        shipmentRepo,
		Orders:      orderRepo,
		Stages:      stageRepo,
		Tx:          dbClient,
		Logger:      logg,
		EnforceGate: cfg.FeatureFlags.EnforceShipmentGate,
		Invalidator: invalidator,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	progressService, err := progress.NewService(progress.ServiceParams{
		Orders:    ordersService,
		Stages:    stageRepo,
		Shipments: shipmentRepo,
		Cache:     cache,
		CacheTTL:  cfg.Dashboard.CacheTTL,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create progress service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"gate":     cfg.FeatureFlags.EnforceShipmentGate,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, cachePinger,
			ordersService, stagesService, shipmentsService, progressService,
		),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
