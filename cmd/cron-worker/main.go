package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tna-backend/internal/cron"
	"github.com/angelmondragon/tna-backend/internal/orders"
	"github.com/angelmondragon/tna-backend/internal/progress"
	"github.com/angelmondragon/tna-backend/internal/shipments"
	"github.com/angelmondragon/tna-backend/internal/stages"
	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/metrics"
	"github.com/angelmondragon/tna-backend/pkg/migrate"
	"github.com/angelmondragon/tna-backend/pkg/redis"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("jobs", "", "comma-separated job names to run (default: all)")
	flag.Parse()

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

	conn := dbClient.DB()
	stageRepo := stages.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	shipmentRepo := shipments.NewRepository(conn)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		Stages:    stageRepo,
		Shipments: shipmentRepo,
		Tx:        dbClient,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	// The snapshot always recomputes, so no cache is wired here.
	progressService, err := progress.NewService(progress.ServiceParams{
		Orders:    ordersService,
		Stages:    stageRepo,
		Shipments: shipmentRepo,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create progress service", err)
		os.Exit(1)
	}

	snapshotJob, err := cron.NewProgressSnapshotJob(cron.ProgressSnapshotJobParams{
		Logger:   logg,
		Progress: progressService,
		Metrics:  metrics.NewDashboardMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create progress snapshot job", err)
		os.Exit(1)
	}

	lockKey := cfg.Cron.LockKey
	if lockKey == "" {
		lockKey = redisClient.LockKey(cfg.Service.Kind)
	}
	lock, err := cron.NewRedisLock(redisClient, lockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(snapshotJob)
	if err == nil && *only != "" {
		registry, err = registry.Select(strings.Split(*only, ",")...)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to build job registry", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})

	if *once {
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "cron cycle complete")
		return
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, logg, cfg)
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// serveMetrics exposes the snapshot gauges for scraping until ctx ends.
func serveMetrics(ctx context.Context, logg *logger.Logger, cfg *config.Config) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped", err)
	}
}
