package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/jobs"
	"github.com/zerofy/zerofy-backend/internal/stores"
	"github.com/zerofy/zerofy-backend/internal/tariffs"
	"github.com/zerofy/zerofy-backend/internal/warehouse"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/metrics"
	"github.com/zerofy/zerofy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cache-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cache-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(promRegistry)
	pipelineMetrics := metrics.NewPipelineMetrics(promRegistry)

	cacheStore := cache.NewStore(redisClient, logg, pipelineMetrics)
	wbClient := wildberries.NewClient(cfg.Wildberries, logg, pipelineMetrics)
	warehouseService := warehouse.NewService(cacheStore, wbClient, cfg.Cache, logg)

	tariffService, err := tariffs.NewService(tariffs.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create tariff service", err)
		os.Exit(1)
	}

	cacheRefreshJob, err := jobs.NewCacheRefreshJob(jobs.CacheRefreshJobParams{
		Logger:        logg,
		StoreRepo:     stores.NewRepository(dbClient.DB()),
		Refresher:     warehouseService,
		PerStoreDelay: cfg.Wildberries.InterPeriodDelay,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cache refresh job", err)
		os.Exit(1)
	}
	expiryJob, err := jobs.NewSubscriptionExpiryJob(jobs.SubscriptionExpiryJobParams{
		Logger:  logg,
		Tariffs: tariffService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create subscription expiry job", err)
		os.Exit(1)
	}

	lock, err := jobs.NewRedisLock(redisClient, redisClient.LockKey("cache-worker"), cfg.Worker.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := jobs.NewService(jobs.ServiceParams{
		Logger:   logg,
		Registry: jobs.NewRegistry(cacheRefreshJob, expiryJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Worker.RefreshInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Worker.RefreshInterval.String(),
	})
	logg.Info(startCtx, "starting cache worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(startCtx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(startCtx, "cache worker shut down gracefully")
}
