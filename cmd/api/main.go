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

	"github.com/zerofy/zerofy-backend/api/routes"
	"github.com/zerofy/zerofy-backend/internal/analytics"
	"github.com/zerofy/zerofy-backend/internal/auth"
	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/stores"
	"github.com/zerofy/zerofy-backend/internal/tariffs"
	"github.com/zerofy/zerofy-backend/internal/users"
	"github.com/zerofy/zerofy-backend/internal/warehouse"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/auth/session"
	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/metrics"
	"github.com/zerofy/zerofy-backend/pkg/migrate"
	"github.com/zerofy/zerofy-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(promRegistry)

	cacheStore := cache.NewStore(redisClient, logg, pipelineMetrics)
	wbClient := wildberries.NewClient(cfg.Wildberries, logg, pipelineMetrics)

	analyticsService := analytics.NewService(
		cacheStore,
		wbClient,
		analytics.NewProcessor(cacheStore, logg),
		cfg.Cache,
		cfg.Wildberries.InterPeriodDelay,
		logg,
	)
	warehouseService := warehouse.NewService(cacheStore, wbClient, cfg.Cache, logg)

	authService, err := auth.NewService(users.NewRepository(dbClient.DB()), sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	userService, err := users.NewService(users.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}
	tariffService, err := tariffs.NewService(tariffs.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create tariff service", err)
		os.Exit(1)
	}
	storeService, err := stores.NewService(
		stores.NewRepository(dbClient.DB()),
		tariffService,
		warehouseService,
		cacheStore,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	handler := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		Sessions:         sessionManager,
		Registry:         promRegistry,
		AuthService:      authService,
		UserService:      userService,
		StoreService:     storeService,
		TariffService:    tariffService,
		AnalyticsService: analyticsService,
		WarehouseService: warehouseService,
		CacheStore:       cacheStore,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	startCtx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(startCtx, "api server shut down gracefully")
}
