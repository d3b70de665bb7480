package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/api"
	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/config"
	"github.com/clinicops/resource-scheduler/internal/conflict"
	"github.com/clinicops/resource-scheduler/internal/db"
	"github.com/clinicops/resource-scheduler/internal/forecast"
	"github.com/clinicops/resource-scheduler/internal/observability/metrics"
	redisclient "github.com/clinicops/resource-scheduler/internal/redis"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/shift"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: cfg.RedisPoolSize,
		Timeout:  cfg.RedisTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	m := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	catalogSvc := catalog.NewService(catalog.NewPgRepository(pgPool))
	blockMgr := block.NewManager(block.NewPgRepository(pgPool), logger)

	scheduleRepo := schedule.NewPgRepository(pgPool)
	detector := conflict.NewDetector(blockMgr, scheduleRepo)
	locker := redisclient.NewRedisResourceLocker(rdb, cfg.LockTTL)
	scheduler := schedule.NewScheduler(scheduleRepo, catalogSvc, detector, locker, m, logger, cfg.HoldTTL)

	forecaster := forecast.NewForecaster(
		forecast.NewPgSource(pgPool),
		forecast.Thresholds{LowMax: cfg.DemandLowMax, MediumMax: cfg.DemandMediumMax},
		cfg.BusinessHourStart, cfg.BusinessHourEnd,
		cfg.Location(),
	)

	shiftSvc := shift.NewService(shift.NewPgRepository(pgPool), catalogSvc)
	optimizer := shift.NewOptimizer(forecaster, shift.NewPgRepository(pgPool), catalogSvc, cfg.Location())

	router := api.NewRouter(api.RouterConfig{
		Scheduler:  scheduler,
		Catalog:    catalogSvc,
		Blocks:     blockMgr,
		Shifts:     shiftSvc,
		Optimizer:  optimizer,
		Forecaster: forecaster,
		Metrics:    m,
		Logger:     logger,
		PgPool:     pgPool,
		Redis:      rdb,
		Env:        cfg.Env,
		Version:    version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
