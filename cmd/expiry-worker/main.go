package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/config"
	"github.com/clinicops/resource-scheduler/internal/conflict"
	"github.com/clinicops/resource-scheduler/internal/db"
	redisclient "github.com/clinicops/resource-scheduler/internal/redis"
	"github.com/clinicops/resource-scheduler/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "expiry-worker").Logger()
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("expiry-worker starting up")

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

	catalogSvc := catalog.NewService(catalog.NewPgRepository(pgPool))
	blockMgr := block.NewManager(block.NewPgRepository(pgPool), logger)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	detector := conflict.NewDetector(blockMgr, scheduleRepo)
	locker := redisclient.NewRedisResourceLocker(rdb, cfg.LockTTL)
	scheduler := schedule.NewScheduler(scheduleRepo, catalogSvc, detector, locker, nil, logger, cfg.HoldTTL)

	// Run once at startup
	runOnce(rootCtx, scheduler, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, scheduler, logger)
		}
	}
}

func runOnce(ctx context.Context, scheduler *schedule.Scheduler, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := scheduler.ExpireStaleHolds(runCtx); err != nil {
		logger.Error().Err(err).Msg("expiry run error")
		return
	}
	logger.Info().Dur("took", time.Since(start)).Msg("expiry run complete")
}
