package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soundleaf/soundleaf-backend/internal/sweeper"
	"github.com/soundleaf/soundleaf-backend/pkg/config"
	"github.com/soundleaf/soundleaf-backend/pkg/db"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/migrate"
	"github.com/soundleaf/soundleaf-backend/pkg/redis"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

const lockKeyFormat = "sl:sweeper:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sweeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "sweeper",
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

	objectStore, err := storage.NewMinioStore(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object store", err)
		os.Exit(1)
	}

	sweepMetrics := metrics.NewSweeperMetrics(prometheus.DefaultRegisterer)
	lock, err := sweeper.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	repo := sweeper.NewRepository(dbClient.DB())
	registry := sweeper.NewRegistry()
	for _, prefix := range []string{storage.ChapterPrefix, storage.CoverPrefix} {
		job, err := sweeper.NewOrphanBlobJob(sweeper.OrphanBlobJobParams{
			Logger:    logg,
			Store:     objectStore,
			Repo:      repo,
			Prefix:    prefix,
			Grace:     cfg.Sweeper.GracePeriod,
			BatchSize: cfg.Sweeper.BatchSize,
			Metrics:   sweepMetrics,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create orphan sweep job", err)
			os.Exit(1)
		}
		registry.Register(job)
	}

	runner, err := sweeper.NewRunner(sweeper.RunnerParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  sweepMetrics,
		Interval: cfg.Sweeper.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep runner", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting sweeper")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sweeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sweeper shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
