package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soundleaf/soundleaf-backend/api/routes"
	"github.com/soundleaf/soundleaf-backend/internal/catalog"
	"github.com/soundleaf/soundleaf-backend/internal/chapters"
	"github.com/soundleaf/soundleaf-backend/internal/entitlements"
	"github.com/soundleaf/soundleaf-backend/internal/notifications"
	paymentwebhook "github.com/soundleaf/soundleaf-backend/internal/webhooks/payments"
	"github.com/soundleaf/soundleaf-backend/pkg/config"
	"github.com/soundleaf/soundleaf-backend/pkg/db"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/migrate"
	"github.com/soundleaf/soundleaf-backend/pkg/payments"
	"github.com/soundleaf/soundleaf-backend/pkg/redis"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

const webhookIdempotencyScope = "payments-webhook"

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

	objectStore, err := storage.NewMinioStore(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object store", err)
		os.Exit(1)
	}

	paymentsClient, err := payments.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payments client", err)
		os.Exit(1)
	}

	uploadMetrics := metrics.NewUploadMetrics(prometheus.DefaultRegisterer)
	claimMetrics := metrics.NewClaimMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	chaptersRepo := chapters.NewRepository(dbClient.DB())
	entitlementsRepo := entitlements.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	notifier, err := notifications.NewPublisher(notificationsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification publisher", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo, dbClient, objectStore, entitlementsRepo, chaptersRepo, notifier, uploadMetrics, cfg.Media, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	chaptersService, err := chapters.NewService(chaptersRepo, dbClient, objectStore, entitlementsRepo, uploadMetrics, cfg.Media, cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create chapters service", err)
		os.Exit(1)
	}

	entitlementsService, err := entitlements.NewService(entitlementsRepo, notifier, claimMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlements service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	paymentWebhookService, err := paymentwebhook.NewService(paymentwebhook.ServiceParams{
		Granter:  entitlementsService,
		Verifier: paymentsClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paymentwebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, webhookIdempotencyScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			objectStore,
			catalogService,
			chaptersService,
			entitlementsService,
			notificationsService,
			paymentsClient,
			paymentWebhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
