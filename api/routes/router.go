package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundleaf/soundleaf-backend/api/controllers"
	webhookcontrollers "github.com/soundleaf/soundleaf-backend/api/controllers/webhooks"
	"github.com/soundleaf/soundleaf-backend/api/middleware"
	"github.com/soundleaf/soundleaf-backend/internal/catalog"
	"github.com/soundleaf/soundleaf-backend/internal/chapters"
	"github.com/soundleaf/soundleaf-backend/internal/entitlements"
	"github.com/soundleaf/soundleaf-backend/internal/notifications"
	paymentwebhook "github.com/soundleaf/soundleaf-backend/internal/webhooks/payments"
	"github.com/soundleaf/soundleaf-backend/pkg/config"
	"github.com/soundleaf/soundleaf-backend/pkg/db"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/payments"
	"github.com/soundleaf/soundleaf-backend/pkg/redis"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	storeP storage.Pinger,
	catalogService catalog.Service,
	chaptersService chapters.Service,
	entitlementsService entitlements.Service,
	notificationsService notifications.Service,
	paymentsClient *payments.Client,
	paymentWebhookService *paymentwebhook.Service,
	paymentWebhookGuard *paymentwebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	claimPolicy := middleware.NewClaimRateLimitPolicy(cfg.Claims)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readyChecks(dbP, redisClient, storeP)...))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentWebhook(paymentWebhookService, paymentsClient, paymentWebhookGuard, logg))
	})

	// The catalog browse surface carries no credentials; everything it can
	// reveal is already public.
	r.Get("/api/v1/catalog", controllers.BrowseCatalog(catalogService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/content", func(r chi.Router) {
			r.Post("/", controllers.CreateContent(catalogService, logg))
			r.Get("/mine", controllers.ListMyContent(catalogService, logg))
			r.Route("/{contentID}", func(r chi.Router) {
				r.Get("/", controllers.GetContent(catalogService, logg))
				r.Patch("/", controllers.UpdateContent(catalogService, logg))
				r.Delete("/", controllers.DeleteContent(catalogService, logg))
				r.Post("/submit", controllers.SubmitContent(catalogService, logg))
				r.Post("/cover", controllers.UploadCover(catalogService, logg))
				r.With(middleware.ClaimRateLimit(claimPolicy, redisClient, logg)).
					Post("/claim", controllers.ClaimFreeContent(entitlementsService, logg))
				r.Route("/chapters", func(r chi.Router) {
					r.Get("/", controllers.ListChapters(chaptersService, logg))
					r.Post("/", controllers.UploadChapter(chaptersService, logg))
					r.Put("/order", controllers.ReorderChapters(chaptersService, logg))
				})
			})
		})

		r.Route("/chapters/{chapterID}", func(r chi.Router) {
			r.Delete("/", controllers.DeleteChapter(chaptersService, logg))
			r.Get("/stream", controllers.StreamChapter(chaptersService, logg))
		})

		r.Get("/me/library", controllers.ListLibrary(entitlementsService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Get("/review-queue", controllers.ListReviewQueue(catalogService, logg))
		r.Route("/content/{contentID}", func(r chi.Router) {
			r.Post("/approve", controllers.ApproveContent(catalogService, logg))
			r.Post("/reject", controllers.RejectContent(catalogService, logg))
		})
	})

	return r
}

func readyChecks(dbP db.Pinger, redisClient *redis.Client, storeP storage.Pinger) []controllers.ReadyCheck {
	checks := make([]controllers.ReadyCheck, 0, 3)
	if dbP != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "postgres", Ping: dbP.Ping})
	}
	if redisClient != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "redis", Ping: redisClient.Ping})
	}
	if storeP != nil {
		checks = append(checks, controllers.ReadyCheck{Name: "object_store", Ping: storeP.Ping})
	}
	return checks
}
