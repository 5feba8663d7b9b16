package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/service"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/health"
	"github.com/NEARBuilders/near-merch-store-sub000/pkg/middleware"
)

// RouterConfig holds the dependencies and settings for the HTTP router.
type RouterConfig struct {
	WebhookService *service.WebhookService
	SyncService    *service.SyncService
	OrderService   *service.OrderService
	HealthHandler  *health.Handler
	JWTSecret      string
	AdminRole      string
	RateLimitRPS   int
	RateLimitBurst int
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all routes registered. Webhook
// endpoints are open (authenticated by signature); sync and order
// endpoints sit behind JWT admin auth.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("merch-store"))
	r.Use(middleware.Tracing("merch-store"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	webhookHandler := NewWebhookHandler(cfg.WebhookService, cfg.Logger)
	r.Route("/webhooks", func(r chi.Router) {
		// Webhooks are the only unauthenticated POST surface, so they get
		// a per-IP rate limit in front of signature verification.
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
		}
		r.Post("/{provider}", webhookHandler.Fulfillment)
		r.Post("/ping", webhookHandler.Payment)
	})

	syncHandler := NewSyncHandler(cfg.SyncService, cfg.Logger)
	orderHandler := NewOrderHandler(cfg.OrderService, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.Logger))
		r.Use(middleware.RequireRole(cfg.AdminRole))

		r.Post("/sync", syncHandler.Sync)
		r.Get("/sync-status", syncHandler.Status)
		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
		})
	})

	return r
}
