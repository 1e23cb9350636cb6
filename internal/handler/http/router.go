package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/reviewhub/pkg/health"
	"github.com/utafrali/reviewhub/pkg/middleware"
)

// RouterConfig holds the cross-cutting settings of the router.
type RouterConfig struct {
	ServiceName string

	// Write routes are limited per client IP. Zero RPS disables the limit.
	RateLimitRPS   float64
	RateLimitBurst int

	// Metrics is optional. Gatherer backs GET /metrics when set.
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviews ReviewService,
	resolve middleware.ResolveFunc,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware(cfg.ServiceName))
	}
	r.Use(middleware.Identity(resolve))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limit = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	reviewHandler := NewReviewHandler(reviews, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(limit)

			r.Post("/", reviewHandler.CreateReview)
			r.Put("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
			r.Put("/{id}/like", reviewHandler.Like)
			r.Put("/{id}/dislike", reviewHandler.Dislike)
			r.Post("/{id}/photos", reviewHandler.AttachPhoto)
		})
	})

	r.Get("/api/v1/products/{productId}/reviews", reviewHandler.ListProductReviews)

	return r
}
