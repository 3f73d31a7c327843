package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "retentionpulse/internal/errors"
	"retentionpulse/internal/middleware"
)

// RouterConfig carries everything the router mounts
type RouterConfig struct {
	Dashboard *DashboardHandler
	Chat      *ChatHandler
	Health    *HealthHandler
	ClientLog *ClientLogHandler
	Metrics   *MetricsHandler
	Page      http.HandlerFunc

	OTel           *middleware.OTelMiddleware
	RateLimiter    *middleware.RateLimiter
	CORS           *middleware.CORSConfig
	RequestTimeout time.Duration

	ErrorHandler *apierrors.ErrorHandler
	Logger       *slog.Logger
}

// NewRouter builds the chi router. The rate limiter, when set, guards the
// chat and upload endpoints, which call out to the assistant and the source.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.OTel != nil {
		r.Use(cfg.OTel.Handler)
	}
	r.Use(middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.ErrorHandler))
	r.Use(middleware.DefaultSecureHeaders().Handler)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.Session)

	r.NotFound(cfg.ErrorHandler.NotFound)
	r.MethodNotAllowed(cfg.ErrorHandler.MethodNotAllowed)

	r.Get("/", cfg.Page)
	r.Get("/metrics", cfg.Metrics.Prometheus)

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout, cfg.ErrorHandler))
		}
		r.Use(middleware.Compress(5))
		r.Use(middleware.AuditLog(cfg.Logger))

		r.Get("/health", cfg.Health.HealthCheck)
		r.Get("/health/ready", cfg.Health.ReadinessCheck)
		r.Get("/health/live", cfg.Health.LivenessCheck)
		r.Get("/version", cfg.Health.Version)
		r.Get("/cache", cfg.Metrics.CacheStats)
		r.Post("/client-log", cfg.ClientLog.Handle)

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Handler)
			}
			r.Mount("/chat", cfg.Chat.Routes())
			r.Post("/upload", cfg.Dashboard.Upload)
		})

		r.Mount("/", cfg.Dashboard.Routes())
	})

	return r
}
