package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	releasehandlers "Pfrastro/internal/api/handlers/release"
	signedurlhandlers "Pfrastro/internal/api/handlers/signedurl"
	"Pfrastro/internal/api/middleware"
	"Pfrastro/internal/core/content"
)

// Services bundles everything the API routes depend on
type Services struct {
	Releases  releasehandlers.Service
	SignedURL signedurlhandlers.Service
	Counters  content.CounterService
	Programs  content.ProgramService
}

// RouterConfig holds HTTP-level settings
type RouterConfig struct {
	CORSOrigins              []string
	RateLimitRequests        int
	RateLimitWindow          time.Duration
	CounterRateLimitRequests int
}

// NewRouter builds the complete HTTP router.
//
// /health and /metrics sit outside the rate limiter; everything else lives
// under /api.
func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)

		RegisterReleaseRoutes(r, svc.Releases)
		RegisterSignedURLRoutes(r, svc.SignedURL)
		RegisterProgramRoutes(r, svc.Programs)
		RegisterCounterRoutes(r, svc.Counters,
			middleware.CounterRateLimit(cfg.CounterRateLimitRequests, cfg.RateLimitWindow))
	})

	return r
}
