package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
)

// RouterConfig collects the handlers and HTTP settings
type RouterConfig struct {
	API    *APIHandlers
	Pages  *PageHandlers
	Health *HealthHandlers

	StaticDir      string
	AllowedOrigins []string
	// RateLimit is the per-IP request budget per minute on /api; zero disables it
	RateLimit int
}

// NewRouter builds the chi router
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	if cfg.Pages != nil {
		r.Get("/", cfg.Pages.Index)
		r.Post("/", cfg.Pages.Submit)
	}

	if cfg.Health != nil {
		r.Get("/api/health", cfg.Health.Health)
		r.Get("/healthz", cfg.Health.Liveness)
		r.Get("/readyz", cfg.Health.Readiness)
	}
	r.Handle("/metrics", promhttp.Handler())

	api := cfg.API
	r.Route("/api", func(r chi.Router) {
		// the activity feed is long-lived and exempt from limits
		r.Get("/events", api.EventsSSE)

		r.Group(func(r chi.Router) {
			if cfg.RateLimit > 0 {
				r.Use(httprate.Limit(
					cfg.RateLimit,
					time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(rateLimited),
				))
			}
			r.Use(middleware.Timeout(10 * time.Second))

			r.Post("/matchup", api.Matchup)
			r.Post("/matchup/promote", api.Promote)
			r.Get("/catalog", api.Catalog)
			r.Get("/winrates", api.WinRates)
			r.Post("/opponents", api.Opponents)
			r.Post("/batch", api.Batch)
			r.Post("/pools", api.Pools)
		})
	})

	return r
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
	w.Header().Set("Retry-After", "60")
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

// requestLogger logs each request and records its metrics under the
// matched route pattern
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		metrics.RecordAPIRequest(r.Method, route, status, duration)
		logger.Debug("HTTP request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration_ms", duration.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
