// Package api wires the Chi router, middleware stack, and endpoint handlers.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/startsit/startsit-data/internal/api/handler"
	"github.com/startsit/startsit-data/internal/cache"
	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/db"
	"github.com/startsit/startsit-data/internal/recommend"
	"github.com/startsit/startsit-data/internal/sync"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, appCache *cache.Cache, cfg *config.Config, syncer *sync.Syncer, engine *recommend.Engine) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, appCache, cfg, syncer, engine)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Cron-triggered sync entry points, shared-secret guarded
	r.Route("/cron", func(r chi.Router) {
		r.Use(CronAuthMiddleware(cfg.CronSecret))
		r.Post("/sync/{type}", h.TriggerSync)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommendations", h.GetRecommendations)
	})

	return r
}
