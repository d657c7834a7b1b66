// Package handler provides HTTP handlers for the startsit-data API: health
// checks, cron-triggered sync entry points, and the recommendations endpoint.
package handler

import (
	"net/http"

	"github.com/startsit/startsit-data/internal/api/respond"
	"github.com/startsit/startsit-data/internal/cache"
	"github.com/startsit/startsit-data/internal/config"
	"github.com/startsit/startsit-data/internal/db"
	"github.com/startsit/startsit-data/internal/recommend"
	"github.com/startsit/startsit-data/internal/sync"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool   *db.Pool
	cache  *cache.Cache
	cfg    *config.Config
	syncer *sync.Syncer
	engine *recommend.Engine
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, c *cache.Cache, cfg *config.Config, syncer *sync.Syncer, engine *recommend.Engine) *Handler {
	return &Handler{pool: pool, cache: c, cfg: cfg, syncer: syncer, engine: engine}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Startsit Data API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckCache reports cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.cache.Stats())
}
