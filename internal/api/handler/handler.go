// Package handler provides HTTP handlers for the read API. Handlers query
// the relational store through internal/repository and trigger syncs
// through internal/syncmanager — no Postgres stored functions, no
// passthrough caching; the repository is the single read path.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoracle/nba-core/internal/api/respond"
	"github.com/scoracle/nba-core/internal/config"
	"github.com/scoracle/nba-core/internal/repository"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool *pgxpool.Pool
	repo *repository.Repository
	mgr  *syncmanager.Manager
	cfg  *config.Config
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, repo *repository.Repository, mgr *syncmanager.Manager, cfg *config.Config) *Handler {
	return &Handler{pool: pool, repo: repo, mgr: mgr, cfg: cfg}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "NBA Data Core API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache reports whether the first-run bootstrap has happened,
// i.e. whether the core tables are populated. There is no in-memory
// response cache in this API — every read hits Postgres directly — so
// this endpoint exists to answer "has the store been seeded" rather than
// to report cache hit/miss ratios.
// @Summary Data freshness check
// @Description Reports whether the core tables have been populated.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	firstRun, err := h.mgr.IsFirstRun(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "CHECK_FAILED", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"seeded":    !firstRun,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
