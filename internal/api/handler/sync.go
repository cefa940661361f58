package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scoracle/nba-core/internal/api/respond"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

// TriggerSync runs a synchronizer on demand. kind is one of
// teams/players/schedule/all; force=true bypasses the "already populated"
// short-circuit.
// @Summary Trigger a sync
// @Description Runs the named synchronizer (teams, players, schedule, or all) immediately.
// @Tags sync
// @Produce json
// @Param kind path string true "teams, players, schedule, or all"
// @Param force query bool false "force a refresh even if already populated"
// @Success 200 {object} syncmanager.Summary
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/sync/{kind} [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	kind := syncmanager.Kind(chi.URLParam(r, "kind"))
	force := r.URL.Query().Get("force") == "true"

	summary, err := h.mgr.Sync(r.Context(), kind, force)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_KIND", err.Error())
		return
	}

	status := http.StatusOK
	if summary.Status == "error" {
		status = http.StatusInternalServerError
	}
	respond.WriteJSONObject(w, status, summary)
}
