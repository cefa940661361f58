package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scoracle/nba-core/internal/api/respond"
	"github.com/scoracle/nba-core/internal/repository"
)

// GetTeam returns a team's id/name forms by team_id.
// @Summary Get team by id
// @Description Returns a team's name forms for the given team_id.
// @Tags teams
// @Produce json
// @Param id path int true "Team id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/teams/{id} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "team id must be an integer")
		return
	}

	full, ok, err := h.repo.TeamNameByID(r.Context(), id, repository.TeamNameFull)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no team with that id")
		return
	}

	abbr, _, _ := h.repo.TeamNameByID(r.Context(), id, repository.TeamNameAbbreviation)
	city, _, _ := h.repo.TeamNameByID(r.Context(), id, repository.TeamNameCity)
	nickname, _, _ := h.repo.TeamNameByID(r.Context(), id, repository.TeamNameNickname)

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"team_id":      id,
		"name":         full,
		"city":         city,
		"nickname":     nickname,
		"abbreviation": abbr,
	})
}

// LookupTeam resolves a free-text team name to a team_id.
// @Summary Resolve a team name to its id
// @Description Fuzzy-matches a team name against abbreviation, nickname, city+nickname, and slug.
// @Tags teams
// @Produce json
// @Param name query string true "Team name, city, nickname, abbreviation, or slug"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/teams/lookup [get]
func (h *Handler) LookupTeam(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "name query parameter is required")
		return
	}

	id, ok, err := h.repo.TeamIDByName(r.Context(), name)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no team matched that name")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"team_id": id})
}
