package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scoracle/nba-core/internal/api/respond"
)

// GetGame returns full detail for a single game.
// @Summary Get game by id
// @Description Returns home/away team snapshots and status for a single game_id.
// @Tags games
// @Produce json
// @Param id path string true "Game id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/games/{id} [get]
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	game, ok, err := h.repo.GameByID(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no game with that id")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, game)
}

// ListGames returns games filtered by date and/or team_id. When both are
// supplied, team_id resolves a single game id via the "today/next/last or
// exact date" dispatch and date is treated as the dispatch keyword or an
// exact Beijing calendar date.
// @Summary List games
// @Description Filters by date (Beijing calendar date, or today/next/last when team_id is also given) and/or team_id.
// @Tags games
// @Produce json
// @Param date query string false "YYYY-MM-DD, or today/next/last when team_id is set"
// @Param team_id query int false "Team id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/games [get]
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	teamIDStr := r.URL.Query().Get("team_id")

	if teamIDStr != "" {
		teamID, err := strconv.Atoi(teamIDStr)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_TEAM_ID", "team_id must be an integer")
			return
		}

		if date != "" {
			gameID, ok, err := h.repo.GameIDForTeam(r.Context(), teamID, date)
			if err != nil {
				respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
				return
			}
			if !ok {
				respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no matching game")
				return
			}
			respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"game_id": gameID})
			return
		}

		games, err := h.repo.GamesByTeam(r.Context(), teamID, 20)
		if err != nil {
			respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"games": games})
		return
	}

	if date == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_FILTER", "date or team_id is required")
		return
	}

	games, err := h.repo.GamesByDate(r.Context(), date)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"games": games})
}
