package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scoracle/nba-core/internal/api/respond"
	"github.com/scoracle/nba-core/internal/repository"
)

// GetPlayer returns a player's name forms by person_id.
// @Summary Get player by id
// @Description Returns a player's name forms for the given person_id.
// @Tags players
// @Produce json
// @Param id path int true "Player id (person_id)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/{id} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "player id must be an integer")
		return
	}

	full, ok, err := h.repo.PlayerNameByID(r.Context(), id, repository.PlayerNameFull)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no player with that id")
		return
	}

	lastFirst, _, _ := h.repo.PlayerNameByID(r.Context(), id, repository.PlayerNameLastFirst)

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"person_id":                id,
		"display_first_last":       full,
		"display_last_comma_first": lastFirst,
	})
}

// LookupPlayer resolves a free-text player name to a person_id.
// @Summary Resolve a player name to its id
// @Description Substring-matches display_first_last, falling back to a token-sorted fuzzy ratio when the substring match is ambiguous.
// @Tags players
// @Produce json
// @Param name query string true "Player name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/v1/players/lookup [get]
func (h *Handler) LookupPlayer(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_NAME", "name query parameter is required")
		return
	}

	id, ok, err := h.repo.PlayerIDByName(r.Context(), name)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "LOOKUP_FAILED", err.Error())
		return
	}
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no player matched that name")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"person_id": id})
}
