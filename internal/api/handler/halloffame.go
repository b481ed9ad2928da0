package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ratrace-game/server/internal/api/response"
	"github.com/ratrace-game/server/internal/services/stats"
)

// defaultHallOfFameLimit bounds the listing when no limit is given
const defaultHallOfFameLimit = 50

// HallOfFameHandler handles hall of fame endpoints
type HallOfFameHandler struct {
	stats *stats.Aggregator
}

// NewHallOfFameHandler creates a new hall of fame handler
func NewHallOfFameHandler(aggregator *stats.Aggregator) *HallOfFameHandler {
	return &HallOfFameHandler{
		stats: aggregator,
	}
}

// List handles GET /api/v1/halloffame
func (h *HallOfFameHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultHallOfFameLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.stats.Top(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HallOfFameFromModel(entries))
}

// Get handles GET /api/v1/halloffame/{username}
func (h *HallOfFameHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.stats.Get(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HallOfFameEntryFromModel(entry))
}
