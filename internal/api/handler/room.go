package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ratrace-game/server/internal/api/middleware"
	"github.com/ratrace-game/server/internal/api/request"
	"github.com/ratrace-game/server/internal/api/response"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/registry"
)

// RoomHandler handles room lifecycle and turn endpoints
type RoomHandler struct {
	registry   *registry.Registry
	negotiator *profession.Negotiator
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(reg *registry.Registry, negotiator *profession.Negotiator) *RoomHandler {
	return &RoomHandler{
		registry:   reg,
		negotiator: negotiator,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Allow empty body for default config
		req = request.CreateRoomRequest{}
	}

	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	cfg, err := roomConfigFromRequest(req)
	if err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.registry.CreateRoom(r.Context(), req.Name, account.ID, cfg)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(sess.Snapshot()))
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromModel(h.registry.ListActive()))
}

// Get handles GET /api/v1/rooms/{roomId}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(sess.Snapshot()))
}

// Join handles POST /api/v1/rooms/{roomId}/join.
// Joining over REST reserves the roster seat; the live connection
// attaches separately over the room's websocket.
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	reconnected, err := sess.Join(r.Context(), account.ID, account.DisplayName, account.Email, "")
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Room:        response.RoomFromModel(sess.Snapshot()),
		Reconnected: reconnected,
	})
}

// Leave handles POST /api/v1/rooms/{roomId}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.Leave(r.Context(), account.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Start handles POST /api/v1/rooms/{roomId}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.Start(r.Context(), account.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(sess.Snapshot()))
}

// SelectProfession handles POST /api/v1/rooms/{roomId}/profession
func (h *RoomHandler) SelectProfession(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.SelectProfessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.ProfessionID == "" {
		WriteError(w, NewInvalidRequestError("profession_id is required"))
		return
	}

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.SelectProfession(r.Context(), account.ID, model.ProfessionID(req.ProfessionID)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ConfirmProfession handles POST /api/v1/rooms/{roomId}/profession/confirm
func (h *RoomHandler) ConfirmProfession(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.ConfirmProfession(r.Context(), account.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// PassTurn handles POST /api/v1/rooms/{roomId}/turn/pass
func (h *RoomHandler) PassTurn(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.PassTurn(r.Context(), account.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(sess.Snapshot()))
}

// Professions handles GET /api/v1/professions
func (h *RoomHandler) Professions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ProfessionListFromModel(h.negotiator.Pool()))
}

// roomConfigFromRequest merges the request's overrides onto the default
// room configuration
func roomConfigFromRequest(req request.CreateRoomRequest) (model.RoomConfig, error) {
	cfg := model.DefaultRoomConfig()

	if req.MaxPlayers > 0 {
		cfg.MaxPlayers = req.MaxPlayers
	}
	if req.TurnTimeSec > 0 {
		cfg.TurnTimeSec = req.TurnTimeSec
	}
	if req.GameDurationSec > 0 {
		cfg.GameDurationSec = req.GameDurationSec
	}
	if req.SelectionTimeoutSec > 0 {
		cfg.SelectionTimeoutSec = req.SelectionTimeoutSec
	}
	if req.CreditOnTurnOnly != nil {
		cfg.CreditOnTurnOnly = *req.CreditOnTurnOnly
	}
	if req.AutoPassOnExpiry != nil {
		cfg.AutoPassOnExpiry = *req.AutoPassOnExpiry
	}

	if req.ProfessionMode != "" {
		mode := model.ProfessionMode(req.ProfessionMode)
		switch mode {
		case model.ProfessionModeAssigned, model.ProfessionModeRandom, model.ProfessionModeChoice:
			cfg.ProfessionMode = mode
		default:
			return cfg, NewInvalidRequestError("unknown profession_mode")
		}
	}
	cfg.AssignedProfession = model.ProfessionID(req.AssignedProfession)
	if cfg.ProfessionMode == model.ProfessionModeAssigned && cfg.AssignedProfession == "" {
		return cfg, NewInvalidRequestError("assigned_profession is required in assigned mode")
	}

	return cfg, nil
}
