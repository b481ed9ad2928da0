package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/services/session"
)

// ConnectionIDLength is the length of the random part of connection ids
const ConnectionIDLength = 12

// Handler upgrades HTTP requests to game websockets. The socket both
// seats the player in the room and carries their intents for the rest
// of the connection.
type Handler struct {
	auth     *auth.Service
	registry *registry.Registry
	hubs     *HubManager
	random   random.Random
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler
func NewHandler(
	authService *auth.Service,
	reg *registry.Registry,
	hubs *HubManager,
	random random.Random,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		auth:     authService,
		registry: reg,
		hubs:     hubs,
		random:   random,
		logger:   logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game auth happens via token, not origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SessionHook wires each new session's events into its room hub.
// Install on the registry before any rooms exist. The notifier resolves
// the hub through the manager on every event: the empty-hub sweep
// closes and drops idle hubs, so a hub captured at session creation can
// go stale between connections.
func (h *Handler) SessionHook() func(*session.Session) {
	return func(sess *session.Session) {
		roomID := sess.ID()
		h.hubs.GetOrCreateHub(roomID)
		sess.SetNotifier(func(event model.Event) {
			h.hubs.GetOrCreateHub(roomID).BroadcastEvent(event)
		})
	}
}

// ServeHTTP handles GET /api/rooms/{roomId}/ws. Browsers cannot set
// headers on websocket requests, so the bearer token rides in the
// query string.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	account, err := h.auth.Verify(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	roomID := model.RoomID(mux.Vars(r)["roomId"])
	sess, err := h.registry.GetSession(r.Context(), roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	connID := model.ConnectionID("conn_" + h.random.String(ConnectionIDLength, random.IDAlphabet))
	if _, err := sess.Join(r.Context(), account.ID, account.DisplayName, account.Email, connID); err != nil {
		switch {
		case errors.Is(err, model.ErrRoomFull):
			http.Error(w, "room is full", http.StatusConflict)
		case errors.Is(err, model.ErrAlreadyStarted):
			http.Error(w, "game already started", http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		sess.Disconnect(r.Context(), connID)
		return
	}

	hub := h.hubs.GetOrCreateHub(roomID)
	client := NewClient(hub, sess, conn, account.ID, connID, h.logger)

	// Serve blocks for the life of the connection. Use a background
	// context: the request context ends when this handler returns.
	go client.Serve(context.Background())
}
