package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ratrace-game/server/internal/api/handler"
	"github.com/ratrace-game/server/internal/api/middleware"
	basemiddleware "github.com/ratrace-game/server/internal/middleware"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/services/stats"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Registry    *registry.Registry
	Negotiator  *profession.Negotiator
	Stats       *stats.Aggregator

	// WSHandler serves the per-room websocket endpoint. It does its own
	// token verification from the query string, so it sits outside the
	// auth middleware.
	WSHandler http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	roomHandler := handler.NewRoomHandler(cfg.Registry, cfg.Negotiator)
	bankHandler := handler.NewBankHandler(cfg.Registry)
	hofHandler := handler.NewHallOfFameHandler(cfg.Stats)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := basemiddleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Profession pool and hall of fame are public reads
	api.HandleFunc("/professions", roomHandler.Professions).Methods(http.MethodGet)
	api.HandleFunc("/halloffame", hofHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/halloffame/{username}", hofHandler.Get).Methods(http.MethodGet)

	// Room routes (all require auth)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomId}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{roomId}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/leave", roomHandler.Leave).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/start", roomHandler.Start).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/profession", roomHandler.SelectProfession).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/profession/confirm", roomHandler.ConfirmProfession).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/turn/pass", roomHandler.PassTurn).Methods(http.MethodPost)

	// Banking routes
	rooms.HandleFunc("/{roomId}/bank/deposit", bankHandler.Deposit).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/bank/withdraw", bankHandler.Withdraw).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/bank/transfer", bankHandler.Transfer).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/bank/credit", bankHandler.IssueCredit).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/bank/repay", bankHandler.Repay).Methods(http.MethodPost)
	rooms.HandleFunc("/{roomId}/bank/transactions", bankHandler.Transactions).Methods(http.MethodGet)

	// Websocket endpoint, outside the room subrouter so it skips the
	// header-based auth middleware
	if cfg.WSHandler != nil {
		api.Handle("/rooms/{roomId}/ws", cfg.WSHandler).Methods(http.MethodGet)
	}

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
