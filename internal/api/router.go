package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sketchguess/internal/api/handler"
	"github.com/mcoot/sketchguess/internal/api/middleware"
	"github.com/mcoot/sketchguess/internal/services/game"
	"github.com/mcoot/sketchguess/internal/web/sse"
	"github.com/mcoot/sketchguess/internal/web/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	HubManager     *sse.HubManager
	Sockets        *ws.Server
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.GameController, cfg.HubManager)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	streamHandler := handler.NewStreamHandler(cfg.GameController, cfg.HubManager, cfg.Sockets)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Rooms and membership
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}", roomHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{room_id}/players", roomHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/join", roomHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/leave", roomHandler.Leave).Methods(http.MethodPost)

	// Gameplay
	api.HandleFunc("/rooms/{room_id}/start", gameHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/session", gameHandler.Session).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/messages", gameHandler.Messages).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/messages", gameHandler.PostMessage).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/frames", gameHandler.Frame).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/bots", gameHandler.Bots).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/bots", gameHandler.AddBot).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{room_id}/bots/{bot_id}", gameHandler.RemoveBot).Methods(http.MethodDelete)

	// Push channels
	api.HandleFunc("/events", streamHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/ws", streamHandler.Socket).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
