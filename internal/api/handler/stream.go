package handler

import (
	"net/http"

	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/game"
	"github.com/mcoot/sketchguess/internal/web/sse"
	"github.com/mcoot/sketchguess/internal/web/ws"
)

// StreamHandler serves the push channels: SSE and the room websocket
type StreamHandler struct {
	gameController *game.Controller
	hubManager     *sse.HubManager
	sockets        *ws.Server
}

// NewStreamHandler creates a new stream handler. Either transport may be nil.
func NewStreamHandler(gameController *game.Controller, hubManager *sse.HubManager, sockets *ws.Server) *StreamHandler {
	return &StreamHandler{
		gameController: gameController,
		hubManager:     hubManager,
		sockets:        sockets,
	}
}

// Events handles GET /api/v1/events?player_id=&room_id=
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hubManager == nil {
		WriteError(w, NewInvalidRequestError("event streaming is disabled"))
		return
	}

	topics := []string{model.LobbyTopic}
	playerID := model.PlayerID(r.URL.Query().Get("player_id"))
	if playerID != "" {
		topics = append(topics, model.PlayerTopic(playerID))
	}
	if roomID := model.RoomID(r.URL.Query().Get("room_id")); roomID != "" {
		if _, err := h.gameController.Room(roomID); err != nil {
			WriteError(w, err)
			return
		}
		topics = append(topics, model.RoomTopic(roomID))
	}

	sse.ServeSSE(w, r, h.hubManager, playerID, topics)
}

// Socket handles GET /api/v1/rooms/{room_id}/ws?player_id=
func (h *StreamHandler) Socket(w http.ResponseWriter, r *http.Request) {
	if h.sockets == nil {
		WriteError(w, NewInvalidRequestError("websockets are disabled"))
		return
	}

	roomID := roomIDFrom(r)
	playerID := model.PlayerID(r.URL.Query().Get("player_id"))
	if playerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	if _, err := h.gameController.Room(roomID); err != nil {
		WriteError(w, err)
		return
	}

	h.sockets.Serve(w, r, roomID, playerID)
}
