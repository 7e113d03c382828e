package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/sketchguess/internal/api/request"
	"github.com/mcoot/sketchguess/internal/api/response"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/game"
	"github.com/mcoot/sketchguess/internal/web/sse"
)

// RoomHandler handles room and membership endpoints
type RoomHandler struct {
	gameController *game.Controller
	hubManager     *sse.HubManager
}

// NewRoomHandler creates a new room handler. hubManager may be nil.
func NewRoomHandler(gameController *game.Controller, hubManager *sse.HubManager) *RoomHandler {
	return &RoomHandler{gameController: gameController, hubManager: hubManager}
}

func roomIDFrom(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["room_id"])
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromModel(h.gameController.Rooms()))
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Capacity < 0 {
		WriteError(w, NewInvalidRequestError("capacity must not be negative"))
		return
	}

	room, err := h.gameController.CreateRoom(name, req.Capacity)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.RoomFromModel(room))
}

// Get handles GET /api/v1/rooms/{room_id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)

	room, err := h.gameController.Room(roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	players, err := h.gameController.Players(roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomDetailFromModel(room, players))
}

// Delete handles DELETE /api/v1/rooms/{room_id}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)
	if err := h.gameController.DeleteRoom(r.Context(), roomID); err != nil {
		WriteError(w, err)
		return
	}
	if h.hubManager != nil {
		h.hubManager.RemoveHub(model.RoomTopic(roomID))
	}
	response.NoContent(w)
}

// Players handles GET /api/v1/rooms/{room_id}/players
func (h *RoomHandler) Players(w http.ResponseWriter, r *http.Request) {
	players, err := h.gameController.Players(roomIDFrom(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PlayerListFromModel(players))
}

// Join handles POST /api/v1/rooms/{room_id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.PlayerID
	}

	room, err := h.gameController.JoinRoom(r.Context(), roomID, model.Player{
		ID:          model.PlayerID(req.PlayerID),
		DisplayName: displayName,
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	players, err := h.gameController.Players(roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomDetailFromModel(room, players))
}

// Leave handles POST /api/v1/rooms/{room_id}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req request.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	if err := h.gameController.LeaveRoom(model.PlayerID(req.PlayerID)); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
