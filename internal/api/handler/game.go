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
)

// GameHandler handles gameplay endpoints
type GameHandler struct {
	gameController *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller) *GameHandler {
	return &GameHandler{gameController: gameController}
}

// requireRoom fails the request if the room does not exist
func (h *GameHandler) requireRoom(w http.ResponseWriter, roomID model.RoomID) bool {
	if _, err := h.gameController.Room(roomID); err != nil {
		WriteError(w, err)
		return false
	}
	return true
}

// Start handles POST /api/v1/rooms/{room_id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)

	var req request.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	if err := h.gameController.Start(roomID, model.PlayerID(req.PlayerID)); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.Accepted)
}

// Session handles GET /api/v1/rooms/{room_id}/session?player_id=
func (h *GameHandler) Session(w http.ResponseWriter, r *http.Request) {
	viewer := model.PlayerID(r.URL.Query().Get("player_id"))

	session, err := h.gameController.Session(r.Context(), roomIDFrom(r), viewer)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionFromModel(session))
}

// Messages handles GET /api/v1/rooms/{room_id}/messages
func (h *GameHandler) Messages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.gameController.Messages(r.Context(), roomIDFrom(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MessageListFromModel(messages))
}

// PostMessage handles POST /api/v1/rooms/{room_id}/messages
func (h *GameHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)

	var req request.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, NewInvalidRequestError("text is required"))
		return
	}
	if !h.requireRoom(w, roomID) {
		return
	}

	playerID := model.PlayerID(req.PlayerID)
	var err error
	if req.IsGuess {
		err = h.gameController.SubmitGuess(roomID, playerID, req.Text)
	} else {
		err = h.gameController.SubmitChat(roomID, playerID, req.Text)
	}
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.Accepted)
}

// Frame handles POST /api/v1/rooms/{room_id}/frames
func (h *GameHandler) Frame(w http.ResponseWriter, r *http.Request) {
	roomID := roomIDFrom(r)

	var req request.FrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" || req.Data == "" {
		WriteError(w, NewInvalidRequestError("player_id and data are required"))
		return
	}
	if !h.requireRoom(w, roomID) {
		return
	}

	if err := h.gameController.SubmitFrame(roomID, model.PlayerID(req.PlayerID), req.Data); err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusAccepted, response.Accepted)
}

// Bots handles GET /api/v1/rooms/{room_id}/bots
func (h *GameHandler) Bots(w http.ResponseWriter, r *http.Request) {
	states, err := h.gameController.Bots(r.Context(), roomIDFrom(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.BotListFromStates(states))
}

// AddBot handles POST /api/v1/rooms/{room_id}/bots
func (h *GameHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	var req request.PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	botID, err := h.gameController.AddBot(r.Context(), roomIDFrom(r), model.PlayerID(req.PlayerID))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.BotAddedResponse{BotID: string(botID)})
}

// RemoveBot handles DELETE /api/v1/rooms/{room_id}/bots/{bot_id}?player_id=
func (h *GameHandler) RemoveBot(w http.ResponseWriter, r *http.Request) {
	requester := r.URL.Query().Get("player_id")
	if requester == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}
	botID := model.PlayerID(mux.Vars(r)["bot_id"])

	if err := h.gameController.RemoveBot(r.Context(), roomIDFrom(r), model.PlayerID(requester), botID); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
