package registry

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/sketchguess/internal/broadcast"
	"github.com/mcoot/sketchguess/internal/dependencies/clock"
	"github.com/mcoot/sketchguess/internal/dependencies/random"
	"github.com/mcoot/sketchguess/internal/model"
)

const (
	// RoomCodeLength is the length of generated room ids
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room ids (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 16
)

// Config holds registry settings
type Config struct {
	DefaultCapacity int
}

// DefaultConfig returns the default registry settings
func DefaultConfig() Config {
	return Config{DefaultCapacity: model.DefaultRoomCapacity}
}

// Registry is the authoritative mapping of rooms to seated players.
// All mutations happen under a short-held lock; events are published after it is released.
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomID]*roomEntry
	order []model.RoomID
	seats map[model.PlayerID]model.RoomID

	broadcaster broadcast.Broadcaster
	clock       clock.Clock
	random      random.Random
	cfg         Config
	logger      *slog.Logger
}

type roomEntry struct {
	room    model.Room
	players []model.Player
}

func (e *roomEntry) indexOf(id model.PlayerID) int {
	for i, p := range e.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (e *roomEntry) humans() int {
	n := 0
	for _, p := range e.players {
		if !p.IsAutomated {
			n++
		}
	}
	return n
}

// JoinResult describes a successful join
type JoinResult struct {
	Room   model.Room
	Player model.Player
	// Left is set when the player was reseated out of another room
	Left *LeaveResult
}

// LeaveResult describes a player leaving a room
type LeaveResult struct {
	RoomID          model.RoomID
	Player          model.Player
	HumansRemaining int
	// Emptied is true when the last human left and the room reverted to waiting
	Emptied bool
}

// New creates a new Registry
func New(broadcaster broadcast.Broadcaster, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *Registry {
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = model.DefaultRoomCapacity
	}
	return &Registry{
		rooms:       make(map[model.RoomID]*roomEntry),
		seats:       make(map[model.PlayerID]model.RoomID),
		broadcaster: broadcaster,
		clock:       clk,
		random:      rnd,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "registry")),
	}
}

// CreateRoom creates an empty waiting room. A non-positive capacity uses the default.
func (r *Registry) CreateRoom(name string, capacity int) model.Room {
	if capacity <= 0 {
		capacity = r.cfg.DefaultCapacity
	}

	r.mu.Lock()
	id := r.newRoomIDLocked()
	if name == "" {
		name = "Room " + string(id)
	}
	entry := &roomEntry{
		room: model.Room{
			ID:        id,
			Name:      name,
			Capacity:  capacity,
			Occupancy: 0,
			Status:    model.RoomStatusWaiting,
			CreatedAt: r.clock.Now(),
		},
	}
	r.rooms[id] = entry
	r.order = append(r.order, id)
	room := entry.room
	rooms := r.roomsLocked()
	r.mu.Unlock()

	r.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("name", name),
		slog.Int("capacity", capacity))
	r.publishRooms(rooms)
	return room
}

func (r *Registry) newRoomIDLocked() model.RoomID {
	for i := 0; i < maxCodeAttempts; i++ {
		id := model.RoomID(r.random.String(RoomCodeLength, RoomCodeAlphabet))
		if id == "" {
			continue
		}
		if _, exists := r.rooms[id]; !exists {
			return id
		}
	}
	// Code space exhausted or generator degenerate
	return model.RoomID(uuid.NewString())
}

// DeleteRoom removes a room and unseats everyone in it. Returns the evicted players.
func (r *Registry) DeleteRoom(id model.RoomID) ([]model.Player, error) {
	r.mu.Lock()
	entry, ok := r.rooms[id]
	if !ok {
		r.mu.Unlock()
		return nil, model.ErrRoomNotFound
	}
	evicted := entry.players
	for _, p := range evicted {
		delete(r.seats, p.ID)
	}
	delete(r.rooms, id)
	for i, rid := range r.order {
		if rid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	rooms := r.roomsLocked()
	r.mu.Unlock()

	r.logger.Info("room deleted",
		slog.String("room_id", string(id)),
		slog.Int("evicted", len(evicted)))
	for _, p := range evicted {
		r.publish(model.PlayerTopic(p.ID), model.EventLeftRoom, id, model.LeftRoomPayload{RoomID: id})
	}
	r.publishRooms(rooms)
	return evicted, nil
}

// Room returns a room by id
func (r *Registry) Room(id model.RoomID) (model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[id]
	if !ok {
		return model.Room{}, model.ErrRoomNotFound
	}
	return entry.room, nil
}

// Rooms returns every room in creation order
func (r *Registry) Rooms() []model.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roomsLocked()
}

func (r *Registry) roomsLocked() []model.Room {
	rooms := make([]model.Room, 0, len(r.order))
	for _, id := range r.order {
		rooms = append(rooms, r.rooms[id].room)
	}
	return rooms
}

// JoinRoom seats a player in a room. A player seated elsewhere is moved, running
// the leave path for their previous room first. Automated players may be seated
// while a game is in progress; humans only while the room is waiting.
func (r *Registry) JoinRoom(roomID model.RoomID, player model.Player) (JoinResult, error) {
	r.mu.Lock()
	entry, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return JoinResult{}, model.ErrRoomNotFound
	}

	// Already seated here: confirm again without changing anything
	if idx := entry.indexOf(player.ID); idx >= 0 {
		result := JoinResult{Room: entry.room, Player: entry.players[idx]}
		players := clonePlayers(entry.players)
		r.mu.Unlock()
		r.publish(model.PlayerTopic(player.ID), model.EventRoomJoined, roomID,
			model.RoomJoinedPayload{Room: result.Room, Players: players})
		return result, nil
	}

	if entry.room.IsFull() {
		r.mu.Unlock()
		return JoinResult{}, model.ErrRoomFull
	}
	if !player.IsAutomated && entry.room.Status != model.RoomStatusWaiting {
		r.mu.Unlock()
		return JoinResult{}, model.ErrRoomNotJoinable
	}

	var result JoinResult
	var previousPlayers []model.Player
	if prev, seated := r.seats[player.ID]; seated {
		left := r.leaveLocked(player.ID, prev)
		result.Left = &left
		previousPlayers = clonePlayers(r.rooms[prev].players)
	}

	player.Online = true
	player.Score = 0
	player.JoinedAt = r.clock.Now()
	entry.players = append(entry.players, player)
	entry.room.Occupancy = len(entry.players)
	r.seats[player.ID] = roomID

	result.Room = entry.room
	result.Player = player
	players := clonePlayers(entry.players)
	rooms := r.roomsLocked()
	r.mu.Unlock()

	r.logger.Info("player joined room",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(player.ID)),
		slog.Bool("automated", player.IsAutomated),
		slog.Int("occupancy", result.Room.Occupancy))

	if result.Left != nil {
		r.publishPlayers(result.Left.RoomID, previousPlayers)
		r.publish(model.PlayerTopic(player.ID), model.EventLeftRoom, result.Left.RoomID,
			model.LeftRoomPayload{RoomID: result.Left.RoomID})
	}
	r.publishPlayers(roomID, players)
	r.publishRooms(rooms)
	r.publish(model.PlayerTopic(player.ID), model.EventRoomJoined, roomID,
		model.RoomJoinedPayload{Room: result.Room, Players: players})

	return result, nil
}

// LeaveRoom unseats a player. Returns false if they were not seated anywhere.
func (r *Registry) LeaveRoom(playerID model.PlayerID) (LeaveResult, bool) {
	r.mu.Lock()
	roomID, seated := r.seats[playerID]
	if !seated {
		r.mu.Unlock()
		return LeaveResult{}, false
	}
	result := r.leaveLocked(playerID, roomID)
	players := clonePlayers(r.rooms[roomID].players)
	rooms := r.roomsLocked()
	r.mu.Unlock()

	r.logger.Info("player left room",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.Int("humans_remaining", result.HumansRemaining),
		slog.Bool("emptied", result.Emptied))

	r.publishPlayers(roomID, players)
	r.publishRooms(rooms)
	if !result.Player.IsAutomated {
		r.publish(model.PlayerTopic(playerID), model.EventLeftRoom, roomID,
			model.LeftRoomPayload{RoomID: roomID})
	}
	return result, true
}

// Disconnect is LeaveRoom invoked when a connection drops
func (r *Registry) Disconnect(playerID model.PlayerID) (LeaveResult, bool) {
	return r.LeaveRoom(playerID)
}

func (r *Registry) leaveLocked(playerID model.PlayerID, roomID model.RoomID) LeaveResult {
	entry := r.rooms[roomID]
	idx := entry.indexOf(playerID)
	player := entry.players[idx]
	entry.players = append(entry.players[:idx], entry.players[idx+1:]...)
	entry.room.Occupancy = len(entry.players)
	delete(r.seats, playerID)

	result := LeaveResult{
		RoomID:          roomID,
		Player:          player,
		HumansRemaining: entry.humans(),
	}
	if !player.IsAutomated && result.HumansRemaining == 0 {
		entry.room.Status = model.RoomStatusWaiting
		result.Emptied = true
	}
	return result
}

// PlayersIn returns a room's players in join order
func (r *Registry) PlayersIn(roomID model.RoomID) []model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return clonePlayers(entry.players)
}

// Host returns the first human to have joined the room
func (r *Registry) Host(roomID model.RoomID) (model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.rooms[roomID]
	if !ok {
		return model.Player{}, false
	}
	for _, p := range entry.players {
		if !p.IsAutomated {
			return p, true
		}
	}
	return model.Player{}, false
}

// RoomOf returns the room a player is seated in
func (r *Registry) RoomOf(playerID model.PlayerID) (model.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.seats[playerID]
	return roomID, ok
}

// Player returns a seated player's record
func (r *Registry) Player(playerID model.PlayerID) (model.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.seats[playerID]
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	entry := r.rooms[roomID]
	return entry.players[entry.indexOf(playerID)], nil
}

// SetStatus changes a room's status, publishing the room list if it changed
func (r *Registry) SetStatus(roomID model.RoomID, status model.RoomStatus) error {
	r.mu.Lock()
	entry, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return model.ErrRoomNotFound
	}
	if entry.room.Status == status {
		r.mu.Unlock()
		return nil
	}
	entry.room.Status = status
	rooms := r.roomsLocked()
	r.mu.Unlock()

	r.publishRooms(rooms)
	return nil
}

// AddScore credits points to a seated player's record
func (r *Registry) AddScore(playerID model.PlayerID, points int) error {
	r.mu.Lock()
	roomID, ok := r.seats[playerID]
	if !ok {
		r.mu.Unlock()
		return model.ErrPlayerNotFound
	}
	entry := r.rooms[roomID]
	entry.players[entry.indexOf(playerID)].Score += points
	players := clonePlayers(entry.players)
	r.mu.Unlock()

	r.publishPlayers(roomID, players)
	return nil
}

// ResetScores zeroes every seated player's score in a room
func (r *Registry) ResetScores(roomID model.RoomID) error {
	r.mu.Lock()
	entry, ok := r.rooms[roomID]
	if !ok {
		r.mu.Unlock()
		return model.ErrRoomNotFound
	}
	for i := range entry.players {
		entry.players[i].Score = 0
	}
	players := clonePlayers(entry.players)
	r.mu.Unlock()

	r.publishPlayers(roomID, players)
	return nil
}

func (r *Registry) publishRooms(rooms []model.Room) {
	r.publish(model.LobbyTopic, model.EventRooms, "", model.RoomsPayload{Rooms: rooms})
}

func (r *Registry) publishPlayers(roomID model.RoomID, players []model.Player) {
	r.publish(model.RoomTopic(roomID), model.EventPlayers, roomID, model.PlayersPayload{Players: players})
}

func (r *Registry) publish(topic string, eventType model.EventType, roomID model.RoomID, payload any) {
	r.broadcaster.Publish(topic, model.Event{
		Type:      eventType,
		Timestamp: r.clock.Now(),
		RoomID:    roomID,
		Payload:   payload,
	})
}

func clonePlayers(players []model.Player) []model.Player {
	out := make([]model.Player, len(players))
	copy(out, players)
	return out
}
