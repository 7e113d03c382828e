package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Registry events
	EventRooms      EventType = "rooms"
	EventPlayers    EventType = "players"
	EventRoomJoined EventType = "room_joined"
	EventLeftRoom   EventType = "left_room"

	// Session events
	EventGameState   EventType = "game_state"
	EventDrawingTurn EventType = "drawing_turn"
	EventMessage     EventType = "message"
	EventMessages    EventType = "messages"
	EventCanvas      EventType = "canvas"
	EventGameOver    EventType = "game_over"

	// Bot events
	EventBotGuess EventType = "bot_guess"
)

// Event is the envelope published to broadcaster topics
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RoomID    RoomID    `json:"room_id,omitempty"`
	Payload   any       `json:"payload"`
}

// RoomsPayload carries the global room list
type RoomsPayload struct {
	Rooms []Room `json:"rooms"`
}

// PlayersPayload carries a room's seated players in join order
type PlayersPayload struct {
	Players []Player `json:"players"`
}

// RoomJoinedPayload confirms a join to the joining connection only
type RoomJoinedPayload struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// MessagesPayload carries a room's full message log
type MessagesPayload struct {
	Messages []ChatMessage `json:"messages"`
}

// LeftRoomPayload confirms a departure to the leaving connection
type LeftRoomPayload struct {
	RoomID RoomID `json:"room_id"`
}

// DrawingTurnPayload tells a single player whether they are drawing.
// Word is only set for the drawer.
type DrawingTurnPayload struct {
	IsDrawing bool   `json:"is_drawing"`
	Word      string `json:"word,omitempty"`
}

// CanvasPayload relays the drawer's latest canvas snapshot
type CanvasPayload struct {
	DrawerID PlayerID `json:"drawer_id"`
	Data     string   `json:"data"`
}

// GameOverPayload carries the final scoreboard, highest first
type GameOverPayload struct {
	Scores []ScoreEntry `json:"scores"`
}
