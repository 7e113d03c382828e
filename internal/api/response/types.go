package response

import (
	"time"

	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/bot"
)

// Player represents a player in API responses
type Player struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Online      bool      `json:"online"`
	IsAutomated bool      `json:"is_automated"`
	Score       int       `json:"score"`
	JoinedAt    time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Online:      p.Online,
		IsAutomated: p.IsAutomated,
		Score:       p.Score,
		JoinedAt:    p.JoinedAt,
	}
}

// PlayerListResponse is the response for a room roster
type PlayerListResponse struct {
	Players []Player `json:"players"`
}

// PlayerListFromModel converts a roster
func PlayerListFromModel(players []model.Player) PlayerListResponse {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		out = append(out, PlayerFromModel(p))
	}
	return PlayerListResponse{Players: out}
}

// Room represents a room in API responses
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Occupancy int       `json:"occupancy"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomFromModel converts a model.Room
func RoomFromModel(r model.Room) Room {
	return Room{
		ID:        string(r.ID),
		Name:      r.Name,
		Capacity:  r.Capacity,
		Occupancy: r.Occupancy,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// RoomListResponse is the response for listing rooms
type RoomListResponse struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a room list
func RoomListFromModel(rooms []model.Room) RoomListResponse {
	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomFromModel(r))
	}
	return RoomListResponse{Rooms: out}
}

// RoomDetailResponse is a room with its roster
type RoomDetailResponse struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// RoomDetailFromModel builds a RoomDetailResponse
func RoomDetailFromModel(r model.Room, players []model.Player) RoomDetailResponse {
	return RoomDetailResponse{
		Room:    RoomFromModel(r),
		Players: PlayerListFromModel(players).Players,
	}
}

// Message represents a chat message
type Message struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	IsGuess        bool      `json:"is_guess"`
	IsCorrectGuess bool      `json:"is_correct_guess"`
}

// MessageFromModel converts a model.ChatMessage
func MessageFromModel(m model.ChatMessage) Message {
	return Message{
		ID:             string(m.ID),
		AuthorID:       string(m.AuthorID),
		AuthorName:     m.AuthorName,
		Text:           m.Text,
		Timestamp:      m.Timestamp,
		IsGuess:        m.IsGuess,
		IsCorrectGuess: m.IsCorrectGuess,
	}
}

// MessageListResponse is the response for a room's chat log
type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

// MessageListFromModel converts a chat log
func MessageListFromModel(messages []model.ChatMessage) MessageListResponse {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, MessageFromModel(m))
	}
	return MessageListResponse{Messages: out}
}

// Session represents the viewer's view of a game
type Session struct {
	RoomID           string          `json:"room_id"`
	Phase            string          `json:"phase"`
	RoundNumber      int             `json:"round_number"`
	TotalRounds      int             `json:"total_rounds"`
	CurrentDrawerID  *string         `json:"current_drawer_id"`
	CurrentWord      *string         `json:"current_word,omitempty"`
	CorrectAnswer    *string         `json:"correct_answer"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Scores           map[string]int  `json:"scores"`
	CorrectThisRound map[string]bool `json:"correct_this_round"`
	RoundOver        bool            `json:"round_over"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s model.Session) Session {
	out := Session{
		RoomID:           string(s.RoomID),
		Phase:            string(s.Phase),
		RoundNumber:      s.RoundNumber,
		TotalRounds:      s.TotalRounds,
		CurrentWord:      s.CurrentWord,
		CorrectAnswer:    s.CorrectAnswer,
		RemainingSeconds: s.RemainingSeconds,
		Scores:           make(map[string]int, len(s.Scores)),
		CorrectThisRound: make(map[string]bool, len(s.CorrectThisRound)),
		RoundOver:        s.RoundOver,
	}
	if s.CurrentDrawerID != nil {
		drawer := string(*s.CurrentDrawerID)
		out.CurrentDrawerID = &drawer
	}
	for id, score := range s.Scores {
		out.Scores[string(id)] = score
	}
	for id, ok := range s.CorrectThisRound {
		out.CorrectThisRound[string(id)] = ok
	}
	return out
}

// Bot represents a bot's coordination state
type Bot struct {
	ID        string `json:"id"`
	Active    bool   `json:"active"`
	Busy      bool   `json:"busy"`
	LastGuess string `json:"last_guess,omitempty"`
}

// BotFromState converts a bot.State
func BotFromState(s bot.State) Bot {
	return Bot{
		ID:        string(s.ID),
		Active:    s.Active,
		Busy:      s.Busy,
		LastGuess: s.LastGuess,
	}
}

// BotListResponse is the response for listing a room's bots
type BotListResponse struct {
	Bots []Bot `json:"bots"`
}

// BotListFromStates converts bot states
func BotListFromStates(states []bot.State) BotListResponse {
	out := make([]Bot, 0, len(states))
	for _, s := range states {
		out = append(out, BotFromState(s))
	}
	return BotListResponse{Bots: out}
}

// BotAddedResponse is the response for adding a bot
type BotAddedResponse struct {
	BotID string `json:"bot_id"`
}

// AcceptedResponse acknowledges an action queued to a room
type AcceptedResponse struct {
	Status string `json:"status"`
}

// Accepted is the body for queued actions
var Accepted = AcceptedResponse{Status: "accepted"}
