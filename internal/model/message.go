package model

import "time"

// MessageID uniquely identifies a chat message
type MessageID string

// ChatMessage is a single entry in a room's message log
type ChatMessage struct {
	ID             MessageID `json:"id"`
	AuthorID       PlayerID  `json:"author_id"`
	AuthorName     string    `json:"author_name"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	IsGuess        bool      `json:"is_guess"`
	IsCorrectGuess bool      `json:"is_correct_guess"`
}

// PredictionEvent is a bot guess derived from one classification request
type PredictionEvent struct {
	PredictionID string   `json:"prediction_id"`
	BotID        PlayerID `json:"bot_id"`
	GuessText    string   `json:"guess_text"`
}
