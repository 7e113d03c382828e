package model

import "time"

// SessionPhase is the round state machine position
type SessionPhase string

const (
	PhaseWaitingToStart  SessionPhase = "waiting_to_start"
	PhaseRoundInProgress SessionPhase = "round_in_progress"
	PhaseRoundOver       SessionPhase = "round_over"
	PhaseGameOver        SessionPhase = "game_over"
)

// Session is a point-in-time view of a room's active game.
// CurrentWord is only populated in views addressed to the drawer.
type Session struct {
	RoomID           RoomID            `json:"room_id"`
	Phase            SessionPhase      `json:"phase"`
	RoundNumber      int               `json:"round_number"`
	TotalRounds      int               `json:"total_rounds"`
	CurrentDrawerID  *PlayerID         `json:"current_drawer_id"`
	CurrentWord      *string           `json:"current_word,omitempty"`
	CorrectAnswer    *string           `json:"correct_answer"`
	RemainingSeconds int               `json:"remaining_seconds"`
	RoundEndsAt      time.Time         `json:"round_ends_at"`
	Scores           map[PlayerID]int  `json:"scores"`
	CorrectThisRound map[PlayerID]bool `json:"correct_this_round"`
	RoundOver        bool              `json:"round_over"`
}

// ScoreEntry is one line of a final scoreboard
type ScoreEntry struct {
	PlayerID    PlayerID `json:"player_id"`
	DisplayName string   `json:"display_name"`
	Score       int      `json:"score"`
}
