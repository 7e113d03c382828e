package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is stable for the player and distinct from any connection handle.
type PlayerID string

// Player represents a participant seated in a room
type Player struct {
	ID          PlayerID  `json:"id"`
	DisplayName string    `json:"display_name"`
	Online      bool      `json:"online"`
	IsAutomated bool      `json:"is_automated"`
	Score       int       `json:"score"`
	JoinedAt    time.Time `json:"joined_at"`
}

// HumanPlayers filters out automated players, preserving order
func HumanPlayers(players []Player) []Player {
	humans := make([]Player, 0, len(players))
	for _, p := range players {
		if !p.IsAutomated {
			humans = append(humans, p)
		}
	}
	return humans
}
