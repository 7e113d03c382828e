package game

import (
	"time"

	"github.com/mcoot/sketchguess/internal/services/bot"
)

// Config holds the game rules and room runtime settings
type Config struct {
	TotalRounds           int
	RoundDuration         time.Duration
	InterRoundDelay       time.Duration
	PointsPerCorrectGuess int

	// BotsPerGame is the number of bots seated automatically when a game starts
	BotsPerGame int
	Bot         bot.Config

	// ClassifierTimeout bounds each classification; keep it below Bot.Cooldown
	ClassifierTimeout time.Duration

	InboxSize int
}

// DefaultConfig returns the default game settings
func DefaultConfig() Config {
	return Config{
		TotalRounds:           3,
		RoundDuration:         120 * time.Second,
		InterRoundDelay:       5 * time.Second,
		PointsPerCorrectGuess: 10,
		BotsPerGame:           1,
		Bot:                   bot.DefaultConfig(),
		ClassifierTimeout:     1500 * time.Millisecond,
		InboxSize:             256,
	}
}
