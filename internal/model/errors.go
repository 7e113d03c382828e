package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotSeated      = errors.New("player is not seated in a room")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotJoinable = errors.New("room is not accepting players")
	ErrNotHost         = errors.New("player is not the host")

	// Session errors
	ErrGameInProgress = errors.New("game is in progress")
	ErrNoSession      = errors.New("no game in progress")

	// Bot errors
	ErrBotNotFound = errors.New("bot not found")

	// External dependency errors
	ErrNoWordsAvailable      = errors.New("no words available")
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	ErrControllerStopped = errors.New("controller stopped")
)
