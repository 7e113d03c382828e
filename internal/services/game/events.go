package game

import (
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/bot"
	"github.com/mcoot/sketchguess/internal/services/registry"
)

// event is anything a room goroutine processes. Each kind is its own type.
type event interface {
	roomEvent()
}

type joinReply struct {
	room model.Room
	err  error
}

type joinEvent struct {
	player model.Player
	reply  chan joinReply
}

type leaveEvent struct {
	playerID model.PlayerID
}

// departedEvent tells a room that one of its players was reseated elsewhere
type departedEvent struct {
	result registry.LeaveResult
}

type startEvent struct {
	requesterID model.PlayerID
}

type guessEvent struct {
	playerID model.PlayerID
	text     string
	isGuess  bool
}

type frameEvent struct {
	// from is empty when the sender is trusted
	from model.PlayerID
	data string
}

type predictionEvent struct {
	prediction model.PredictionEvent
}

type classificationEvent struct {
	result bot.Result
}

type roundTimerFired struct {
	token uint64
}

type nextRoundTimerFired struct {
	token uint64
}

type botReply struct {
	botID model.PlayerID
	err   error
}

type addBotEvent struct {
	requesterID model.PlayerID
	reply       chan botReply
}

type removeBotEvent struct {
	requesterID model.PlayerID
	botID       model.PlayerID
	reply       chan botReply
}

type queryEvent struct {
	fn   func(r *room)
	done chan struct{}
}

type deleteEvent struct {
	reply chan error
}

type stopEvent struct{}

func (joinEvent) roomEvent()           {}
func (leaveEvent) roomEvent()          {}
func (departedEvent) roomEvent()       {}
func (startEvent) roomEvent()          {}
func (guessEvent) roomEvent()          {}
func (frameEvent) roomEvent()          {}
func (predictionEvent) roomEvent()     {}
func (classificationEvent) roomEvent() {}
func (roundTimerFired) roomEvent()     {}
func (nextRoundTimerFired) roomEvent() {}
func (addBotEvent) roomEvent()         {}
func (removeBotEvent) roomEvent()      {}
func (queryEvent) roomEvent()          {}
func (deleteEvent) roomEvent()         {}
func (stopEvent) roomEvent()           {}
