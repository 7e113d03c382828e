package game

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/sketchguess/internal/dependencies/clock"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/bot"
	"github.com/mcoot/sketchguess/internal/services/registry"
)

// room is the single goroutine that owns one room's game state.
// Every mutation for the room happens inside handle, one event at a time.
type room struct {
	id     model.RoomID
	c      *Controller
	inbox  chan event
	done   chan struct{}
	logger *slog.Logger

	session     *Session
	messages    []model.ChatMessage
	coordinator *bot.Coordinator
	predictions map[string]struct{}
	lastDrawer  model.PlayerID

	roundTimer     clock.Timer
	nextRoundTimer clock.Timer
	timerToken     uint64
}

func newRoom(id model.RoomID, c *Controller) *room {
	logger := c.logger.With(slog.String("room_id", string(id)))
	return &room{
		id:          id,
		c:           c,
		inbox:       make(chan event, c.cfg.InboxSize),
		done:        make(chan struct{}),
		logger:      logger,
		coordinator: bot.NewCoordinator(id, c.registry, c.strategy, c.clock, c.cfg.Bot, c.logger),
		predictions: make(map[string]struct{}),
	}
}

// post enqueues an event. Returns false once the room has stopped.
func (r *room) post(ev event) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.inbox <- ev:
		return true
	case <-r.done:
		return false
	}
}

func (r *room) run() {
	defer r.c.wg.Done()
	defer close(r.done)

	r.logger.Debug("room started")
	for ev := range r.inbox {
		if stop := r.safeHandle(ev); stop {
			r.logger.Debug("room stopped")
			return
		}
	}
}

func (r *room) safeHandle(ev event) (stop bool) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("panic in room event handler",
				slog.String("event", fmt.Sprintf("%T", ev)),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())))
			stop = false
		}
	}()
	return r.handle(ev)
}

func (r *room) handle(ev event) bool {
	switch e := ev.(type) {
	case joinEvent:
		r.handleJoin(e)
	case leaveEvent:
		r.handleLeave(e.playerID)
	case departedEvent:
		r.handleDeparture(e.result)
	case startEvent:
		r.handleStart(e.requesterID)
	case guessEvent:
		r.handleGuess(e.playerID, e.text, e.isGuess)
	case frameEvent:
		r.handleFrame(e.from, e.data)
	case predictionEvent:
		r.handlePrediction(e.prediction)
	case classificationEvent:
		if guess, ok := r.coordinator.HandleResult(e.result); ok {
			r.handlePrediction(guess)
		}
	case roundTimerFired:
		if e.token == r.timerToken {
			r.endRound()
		}
	case nextRoundTimerFired:
		if e.token == r.timerToken {
			r.startRound()
		}
	case addBotEvent:
		id, err := r.handleAddBot(e.requesterID)
		e.reply <- botReply{botID: id, err: err}
	case removeBotEvent:
		e.reply <- botReply{botID: e.botID, err: r.handleRemoveBot(e.requesterID, e.botID)}
	case queryEvent:
		e.fn(r)
		close(e.done)
	case deleteEvent:
		r.teardown()
		_, err := r.c.registry.DeleteRoom(r.id)
		r.c.forget(r)
		e.reply <- err
		return true
	case stopEvent:
		r.cancelTimers()
		return true
	default:
		r.logger.Error("unknown room event", slog.String("event", fmt.Sprintf("%T", ev)))
	}
	return false
}

// Membership

func (r *room) handleJoin(e joinEvent) {
	result, err := r.c.registry.JoinRoom(r.id, e.player)
	e.reply <- joinReply{room: result.Room, err: err}
	if err != nil {
		r.logger.Debug("join rejected",
			slog.String("player_id", string(e.player.ID)),
			slog.Any("error", err))
		return
	}

	r.publish(model.PlayerTopic(e.player.ID), model.EventMessages, model.MessagesPayload{Messages: r.messageLog()})
	if r.session != nil {
		r.publish(model.PlayerTopic(e.player.ID), model.EventGameState, r.session.snapshot(r.c.clock.Now(), false))
	}
	if result.Left != nil {
		r.c.forwardDeparture(*result.Left)
	}
}

func (r *room) handleLeave(playerID model.PlayerID) {
	if roomID, ok := r.c.registry.RoomOf(playerID); !ok || roomID != r.id {
		return
	}
	result, ok := r.c.registry.LeaveRoom(playerID)
	if !ok {
		return
	}
	r.handleDeparture(result)
}

// handleDeparture applies the session side effects of a player leaving
func (r *room) handleDeparture(result registry.LeaveResult) {
	if result.Emptied {
		r.logger.Info("last human left, resetting room")
		r.teardown()
		return
	}
	if r.session != nil && r.session.inProgress() && r.session.drawerID == result.Player.ID {
		r.logger.Info("drawer left mid-round", slog.String("player_id", string(result.Player.ID)))
		r.endRound()
	}
}

// teardown discards the session, cancels timers and removes every bot
func (r *room) teardown() {
	r.cancelTimers()
	r.coordinator.SetActive(false)
	r.coordinator.DetachAll()
	if r.session != nil {
		r.session = nil
		r.lastDrawer = ""
		r.publish(model.RoomTopic(r.id), model.EventGameState, nil)
	}
	_ = r.c.registry.SetStatus(r.id, model.RoomStatusWaiting)
}

// Round lifecycle

func (r *room) handleStart(requesterID model.PlayerID) {
	if r.session != nil {
		r.logger.Debug("start ignored, game already running")
		return
	}
	host, ok := r.c.registry.Host(r.id)
	if !ok || host.ID != requesterID {
		r.logger.Debug("start ignored, requester is not host", slog.String("player_id", string(requesterID)))
		return
	}

	for len(r.coordinator.Bots()) < r.c.cfg.BotsPerGame {
		if err := r.coordinator.Attach(r.coordinator.NextBotID()); err != nil {
			r.logger.Warn("could not seat bot", slog.Any("error", err))
			break
		}
	}

	r.messages = nil
	r.predictions = make(map[string]struct{})
	r.publish(model.RoomTopic(r.id), model.EventMessages, model.MessagesPayload{Messages: []model.ChatMessage{}})
	_ = r.c.registry.ResetScores(r.id)

	r.session = newSession(r.id, r.c.cfg.TotalRounds, r.c.registry.PlayersIn(r.id))
	_ = r.c.registry.SetStatus(r.id, model.RoomStatusPlaying)

	r.logger.Info("game started",
		slog.String("host_id", string(requesterID)),
		slog.Int("total_rounds", r.c.cfg.TotalRounds))
	r.publishState()
	r.startRound()
}

func (r *room) startRound() {
	if r.session == nil {
		return
	}
	r.cancelTimers()

	if !r.session.hasNextRound() {
		r.gameOver()
		return
	}

	roster := r.c.registry.PlayersIn(r.id)
	drawer, ok := r.session.nextDrawer(model.HumanPlayers(roster))
	if !ok {
		r.gameOver()
		return
	}
	word, err := r.c.words.Next()
	if err != nil {
		r.logger.Error("no word for next round", slog.Any("error", err))
		r.gameOver()
		return
	}

	r.session.beginRound(drawer.ID, word, roster, r.c.clock.Now().Add(r.c.cfg.RoundDuration))
	r.coordinator.SetActive(true)

	r.logger.Info("round started",
		slog.Int("round", r.session.roundNumber),
		slog.String("drawer_id", string(drawer.ID)))
	r.publishState()

	r.publish(model.PlayerTopic(drawer.ID), model.EventDrawingTurn, model.DrawingTurnPayload{IsDrawing: true, Word: word})
	if r.lastDrawer != "" && r.lastDrawer != drawer.ID {
		r.publish(model.PlayerTopic(r.lastDrawer), model.EventDrawingTurn, model.DrawingTurnPayload{IsDrawing: false})
	}
	r.lastDrawer = drawer.ID

	r.roundTimer = r.schedule(r.c.cfg.RoundDuration, func(token uint64) event {
		return roundTimerFired{token: token}
	})
}

// endRound reveals the answer and schedules the next round. Safe to call repeatedly.
func (r *room) endRound() {
	if r.session == nil || !r.session.endRound() {
		return
	}
	r.cancelTimers()
	r.coordinator.SetActive(false)

	r.logger.Info("round ended",
		slog.Int("round", r.session.roundNumber),
		slog.String("answer", r.session.correctAnswer))
	r.publishState()

	r.nextRoundTimer = r.schedule(r.c.cfg.InterRoundDelay, func(token uint64) event {
		return nextRoundTimerFired{token: token}
	})
}

func (r *room) gameOver() {
	scores := r.session.finalScores(r.c.registry.PlayersIn(r.id))
	r.session.phase = model.PhaseGameOver

	r.logger.Info("game over", slog.Int("rounds", r.session.roundNumber))
	r.publish(model.RoomTopic(r.id), model.EventGameOver, model.GameOverPayload{Scores: scores})
	if r.lastDrawer != "" {
		r.publish(model.PlayerTopic(r.lastDrawer), model.EventDrawingTurn, model.DrawingTurnPayload{IsDrawing: false})
	}
	r.teardown()
}

// Timers

// schedule arms a single-shot timer whose fire is delivered through the inbox.
// Fires carrying an outdated token are ignored.
func (r *room) schedule(d time.Duration, mk func(token uint64) event) clock.Timer {
	r.timerToken++
	token := r.timerToken
	return r.c.clock.AfterFunc(d, func() {
		r.post(mk(token))
	})
}

func (r *room) cancelTimers() {
	if r.roundTimer != nil {
		r.roundTimer.Stop()
		r.roundTimer = nil
	}
	if r.nextRoundTimer != nil {
		r.nextRoundTimer.Stop()
		r.nextRoundTimer = nil
	}
	r.timerToken++
}

// Chat and guesses

func (r *room) handleGuess(playerID model.PlayerID, text string, isGuess bool) {
	player, err := r.c.registry.Player(playerID)
	if err != nil {
		return
	}
	if roomID, _ := r.c.registry.RoomOf(playerID); roomID != r.id {
		return
	}

	msg := model.ChatMessage{
		ID:         model.MessageID(uuid.NewString()),
		AuthorID:   playerID,
		AuthorName: player.DisplayName,
		Text:       text,
		Timestamp:  r.c.clock.Now(),
		IsGuess:    isGuess,
	}

	if !isGuess {
		r.appendMessage(msg)
		return
	}
	if r.session == nil {
		r.logger.Debug("guess ignored, no game running", slog.String("player_id", string(playerID)))
		return
	}

	switch r.session.evaluateGuess(playerID, text, r.c.cfg.PointsPerCorrectGuess) {
	case guessRejected:
		r.logger.Debug("guess rejected", slog.String("player_id", string(playerID)))
	case guessUnknownPlayer:
		r.logger.Error("guess from player without a score entry",
			slog.String("player_id", string(playerID)),
			slog.Int("round", r.session.roundNumber))
	case guessWrong:
		r.appendMessage(msg)
	case guessCorrect:
		if err := r.c.registry.AddScore(playerID, r.c.cfg.PointsPerCorrectGuess); err != nil {
			r.logger.Error("failed to credit registry score",
				slog.String("player_id", string(playerID)),
				slog.Any("error", err))
		}
		msg.Text = fmt.Sprintf("%s guessed the word!", player.DisplayName)
		msg.IsCorrectGuess = true
		r.appendMessage(msg)
		r.publishState()
	}
}

func (r *room) appendMessage(msg model.ChatMessage) {
	r.messages = append(r.messages, msg)
	r.publish(model.RoomTopic(r.id), model.EventMessage, msg)
}

func (r *room) messageLog() []model.ChatMessage {
	out := make([]model.ChatMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

// Canvas frames and bots

func (r *room) handleFrame(from model.PlayerID, data string) {
	if r.session == nil || !r.session.inProgress() {
		return
	}
	if from != "" && from != r.session.drawerID {
		r.logger.Debug("frame from non-drawer dropped", slog.String("player_id", string(from)))
		return
	}

	r.publish(model.RoomTopic(r.id), model.EventCanvas, model.CanvasPayload{DrawerID: r.session.drawerID, Data: data})

	for _, req := range r.coordinator.OnFrame(data) {
		r.classify(req)
	}
}

// classify runs a classification off the room goroutine and posts the result back
func (r *room) classify(req bot.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(r.c.ctx, r.c.cfg.ClassifierTimeout)
		defer cancel()

		var probs map[string]float64
		err := model.ErrClassifierUnavailable
		if r.c.classifier != nil {
			probs, err = r.c.classifier.Classify(ctx, req.Frame)
		}
		r.post(classificationEvent{result: bot.Result{
			BotID:         req.BotID,
			Generation:    req.Generation,
			Probabilities: probs,
			Err:           err,
		}})
	}()
}

func (r *room) handlePrediction(p model.PredictionEvent) {
	if _, seen := r.predictions[p.PredictionID]; seen {
		r.logger.Debug("duplicate prediction dropped", slog.String("prediction_id", p.PredictionID))
		return
	}
	r.predictions[p.PredictionID] = struct{}{}

	if !r.coordinator.IsAttached(p.BotID) {
		return
	}
	r.publish(model.RoomTopic(r.id), model.EventBotGuess, p)
	r.handleGuess(p.BotID, p.GuessText, true)
}

func (r *room) handleAddBot(requesterID model.PlayerID) (model.PlayerID, error) {
	if err := r.requireHost(requesterID); err != nil {
		return "", err
	}
	if r.session != nil {
		return "", model.ErrGameInProgress
	}
	id := r.coordinator.NextBotID()
	if err := r.coordinator.Attach(id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *room) handleRemoveBot(requesterID, botID model.PlayerID) error {
	if err := r.requireHost(requesterID); err != nil {
		return err
	}
	if r.session != nil {
		return model.ErrGameInProgress
	}
	if !r.coordinator.Detach(botID) {
		return model.ErrBotNotFound
	}
	return nil
}

func (r *room) requireHost(playerID model.PlayerID) error {
	host, ok := r.c.registry.Host(r.id)
	if !ok || host.ID != playerID {
		return model.ErrNotHost
	}
	return nil
}

// Publishing

func (r *room) publishState() {
	if r.session == nil {
		return
	}
	r.publish(model.RoomTopic(r.id), model.EventGameState, r.session.snapshot(r.c.clock.Now(), false))
}

func (r *room) publish(topic string, eventType model.EventType, payload any) {
	r.c.broadcaster.Publish(topic, model.Event{
		Type:      eventType,
		Timestamp: r.c.clock.Now(),
		RoomID:    r.id,
		Payload:   payload,
	})
}
