package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/sketchguess/internal/broadcast"
	"github.com/mcoot/sketchguess/internal/classifier"
	"github.com/mcoot/sketchguess/internal/dependencies/clock"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/bot"
	"github.com/mcoot/sketchguess/internal/services/registry"
)

// WordSource supplies the secret word for each round
type WordSource interface {
	Next() (string, error)
}

// Controller routes player intents to the room that owns them.
// Each room runs on its own goroutine; the controller never touches room state directly.
type Controller struct {
	registry    *registry.Registry
	words       WordSource
	classifier  classifier.Classifier
	broadcaster broadcast.Broadcaster
	strategy    bot.Strategy
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	rooms   map[model.RoomID]*room
	stopped bool
}

// NewController creates a Controller
func NewController(
	reg *registry.Registry,
	words WordSource,
	cls classifier.Classifier,
	broadcaster broadcast.Broadcaster,
	strategy bot.Strategy,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = DefaultConfig().InboxSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		registry:    reg,
		words:       words,
		classifier:  cls,
		broadcaster: broadcaster,
		strategy:    strategy,
		clock:       clk,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "game-controller")),
		ctx:         ctx,
		cancel:      cancel,
		rooms:       make(map[model.RoomID]*room),
	}
}

// roomFor returns the running room for id, starting one if the registry knows the room
func (c *Controller) roomFor(id model.RoomID) (*room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil, model.ErrControllerStopped
	}
	if r, ok := c.rooms[id]; ok {
		return r, nil
	}
	if _, err := c.registry.Room(id); err != nil {
		return nil, err
	}

	r := newRoom(id, c)
	c.rooms[id] = r
	c.wg.Add(1)
	go r.run()
	return r, nil
}

// forget drops a room that is shutting down, unless it was already replaced
func (c *Controller) forget(r *room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms[r.id] == r {
		delete(c.rooms, r.id)
	}
}

// send posts an event to a room, or reports why it could not
func (c *Controller) send(roomID model.RoomID, ev event) error {
	_, err := c.deliver(roomID, ev)
	return err
}

func (c *Controller) deliver(roomID model.RoomID, ev event) (*room, error) {
	r, err := c.roomFor(roomID)
	if err != nil {
		return nil, err
	}
	if !r.post(ev) {
		return nil, c.exited(roomID)
	}
	return r, nil
}

// exited explains why a room goroutine is no longer running
func (c *Controller) exited(roomID model.RoomID) error {
	if _, err := c.registry.Room(roomID); err != nil {
		return err
	}
	return model.ErrControllerStopped
}

// await waits for a room to answer a posted request
func await[T any](ctx context.Context, c *Controller, r *room, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-r.done:
		select {
		case v := <-reply:
			return v, nil
		default:
		}
		return zero, c.exited(r.id)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// query runs fn on the room goroutine and waits for it.
// Events posted earlier by the same caller are processed first.
func (c *Controller) query(ctx context.Context, roomID model.RoomID, fn func(r *room)) error {
	done := make(chan struct{})
	r, err := c.deliver(roomID, queryEvent{fn: fn, done: done})
	if err != nil {
		return err
	}
	_, err = await(ctx, c, r, done)
	return err
}

// forwardDeparture delivers a reseat departure to the player's previous room.
// It runs asynchronously so one room never blocks on another.
func (c *Controller) forwardDeparture(result registry.LeaveResult) {
	go func() {
		if err := c.send(result.RoomID, departedEvent{result: result}); err != nil {
			c.logger.Debug("departure not delivered",
				slog.String("room_id", string(result.RoomID)),
				slog.Any("error", err))
		}
	}()
}

// Rooms

// CreateRoom registers a new room and starts its goroutine
func (c *Controller) CreateRoom(name string, capacity int) (model.Room, error) {
	rm := c.registry.CreateRoom(name, capacity)
	if _, err := c.roomFor(rm.ID); err != nil {
		return model.Room{}, err
	}
	c.logger.Info("room created",
		slog.String("room_id", string(rm.ID)),
		slog.String("name", rm.Name),
		slog.Int("capacity", rm.Capacity))
	return rm, nil
}

// DeleteRoom stops a room's game and removes it with its players
func (c *Controller) DeleteRoom(ctx context.Context, roomID model.RoomID) error {
	reply := make(chan error, 1)
	r, err := c.deliver(roomID, deleteEvent{reply: reply})
	if err != nil {
		return err
	}
	deleteErr, err := await(ctx, c, r, reply)
	if err != nil {
		return err
	}
	if deleteErr == nil {
		c.logger.Info("room deleted", slog.String("room_id", string(roomID)))
	}
	return deleteErr
}

// Rooms lists every room
func (c *Controller) Rooms() []model.Room {
	return c.registry.Rooms()
}

// Room returns one room
func (c *Controller) Room(roomID model.RoomID) (model.Room, error) {
	return c.registry.Room(roomID)
}

// Players returns the roster of a room
func (c *Controller) Players(roomID model.RoomID) ([]model.Player, error) {
	if _, err := c.registry.Room(roomID); err != nil {
		return nil, err
	}
	return c.registry.PlayersIn(roomID), nil
}

// Membership

// JoinRoom seats a player, moving them out of any other room first
func (c *Controller) JoinRoom(ctx context.Context, roomID model.RoomID, player model.Player) (model.Room, error) {
	reply := make(chan joinReply, 1)
	r, err := c.deliver(roomID, joinEvent{player: player, reply: reply})
	if err != nil {
		return model.Room{}, err
	}
	res, err := await(ctx, c, r, reply)
	if err != nil {
		return model.Room{}, err
	}
	return res.room, res.err
}

// LeaveRoom removes a player from whatever room they are seated in
func (c *Controller) LeaveRoom(playerID model.PlayerID) error {
	roomID, ok := c.registry.RoomOf(playerID)
	if !ok {
		return model.ErrNotSeated
	}
	return c.send(roomID, leaveEvent{playerID: playerID})
}

// Disconnect handles a connection to roomID dropping. Players no longer
// seated in that room are left alone.
func (c *Controller) Disconnect(roomID model.RoomID, playerID model.PlayerID) {
	err := c.send(roomID, leaveEvent{playerID: playerID})
	if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		c.logger.Warn("disconnect not delivered",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(playerID)),
			slog.Any("error", err))
	}
}

// Gameplay

// Start begins a game. Only the host may start, and only when no game is running.
func (c *Controller) Start(roomID model.RoomID, requesterID model.PlayerID) error {
	return c.send(roomID, startEvent{requesterID: requesterID})
}

// SubmitGuess checks text against the current word
func (c *Controller) SubmitGuess(roomID model.RoomID, playerID model.PlayerID, text string) error {
	return c.send(roomID, guessEvent{playerID: playerID, text: text, isGuess: true})
}

// SubmitChat appends a plain chat message
func (c *Controller) SubmitChat(roomID model.RoomID, playerID model.PlayerID, text string) error {
	return c.send(roomID, guessEvent{playerID: playerID, text: text, isGuess: false})
}

// SubmitFrame relays the drawer's canvas and feeds it to the room's bots.
// An empty playerID skips the drawer check.
func (c *Controller) SubmitFrame(roomID model.RoomID, playerID model.PlayerID, data string) error {
	return c.send(roomID, frameEvent{from: playerID, data: data})
}

// SubmitPrediction injects a bot prediction. Repeated prediction ids are ignored.
func (c *Controller) SubmitPrediction(roomID model.RoomID, prediction model.PredictionEvent) error {
	return c.send(roomID, predictionEvent{prediction: prediction})
}

// Session returns the viewer's view of the room's game
func (c *Controller) Session(ctx context.Context, roomID model.RoomID, viewer model.PlayerID) (model.Session, error) {
	var (
		view model.Session
		err  = model.ErrNoSession
	)
	qerr := c.query(ctx, roomID, func(r *room) {
		if r.session == nil {
			return
		}
		view = r.session.snapshot(c.clock.Now(), viewer != "" && viewer == r.session.drawerID)
		err = nil
	})
	if qerr != nil {
		return model.Session{}, qerr
	}
	return view, err
}

// Messages returns the room's chat log
func (c *Controller) Messages(ctx context.Context, roomID model.RoomID) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := c.query(ctx, roomID, func(r *room) {
		messages = r.messageLog()
	})
	return messages, err
}

// Bots

// AddBot seats a new bot. Host only, and not while a game is running.
func (c *Controller) AddBot(ctx context.Context, roomID model.RoomID, requesterID model.PlayerID) (model.PlayerID, error) {
	reply := make(chan botReply, 1)
	r, err := c.deliver(roomID, addBotEvent{requesterID: requesterID, reply: reply})
	if err != nil {
		return "", err
	}
	res, err := await(ctx, c, r, reply)
	if err != nil {
		return "", err
	}
	return res.botID, res.err
}

// RemoveBot unseats a bot. Host only, and not while a game is running.
func (c *Controller) RemoveBot(ctx context.Context, roomID model.RoomID, requesterID, botID model.PlayerID) error {
	reply := make(chan botReply, 1)
	r, err := c.deliver(roomID, removeBotEvent{requesterID: requesterID, botID: botID, reply: reply})
	if err != nil {
		return err
	}
	res, err := await(ctx, c, r, reply)
	if err != nil {
		return err
	}
	return res.err
}

// Bots returns the state of every bot in the room
func (c *Controller) Bots(ctx context.Context, roomID model.RoomID) ([]bot.State, error) {
	var states []bot.State
	err := c.query(ctx, roomID, func(r *room) {
		for _, id := range r.coordinator.Bots() {
			if st, ok := r.coordinator.State(id); ok {
				states = append(states, st)
			}
		}
	})
	return states, err
}

// Shutdown stops every room and waits for their goroutines to exit
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	rooms := make([]*room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	c.cancel()
	for _, r := range rooms {
		r.post(stopEvent{})
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("all rooms stopped", slog.Int("rooms", len(rooms)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
