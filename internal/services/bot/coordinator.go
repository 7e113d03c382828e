package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mcoot/sketchguess/internal/dependencies/clock"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/services/registry"
)

// DefaultDisplayName is the name given to automated players
const DefaultDisplayName = "STRONG AI BOT"

// Seater is the part of the registry the coordinator seats bots through
type Seater interface {
	JoinRoom(roomID model.RoomID, player model.Player) (registry.JoinResult, error)
	LeaveRoom(playerID model.PlayerID) (registry.LeaveResult, bool)
}

// Config holds per-room bot settings
type Config struct {
	// Cooldown is the minimum interval between frames forwarded to bots
	Cooldown    time.Duration
	DisplayName string
}

// DefaultConfig returns the default bot settings
func DefaultConfig() Config {
	return Config{
		Cooldown:    2 * time.Second,
		DisplayName: DefaultDisplayName,
	}
}

// Request is a classification the caller must perform for a bot
type Request struct {
	BotID      model.PlayerID
	Generation uint64
	Frame      string
}

// Result is the outcome of a Request, fed back through HandleResult
type Result struct {
	BotID         model.PlayerID
	Generation    uint64
	Probabilities map[string]float64
	Err           error
}

// State is a snapshot of one bot's coordination state
type State struct {
	ID        model.PlayerID
	Active    bool
	Busy      bool
	LastGuess string
	LastFrame string
}

type botState struct {
	id        model.PlayerID
	active    bool
	busy      bool
	lastGuess string
	lastFrame string
}

// Coordinator manages the bots attached to a single room.
// It is not safe for concurrent use; the owning room serializes all calls.
type Coordinator struct {
	roomID   model.RoomID
	seater   Seater
	strategy Strategy
	clock    clock.Clock
	limiter  *rate.Limiter
	cfg      Config
	logger   *slog.Logger

	bots       map[model.PlayerID]*botState
	order      []model.PlayerID
	generation uint64
}

// NewCoordinator creates a Coordinator for a room
func NewCoordinator(roomID model.RoomID, seater Seater, strategy Strategy, clk clock.Clock, cfg Config, logger *slog.Logger) *Coordinator {
	if cfg.DisplayName == "" {
		cfg.DisplayName = DefaultDisplayName
	}
	return &Coordinator{
		roomID:   roomID,
		seater:   seater,
		strategy: strategy,
		clock:    clk,
		limiter:  rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
		cfg:      cfg,
		logger: logger.With(
			slog.String("component", "bot-coordinator"),
			slog.String("room_id", string(roomID))),
		bots: make(map[model.PlayerID]*botState),
	}
}

// NextBotID returns the lowest unused bot id for this room
func (c *Coordinator) NextBotID() model.PlayerID {
	for n := 1; ; n++ {
		id := model.PlayerID(fmt.Sprintf("ai_bot_%s_%d", c.roomID, n))
		if _, taken := c.bots[id]; !taken {
			return id
		}
	}
}

// Attach seats a bot in the room. Attaching an already attached bot is a no-op.
func (c *Coordinator) Attach(botID model.PlayerID) error {
	if _, ok := c.bots[botID]; ok {
		return nil
	}

	player := model.Player{
		ID:          botID,
		DisplayName: c.cfg.DisplayName,
		IsAutomated: true,
	}
	if _, err := c.seater.JoinRoom(c.roomID, player); err != nil {
		return err
	}

	c.bots[botID] = &botState{id: botID}
	c.order = append(c.order, botID)
	c.logger.Info("bot attached", slog.String("bot_id", string(botID)))
	return nil
}

// Detach unseats a bot. Returns false if it was not attached.
func (c *Coordinator) Detach(botID model.PlayerID) bool {
	if _, ok := c.bots[botID]; !ok {
		return false
	}
	delete(c.bots, botID)
	for i, id := range c.order {
		if id == botID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.seater.LeaveRoom(botID)
	c.logger.Info("bot detached", slog.String("bot_id", string(botID)))
	return true
}

// DetachAll unseats every bot in the room
func (c *Coordinator) DetachAll() {
	for _, id := range append([]model.PlayerID(nil), c.order...) {
		c.Detach(id)
	}
	c.generation++
}

// SetActive flips every bot's active flag. Deactivating also clears busy
// flags, pending frames and the last guess, and invalidates in-flight results.
func (c *Coordinator) SetActive(active bool) {
	for _, id := range c.order {
		b := c.bots[id]
		b.active = active
		if !active {
			b.busy = false
			b.lastFrame = ""
			b.lastGuess = ""
		}
	}
	if !active {
		c.generation++
	}
}

// OnFrame applies the room cooldown and returns one Request for every active,
// idle bot. Frames inside the cooldown are dropped.
func (c *Coordinator) OnFrame(frame string) []Request {
	if !c.anyActive() {
		return nil
	}
	if !c.limiter.AllowN(c.clock.Now(), 1) {
		c.logger.Debug("frame dropped by cooldown")
		return nil
	}

	var requests []Request
	for _, id := range c.order {
		b := c.bots[id]
		if !b.active {
			continue
		}
		b.lastFrame = frame
		if b.busy {
			continue
		}
		b.busy = true
		requests = append(requests, Request{BotID: id, Generation: c.generation, Frame: frame})
	}
	return requests
}

// HandleResult applies a classification outcome. It returns a guess to submit
// when the bot has something new to say.
func (c *Coordinator) HandleResult(res Result) (model.PredictionEvent, bool) {
	b, ok := c.bots[res.BotID]
	if !ok || !b.active || res.Generation != c.generation {
		c.logger.Debug("stale classification discarded", slog.String("bot_id", string(res.BotID)))
		return model.PredictionEvent{}, false
	}
	b.busy = false

	if res.Err != nil {
		c.logger.Warn("classification failed",
			slog.String("bot_id", string(res.BotID)),
			slog.Any("error", res.Err))
		return model.PredictionEvent{}, false
	}

	thought, emit := c.strategy.Choose(res.Probabilities, b.lastGuess)
	b.lastGuess = thought
	if !emit {
		return model.PredictionEvent{}, false
	}

	return model.PredictionEvent{
		PredictionID: uuid.NewString(),
		BotID:        b.id,
		GuessText:    thought,
	}, true
}

// Bots returns the attached bot ids in attach order
func (c *Coordinator) Bots() []model.PlayerID {
	return append([]model.PlayerID(nil), c.order...)
}

// IsAttached reports whether a bot id belongs to this room
func (c *Coordinator) IsAttached(botID model.PlayerID) bool {
	_, ok := c.bots[botID]
	return ok
}

// State returns a bot's coordination state
func (c *Coordinator) State(botID model.PlayerID) (State, bool) {
	b, ok := c.bots[botID]
	if !ok {
		return State{}, false
	}
	return State{
		ID:        b.id,
		Active:    b.active,
		Busy:      b.busy,
		LastGuess: b.lastGuess,
		LastFrame: b.lastFrame,
	}, true
}

func (c *Coordinator) anyActive() bool {
	for _, b := range c.bots {
		if b.active {
			return true
		}
	}
	return false
}
