package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/sketchguess/internal/broadcast"
	"github.com/mcoot/sketchguess/internal/classifier"
	"github.com/mcoot/sketchguess/internal/dependencies/clock"
	"github.com/mcoot/sketchguess/internal/dependencies/random"
	"github.com/mcoot/sketchguess/internal/services/bot"
	"github.com/mcoot/sketchguess/internal/services/game"
	"github.com/mcoot/sketchguess/internal/services/registry"
	"github.com/mcoot/sketchguess/internal/services/wordbank"
	"github.com/mcoot/sketchguess/internal/storage"
	"github.com/mcoot/sketchguess/internal/storage/memory"
	redisstorage "github.com/mcoot/sketchguess/internal/storage/redis"
	"github.com/mcoot/sketchguess/internal/web/sse"
	"github.com/mcoot/sketchguess/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Broadcast type constants
const (
	// BroadcastTypeLocal pushes events to this process's SSE and websocket clients only
	BroadcastTypeLocal = "local"
	// BroadcastTypeRedis additionally publishes every event to Redis pub/sub
	BroadcastTypeRedis = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock      clock.Clock
	Random     random.Random
	Classifier classifier.Classifier

	// Services
	WordBank       *wordbank.Service
	Registry       *registry.Registry
	GameController *game.Controller

	// Push channels
	HubManager  *sse.HubManager
	SocketHub   *ws.Hub
	Sockets     *ws.Server
	Broadcaster broadcast.Broadcaster

	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// WordsPath is the path to the word list (optional)
	// If empty, words are loaded from storage
	WordsPath string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// BroadcastType selects event fan-out ("local" or "redis")
	// If empty, defaults to "local"
	BroadcastType string
	// RedisConfig holds Redis connection settings (required if either type is "redis")
	RedisConfig *redisstorage.Config
	// Game holds round rules; zero value means game.DefaultConfig()
	Game *game.Config
	// Classifier holds the classifier client settings; zero value means classifier.DefaultConfig()
	Classifier *classifier.Config
	// Registry holds room defaults; zero value means registry.DefaultConfig()
	Registry *registry.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}
	broadcastType := cfg.BroadcastType
	if broadcastType == "" {
		broadcastType = BroadcastTypeLocal
	}

	var closers []func() error
	var redisStore *redisstorage.Storage
	connectRedis := func() (*redisstorage.Storage, error) {
		if redisStore != nil {
			return redisStore, nil
		}
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType or BroadcastType is redis")
		}
		s, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		redisStore = s
		closers = append(closers, s.Close)
		return s, nil
	}

	var store storage.Storage
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		s, err := connectRedis()
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var extra []broadcast.Broadcaster
	switch broadcastType {
	case BroadcastTypeLocal:
	case BroadcastTypeRedis:
		s, err := connectRedis()
		if err != nil {
			return nil, err
		}
		prefix := cfg.RedisConfig.ChannelPrefix
		if prefix == "" {
			prefix = broadcast.DefaultChannelPrefix
		}
		publisher := broadcast.NewRedisPublisher(s.Client(), prefix, logger)
		closers = append(closers, publisher.Close)
		extra = append(extra, publisher)
	default:
		return nil, errors.New("invalid BroadcastType: must be 'local' or 'redis'")
	}

	clsCfg := classifier.DefaultConfig()
	if cfg.Classifier != nil {
		clsCfg = *cfg.Classifier
	}

	deps := dependencies{
		store:      store,
		clock:      clock.New(),
		random:     random.New(),
		classifier: classifier.NewClient(clsCfg, logger),
		extra:      extra,
		logger:     logger,
	}
	app := newWithDependencies(deps, valueOr(cfg.Game, game.DefaultConfig()), valueOr(cfg.Registry, registry.DefaultConfig()))
	app.closers = closers

	if cfg.WordsPath != "" {
		if err := app.WordBank.LoadFromFile(context.Background(), cfg.WordsPath); err != nil {
			_ = app.Close(context.Background())
			return nil, err
		}
	}

	return app, nil
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

type dependencies struct {
	store      storage.Storage
	clock      clock.Clock
	random     random.Random
	classifier classifier.Classifier
	extra      []broadcast.Broadcaster
	logger     *slog.Logger
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, gameCfg game.Config, registryCfg registry.Config) *App {
	hubManager := sse.NewHubManager(deps.logger)
	socketHub := ws.NewHub(deps.logger)

	fanout := broadcast.Fanout{hubManager, socketHub}
	fanout = append(fanout, deps.extra...)

	words := wordbank.New(deps.store, deps.random, deps.logger)
	reg := registry.New(fanout, deps.clock, deps.random, registryCfg, deps.logger)
	strategy := bot.NewVarietyStrategy(deps.random)
	controller := game.NewController(reg, words, deps.classifier, fanout, strategy, deps.clock, gameCfg, deps.logger)

	return &App{
		Storage:        deps.store,
		Clock:          deps.clock,
		Random:         deps.random,
		Classifier:     deps.classifier,
		WordBank:       words,
		Registry:       reg,
		GameController: controller,
		HubManager:     hubManager,
		SocketHub:      socketHub,
		Sockets:        ws.NewServer(socketHub, controller, deps.logger),
		Broadcaster:    fanout,
	}
}

// Close stops every room and releases external connections, newest first
func (a *App) Close(ctx context.Context) error {
	err := a.GameController.Shutdown(ctx)
	a.HubManager.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i]())
	}
	return err
}
