package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mcoot/sketchguess/internal/api"
	"github.com/mcoot/sketchguess/internal/classifier"
	"github.com/mcoot/sketchguess/internal/factory"
	"github.com/mcoot/sketchguess/internal/services/game"
	redisstorage "github.com/mcoot/sketchguess/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	gameCfg := gameConfigFromEnv(logger)
	classifierCfg := classifier.DefaultConfig()
	if url := os.Getenv("CLASSIFIER_URL"); url != "" {
		classifierCfg.URL = url
	}
	if gameCfg.ClassifierTimeout > 0 {
		classifierCfg.Timeout = gameCfg.ClassifierTimeout
	}

	// Build factory config from environment
	cfg := factory.Config{
		WordsPath:     getEnvOrDefault("WORDS_PATH", "data/words.txt"),
		Logger:        logger,
		StorageType:   os.Getenv("STORAGE_TYPE"),
		BroadcastType: os.Getenv("BROADCAST_TYPE"),
		Game:          &gameCfg,
		Classifier:    &classifierCfg,
	}

	// Configure Redis if either storage or broadcast uses it
	if cfg.StorageType == factory.StorageTypeRedis || cfg.BroadcastType == factory.BroadcastTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE or BROADCAST_TYPE is redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Words come from the file when present, otherwise from storage
	if _, err := os.Stat(cfg.WordsPath); err != nil {
		logger.Warn("word list not found, falling back to storage", slog.String("path", cfg.WordsPath))
		cfg.WordsPath = ""
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.WordsPath == "" {
		if err := app.WordBank.LoadFromStorage(context.Background()); err != nil {
			logger.Warn("could not load words from storage", slog.String("error", err.Error()))
		}
	}
	if app.WordBank.WordCount() == 0 {
		logger.Error("no words available, set WORDS_PATH or seed storage")
		os.Exit(1)
	}

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		GameController: app.GameController,
		HubManager:     app.HubManager,
		Sockets:        app.Sockets,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	// Create server
	serverConfig := api.DefaultServerConfig()
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		serverConfig.Port = port
	}
	server := api.NewServer(mux, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.Int("words", app.WordBank.WordCount()))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer closeCancel()
	if err := app.Close(closeCtx); err != nil {
		logger.Error("application close error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// gameConfigFromEnv overlays optional environment settings on the game defaults
func gameConfigFromEnv(logger *slog.Logger) game.Config {
	cfg := game.DefaultConfig()

	intEnv := func(key string, target *int) {
		raw := os.Getenv(key)
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			logger.Warn("ignoring invalid setting", slog.String("key", key), slog.String("value", raw))
			return
		}
		*target = v
	}
	durationEnv := func(key string, unit time.Duration, target *time.Duration) {
		var v int
		intEnv(key, &v)
		if v > 0 {
			*target = time.Duration(v) * unit
		}
	}

	intEnv("TOTAL_ROUNDS", &cfg.TotalRounds)
	intEnv("BOTS_PER_GAME", &cfg.BotsPerGame)
	intEnv("POINTS_PER_GUESS", &cfg.PointsPerCorrectGuess)
	durationEnv("ROUND_SECONDS", time.Second, &cfg.RoundDuration)
	durationEnv("INTER_ROUND_SECONDS", time.Second, &cfg.InterRoundDelay)
	durationEnv("PREDICTION_COOLDOWN_MS", time.Millisecond, &cfg.Bot.Cooldown)
	durationEnv("CLASSIFIER_TIMEOUT_MS", time.Millisecond, &cfg.ClassifierTimeout)

	if cfg.TotalRounds == 0 {
		cfg.TotalRounds = game.DefaultConfig().TotalRounds
	}
	return cfg
}

func logLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
