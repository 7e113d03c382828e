package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/sketchguess/internal/dependencies/mocks"
	"github.com/mcoot/sketchguess/internal/services/game"
	"github.com/mcoot/sketchguess/internal/services/registry"
	"github.com/mcoot/sketchguess/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock      *mocks.MockClock
	MockRandom     *mocks.MockRandom
	MockClassifier *mocks.StaticClassifier
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(gameCfg game.Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockClassifier := mocks.NewStaticClassifier(map[string]float64{})

	app := newWithDependencies(dependencies{
		store:      memory.New(),
		clock:      mockClock,
		random:     mockRandom,
		classifier: mockClassifier,
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}, gameCfg, registry.DefaultConfig())

	return &TestApp{
		App:            app,
		MockClock:      mockClock,
		MockRandom:     mockRandom,
		MockClassifier: mockClassifier,
	}
}

// LoadTestWords loads a small word list for testing
func (t *TestApp) LoadTestWords() error {
	return t.WordBank.LoadWords([]string{"apple", "banana", "cat", "dog", "house"})
}
