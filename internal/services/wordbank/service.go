package wordbank

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mcoot/sketchguess/internal/dependencies/random"
	"github.com/mcoot/sketchguess/internal/model"
	"github.com/mcoot/sketchguess/internal/storage"
)

// Service holds the preloaded list of secret words and draws from it
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger

	mu    sync.RWMutex
	words []string
}

// New creates a new word bank Service
func New(storage storage.Storage, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  rnd,
		logger:  logger.With(slog.String("component", "wordbank")),
	}
}

// LoadFromStorage loads words previously saved to storage
func (s *Service) LoadFromStorage(ctx context.Context) error {
	words, err := s.storage.GetWords(ctx)
	if err != nil {
		return fmt.Errorf("load words from storage: %w", err)
	}
	return s.loadWords(words)
}

// LoadFromFile loads words from a file (one word per line) and saves them to storage
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		words = append(words, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	cleaned := normalize(words)

	// Save to storage for future use
	if err := s.storage.SaveWords(ctx, cleaned); err != nil {
		return fmt.Errorf("save words: %w", err)
	}

	return s.loadWords(cleaned)
}

// LoadWords directly loads a slice of words (useful for testing)
func (s *Service) LoadWords(words []string) error {
	return s.loadWords(words)
}

func (s *Service) loadWords(words []string) error {
	cleaned := normalize(words)

	s.mu.Lock()
	s.words = cleaned
	s.mu.Unlock()

	s.logger.Info("word bank loaded", slog.Int("words", len(cleaned)))
	if len(cleaned) == 0 {
		return model.ErrNoWordsAvailable
	}
	return nil
}

// normalize trims whitespace, drops blanks and removes case-insensitive duplicates.
// First occurrence wins.
func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Next returns a uniformly random word
func (s *Service) Next() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.words) == 0 {
		return "", model.ErrNoWordsAvailable
	}
	return s.words[s.random.Intn(len(s.words))], nil
}

// WordCount returns the number of distinct words loaded
func (s *Service) WordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// Interface check
type ServiceInterface interface {
	Next() (string, error)
	WordCount() int
	LoadFromStorage(ctx context.Context) error
	LoadFromFile(ctx context.Context, path string) error
	LoadWords(words []string) error
}

var _ ServiceInterface = (*Service)(nil)
