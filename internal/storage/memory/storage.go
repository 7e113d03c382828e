package memory

import (
	"context"
	"sync"

	"github.com/mcoot/sketchguess/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	words []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Word bank operations

func (s *Storage) GetWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.words))
	copy(result, s.words)
	return result, nil
}

func (s *Storage) SaveWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.words = make([]string, len(words))
	copy(s.words, words)
	return nil
}
