package storage

import (
	"context"
)

// Storage defines the interface for data persistence.
// Game state is process-memory only; only the word bank is stored.
type Storage interface {
	// Word bank operations
	GetWords(ctx context.Context) ([]string, error)
	SaveWords(ctx context.Context, words []string) error
}
