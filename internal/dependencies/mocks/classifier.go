package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/sketchguess/internal/classifier"
)

// StaticClassifier returns a configurable distribution and records every frame
type StaticClassifier struct {
	mu            sync.Mutex
	probabilities map[string]float64
	err           error
	frames        []string
}

// Ensure StaticClassifier implements Classifier
var _ classifier.Classifier = (*StaticClassifier)(nil)

// NewStaticClassifier creates a StaticClassifier that always answers probs
func NewStaticClassifier(probs map[string]float64) *StaticClassifier {
	return &StaticClassifier{probabilities: probs}
}

// Classify records the frame and returns the configured result
func (c *StaticClassifier) Classify(ctx context.Context, frame string) (map[string]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames = append(c.frames, frame)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]float64, len(c.probabilities))
	for label, p := range c.probabilities {
		out[label] = p
	}
	return out, nil
}

// SetProbabilities replaces the distribution returned from now on
func (c *StaticClassifier) SetProbabilities(probs map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probabilities = probs
}

// SetError makes every later call fail with err
func (c *StaticClassifier) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Frames returns every frame classified so far
func (c *StaticClassifier) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}
