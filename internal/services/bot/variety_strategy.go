package bot

import (
	"sort"

	"github.com/mcoot/sketchguess/internal/dependencies/random"
)

// VarietyStrategy guesses the top label unless it repeats the last guess,
// in which case it silently switches to a random alternative label
type VarietyStrategy struct {
	random random.Random
}

// NewVarietyStrategy creates a new VarietyStrategy
func NewVarietyStrategy(rnd random.Random) *VarietyStrategy {
	return &VarietyStrategy{random: rnd}
}

// Choose implements Strategy
func (s *VarietyStrategy) Choose(probabilities map[string]float64, lastGuess string) (string, bool) {
	top := TopLabel(probabilities)
	if top == "" {
		return lastGuess, false
	}
	if top != lastGuess {
		return top, true
	}

	var alternatives []string
	for label := range probabilities {
		if label != lastGuess {
			alternatives = append(alternatives, label)
		}
	}
	if len(alternatives) == 0 {
		return lastGuess, false
	}
	sort.Strings(alternatives)
	return alternatives[s.random.Intn(len(alternatives))], false
}

// TopLabel returns the highest-confidence label. Ties go to the lexically smallest label.
func TopLabel(probabilities map[string]float64) string {
	var best string
	bestScore := -1.0
	for label, score := range probabilities {
		if score > bestScore || (score == bestScore && label < best) {
			best = label
			bestScore = score
		}
	}
	return best
}
