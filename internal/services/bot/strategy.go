package bot

// Strategy decides what a bot says after a classification.
// It returns the label the bot now "thinks" and whether to emit it as a guess.
type Strategy interface {
	Choose(probabilities map[string]float64, lastGuess string) (thought string, emit bool)
}
