package redis

import "fmt"

// Key prefix for all game-related data
const keyPrefix = "sketchguess"

// wordsKey returns the Redis key for the word bank SET
func wordsKey() string {
	return fmt.Sprintf("%s:words", keyPrefix)
}
