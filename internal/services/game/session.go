package game

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mcoot/sketchguess/internal/model"
)

// guessOutcome is the result of evaluating a guess against the session
type guessOutcome int

const (
	guessWrong guessOutcome = iota
	guessCorrect
	// guessRejected covers stale client actions: round over, repeat correct guess, drawer guessing
	guessRejected
	// guessUnknownPlayer means the guesser has no score entry for this round
	guessUnknownPlayer
)

// Session is the round state machine for one room's game.
// It is owned by the room goroutine and never shared.
type Session struct {
	roomID           model.RoomID
	phase            model.SessionPhase
	roundNumber      int
	totalRounds      int
	drawerID         model.PlayerID
	word             string
	correctAnswer    string
	roundEndsAt      time.Time
	scores           map[model.PlayerID]int
	correctThisRound map[model.PlayerID]bool
	roundOver        bool
}

// newSession creates a session awaiting its first round, with every player on zero
func newSession(roomID model.RoomID, totalRounds int, players []model.Player) *Session {
	s := &Session{
		roomID:           roomID,
		phase:            model.PhaseWaitingToStart,
		totalRounds:      totalRounds,
		scores:           make(map[model.PlayerID]int, len(players)),
		correctThisRound: make(map[model.PlayerID]bool, len(players)),
	}
	for _, p := range players {
		s.scores[p.ID] = 0
		s.correctThisRound[p.ID] = false
	}
	return s
}

func (s *Session) hasNextRound() bool {
	return s.roundNumber < s.totalRounds
}

// nextDrawer picks the drawer for the upcoming round by rotating over the candidates
func (s *Session) nextDrawer(candidates []model.Player) (model.Player, bool) {
	if len(candidates) == 0 {
		return model.Player{}, false
	}
	return candidates[s.roundNumber%len(candidates)], true
}

// beginRound advances to the next round. Score and correct-guess keys are
// rebuilt to exactly the roster present now; existing scores carry over.
func (s *Session) beginRound(drawer model.PlayerID, word string, roster []model.Player, endsAt time.Time) {
	s.roundNumber++
	s.phase = model.PhaseRoundInProgress
	s.drawerID = drawer
	s.word = word
	s.correctAnswer = ""
	s.roundEndsAt = endsAt
	s.roundOver = false

	scores := make(map[model.PlayerID]int, len(roster))
	correct := make(map[model.PlayerID]bool, len(roster))
	for _, p := range roster {
		scores[p.ID] = s.scores[p.ID]
		correct[p.ID] = false
	}
	s.scores = scores
	s.correctThisRound = correct
}

// endRound reveals the answer. Returns false if there was no round to end.
func (s *Session) endRound() bool {
	if s.phase != model.PhaseRoundInProgress || s.roundOver {
		return false
	}
	s.roundOver = true
	s.phase = model.PhaseRoundOver
	s.correctAnswer = s.word
	return true
}

func (s *Session) inProgress() bool {
	return s.phase == model.PhaseRoundInProgress && !s.roundOver
}

// evaluateGuess compares text with the current word and credits a first correct guess
func (s *Session) evaluateGuess(playerID model.PlayerID, text string, points int) guessOutcome {
	if !s.inProgress() || playerID == s.drawerID {
		return guessRejected
	}
	already, ok := s.correctThisRound[playerID]
	if !ok {
		return guessUnknownPlayer
	}
	if already {
		return guessRejected
	}
	if !strings.EqualFold(strings.TrimSpace(text), s.word) {
		return guessWrong
	}
	s.correctThisRound[playerID] = true
	s.scores[playerID] += points
	return guessCorrect
}

// snapshot renders the session. The word is only included for the drawer's view.
func (s *Session) snapshot(now time.Time, forDrawer bool) model.Session {
	view := model.Session{
		RoomID:           s.roomID,
		Phase:            s.phase,
		RoundNumber:      s.roundNumber,
		TotalRounds:      s.totalRounds,
		RoundEndsAt:      s.roundEndsAt,
		Scores:           make(map[model.PlayerID]int, len(s.scores)),
		CorrectThisRound: make(map[model.PlayerID]bool, len(s.correctThisRound)),
		RoundOver:        s.roundOver,
	}
	for id, score := range s.scores {
		view.Scores[id] = score
	}
	for id, ok := range s.correctThisRound {
		view.CorrectThisRound[id] = ok
	}
	if s.drawerID != "" {
		drawer := s.drawerID
		view.CurrentDrawerID = &drawer
	}
	if forDrawer && s.word != "" {
		word := s.word
		view.CurrentWord = &word
	}
	if s.correctAnswer != "" {
		answer := s.correctAnswer
		view.CorrectAnswer = &answer
	}
	if s.inProgress() {
		remaining := s.roundEndsAt.Sub(now).Seconds()
		view.RemainingSeconds = int(math.Max(0, math.Ceil(remaining)))
	}
	return view
}

// finalScores builds the scoreboard, highest first, ties broken by player id
func (s *Session) finalScores(players []model.Player) []model.ScoreEntry {
	names := make(map[model.PlayerID]string, len(players))
	for _, p := range players {
		names[p.ID] = p.DisplayName
	}

	entries := make([]model.ScoreEntry, 0, len(s.scores))
	for id, score := range s.scores {
		name, ok := names[id]
		if !ok {
			name = string(id)
		}
		entries = append(entries, model.ScoreEntry{PlayerID: id, DisplayName: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries
}
