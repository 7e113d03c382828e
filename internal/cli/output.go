package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case RoomDetail:
		o.printRoomDetail(v)
	case PlayerList:
		o.printPlayers(v.Players)
	case Session:
		o.printSession(v)
	case MessageList:
		o.printMessages(v)
	case BotList:
		o.printBots(v)
	case BotAdded:
		fmt.Printf("Bot added: %s\n", v.BotID)
	case Accepted:
		fmt.Printf("Status: %s\n", v.Status)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
	IsAutomated bool   `json:"is_automated"`
	Score       int    `json:"score"`
}

// PlayerList response type
type PlayerList struct {
	Players []Player `json:"players"`
}

// Room response type
type Room struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Occupancy int    `json:"occupancy"`
	Status    string `json:"status"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomDetail response type
type RoomDetail struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// Session response type
type Session struct {
	RoomID           string          `json:"room_id"`
	Phase            string          `json:"phase"`
	RoundNumber      int             `json:"round_number"`
	TotalRounds      int             `json:"total_rounds"`
	CurrentDrawerID  *string         `json:"current_drawer_id"`
	CurrentWord      *string         `json:"current_word,omitempty"`
	CorrectAnswer    *string         `json:"correct_answer"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Scores           map[string]int  `json:"scores"`
	CorrectThisRound map[string]bool `json:"correct_this_round"`
	RoundOver        bool            `json:"round_over"`
}

// Message response type
type Message struct {
	ID             string `json:"id"`
	AuthorID       string `json:"author_id"`
	AuthorName     string `json:"author_name"`
	Text           string `json:"text"`
	IsGuess        bool   `json:"is_guess"`
	IsCorrectGuess bool   `json:"is_correct_guess"`
}

// MessageList response type
type MessageList struct {
	Messages []Message `json:"messages"`
}

// Bot response type
type Bot struct {
	ID        string `json:"id"`
	Active    bool   `json:"active"`
	Busy      bool   `json:"busy"`
	LastGuess string `json:"last_guess,omitempty"`
}

// BotList response type
type BotList struct {
	Bots []Bot `json:"bots"`
}

// BotAdded response type
type BotAdded struct {
	BotID string `json:"bot_id"`
}

// Accepted response type for queued actions
type Accepted struct {
	Status string `json:"status"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (%s)\n", r.Name, r.ID)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Seats: %d/%d\n", r.Occupancy, r.Capacity)
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Printf("%s  %-20s %-8s %d/%d\n", r.ID, r.Name, r.Status, r.Occupancy, r.Capacity)
	}
}

func (o *Output) printRoomDetail(d RoomDetail) {
	o.printRoom(d.Room)
	o.printPlayers(d.Players)
}

func (o *Output) printPlayers(players []Player) {
	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		tags := ""
		if p.IsAutomated {
			tags += " [bot]"
		}
		if !p.Online {
			tags += " [offline]"
		}
		fmt.Printf("  - %s (%s) - %d pts%s\n", p.DisplayName, p.ID, p.Score, tags)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Phase: %s\n", s.Phase)
	fmt.Printf("Round: %d/%d\n", s.RoundNumber, s.TotalRounds)

	if s.CurrentDrawerID != nil {
		fmt.Printf("Drawer: %s\n", *s.CurrentDrawerID)
	}
	if s.CurrentWord != nil {
		fmt.Printf("Your word: %s\n", *s.CurrentWord)
	}
	if s.CorrectAnswer != nil {
		fmt.Printf("Answer: %s\n", *s.CorrectAnswer)
	}
	if !s.RoundOver {
		fmt.Printf("Remaining: %ds\n", s.RemainingSeconds)
	}

	if len(s.Scores) > 0 {
		ids := make([]string, 0, len(s.Scores))
		for id := range s.Scores {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if s.Scores[ids[i]] != s.Scores[ids[j]] {
				return s.Scores[ids[i]] > s.Scores[ids[j]]
			}
			return ids[i] < ids[j]
		})

		fmt.Println("\nScores:")
		for _, id := range ids {
			mark := ""
			if s.CorrectThisRound[id] {
				mark = " *"
			}
			fmt.Printf("  %s: %d points%s\n", id, s.Scores[id], mark)
		}
	}
}

func (o *Output) printMessages(l MessageList) {
	for _, m := range l.Messages {
		switch {
		case m.IsCorrectGuess:
			fmt.Printf("** %s\n", m.Text)
		case m.IsGuess:
			fmt.Printf("%s guessed: %s\n", m.AuthorName, m.Text)
		default:
			fmt.Printf("%s: %s\n", m.AuthorName, m.Text)
		}
	}
}

func (o *Output) printBots(l BotList) {
	if len(l.Bots) == 0 {
		fmt.Println("No bots")
		return
	}
	for _, b := range l.Bots {
		state := "idle"
		if b.Busy {
			state = "busy"
		}
		if !b.Active {
			state = "inactive"
		}
		line := fmt.Sprintf("  - %s (%s)", b.ID, state)
		if b.LastGuess != "" {
			line += fmt.Sprintf(" last guess: %s", b.LastGuess)
		}
		fmt.Println(line)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
