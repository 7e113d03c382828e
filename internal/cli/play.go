package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <room>",
		Short: "Join a room as the current player",
		Long: `Join a room. The player id comes from --player, SKETCHCTL_PLAYER or the
player file, and is saved to the player file on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			req := map[string]string{
				"player_id":    playerID,
				"display_name": name,
			}

			var result RoomDetail

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/join", args[0]), req, &result); err != nil {
				return err
			}

			if err := cfg.SavePlayer(playerID); err != nil {
				return fmt.Errorf("failed to save player id: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (default: player id)")

	return cmd
}

func newLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <room>",
		Short: "Leave the current room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/leave", args[0]), map[string]string{"player_id": playerID}, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left room")
			return nil
		},
	}
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <room>",
		Short: "Start a game (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			var result Accepted

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/start", args[0]), map[string]string{"player_id": playerID}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <room> <text...>",
		Short: "Submit a guess for the current word",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postMessage(args[0], strings.Join(args[1:], " "), true)
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <room> <text...>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postMessage(args[0], strings.Join(args[1:], " "), false)
		},
	}
}

func postMessage(roomID, text string, isGuess bool) error {
	playerID, err := cfg.RequirePlayer()
	if err != nil {
		return err
	}

	req := map[string]any{
		"player_id": playerID,
		"text":      text,
		"is_guess":  isGuess,
	}

	var result Accepted

	if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/messages", roomID), req, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	out.Print(result)
	return nil
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session <room>",
		Short: "Show the game state as seen by the current player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/rooms/%s/session", args[0])
			if cfg.PlayerID != "" {
				path += "?player_id=" + cfg.PlayerID
			}

			var result Session

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <room>",
		Short: "Show a room's chat log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MessageList

			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s/messages", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
