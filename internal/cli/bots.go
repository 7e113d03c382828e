package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "Bot management commands",
	}

	cmd.AddCommand(newBotsListCmd())
	cmd.AddCommand(newBotsAddCmd())
	cmd.AddCommand(newBotsRemoveCmd())

	return cmd
}

func newBotsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <room>",
		Short: "List the bots in a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BotList

			if err := client.Get(fmt.Sprintf("/api/v1/rooms/%s/bots", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBotsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <room>",
		Short: "Seat a bot (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			var result BotAdded

			if err := client.Post(fmt.Sprintf("/api/v1/rooms/%s/bots", args[0]), map[string]string{"player_id": playerID}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBotsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <room> <bot>",
		Short: "Remove a bot (host only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := cfg.RequirePlayer()
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/api/v1/rooms/%s/bots/%s?player_id=%s", args[0], args[1], playerID)
			if err := client.Delete(path); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Removed bot %s", args[1]))
			return nil
		},
	}
}
