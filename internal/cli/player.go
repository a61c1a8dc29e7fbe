package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player seat actions",
	}

	cmd.AddCommand(newPlayerJoinCmd())
	cmd.AddCommand(newPlayerFoldCmd())
	cmd.AddCommand(newPlayerRevealCmd())
	cmd.AddCommand(newPlayerLeaveCmd())

	return cmd
}

func newPlayerJoinCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "join <code> <name>",
		Short: "Join a room, or resume a seat by name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.JoinRoom(args[0], args[1])
			if err != nil {
				return err
			}

			if !noSave {
				if err := cfg.SaveToken(result.SessionToken); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "Don't save the session token to the token file")

	return cmd
}

func newPlayerFoldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fold <code>",
		Short: "Fold for the rest of the round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Fold(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerRevealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <code>",
		Short: "Toggle showing your hole cards on the host display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Reveal(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <code>",
		Short: "Leave the room and give up your seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Leave(args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left room")
			return nil
		},
	}
}
