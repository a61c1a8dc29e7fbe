package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Host controls: create and drive a room",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomAdvanceCmd())
	cmd.AddCommand(newRoomShuffleCmd())
	cmd.AddCommand(newRoomQRCmd())
	cmd.AddCommand(newRoomEndCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var shuffleFactor int
	var noSave bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and become its host",
		RunE: func(cmd *cobra.Command, args []string) error {
			var factor *int
			if cmd.Flags().Changed("shuffle-factor") {
				factor = &shuffleFactor
			}

			result, err := client.CreateRoom(factor)
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

	cmd.Flags().IntVar(&shuffleFactor, "shuffle-factor", 100, "Shuffle bias 0-100 (0 = no shuffling)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Don't save the session token to the token file")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Fetch the full room state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.GetRoomState(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <code>",
		Short: "Advance the round to the next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.Advance(args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomShuffleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shuffle <code> <factor>",
		Short: "Set the shuffle bias for future rounds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			factor, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid shuffle factor: %s", args[1])
			}

			result, err := client.SetShuffleFactor(args[0], factor)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomQRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qr <code> <url>",
		Short: "Set the join URL shown on the host display",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.SetQRUrl(args[0], args[1])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <code>",
		Short: "End the room and remove all players",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.EndRoom(args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Room ended")
			return nil
		},
	}
}
