package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomListCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomLeaveCmd())
	cmd.AddCommand(newRoomStartCmd())
	cmd.AddCommand(newRoomProfessionCmd())
	cmd.AddCommand(newRoomPassCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var (
		name             string
		maxPlayers       int
		turnTime         int
		gameDuration     int
		mode             string
		assigned         string
		selectionTimeout int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"name": name}
			if maxPlayers > 0 {
				req["max_players"] = maxPlayers
			}
			if turnTime > 0 {
				req["turn_time_sec"] = turnTime
			}
			if gameDuration > 0 {
				req["game_duration_sec"] = gameDuration
			}
			if mode != "" {
				req["profession_mode"] = mode
			}
			if assigned != "" {
				req["assigned_profession"] = assigned
			}
			if selectionTimeout > 0 {
				req["selection_timeout_sec"] = selectionTimeout
			}

			var result Room
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Room name (required)")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Maximum players")
	cmd.Flags().IntVar(&turnTime, "turn-time", 0, "Turn time in seconds")
	cmd.Flags().IntVar(&gameDuration, "duration", 0, "Game duration in seconds")
	cmd.Flags().StringVar(&mode, "mode", "", "Profession mode: assigned, random, choice")
	cmd.Flags().StringVar(&assigned, "profession", "", "Profession for assigned mode")
	cmd.Flags().IntVar(&selectionTimeout, "selection-timeout", 0, "Profession selection timeout in seconds")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRoomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList
			if err := client.Get("/api/v1/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result JoinResult
			if err := client.Post("/api/v1/rooms/"+args[0]+"/join", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <room-id>",
		Short: "Leave a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/rooms/"+args[0]+"/leave", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Left room")
			return nil
		},
	}
}

func newRoomStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <room-id>",
		Short: "Start the game (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Post("/api/v1/rooms/"+args[0]+"/start", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomProfessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profession",
		Short: "Profession selection commands",
	}

	selectCmd := &cobra.Command{
		Use:   "select <room-id> <profession-id>",
		Short: "Claim a profession",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"profession_id": args[1]}
			if err := client.Post("/api/v1/rooms/"+args[0]+"/profession", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Profession selected")
			return nil
		},
	}

	confirmCmd := &cobra.Command{
		Use:   "confirm <room-id>",
		Short: "Confirm the claimed profession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/rooms/"+args[0]+"/profession/confirm", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Profession confirmed")
			return nil
		},
	}

	cmd.AddCommand(selectCmd)
	cmd.AddCommand(confirmCmd)
	return cmd
}

func newRoomPassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pass <room-id>",
		Short: "Pass your turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Post("/api/v1/rooms/"+args[0]+"/turn/pass", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "professions",
		Short: "List the profession pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ProfessionList
			if err := client.Get("/api/v1/professions", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newHallOfFameCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "halloffame [username]",
		Short: "Show the hall of fame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if len(args) == 1 {
				var entry HallOfFameEntry
				if err := client.Get("/api/v1/halloffame/"+args[0], &entry); err != nil {
					return err
				}
				out.Print(entry)
				return nil
			}

			path := "/api/v1/halloffame"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			var result HallOfFame
			if err := client.Get(path, &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to show")

	return cmd
}
