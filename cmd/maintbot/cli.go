package main

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/rahul/maintbot/internal/agent"
	"github.com/rahul/maintbot/internal/commands"
	"github.com/rahul/maintbot/internal/schedule"
)

func newUpdateCommand() *cobra.Command {
	var serial, by string

	cmd := &cobra.Command{
		Use:   "update <equipment> <frequency> [date]",
		Short: "Record a completed maintenance",
		Example: `  maintbot update "Oil Free Air Compressor" monthly 2025-11-15
  maintbot update --serial 20250623001 "" bi_annual`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := schedule.ParseFrequency(args[1])
			if err != nil {
				return err
			}
			req := commands.Request{
				Kind:          commands.KindUpdate,
				EquipmentName: args[0],
				SerialNumber:  serial,
				Frequency:     freq,
			}
			if len(args) == 3 {
				req.Date = args[2]
			}
			return runOnce(cmd.Context(), req, by)
		},
	}
	cmd.Flags().StringVar(&serial, "serial", "", "equipment serial number")
	cmd.Flags().StringVar(&by, "by", currentUser(), "initials written into the log")
	return cmd
}

func newQueryCommand(kind commands.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), commands.Request{Kind: kind}, currentUser())
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history [equipment]",
		Short: "Show recent maintenance updates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := commands.Request{Kind: commands.KindHistory}
			if len(args) == 1 {
				req.Filter = args[0]
			}
			return runOnce(cmd.Context(), req, currentUser())
		},
	}
}

func newCheckCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Send reminders for due maintenance once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var targets []agent.Target
			if !dryRun {
				_, targets, err = a.gateways(nil)
				if err != nil {
					return err
				}
			}
			s := agent.NewScheduler(a.equipment, a.history, targets, a.cfg.Maintenance.AlertDaysBefore, a.cfg.CheckInterval())
			s.Logger = a.logger

			if dryRun || len(targets) == 0 {
				items, err := s.Pending(cmd.Context())
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Println("No maintenance due at this time.")
					return nil
				}
				fmt.Print(agent.FormatDue(items))
				return nil
			}

			n, err := s.Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Announced %d due item(s).\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what is due without sending or marking anything")
	return cmd
}

// runOnce dispatches one command outside any chat gateway.
func runOnce(ctx context.Context, req commands.Request, by string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.commands.Dispatch(ctx, req, commands.Caller{User: by, ChatID: "cli"})
	if err != nil {
		return err
	}
	fmt.Println(resp.Text)
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
