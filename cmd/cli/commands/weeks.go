package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/jakechorley/shift-planner/pkg/core/services"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
)

// ViewWeekCmd creates the viewWeek command
func ViewWeekCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewWeek [date]",
		Short: "Show the roster for the week containing date (defaults to this week)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := period.FormatDate(time.Now())
			if len(args) > 0 {
				date = args[0]
			}
			roster, err := services.BuildWeekRoster(app.Store, date)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", roster.Title)
			printTable(cmd.OutOrStdout(), roster.Table())
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}

// CopyWeekCmd creates the copyWeek command. With a target it pastes straight
// away; otherwise the copy is kept for pasteWeek in the same interactive session.
func CopyWeekCmd(app *AppContext) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "copyWeek <source_date> [target_date]",
		Short: "Copy a week, optionally pasting it into another week",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			copied, err := app.Engine.CopyWeek(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Copied %d shifts\n", copied)
			if len(args) < 2 {
				return nil
			}
			return pasteInto(cmd, app, args[1], shifts.PasteMode(mode))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(shifts.PasteReplace), "replace or merge")
	return cmd
}

// PasteWeekCmd creates the pasteWeek command
func PasteWeekCmd(app *AppContext) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "pasteWeek <target_date>",
		Short: "Paste the copied week into the week containing target_date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return pasteInto(cmd, app, args[0], shifts.PasteMode(mode))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(shifts.PasteReplace), "replace or merge")
	return cmd
}

func pasteInto(cmd *cobra.Command, app *AppContext, target string, mode shifts.PasteMode) error {
	result, err := app.Engine.PasteWeek(target, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Pasted into week of %s (%s)\n", result.TargetWeek, result.Mode)
	if result.Cleared > 0 {
		fmt.Fprintf(out, "  Cleared: %d\n", result.Cleared)
	}
	fmt.Fprintf(out, "  Added:   %d\n", len(result.Added))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped: %d\n", len(result.Skipped))
		for _, s := range result.Skipped {
			name := s.Source.WorkerID
			if w, ok := app.Store.Worker(s.Source.WorkerID); ok {
				name = w.DisplayName()
			}
			fmt.Fprintf(out, "    ✗ %s on %s: %s\n", name, s.Date, s.Reason)
		}
	}
	return nil
}

// ClearWeekCmd creates the clearWeek command
func ClearWeekCmd(app *AppContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clearWeek <date>",
		Short: "Remove every shift in the week containing date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			monday, err := period.WeekKeyOfDate(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Remove every shift in the week of %s?", monday)) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			cleared, err := app.Engine.ClearWeek(monday)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d shifts\n", cleared)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// ClearMonthCmd creates the clearMonth command
func ClearMonthCmd(app *AppContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clearMonth <YYYY-MM>",
		Short: "Remove every shift dated in a calendar month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := time.Parse("2006-01", args[0])
			if err != nil {
				return fmt.Errorf("month must be YYYY-MM, got: %s", args[0])
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Remove every shift in %s?", t.Format("January 2006"))) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			cleared, err := app.Engine.ClearMonth(t.Year(), t.Month())
			if err != nil {
				return err
			}
			app.Logger.Debug("clearMonth command", zap.String("month", args[0]), zap.Int("cleared", cleared))
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d shifts\n", cleared)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
