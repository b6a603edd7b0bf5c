package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/leave"
	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/shifts"
)

// AddShiftCmd creates the addShift command
func AddShiftCmd(app *AppContext) *cobra.Command {
	var (
		kind, position, notes string
		yes                   bool
	)

	cmd := &cobra.Command{
		Use:   "addShift <worker> <date> [start] [end]",
		Short: "Book a worker on a date; times default to the worker's usual hours",
		Args:  cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := resolveWorker(app, args[0])
			if err != nil {
				return err
			}

			draft := shifts.Draft{
				WorkerID:  w.ID,
				Date:      args[1],
				StartTime: w.DefaultStartTime,
				EndTime:   w.DefaultEndTime,
				Position:  position,
				Kind:      model.ShiftKind(kind),
				Notes:     notes,
			}
			if len(args) > 2 {
				draft.StartTime = args[2]
			}
			if len(args) > 3 {
				draft.EndTime = args[3]
			}

			if !checkLeave(cmd, app, leave.Request{WorkerID: w.ID, Kind: draft.Kind}, yes) {
				return nil
			}

			created, err := app.Engine.Create(draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s booked on %s %s-%s (%s)\n",
				w.DisplayName(), created.Date, created.StartTime, created.EndTime, created.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "  Shift ID: %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.KindRegular), "regular, vacation, sick, holiday or training")
	cmd.Flags().StringVar(&position, "position", "", "Position (defaults to the worker's)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask before exceeding a leave allowance")
	return cmd
}

// checkLeave warns when a leave kind would run the allowance low and asks to
// continue. It returns false when the user declines.
func checkLeave(cmd *cobra.Command, app *AppContext, req leave.Request, yes bool) bool {
	assessment := app.Advisor.Assess(req)
	if !assessment.ShouldConfirm() {
		return true
	}
	app.Logger.Debug("Leave warning",
		zap.String("worker_id", req.WorkerID),
		zap.String("level", string(assessment.Level)))

	fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %s\n", assessment.Message())
	if yes || assessment.Level == leave.LevelRunningLow {
		return true
	}
	if confirm(cmd, "Add it anyway?") {
		return true
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
	return false
}

// EditShiftCmd creates the editShift command
func EditShiftCmd(app *AppContext) *cobra.Command {
	var (
		worker, date, start, end string
		position, kind, notes    string
		yes                      bool
	)

	cmd := &cobra.Command{
		Use:   "editShift <shift_id>",
		Short: "Change fields of a shift; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, ok := app.Engine.Find(args[0])
			if !ok {
				return model.NotFound("assignment", args[0])
			}

			var patch shifts.Patch
			flags := cmd.Flags()
			if flags.Changed("worker") {
				w, err := resolveWorker(app, worker)
				if err != nil {
					return err
				}
				patch.WorkerID = &w.ID
			}
			if flags.Changed("date") {
				patch.Date = &date
			}
			if flags.Changed("start") {
				patch.StartTime = &start
			}
			if flags.Changed("end") {
				patch.EndTime = &end
			}
			if flags.Changed("position") {
				patch.Position = &position
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("kind") {
				k := model.ShiftKind(kind)
				patch.Kind = &k
			}

			targetWorker, targetKind := existing.WorkerID, existing.Kind
			if patch.WorkerID != nil {
				targetWorker = *patch.WorkerID
			}
			if patch.Kind != nil {
				targetKind = *patch.Kind
			}
			req := leave.Request{WorkerID: targetWorker, Kind: targetKind, ExcludingID: existing.ID}
			if !checkLeave(cmd, app, req, yes) {
				return nil
			}

			edited, err := app.Engine.Edit(existing.ID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Shift %s is now %s %s-%s (%s)\n",
				edited.ID, edited.Date, edited.StartTime, edited.EndTime, edited.Kind)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&worker, "worker", "", "Reassign to another worker")
	f.StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	f.StringVar(&start, "start", "", "New start time (HH:MM)")
	f.StringVar(&end, "end", "", "New end time (HH:MM)")
	f.StringVar(&position, "position", "", "New position")
	f.StringVar(&kind, "kind", "", "New kind")
	f.StringVar(&notes, "notes", "", "New notes")
	f.BoolVarP(&yes, "yes", "y", false, "Do not ask before exceeding a leave allowance")
	return cmd
}

// MoveShiftCmd creates the moveShift command
func MoveShiftCmd(app *AppContext) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "moveShift <shift_id> <to_date>",
		Short: "Move a shift to another date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moved, err := app.Engine.Move(args[0], from, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Shift %s moved to %s\n", moved.ID, moved.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Date the shift is currently on (searched when omitted)")
	return cmd
}

// RemoveShiftCmd creates the removeShift command
func RemoveShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeShift <shift_id>",
		Short: "Remove a shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Engine.Remove(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Shift removed")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove")
			}
			return nil
		},
	}
}

// LeaveCheckCmd creates the leaveCheck command
func LeaveCheckCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leaveCheck <worker> <vacation|sick>",
		Short: "Show a worker's leave balance if one more day were added",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := resolveWorker(app, args[0])
			if err != nil {
				return err
			}
			kind := model.ShiftKind(args[1])
			if _, ok := w.AllowanceFor(kind); !ok {
				return fmt.Errorf("%q has no yearly allowance; use vacation or sick", args[1])
			}

			a := app.Advisor.Assess(leave.Request{WorkerID: w.ID, Kind: kind})
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s, %s days\n\n", a.WorkerName, a.Kind)
			fmt.Fprintf(out, "Allowed:   %d\n", a.Allowed)
			fmt.Fprintf(out, "Used:      %d\n", a.Used)
			fmt.Fprintf(out, "After one more: %d remaining\n", a.Remaining)
			if msg := a.Message(); msg != "" {
				fmt.Fprintf(out, "\n⚠️  %s\n", msg)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
