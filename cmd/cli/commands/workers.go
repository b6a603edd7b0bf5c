package commands

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// AddWorkerCmd creates the addWorker command
func AddWorkerCmd(app *AppContext) *cobra.Command {
	var (
		w                model.Worker
		basePay, premium string
		inactive         bool
	)

	cmd := &cobra.Command{
		Use:   "addWorker <name>",
		Short: "Add a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w.Name = args[0]
			w.IsActive = !inactive

			var err error
			if w.BasePay, err = decimal.NewFromString(basePay); err != nil {
				return fmt.Errorf("base-pay must be a number: %w", err)
			}
			if w.OvertimePremium, err = decimal.NewFromString(premium); err != nil {
				return fmt.Errorf("premium must be a number: %w", err)
			}

			added, err := app.Store.AddWorker(w)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Worker added\n\n")
			fmt.Fprintf(cmd.OutOrStdout(), "ID:         %s\n", added.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Name:       %s\n", added.DisplayName())
			fmt.Fprintf(cmd.OutOrStdout(), "Department: %s\n\n", added.Department)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&w.Nickname, "nickname", "", "Name shown on the roster")
	f.StringVar(&w.Email, "email", "", "Email address")
	f.StringVar(&w.Phone, "phone", "", "Phone number")
	f.StringVar(&w.Department, "department", "", "Department")
	f.StringVar(&w.Position, "position", "", "Default position for new shifts")
	f.IntVar(&w.MinHours, "min-hours", model.DefaultMinHours, "Contracted minimum weekly hours")
	f.IntVar(&w.MaxHours, "max-hours", model.DefaultMaxHours, "Maximum weekly hours")
	f.StringVar(&basePay, "base-pay", "0", "Hourly base pay")
	f.StringVar(&premium, "premium", strconv.Itoa(model.DefaultOvertimePremium), "Overtime premium in percent")
	f.IntVar(&w.VacationDaysPerYear, "vacation-days", model.DefaultVacationDays, "Vacation days per year")
	f.IntVar(&w.SickDaysPerYear, "sick-days", model.DefaultSickDays, "Sick days per year")
	f.StringVar(&w.DefaultStartTime, "start", "", "Default shift start (HH:MM)")
	f.StringVar(&w.DefaultEndTime, "end", "", "Default shift end (HH:MM)")
	f.BoolVar(&inactive, "inactive", false, "Add the worker as inactive")
	return cmd
}

// ListWorkersCmd creates the listWorkers command
func ListWorkersCmd(app *AppContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "listWorkers",
		Short: "List workers (active only unless --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := app.Store.ActiveWorkers()
			if all {
				workers = app.Store.Workers()
			}
			app.Logger.Debug("listWorkers command", zap.Int("count", len(workers)), zap.Bool("all", all))

			fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d workers:\n\n", len(workers))
			rows := [][]string{{"ID", "Name", "Department", "Position", "Hours", "Status"}}
			for _, w := range workers {
				status := "active"
				if !w.IsActive {
					status = "inactive"
				}
				rows = append(rows, []string{
					w.ID,
					w.DisplayName(),
					w.Department,
					w.Position,
					fmt.Sprintf("%d-%d", w.MinHours, w.MaxHours),
					status,
				})
			}
			printTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive workers")
	return cmd
}

// RemoveWorkerCmd creates the removeWorker command
func RemoveWorkerCmd(app *AppContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "removeWorker <id|email|name>",
		Short: "Remove a worker and all of their shifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := resolveWorker(app, args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("Remove %s and all of their shifts?", w.DisplayName())) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}

			removed, err := app.Store.RemoveWorker(w.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s and %d shifts\n", w.DisplayName(), removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
