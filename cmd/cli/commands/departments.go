package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// AddDepartmentCmd creates the addDepartment command
func AddDepartmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "addDepartment <name>",
		Short: "Add a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := app.Store.AddDepartment(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Department %q added\n", name)
			return nil
		},
	}
}

// RemoveDepartmentCmd creates the removeDepartment command
func RemoveDepartmentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeDepartment <name>",
		Short: "Remove a department no worker belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.RemoveDepartment(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Department %q removed\n", model.NormalizeDepartment(args[0]))
			return nil
		},
	}
}

// ListDepartmentsCmd creates the listDepartments command
func ListDepartmentsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listDepartments",
		Short: "List departments with their worker counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts := map[string]int{}
			for _, w := range app.Store.Workers() {
				counts[w.Department]++
			}
			rows := [][]string{{"Department", "Workers"}}
			for _, d := range app.Store.Departments() {
				rows = append(rows, []string{d, strconv.Itoa(counts[d])})
			}
			printTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

// HolidaysCmd creates the holidays command
func HolidaysCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays [year]",
		Short: "List public holidays and mandatory vacation days (defaults to this year)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year := time.Now().Year()
			if len(args) > 0 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed < 1 || parsed > 9999 {
					return fmt.Errorf("year must be a four digit year, got: %s", args[0])
				}
				year = parsed
			}

			rows := [][]string{{"Date", "Day", "Name", "Kind", "ID"}}
			entries := append(app.Store.Holidays(year), app.Store.MandatoryVacations(year)...)
			for _, h := range entries {
				day := ""
				if t, err := time.Parse("2006-01-02", h.Date); err == nil {
					day = t.Format("Mon")
				}
				rows = append(rows, []string{h.Date, day, h.Name, string(h.Kind), h.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nCalendar for %d\n\n", year)
			printTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

// AddHolidayCmd creates the addHoliday command
func AddHolidayCmd(app *AppContext) *cobra.Command {
	var mandatory bool
	cmd := &cobra.Command{
		Use:   "addHoliday <date> <name>",
		Short: "Add a holiday or, with --mandatory, a company-wide vacation day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := model.HolidayKindPublic
			if mandatory {
				kind = model.HolidayKindMandatoryVacation
			}
			h, err := app.Store.AddHoliday(model.Holiday{Date: args[0], Name: args[1], Kind: kind})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s %q on %s (%s)\n", h.Kind, h.Name, h.Date, h.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&mandatory, "mandatory", false, "Add a mandatory vacation day instead of a holiday")
	return cmd
}

// RemoveHolidayCmd creates the removeHoliday command
func RemoveHolidayCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeHoliday <id>",
		Short: "Remove a holiday or mandatory vacation day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.RemoveHoliday(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Removed")
			return nil
		},
	}
}
