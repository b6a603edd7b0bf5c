package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/model"
	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/jakechorley/shift-planner/pkg/core/stats"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
)

// StatsCmd creates the stats command
func StatsCmd(app *AppContext) *cobra.Command {
	var granularity string
	cmd := &cobra.Command{
		Use:   "stats [anchor]",
		Short: "Hours, leave and pay per worker for a week (any date), month (YYYY-MM) or year (YYYY)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := defaultAnchor(period.Granularity(granularity), time.Now())
			if len(args) > 0 {
				anchor = args[0]
			}
			p, err := period.ParsePeriod(granularity, anchor)
			if err != nil {
				return err
			}

			var report stats.Report
			workers := app.Store.Workers()
			app.Store.View(func(s model.Schedule) {
				report = stats.Compute(p, workers, s, stats.Options{
					OvertimeThresholdHours: app.Cfg.Scheduling.OvertimeThresholdHours,
				})
			})
			printReport(cmd, report, app.Store.Currency())
			return nil
		},
	}
	cmd.Flags().StringVarP(&granularity, "period", "p", string(period.GranularityWeek), "week, month or year")
	return cmd
}

func defaultAnchor(g period.Granularity, now time.Time) string {
	switch g {
	case period.GranularityMonth:
		return now.Format("2006-01")
	case period.GranularityYear:
		return now.Format("2006")
	}
	return period.FormatDate(now)
}

func printReport(cmd *cobra.Command, report stats.Report, currency string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\n\n", report.Label)
	fmt.Fprintf(out, "Workers:   %d\n", report.TotalWorkers)
	fmt.Fprintf(out, "Hours:     %.1f\n", report.TotalHours)
	fmt.Fprintf(out, "Vacation:  %d days\n", report.VacationDays)
	fmt.Fprintf(out, "Sick:      %d days\n", report.SickDays)
	fmt.Fprintf(out, "Pay:       %s %s\n\n", report.TotalPay.StringFixed(2), currency)

	rows := [][]string{{"Worker", "Department", "Hours", "Overtime", "Vacation", "Sick", "Pay"}}
	for _, w := range report.Workers {
		hours := fmt.Sprintf("%.1f", w.Hours)
		// bounds are weekly, so only flag them on week reports
		if report.Period.Granularity == period.GranularityWeek {
			switch {
			case w.UnderMin:
				hours = colorRed + hours + colorReset
			case w.OverMax:
				hours = colorYellow + hours + colorReset
			}
		}
		rows = append(rows, []string{
			w.Name,
			w.Department,
			hours,
			fmt.Sprintf("%.1f", w.OvertimeHours),
			strconv.Itoa(w.VacationDays),
			strconv.Itoa(w.SickDays),
			w.Pay.Total.StringFixed(2),
		})
	}
	printTable(out, rows)

	if len(report.Departments) > 0 {
		fmt.Fprintln(out)
		deptRows := [][]string{{"Department", "Workers", "Hours"}}
		for _, d := range report.Departments {
			deptRows = append(deptRows, []string{d.Department, strconv.Itoa(d.Workers), fmt.Sprintf("%.1f", d.Hours)})
		}
		printTable(out, deptRows)
	}
	fmt.Fprintln(out)
}
