package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-planner/pkg/core/period"
	"github.com/jakechorley/shift-planner/pkg/core/services"
)

// ImportCmd creates the import command
func ImportCmd(app *AppContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import workers and shifts from a JSON export or a CSV of shifts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format := format
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			var result *services.ImportResult
			switch format {
			case "json":
				result, err = services.ImportJSON(app.Ctx, app.Store, app.Engine, app.Logger, f)
			case "csv":
				result, err = services.ImportCSV(app.Ctx, app.Store, app.Engine, app.Logger, f)
			default:
				return fmt.Errorf("unknown import format %q: use --format json or csv", format)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n✓ Import completed\n\n")
			fmt.Fprintf(out, "Workers added:   %d\n", result.WorkersAdded)
			fmt.Fprintf(out, "Workers skipped: %d\n", result.WorkersSkipped)
			fmt.Fprintf(out, "Shifts added:    %d\n", result.ShiftsAdded)
			if len(result.Rejected) > 0 {
				fmt.Fprintf(out, "\n⚠️  %d entries were rejected:\n", len(result.Rejected))
				for _, r := range result.Rejected {
					fmt.Fprintf(out, "  ✗ %s %s: %s\n", r.Source, r.Date, r.Reason)
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or csv (defaults to the file extension)")
	return cmd
}

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export workers, departments and shifts as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return services.ExportJSON(app.Store, cmd.OutOrStdout(), time.Now())
			}
			return writeFile(args[0], func(w io.Writer) error {
				return services.ExportJSON(app.Store, w, time.Now())
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported to %s\n", args[0])
			})
		},
	}
}

// ExportWorkbookCmd creates the exportWorkbook command
func ExportWorkbookCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportWorkbook <date|YYYY-MM> <file.xlsx>",
		Short: "Write the roster of a week (any date in it) or a month to an Excel workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roster, err := buildRoster(app, args[0])
			if err != nil {
				return err
			}
			return writeFile(args[1], func(w io.Writer) error {
				return services.ExportWorkbook(roster, w)
			}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s written to %s\n", roster.Title, args[1])
			})
		},
	}
}

func buildRoster(app *AppContext, anchor string) (*services.Roster, error) {
	if period.IsValidDateString(anchor) {
		return services.BuildWeekRoster(app.Store, anchor)
	}
	t, err := time.Parse("2006-01", anchor)
	if err != nil {
		return nil, fmt.Errorf("expected a date (YYYY-MM-DD) or a month (YYYY-MM), got: %s", anchor)
	}
	return services.BuildMonthRoster(app.Store, t.Year(), t.Month())
}

// writeFile writes through fn into a temporary file and renames it into place
func writeFile(path string, fn func(io.Writer) error, done func()) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	done()
	return nil
}

// PublishWeekCmd creates the publishWeek command
func PublishWeekCmd(app *AppContext) *cobra.Command {
	var spreadsheetID string
	cmd := &cobra.Command{
		Use:   "publishWeek [date]",
		Short: "Publish a week's roster to a tab of the configured Google spreadsheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := period.FormatDate(time.Now())
			if len(args) > 0 {
				date = args[0]
			}
			spreadsheetID := spreadsheetID
			if spreadsheetID == "" {
				spreadsheetID = app.Cfg.Sheets.SpreadsheetID
			}
			if spreadsheetID == "" {
				return fmt.Errorf("no spreadsheet configured: set sheets.spreadsheetID or pass --spreadsheet")
			}

			publisher, err := app.Publisher()
			if err != nil {
				return err
			}
			app.Logger.Info("publishWeek command", zap.String("date", date))

			roster, err := services.PublishWeek(app.Ctx, app.Store, publisher, app.Logger, spreadsheetID, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Published %q (%d workers)\n\n", roster.Title, len(roster.Rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "Spreadsheet id (defaults to sheets.spreadsheetID)")
	return cmd
}
