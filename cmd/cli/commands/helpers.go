package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// resolveWorker finds a worker by id, then email, then name
func resolveWorker(app *AppContext, ref string) (model.Worker, error) {
	ref = strings.TrimSpace(ref)
	if w, ok := app.Store.Worker(ref); ok {
		return w, nil
	}
	if strings.Contains(ref, "@") {
		if w, ok := app.Store.FindWorkerByEmail(ref); ok {
			return w, nil
		}
	}
	if w, ok := app.Store.FindWorkerByName(ref); ok {
		return w, nil
	}
	return model.Worker{}, model.NotFound("worker", ref)
}

// confirm asks a yes/no question on the command's streams; anything but y/yes is no
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// printTable writes rows as aligned columns; the first row is the header
func printTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
		if i == 0 {
			dashes := make([]string, len(row))
			for j, cell := range row {
				dashes[j] = strings.Repeat("-", len(cell))
			}
			fmt.Fprintln(tw, strings.Join(dashes, "\t"))
		}
	}
	tw.Flush()
}
