package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// WriteTab publishes rows to the tab named title, starting at A1. A missing
// tab is created; an existing one is cleared first so no stale rows remain.
func (c *Client) WriteTab(ctx context.Context, spreadsheetID, title string, rows [][]string) error {
	exists, err := c.hasTab(ctx, spreadsheetID, title)
	if err != nil {
		return err
	}

	if exists {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTab(title), &sheets.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", title, err)
		}
	} else if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
		return fmt.Errorf("failed to create tab %q: %w", title, err)
	}

	_, err = c.service.Spreadsheets.Values.Update(spreadsheetID, quoteTab(title)+"!A1", &sheets.ValueRange{
		Values: toValues(rows),
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write tab %q: %w", title, err)
	}
	return nil
}

func (c *Client) hasTab(ctx context.Context, spreadsheetID, title string) (bool, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// quoteTab quotes a tab title for use in A1 notation
func quoteTab(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}
	return values
}
