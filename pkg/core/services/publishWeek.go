package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SheetPublisher writes a table to a named tab, creating it or replacing its contents
type SheetPublisher interface {
	WriteTab(ctx context.Context, spreadsheetID, title string, rows [][]string) error
}

// PublishWeek builds the week roster and publishes it to its own tab,
// titled like "Week of Mon Jan 15 2024"
func PublishWeek(ctx context.Context, src RosterSource, publisher SheetPublisher, logger *zap.Logger, spreadsheetID, weekKey string) (*Roster, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	logger.Debug("Building week roster", zap.String("week", weekKey))
	roster, err := BuildWeekRoster(src, weekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster: %w", err)
	}

	tab := SheetName(roster.Title)
	logger.Debug("Publishing roster",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("tab", tab),
		zap.Int("rows", len(roster.Rows)))

	if err := publisher.WriteTab(ctx, spreadsheetID, tab, roster.Table()); err != nil {
		return nil, fmt.Errorf("failed to publish roster: %w", err)
	}

	logger.Info("Roster published",
		zap.String("tab", tab),
		zap.Int("workers", len(roster.Rows)))
	return roster, nil
}
