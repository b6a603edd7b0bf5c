package sheetsclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/shift-planner/internal/config"
	"github.com/jakechorley/shift-planner/pkg/utils"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
}

// NewClient authenticates with the service account key in cfg.CredentialsFile
// when set, and otherwise with the installed-app OAuth flow whose tokens are
// kept per environment
func NewClient(ctx context.Context, cfg config.SheetsConfig, env string, logger *zap.Logger) (*Client, error) {
	tokenSource, err := tokenSourceFor(ctx, cfg, env, logger)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{service: service}, nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server
func NewWithService(service *sheets.Service) *Client {
	return &Client{service: service}
}

func tokenSourceFor(ctx context.Context, cfg config.SheetsConfig, env string, logger *zap.Logger) (oauth2.TokenSource, error) {
	if cfg.CredentialsFile != "" {
		logger.Debug("Using service account credentials", zap.String("file", cfg.CredentialsFile))
		return utils.ServiceAccountTokenSource(ctx, cfg.CredentialsFile)
	}

	oauthClient, err := config.LoadOAuthClient(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load oauth client: %w", err)
	}
	oauthConfig, err := utils.GetOAuthConfig(oauthClient)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}
	tokens, err := utils.DefaultTokenStore()
	if err != nil {
		return nil, err
	}
	token, err := tokens.Token(ctx, oauthConfig, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}
	return oauthConfig.TokenSource(ctx, token), nil
}

// GetValues reads values from a spreadsheet range
func (c *Client) GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}
	return resp.Values, nil
}

// CreateSheet adds a tab to the spreadsheet and returns its sheet id
func (c *Client) CreateSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}
