// Package google publishes reports to a Google spreadsheet, one sheet per
// report title.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
// ServiceAccountJSON wins over ServiceAccountFile.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")

type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *slog.Logger
}

var _ sheets.Publisher = (*Publisher)(nil)

// New creates a Publisher authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, logger), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{svc: svc, spreadsheetID: spreadsheetID, logger: logger}
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, ErrMissingCredentials
	}
}

func (p *Publisher) Name() string { return "google_sheets" }

// Publish writes r into the sheet named after its title, creating the
// sheet when missing and clearing what was there before.
func (p *Publisher) Publish(ctx context.Context, r report.Report) error {
	if p.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := p.ensureSheet(ctx, r.Title); err != nil {
		return err
	}

	rng := sheetRange(r.Title)
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	vr := &gsheet.ValueRange{Values: toValues(r.Table())}
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, sheetRange(r.Title)+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	p.logger.InfoContext(ctx, "Published report to Google Sheets",
		"spreadsheet_id", p.spreadsheetID,
		"sheet", r.Title,
		"rows", len(r.Rows))
	return nil
}

func (p *Publisher) ensureSheet(ctx context.Context, title string) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return nil
}

// sheetRange quotes a sheet title for A1 notation.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toValues(table [][]string) [][]any {
	out := make([][]any, len(table))
	for i, row := range table {
		out[i] = make([]any, len(row))
		for j, v := range row {
			out[i][j] = v
		}
	}
	return out
}
