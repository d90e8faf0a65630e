package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sku-generator/config"
	"sku-generator/logger"
	"sku-generator/models"
)

// SuffixTracker is the append-only log of SKU suffixes already listed.
type SuffixTracker interface {
	List(ctx context.Context) ([]models.SuffixRecord, error)
	Append(ctx context.Context, rec models.SuffixRecord) error
}

// SheetsTracker keeps the suffix log in a Google Sheet with the columns
// suffix, lister, ISO timestamp and a header row.
type SheetsTracker struct {
	client        *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *zap.Logger
}

var _ SuffixTracker = (*SheetsTracker)(nil)

// NewSheetsTracker creates a tracker over the configured sheet.
func NewSheetsTracker(ctx context.Context, drive config.DriveConfig, cfg config.TrackerConfig, log *zap.Logger, opts ...option.ClientOption) (*SheetsTracker, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required for the sheets tracker")
	}
	if len(opts) == 0 {
		opts = append(GoogleClientOptions(drive), option.WithScopes(sheets.SpreadsheetsScope))
	}
	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsTracker{
		client:        client,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		logger:        logger.OrNop(log),
	}, nil
}

func (t *SheetsTracker) sheetRange() string {
	return fmt.Sprintf("'%s'!A:C", strings.ReplaceAll(t.sheetName, "'", "''"))
}

// List returns every recorded suffix, skipping the header row.
func (t *SheetsTracker) List(ctx context.Context) ([]models.SuffixRecord, error) {
	resp, err := t.client.Spreadsheets.Values.Get(t.spreadsheetID, t.sheetRange()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read suffix sheet: %w", err)
	}
	return parseSuffixRows(resp.Values), nil
}

// Append adds one row to the sheet.
func (t *SheetsTracker) Append(ctx context.Context, rec models.SuffixRecord) error {
	row := &sheets.ValueRange{Values: [][]interface{}{{
		strings.ToUpper(strings.TrimSpace(rec.Suffix)),
		rec.Lister,
		rec.RecordedAt.Format(time.RFC3339),
	}}}
	_, err := t.client.Spreadsheets.Values.Append(t.spreadsheetID, t.sheetRange(), row).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append suffix %s: %w", rec.Suffix, err)
	}
	t.logger.Info("📝 Suffix recorded", zap.String("suffix", rec.Suffix), zap.String("lister", rec.Lister))
	return nil
}

// parseSuffixRows converts sheet values into records. The first row is the
// header; rows with a blank suffix are dropped and unparsable times are left
// zero.
func parseSuffixRows(values [][]interface{}) []models.SuffixRecord {
	var out []models.SuffixRecord
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		suffix := strings.ToUpper(strings.TrimSpace(cell(row, 0)))
		if suffix == "" {
			continue
		}
		out = append(out, models.SuffixRecord{
			Suffix:     suffix,
			Lister:     strings.TrimSpace(cell(row, 1)),
			RecordedAt: parseRecordedAt(cell(row, 2)),
		})
	}
	return out
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return fmt.Sprint(row[i])
}

var recordedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseRecordedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range recordedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
