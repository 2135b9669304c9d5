package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/export"
)

// Result describes a published report.
type Result struct {
	SpreadsheetID string
	URL           string
	Rows          int
}

// Writer publishes batch reports to a spreadsheet tab.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  common.OrDefault(logger),
	}, nil
}

// Write replaces the configured tab's contents with the report for items. Rows
// follow export.Header.
func (w *Writer) Write(ctx context.Context, items []engine.BatchItem) (Result, error) {
	w.logger.Info("publishing report", "addresses", len(items), "sheet", w.config.SheetTitle)

	spreadsheetID, url, sheetID, err := w.prepareSpreadsheet(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := w.call(ctx, "sheets.clear", func(ctx context.Context) error {
		_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.rangeFor("A:Z"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	}); err != nil {
		return Result{}, fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := reportValues(items)
	if err := w.writeData(ctx, spreadsheetID, values); err != nil {
		return Result{}, fmt.Errorf("failed to write data: %w", err)
	}

	if err := w.applyFormatting(ctx, spreadsheetID, sheetID); err != nil {
		w.logger.Warn("failed to apply formatting", "error", err)
	}

	w.logger.Info("report published", "spreadsheet_id", spreadsheetID, "rows_written", len(values))
	return Result{SpreadsheetID: spreadsheetID, URL: url, Rows: len(values) - 1}, nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	httpClient := config.HTTPClient
	if httpClient == nil {
		ts, err := tokenSource(ctx, config)
		if err != nil {
			return nil, err
		}
		httpClient = oauth2.NewClient(ctx, ts)
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// prepareSpreadsheet opens the configured spreadsheet, or creates one, and makes
// sure the report tab exists.
func (w *Writer) prepareSpreadsheet(ctx context.Context) (id, url string, sheetID int64, err error) {
	if w.config.SpreadsheetID == "" {
		return w.createSpreadsheet(ctx)
	}

	var spreadsheet *sheets.Spreadsheet
	err = w.call(ctx, "sheets.get", func(ctx context.Context) error {
		var getErr error
		spreadsheet, getErr = w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
		return getErr
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == w.config.SheetTitle {
			return spreadsheet.SpreadsheetId, spreadsheet.SpreadsheetUrl, s.Properties.SheetId, nil
		}
	}

	var resp *sheets.BatchUpdateSpreadsheetResponse
	err = w.call(ctx, "sheets.add_sheet", func(ctx context.Context) error {
		var addErr error
		resp, addErr = w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
			}},
		}).Context(ctx).Do()
		return addErr
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return "", "", 0, fmt.Errorf("unable to add sheet %q: empty reply", w.config.SheetTitle)
	}

	w.logger.Info("added sheet", "spreadsheet_id", spreadsheet.SpreadsheetId, "title", w.config.SheetTitle)
	return spreadsheet.SpreadsheetId, spreadsheet.SpreadsheetUrl, resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (w *Writer) createSpreadsheet(ctx context.Context) (string, string, int64, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
		},
	}

	// Not retried: a lost response would create a second spreadsheet.
	created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	var sheetID int64
	if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
		sheetID = created.Sheets[0].Properties.SheetId
	}

	w.logger.Info("created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
	return created.SpreadsheetId, created.SpreadsheetUrl, sheetID, nil
}

func reportValues(items []engine.BatchItem) [][]any {
	rows := export.Rows(items)
	values := make([][]any, 0, len(rows)+1)
	values = append(values, toCells(export.Header))
	for _, row := range rows {
		values = append(values, toCells(row))
	}
	return values
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// writeData writes values in batches. RAW input keeps codes such as "0111" as text.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := &sheets.ValueRange{Values: values[i:end]}
		rangeStr := w.rangeFor(fmt.Sprintf("A%d", i+1))

		err := w.call(ctx, "sheets.write", func(ctx context.Context) error {
			_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, batch).
				ValueInputOption("RAW").
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(len(export.Header)),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(export.Header)),
				},
			},
		},
	}

	return w.call(ctx, "sheets.format", func(ctx context.Context) error {
		_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
		return err
	})
}

// rangeFor qualifies a1 with the quoted sheet title.
func (w *Writer) rangeFor(a1 string) string {
	return "'" + strings.ReplaceAll(w.config.SheetTitle, "'", "''") + "'!" + a1
}

func (w *Writer) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	wrapped := func(ctx context.Context) error { return markRetryable(fn(ctx)) }
	if w.config.Executor == nil {
		return wrapped(ctx)
	}
	return w.config.Executor.Execute(ctx, operation, wrapped)
}

func markRetryable(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		retry := gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
		return &common.RetryableError{Err: err, Retryable: retry}
	}
	return &common.RetryableError{Err: err, Retryable: true}
}
