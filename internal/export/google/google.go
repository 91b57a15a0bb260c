package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"paysched/internal/core"
	ports "paysched/internal/export"
	"paysched/internal/schedule"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without the month (e.g. "Schedule"); code prefixes
	// the month, so each export month lands on its own sheet.
	sheetBase string
}

// Ensure interface conformance
var _ ports.ScheduleExporter = (*Client)(nil)

// NewFromEnv creates a Sheets exporter using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Schedule").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetBase == "" {
		sheetBase = "Schedule"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetBase,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// ExportMonthlyView rewrites the sheet for the view's month. The sheet is
// cleared first so that re-exports replace stale rows instead of appending.
func (c *Client) ExportMonthlyView(ctx context.Context, view schedule.MonthlyView) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName := monthSheetName(c.sheetBase, view.Year, view.Month)
	clearRange := fmt.Sprintf("%s!A:E", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := viewRows(view)
	writeRange := fmt.Sprintf("%s!A1:E%d", sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Exported monthly view",
		"year", view.Year,
		"month", view.Month,
		"entries", len(view.Entries),
		"range", writeRange)

	return writeRange, nil
}

// viewRows flattens a monthly view into sheet rows: a header, one row per
// withdrawal entry, then per-bank subtotals and the month total.
func viewRows(view schedule.MonthlyView) [][]any {
	values := [][]any{
		{"Withdrawal Date", "Payer", "Bank", "Items", "Amount"},
	}
	for _, e := range view.Entries {
		values = append(values, []any{
			e.Date.String(),
			e.PayerLabel,
			e.BankName,
			len(e.Transactions),
			e.Total.Amount,
		})
	}
	values = append(values, []any{"", "", "", "", ""})
	for _, bankID := range sortedBankIDs(view.BankTotals) {
		values = append(values, []any{
			"", "", bankID, "subtotal", view.BankTotals[bankID].Amount,
		})
	}
	values = append(values, []any{
		"", "", "", "total", view.MonthTotal.Amount,
	})
	return values
}

func sortedBankIDs(totals map[string]core.Money) []string {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// monthSheetName returns "<year>-<month> <base>", e.g. "2025-03 Schedule".
func monthSheetName(base string, year, month int) string {
	return fmt.Sprintf("%d-%02d %s", year, month, strings.TrimSpace(base))
}
