// Package sheets publishes weekly reports into a Google Sheets tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"weekbudget/internal/publish"
	"weekbudget/internal/render"
)

const DefaultSheetName = "Weekly Report"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without year; the report year is prefixed on publish.
	sheetBase string
}

// Ensure interface conformance
var _ publish.Publisher = (*Client)(nil)

// New creates a Sheets publisher using service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Extra options are appended after the
// credentials.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	creds, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}
	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	return NewWithOptions(ctx, spreadsheetID, sheetName, all...)
}

// NewWithOptions creates a Sheets publisher with caller-supplied client
// options only.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetName}, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Name() string { return "sheets" }

// Publish replaces the contents of the year's report tab with p.
func (c *Client) Publish(ctx context.Context, p publish.Publication) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	year := p.GeneratedAt.Year()
	if !p.Report.Week.Start.IsZero() {
		year = p.Report.Week.Start.Year()
	}
	sheet := yearPrefixedName(c.sheetBase, year)

	clearRange := fmt.Sprintf("'%s'!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("'%s'!A1", sheet)
	vr := &gsheet.ValueRange{Values: reportValues(p)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}

	slog.InfoContext(ctx, "Published report to sheet",
		"component", "sheets",
		"sheet", sheet,
		"rows", len(vr.Values),
		"run_id", p.RunID)
	return nil
}

func (c *Client) Close() error { return nil }

// reportValues lays out the headline, the report table, the missing groups and
// the group totals as sheet rows.
func reportValues(p publish.Publication) [][]interface{} {
	var values [][]interface{}
	values = append(values, []interface{}{render.Headline(p.Report.Week)}, []interface{}{})

	values = append(values, headerRow(render.ReportHeaders()))
	for _, r := range p.Report.Rows {
		values = append(values, []interface{}{r.GroupName, r.CategoryName, r.Budgeted, r.Spent, r.Balance, string(r.Cadence)})
	}

	values = append(values, []interface{}{}, []interface{}{render.TotalsSectionLabel})
	values = append(values, headerRow(render.TotalsHeaders()))
	for _, t := range p.Report.Totals {
		values = append(values, []interface{}{t.GroupName, t.Budgeted, t.Spent, t.Balance})
	}

	if len(p.Missing) > 0 {
		values = append(values, []interface{}{}, []interface{}{"missing_groups", strings.Join(p.Missing, ", ")})
	}
	return values
}

func headerRow(h []string) []interface{} {
	row := make([]interface{}, len(h))
	for i, v := range h {
		row[i] = v
	}
	return row
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	if year <= 0 {
		return base
	}
	return fmt.Sprintf("%d %s", year, base)
}
