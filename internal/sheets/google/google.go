// Package google mirrors ledger tables into a Google Sheets spreadsheet, one
// worksheet per collection.
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

	"fintrack/internal/export"
	ports "fintrack/internal/sheets"
)

// Ensure interface conformance
var _ ports.TableWriter = (*Client)(nil)

// Credentials selects the service account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewFromEnv reads GOOGLE_SPREADSHEET_ID and the service account from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	creds := Credentials{
		JSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		File: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if strings.TrimSpace(creds.JSON) == "" && strings.TrimSpace(creds.File) == "" {
		creds.File = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return New(ctx, os.Getenv("GOOGLE_SPREADSHEET_ID"), creds)
}

func credentialsJSON(creds Credentials) ([]byte, error) {
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		return []byte(strings.TrimSpace(creds.JSON)), nil
	case strings.TrimSpace(creds.File) != "":
		data, err := os.ReadFile(strings.TrimSpace(creds.File))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	data, err := credentialsJSON(creds)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "Creating Google Sheets service",
		"component", "sheets",
		"credentials_size", len(data),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(data),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteTable clears the worksheet named t.Name, creating it if needed, and
// writes the header and rows from A1. It returns the written range.
func (c *Client) WriteTable(ctx context.Context, t export.Table) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, t.Name); err != nil {
		return "", err
	}

	sheet := quoteSheet(t.Name)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", t.Name, err)
	}

	values := tableValues(t)
	ref := fmt.Sprintf("%s!A1:%s%d", sheet, columnName(len(t.Header)), len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update sheet %s: %w", t.Name, err)
	}
	return ref, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
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
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

// tableValues flattens t into the row-major form the Values API expects.
func tableValues(t export.Table) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range t.Rows {
		vals := make([]any, len(row))
		for i, cell := range row {
			if cell.Value != nil {
				vals[i] = cell.Value
			} else {
				vals[i] = cell.Text
			}
		}
		out = append(out, vals)
	}
	return out
}

// quoteSheet returns title in A1 notation form, quoted when it is not a
// plain identifier.
func quoteSheet(title string) string {
	for _, r := range title {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(title, "'", "''") + "'"
		}
	}
	return title
}

// columnName converts a 1-based column index to its letter form.
func columnName(n int) string {
	if n < 1 {
		return "A"
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
