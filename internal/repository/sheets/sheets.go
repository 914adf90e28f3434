// Package sheets stores expenses as rows of a Google Sheets tab with the
// columns id | description | category | amount | createdAt | updatedAt.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensecart/internal/catalog"
	"expensecart/internal/core"
)

var _ catalog.Repository = (*Client)(nil)

// Header is written to row 1 when the sheet is empty.
var Header = []any{"id", "description", "category", "amount", "createdAt", "updatedAt"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	now           func() time.Time
}

// Credentials holds a service account key, inline or as a file path.
type Credentials struct {
	JSON string
	File string
}

// ClientOption resolves the credentials to a client option, falling back to
// GOOGLE_APPLICATION_CREDENTIALS.
func (c Credentials) ClientOption(ctx context.Context) (goption.ClientOption, error) {
	inline := strings.TrimSpace(c.JSON)
	file := strings.TrimSpace(c.File)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return goption.WithCredentialsJSON([]byte(inline)), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", file, "size", len(data))
		return goption.WithCredentialsJSON(data), nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// New creates a client for the given spreadsheet tab. opts are passed to the
// Sheets service, typically one from Credentials.ClientOption.
func New(ctx context.Context, spreadsheetID, sheet string, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheet == "" {
		sheet = "Expenses"
	}
	opts = append([]goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}, opts...)
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, now: time.Now}, nil
}

func (c *Client) rng(a1 string) string {
	return fmt.Sprintf("'%s'!%s", c.sheet, a1)
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:F")).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheet, err)
	}
	return resp.Values, nil
}

func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(ctx, rows), nil
}

func (c *Client) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	rows, err := c.readRows(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	values := [][]any{toRow(e)}
	next := len(rows) + 1
	if len(rows) == 0 {
		values = [][]any{Header, toRow(e)}
	}
	if err := c.write(ctx, next, values); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// Update rewrites the row holding e.ID, keeping its createdAt.
func (c *Client) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validation failed: %w", err)
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	row := findRow(rows, e.ID)
	if row < 0 {
		return core.Expense{}, fmt.Errorf("update %q: %w", e.ID, catalog.ErrNotFound)
	}
	if stored, err := parseRow(rows[row]); err == nil {
		e.CreatedAt = stored.CreatedAt
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = c.now().UTC()
	}
	if err := c.write(ctx, row+1, [][]any{toRow(e)}); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	row := findRow(rows, id)
	if row < 0 {
		return fmt.Errorf("delete %q: %w", id, catalog.ErrNotFound)
	}
	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row),
			EndIndex:   int64(row + 1),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row+1, c.sheet, err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, firstRow int, values [][]any) error {
	a1 := fmt.Sprintf("A%d:F%d", firstRow, firstRow+len(values)-1)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng(a1), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s in sheet %s: %w", a1, c.sheet, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheet)
}
