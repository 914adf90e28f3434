package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expensecart/internal/core"
)

func toRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.Description,
		string(e.Category),
		e.Amount.String(),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// parseRows skips the header, blank rows and rows that fail to parse.
func parseRows(ctx context.Context, rows [][]any) []core.Expense {
	out := make([]core.Expense, 0, len(rows))
	for i, row := range rows {
		if isHeader(row) || isBlank(row) {
			continue
		}
		e, err := parseRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed expense row", "row", i+1, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

func parseRow(row []any) (core.Expense, error) {
	cells := toStrings(row)
	e := core.Expense{
		ID:          safeGet(cells, 0),
		Description: safeGet(cells, 1),
		Category:    core.Category(safeGet(cells, 2)),
	}
	cents, err := core.ParseDecimalToCents(safeGet(cells, 3))
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", safeGet(cells, 3), err)
	}
	e.Amount = core.Money{Cents: cents}
	e.CreatedAt = parseTime(safeGet(cells, 4))
	e.UpdatedAt = parseTime(safeGet(cells, 5))
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// findRow returns the zero-based index of the row whose first cell is id.
func findRow(rows [][]any, id string) int {
	for i, row := range rows {
		if isHeader(row) {
			continue
		}
		if cells := toStrings(row); safeGet(cells, 0) == id {
			return i
		}
	}
	return -1
}

func isHeader(row []any) bool {
	cells := toStrings(row)
	return strings.EqualFold(safeGet(cells, 0), "id") && strings.EqualFold(safeGet(cells, 1), "description")
}

func isBlank(row []any) bool {
	for _, c := range toStrings(row) {
		if c != "" {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case string:
			out[i] = strings.TrimSpace(x)
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case nil:
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(x))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseTime accepts RFC 3339; anything else yields the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
