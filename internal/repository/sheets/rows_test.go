package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"expensecart/internal/core"
)

func TestParseRows(t *testing.T) {
	rows := [][]any{
		{"id", "description", "category", "amount", "createdAt", "updatedAt"},
		{"a1", "Pizza", "Food", "12.50", "2024-02-01T10:00:00Z", "2024-02-02T10:00:00Z"},
		{},
		{"", "", "", ""},
		{"a2", "Train", "Transport", 30.0},
		{"a3", "Broken", "Food", "abc"},
		{"a4", "Pets", "Pets", "10"},
		{"a5", "  Lamp  ", "Home", "25,99", "not a time"},
	}

	got := parseRows(context.Background(), rows)
	if len(got) != 3 {
		t.Fatalf("parseRows returned %d rows, want 3: %+v", len(got), got)
	}
	if got[0].ID != "a1" || got[0].Amount.Cents != 1250 || got[0].Category != core.Food {
		t.Errorf("row a1 = %+v", got[0])
	}
	want := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	if !got[0].CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", got[0].CreatedAt, want)
	}
	if got[1].ID != "a2" || got[1].Amount.Cents != 3000 {
		t.Errorf("row a2 = %+v", got[1])
	}
	if got[2].Description != "Lamp" || got[2].Amount.Cents != 2599 || !got[2].CreatedAt.IsZero() {
		t.Errorf("row a5 = %+v", got[2])
	}
}

func TestToRowRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	e := core.Expense{ID: "x", Description: "Cinema", Category: core.Entertainment, Amount: core.Money{Cents: 1505}, CreatedAt: ts, UpdatedAt: ts}

	row := toRow(e)
	if row[3] != "15.05" {
		t.Errorf("amount cell = %v, want 15.05", row[3])
	}
	back, err := parseRow(row)
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if diff := cmp.Diff(e, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFindRow(t *testing.T) {
	rows := [][]any{
		{"id", "description"},
		{"a"},
		{"b"},
	}
	tests := []struct {
		id   string
		want int
	}{
		{"a", 1},
		{"b", 2},
		{"id", -1},
		{"zzz", -1},
	}
	for _, tt := range tests {
		if got := findRow(rows, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
