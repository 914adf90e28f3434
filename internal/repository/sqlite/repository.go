// Package sqlite stores expenses in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"expensecart/internal/catalog"
	"expensecart/internal/core"
)

var _ catalog.Repository = (*Repository)(nil)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens dbPath, creating its directory, and applies migrations.
func New(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectColumns = `SELECT id, description, category, amount_cents, created_at, updated_at FROM expenses`

func (r *Repository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) get(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get %q: %w", id, catalog.ErrNotFound)
	}
	return e, err
}

func (r *Repository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, description, category, amount_cents, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, string(e.Category), e.Amount.Cents, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

// Update rewrites description, category, amount and updated_at. created_at is
// never changed.
func (r *Repository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = r.now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET description = ?, category = ?, amount_cents = ?, updated_at = ? WHERE id = ?`,
		e.Description, string(e.Category), e.Amount.Cents, formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Expense{}, fmt.Errorf("update %q: %w", e.ID, catalog.ErrNotFound)
	}
	return r.get(ctx, e.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete %q: %w", id, catalog.ErrNotFound)
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                core.Expense
		category         string
		created, updated string
	)
	if err := s.Scan(&e.ID, &e.Description, &category, &e.Amount.Cents, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Category = core.Category(category)
	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Expense{}, fmt.Errorf("expense %s updated_at: %w", e.ID, err)
	}
	return e, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
