// Package memory is an in-process expense repository, optionally seeded from
// a JSON file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensecart/internal/catalog"
	"expensecart/internal/core"
)

var _ catalog.Repository = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	now   func() time.Time
}

// New returns a store holding a copy of seed.
func New(seed []core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...), now: time.Now}
}

// NewFromFile seeds the store from a JSON array of expenses. An empty path
// yields DefaultSeed.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(DefaultSeed()), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed []core.Expense
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for i := range seed {
		if seed[i].ID == "" {
			seed[i].ID = uuid.NewString()
		}
		if err := seed[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return New(seed), nil
}

// DefaultSeed is the catalog served when no seed file is configured.
func DefaultSeed() []core.Expense {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	mk := func(id, desc string, cat core.Category, cents int64) core.Expense {
		return core.Expense{
			ID:          id,
			Description: desc,
			Category:    cat,
			Amount:      core.Money{Cents: cents},
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	}
	return []core.Expense{
		mk("1", "Groceries", core.Food, 4550),
		mk("2", "Monthly bus pass", core.Transport, 3500),
		mk("3", "Electricity bill", core.Utilities, 6200),
		mk("4", "Concert tickets", core.Entertainment, 8000),
		mk("5", "Desk lamp", core.Home, 2599),
		mk("6", "Birthday gift", core.OtherCategory, 1500),
	}
}

func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

func (s *Store) Create(_ context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(e.ID) >= 0 {
		return core.Expense{}, fmt.Errorf("expense %q already exists", e.ID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	s.items = append(s.items, e)
	return e, nil
}

// Update replaces description, category and amount. CreatedAt is kept.
func (s *Store) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("update %q: %w", e.ID, catalog.ErrNotFound)
	}
	e.CreatedAt = s.items[i].CreatedAt
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = s.now().UTC()
	}
	s.items[i] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %q: %w", id, catalog.ErrNotFound)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}
