// Package cart holds the in-memory cart state: ordered cart lines keyed by
// expense identity plus the transient UI flags (entry dialog, loading latch).
package cart

import (
	"context"
	"errors"
	"sync"

	"expensecart/internal/core"
	"expensecart/internal/notify"
)

// ErrBusy is returned by BeginSubmission while another submission is in flight.
var ErrBusy = errors.New("another submission is in progress")

// Line is an expense plus the quantity held in the cart. Quantity is never
// below 1.
type Line struct {
	core.Expense
	Quantity int `json:"quantity"`
}

// Total returns amount × quantity.
func (l Line) Total() core.Money {
	return l.Amount.Mul(l.Quantity)
}

// Store is the cart state container. The zero value is not usable; call New.
type Store struct {
	mu         sync.Mutex
	lines      []Line
	dialogOpen bool
	loading    bool
	notifier   notify.Notifier
}

// New returns an empty store. A nil notifier disables notifications.
func New(notifier notify.Notifier) *Store {
	return &Store{notifier: notifier}
}

func (s *Store) indexOf(id string) int {
	for i := range s.lines {
		if s.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// AddToCart increments the quantity of the line for e.ID, or appends a new
// line with quantity 1.
func (s *Store) AddToCart(ctx context.Context, e core.Expense) {
	s.mu.Lock()
	if i := s.indexOf(e.ID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, Line{Expense: e, Quantity: 1})
	}
	s.mu.Unlock()

	notify.SendSuccess(ctx, s.notifier, `"`+e.Description+`" added to cart`)
}

// IncrementQuantity adds one to the line quantity. No-op if the line is absent.
func (s *Store) IncrementQuantity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.lines[i].Quantity++
	}
}

// DecrementQuantity removes one from the line quantity, flooring at 1.
func (s *Store) DecrementQuantity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.lines[i].Quantity = max(1, s.lines[i].Quantity-1)
	}
}

// RemoveFromCart deletes the line for id and reports whether one existed.
func (s *Store) RemoveFromCart(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	s.mu.Unlock()

	notify.SendSuccess(ctx, s.notifier, "Item removed from cart")
	return i >= 0
}

// ClearCart empties the cart.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a snapshot of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Line returns the line for id.
func (s *Store) Line(id string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

func (s *Store) Contains(id string) bool {
	_, ok := s.Line(id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// SetLoading sets the loading latch.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// BeginSubmission sets the loading latch unless it is already set, in which
// case it returns ErrBusy. The returned func clears the latch.
func (s *Store) BeginSubmission() (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return nil, ErrBusy
	}
	s.loading = true
	var once sync.Once
	return func() { once.Do(func() { s.SetLoading(false) }) }, nil
}

// SetDialogOpen toggles the expense entry dialog flag.
func (s *Store) SetDialogOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogOpen = open
}

func (s *Store) DialogOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogOpen
}
