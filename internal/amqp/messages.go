package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expensecart/internal/core"
)

// EventType doubles as the AMQP routing key.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseUpdated EventType = "expense.updated"
	ExpenseDeleted EventType = "expense.deleted"
)

var ErrInvalidEvent = errors.New("invalid expense event")

// ExpenseEvent announces a change to the expense collection. Expense is set
// for created/updated events only.
type ExpenseEvent struct {
	Type      EventType     `json:"type"`
	ID        string        `json:"id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Source    string        `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewExpenseEvent builds a created or updated event carrying e.
func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{Type: t, ID: e.ID, Expense: &e, Timestamp: time.Now()}
}

func NewExpenseDeletedEvent(id string) *ExpenseEvent {
	return &ExpenseEvent{Type: ExpenseDeleted, ID: id, Timestamp: time.Now()}
}

func (m *ExpenseEvent) Validate() error {
	switch m.Type {
	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, string(m.Type))
	}
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	return nil
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
