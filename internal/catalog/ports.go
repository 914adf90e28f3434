package catalog

import (
	"context"
	"errors"

	"expensecart/internal/amqp"
	"expensecart/internal/core"
)

// ErrNotFound is returned by repositories for an unknown expense id.
var ErrNotFound = errors.New("expense not found")

// Ports for outbound adapters.
type (
	// Repository is the expense collection. Create assigns the id when the
	// given expense has none.
	Repository interface {
		List(ctx context.Context) ([]core.Expense, error)
		Create(ctx context.Context, e core.Expense) (core.Expense, error)
		Update(ctx context.Context, e core.Expense) (core.Expense, error)
		Delete(ctx context.Context, id string) error
	}

	EventPublisher interface {
		PublishExpenseEvent(ctx context.Context, ev *amqp.ExpenseEvent) error
	}
)
