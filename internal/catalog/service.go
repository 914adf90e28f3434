// Package catalog serves the expense catalog: cached listing plus validated
// create, update and delete against the configured repository.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"expensecart/internal/amqp"
	"expensecart/internal/cache"
	"expensecart/internal/cart"
	"expensecart/internal/core"
	"expensecart/internal/log"
	"expensecart/internal/notify"
)

const listKey = "expenses"

const (
	msgCreated      = "Expense created successfully"
	msgUpdated      = "Expense updated successfully"
	msgDeleted      = "Expense deleted successfully"
	msgSaveFailed   = "Error saving expense"
	msgDeleteFailed = "Error deleting expense"
	msgListFailed   = "Error loading expenses"
	msgNotFound     = "Expense not found"
)

// Service orchestrates expense operations across the repository, the cart
// and the event bus.
type Service struct {
	repo      Repository
	cart      *cart.Store
	notifier  notify.Notifier
	publisher EventPublisher
	cache     cache.Cache[[]core.Expense]
	group     singleflight.Group
	now       func() time.Time

	// gen counts invalidations. A listing fetched across an invalidation is
	// returned to its callers but not cached.
	mu  sync.Mutex
	gen uint64
}

type Option func(*Service)

// WithPublisher enables change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCache replaces the default listing cache.
func WithCache(c cache.Cache[[]core.Expense]) Option {
	return func(s *Service) { s.cache = c }
}

func NewService(repo Repository, store *cart.Store, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		cart:     store,
		notifier: notifier,
		cache:    cache.NewLRUCache[[]core.Expense](1, 30*time.Second),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns all expenses. Concurrent misses share a single repository call.
func (s *Service) List(ctx context.Context) ([]core.Expense, error) {
	if items, ok := s.cache.Get(listKey); ok {
		return clone(items), nil
	}

	v, err, _ := s.group.Do(listKey, func() (any, error) {
		s.mu.Lock()
		gen := s.gen
		s.mu.Unlock()

		items, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if s.gen == gen {
			s.cache.Set(listKey, items)
		}
		s.mu.Unlock()
		return items, nil
	})
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to list expenses", log.FieldOperation, log.OpList, log.FieldError, err)
		notify.SendError(ctx, s.notifier, msgListFailed)
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return clone(v.([]core.Expense)), nil
}

// Get looks an expense up by id through the cached listing.
func (s *Service) Get(ctx context.Context, id string) (core.Expense, error) {
	items, err := s.List(ctx)
	if err != nil {
		return core.Expense{}, err
	}
	for _, e := range items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("get expense %q: %w", id, ErrNotFound)
}

func (s *Service) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	release, err := s.cart.BeginSubmission()
	if err != nil {
		return core.Expense{}, err
	}
	defer release()

	e := in.Apply(core.Expense{}, s.now().UTC())

	created, err := s.repo.Create(ctx, e)
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to create expense", log.NewFields().
			WithExpense("", e.Description, string(e.Category), e.Amount.Cents).
			WithOperation(log.OpCreate).
			WithError(err).
			ToSlice()...)
		notify.SendError(ctx, s.notifier, msgSaveFailed)
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseCreated, created))
	notify.SendSuccess(ctx, s.notifier, msgCreated)
	return created, nil
}

// Update replaces the editable fields of the expense with the given id. The
// stored expense is resolved first so createdAt is sent unchanged; an unknown
// id fails with ErrNotFound. Cart lines keep the values captured when they
// were added.
func (s *Service) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if id == "" {
		return core.Expense{}, core.ErrEmptyID
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}

	release, err := s.cart.BeginSubmission()
	if err != nil {
		return core.Expense{}, err
	}
	defer release()

	current, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			notify.SendError(ctx, s.notifier, msgNotFound)
		}
		return core.Expense{}, err
	}
	e := in.Apply(current, s.now().UTC())

	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to update expense", log.NewFields().
			WithExpense(id, e.Description, string(e.Category), e.Amount.Cents).
			WithOperation(log.OpUpdate).
			WithError(err).
			ToSlice()...)
		notify.SendError(ctx, s.notifier, msgSaveFailed)
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.invalidate()
	s.publish(ctx, amqp.NewExpenseEvent(amqp.ExpenseUpdated, updated))
	notify.SendSuccess(ctx, s.notifier, msgUpdated)
	return updated, nil
}

// Delete removes the expense from the repository and, on success, from the
// cart. Create, Update and Delete hold the cart loading latch and fail with
// cart.ErrBusy while another submission is in flight.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	release, err := s.cart.BeginSubmission()
	if err != nil {
		return err
	}
	defer release()

	if err := s.repo.Delete(ctx, id); err != nil {
		logger(ctx).ErrorContext(ctx, "Failed to delete expense", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete, log.FieldError, err)
		notify.SendError(ctx, s.notifier, msgDeleteFailed)
		return fmt.Errorf("delete expense: %w", err)
	}
	s.invalidate()
	s.cart.RemoveFromCart(ctx, id)
	s.publish(ctx, amqp.NewExpenseDeletedEvent(id))
	notify.SendSuccess(ctx, s.notifier, msgDeleted)
	return nil
}

// HandleEvent applies a change made by another client of the repository.
func (s *Service) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	s.invalidate()
	if ev.Type == amqp.ExpenseDeleted && s.cart.Contains(ev.ID) {
		s.cart.RemoveFromCart(ctx, ev.ID)
		logger(ctx).InfoContext(ctx, "Removed remotely deleted expense from cart", log.FieldExpenseID, ev.ID, "source", ev.Source)
	}
	return nil
}

// Invalidate drops the cached listing.
func (s *Service) Invalidate() {
	s.invalidate()
}

// invalidate drops the cached listing and detaches any in-flight List, so
// later callers fetch again and the stale result is never cached.
func (s *Service) invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Delete(listKey)
	s.mu.Unlock()
	s.group.Forget(listKey)
}

func (s *Service) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		logger(ctx).WithComponent(log.ComponentAMQP).ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type, log.FieldExpenseID, ev.ID, log.FieldError, err)
	}
}

func logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentCatalog)
}

func clone(items []core.Expense) []core.Expense {
	out := make([]core.Expense, len(items))
	copy(out, items)
	return out
}
