package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Home          Category = "Home"
	OtherCategory Category = "Other"
)

const (
	Italy         Country = "Italy"
	UnitedStates  Country = "United States"
	Canada        Country = "Canada"
	UnitedKingdom Country = "United Kingdom"
	Australia     Country = "Australia"
	OtherCountry  Country = "Other"
)

// Bounds enforced on expenses entered through the catalog form.
const (
	MinExpenseCents = 1000
	MaxExpenseCents = 10000

	MaxDescriptionLen = 200
)

type (
	Category string

	Country string

	Money struct {
		Cents int64
	}

	// Expense is a single recorded cost item. ID is assigned by the repository.
	Expense struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Category    Category  `json:"category"`
		Amount      Money     `json:"amount"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// ExpenseInput carries the user-editable fields of an expense.
	ExpenseInput struct {
		Description string   `json:"description"`
		Category    Category `json:"category"`
		Amount      Money    `json:"amount"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidCountry   = errors.New("invalid country")
	ErrEmptyID          = errors.New("empty expense id")
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Food, Transport, Utilities, Entertainment, Home, OtherCategory}
}

// Countries lists the countries accepted by the shipping form.
func Countries() []Country {
	return []Country{Italy, UnitedStates, Canada, UnitedKingdom, Australia, OtherCountry}
}

func (c Category) Validate() error {
	for _, v := range Categories() {
		if c == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, string(c))
}

func (c Country) Validate() error {
	for _, v := range Countries() {
		if c == v {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCountry, string(c))
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a stored expense. Amounts only need to be non-negative here;
// the form bounds apply to ExpenseInput.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	return e.Amount.Validate()
}

func (in ExpenseInput) Validate() error {
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w (max %d characters)", ErrDescriptionLong, MaxDescriptionLen)
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Amount.Cents < MinExpenseCents || in.Amount.Cents > MaxExpenseCents {
		return fmt.Errorf("%w: must be between %s and %s", ErrAmountOutOfRange,
			Money{Cents: MinExpenseCents}, Money{Cents: MaxExpenseCents})
	}
	return in.Category.Validate()
}

// Apply copies the input fields onto e and stamps UpdatedAt. CreatedAt is set
// only when e has none yet.
func (in ExpenseInput) Apply(e Expense, now time.Time) Expense {
	e.Description = strings.TrimSpace(in.Description)
	e.Category = in.Category
	e.Amount = in.Amount
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return e
}
