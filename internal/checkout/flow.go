// Package checkout implements the checkout state machine: shipping form,
// payment selection, simulated payment and the one-shot order confirmation.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensecart/internal/cart"
	"expensecart/internal/log"
	"expensecart/internal/notify"
)

type State string

const (
	Reviewing             State = "reviewing"
	FormOpen              State = "form_open"
	AwaitingPaymentChoice State = "awaiting_payment_choice"
	Confirming            State = "confirming"
	Done                  State = "done"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrPaymentIncomplete = errors.New("payment details incomplete")
	ErrUnknownMethod     = errors.New("unknown payment method")
	ErrNoConfirmation    = errors.New("no order to confirm")
)

const (
	msgOrderPlaced   = "Order placed successfully!"
	msgPaymentFailed = "Payment failed. Please try again."
)

// Flow drives a single checkout. It reads the cart store and owns the
// submission, the selected payment and the resulting order summary.
type Flow struct {
	mu         sync.Mutex
	state      State
	submission *Submission
	payment    Payment
	summary    *OrderSummary

	cart     *cart.Store
	gateway  Gateway
	pricing  Pricing
	notifier notify.Notifier
	now      func() time.Time
}

// NewFlow returns a flow in the Reviewing state.
func NewFlow(store *cart.Store, gateway Gateway, pricing Pricing, notifier notify.Notifier) *Flow {
	return &Flow{
		state:    Reviewing,
		cart:     store,
		gateway:  gateway,
		pricing:  pricing,
		notifier: notifier,
		now:      time.Now,
	}
}

// View is a read-only snapshot of the flow used by the HTTP layer.
type View struct {
	State      State       `json:"state"`
	Lines      []cart.Line `json:"lines"`
	Totals     Totals      `json:"totals"`
	Submission *Submission `json:"submission,omitempty"`
	Method     Method      `json:"method,omitempty"`
	CanConfirm bool        `json:"canConfirm"`
	Loading    bool        `json:"loading"`
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Totals computes the totals of the current cart.
func (f *Flow) Totals() Totals {
	return f.pricing.Compute(f.cart.Lines())
}

func (f *Flow) Snapshot() View {
	lines := f.cart.Lines()
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		State:      f.state,
		Lines:      lines,
		Totals:     f.pricing.Compute(lines),
		CanConfirm: f.canConfirmLocked(),
		Loading:    f.cart.Loading(),
	}
	if f.submission != nil {
		s := *f.submission
		v.Submission = &s
	}
	if f.payment != nil {
		v.Method = f.payment.Method()
	}
	return v
}

func (f *Flow) transitionErr(op string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, f.state)
}

// OpenForm moves Reviewing to FormOpen. Re-opening an open form is a no-op.
func (f *Flow) OpenForm() error {
	if f.cart.Len() == 0 {
		return ErrEmptyCart
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Reviewing:
		f.state = FormOpen
		return nil
	case FormOpen:
		return nil
	default:
		return f.transitionErr("open form")
	}
}

// SubmitForm validates sub and, when valid, records it and moves to
// AwaitingPaymentChoice. Invalid submissions leave the state unchanged and
// return ValidationErrors. Like Confirm it holds the cart loading latch and
// fails with cart.ErrBusy while another submission is in flight.
func (f *Flow) SubmitForm(sub Submission) error {
	release, err := f.cart.BeginSubmission()
	if err != nil {
		return err
	}
	defer release()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FormOpen && f.state != AwaitingPaymentChoice {
		return f.transitionErr("submit form")
	}
	if err := sub.Validate(); err != nil {
		return err
	}
	s := sub.Normalize()
	f.submission = &s
	f.state = AwaitingPaymentChoice
	return nil
}

// SelectPayment records the chosen payment variant.
func (f *Flow) SelectPayment(p Payment) error {
	if p == nil {
		return ErrUnknownMethod
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != AwaitingPaymentChoice {
		return f.transitionErr("select payment")
	}
	f.payment = p
	return nil
}

// CanConfirm reports whether a payment is selected and complete.
func (f *Flow) CanConfirm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canConfirmLocked()
}

func (f *Flow) canConfirmLocked() bool {
	return f.state == AwaitingPaymentChoice && f.payment != nil && f.payment.Complete()
}

// Confirm charges the cart total through the gateway. It holds the cart
// loading latch for the duration of the call.
func (f *Flow) Confirm(ctx context.Context) (OrderSummary, error) {
	release, err := f.cart.BeginSubmission()
	if err != nil {
		return OrderSummary{}, err
	}
	defer release()

	lines := f.cart.Lines()
	if len(lines) == 0 {
		return OrderSummary{}, ErrEmptyCart
	}

	f.mu.Lock()
	if f.state != AwaitingPaymentChoice {
		err := f.transitionErr("confirm")
		f.mu.Unlock()
		return OrderSummary{}, err
	}
	if f.payment == nil || !f.payment.Complete() {
		f.mu.Unlock()
		return OrderSummary{}, ErrPaymentIncomplete
	}
	f.state = Confirming
	payment := f.payment
	submission := *f.submission
	f.mu.Unlock()

	totals := f.pricing.Compute(lines)
	ref := uuid.NewString()
	charge := Charge{Reference: ref, Amount: totals.Total, Method: payment.Method()}

	if err := f.gateway.Authorize(ctx, charge); err != nil {
		f.mu.Lock()
		if f.state == Confirming {
			f.state = AwaitingPaymentChoice
		}
		f.mu.Unlock()
		log.FromContext(ctx).WithComponent(log.ComponentCheckout).WarnContext(ctx, "Payment failed", log.NewFields().
			WithOrder(ref, string(charge.Method), charge.Amount.Cents).
			WithOperation(log.OpConfirm).
			WithError(err).
			ToSlice()...)
		notify.SendError(ctx, f.notifier, msgPaymentFailed)
		return OrderSummary{}, fmt.Errorf("authorize payment: %w", err)
	}

	summary := OrderSummary{
		Reference:    ref,
		Method:       payment.Method(),
		MaskedDetail: payment.MaskedDetail(),
		Lines:        lines,
		Totals:       totals,
		Shipping:     submission,
		PlacedAt:     f.now(),
	}

	f.mu.Lock()
	f.summary = &summary
	f.submission = nil
	f.payment = nil
	f.state = Done
	f.mu.Unlock()

	log.FromContext(ctx).WithComponent(log.ComponentCheckout).InfoContext(ctx, "Order placed",
		append(log.NewFields().WithOrder(ref, string(summary.Method), totals.Total.Cents).ToSlice(),
			log.FieldQuantity, totals.Quantity)...)
	notify.SendSuccess(ctx, f.notifier, msgOrderPlaced)
	return summary, nil
}

// Cancel abandons the checkout from FormOpen or AwaitingPaymentChoice,
// discarding the submission and payment. Cancelling while Reviewing is a no-op.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Reviewing:
		return nil
	case FormOpen, AwaitingPaymentChoice:
		f.state = Reviewing
		f.submission = nil
		f.payment = nil
		return nil
	default:
		return f.transitionErr("cancel")
	}
}

// Confirmation returns the order confirmation, or ErrNoConfirmation when no
// order has been placed since the last Finish.
func (f *Flow) Confirmation() (*Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Done || f.summary == nil {
		return nil, ErrNoConfirmation
	}
	return &Confirmation{Summary: f.summary, flow: f}, nil
}

func (f *Flow) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Reviewing
	f.summary = nil
	f.submission = nil
	f.payment = nil
}
