package checkout

import (
	"time"

	"expensecart/internal/cart"
)

// OrderSummary describes a placed order. It is handed to the confirmation and
// never stored.
type OrderSummary struct {
	Reference    string      `json:"reference"`
	Method       Method      `json:"method"`
	MaskedDetail string      `json:"maskedDetail,omitempty"`
	Lines        []cart.Line `json:"lines"`
	Totals       Totals      `json:"totals"`
	Shipping     Submission  `json:"shipping"`
	PlacedAt     time.Time   `json:"placedAt"`
}

// Confirmation presents a placed order until the user finishes.
type Confirmation struct {
	Summary *OrderSummary
	flow    *Flow
}

// Finish clears the cart, drops the summary and returns the flow to Reviewing.
func (c *Confirmation) Finish() {
	c.flow.cart.ClearCart()
	c.flow.reset()
}
