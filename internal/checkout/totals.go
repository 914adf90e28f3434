package checkout

import (
	"expensecart/internal/cart"
	"expensecart/internal/core"
)

// Pricing holds the shipping and tax rules applied to a cart.
type Pricing struct {
	// ShippingFee is charged unless the subtotal is strictly greater than FreeShippingOver.
	ShippingFee      core.Money
	FreeShippingOver core.Money
	// VATPercent is the share of the total shown as included VAT.
	VATPercent int
}

// DefaultPricing returns a 5.00 flat fee, free above 40.00, 20% VAT.
func DefaultPricing() Pricing {
	return Pricing{
		ShippingFee:      core.Money{Cents: 500},
		FreeShippingOver: core.Money{Cents: 4000},
		VATPercent:       20,
	}
}

// Totals is the arithmetic summary of a cart.
type Totals struct {
	Subtotal     core.Money `json:"subtotal"`
	Shipping     core.Money `json:"shipping"`
	FreeShipping bool       `json:"freeShipping"`
	Total        core.Money `json:"total"`
	VAT          core.Money `json:"vat"`
	Quantity     int        `json:"quantity"`
}

// Compute sums amount × quantity over lines and applies the shipping rule.
func (p Pricing) Compute(lines []cart.Line) Totals {
	var t Totals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Total())
		t.Quantity += l.Quantity
	}
	t.FreeShipping = t.Subtotal.Cents > p.FreeShippingOver.Cents
	if !t.FreeShipping {
		t.Shipping = p.ShippingFee
	}
	t.Total = t.Subtotal.Add(t.Shipping)
	t.VAT = t.Total.Percent(p.VATPercent)
	return t
}
