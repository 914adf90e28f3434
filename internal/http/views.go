package http

import (
	"fmt"

	"expensecart/internal/cart"
	"expensecart/internal/checkout"
	"expensecart/internal/core"
)

type lineView struct {
	cart.Line
	LineTotal core.Money `json:"lineTotal"`
	Display   string     `json:"display"`
}

type totalsDisplay struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
	VAT      string `json:"vat"`
	Articles string `json:"articles"`
}

type totalsView struct {
	checkout.Totals
	Display totalsDisplay `json:"display"`
}

type cartView struct {
	Lines      []lineView `json:"lines"`
	Totals     totalsView `json:"totals"`
	DialogOpen bool       `json:"dialogOpen"`
	Loading    bool       `json:"loading"`
}

type checkoutView struct {
	State      checkout.State       `json:"state"`
	Lines      []lineView           `json:"lines"`
	Totals     totalsView           `json:"totals"`
	Submission *checkout.Submission `json:"submission,omitempty"`
	Method     checkout.Method      `json:"method,omitempty"`
	CanConfirm bool                 `json:"canConfirm"`
	Loading    bool                 `json:"loading"`
	Countries  []core.Country       `json:"countries"`
	Methods    []checkout.Method    `json:"methods"`
}

type expensesView struct {
	Expenses   []core.Expense  `json:"expenses"`
	Categories []core.Category `json:"categories"`
}

type deletedView struct {
	ID   string   `json:"id"`
	Cart cartView `json:"cart"`
}

type confirmationView struct {
	*checkout.OrderSummary
	Totals totalsView `json:"totals"`
	Lines  []lineView `json:"lines"`
}

func articles(n int) string {
	if n == 1 {
		return "1 Article"
	}
	return fmt.Sprintf("%d Articles", n)
}

func newTotalsView(t checkout.Totals) totalsView {
	shipping := t.Shipping.Format()
	if t.FreeShipping {
		shipping = "Free"
	}
	return totalsView{
		Totals: t,
		Display: totalsDisplay{
			Subtotal: t.Subtotal.Format(),
			Shipping: shipping,
			Total:    t.Total.Format(),
			VAT:      t.VAT.Format(),
			Articles: articles(t.Quantity),
		},
	}
}

func newLineViews(lines []cart.Line) []lineView {
	out := make([]lineView, len(lines))
	for i, l := range lines {
		out[i] = lineView{Line: l, LineTotal: l.Total(), Display: l.Total().Format()}
	}
	return out
}

func newCheckoutView(v checkout.View) checkoutView {
	return checkoutView{
		State:      v.State,
		Lines:      newLineViews(v.Lines),
		Totals:     newTotalsView(v.Totals),
		Submission: v.Submission,
		Method:     v.Method,
		CanConfirm: v.CanConfirm,
		Loading:    v.Loading,
		Countries:  core.Countries(),
		Methods:    []checkout.Method{checkout.MethodCard, checkout.MethodPayPal, checkout.MethodCashOnDelivery},
	}
}

func newConfirmationView(s *checkout.OrderSummary) confirmationView {
	return confirmationView{
		OrderSummary: s,
		Totals:       newTotalsView(s.Totals),
		Lines:        newLineViews(s.Lines),
	}
}
