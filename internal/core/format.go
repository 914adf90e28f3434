package core

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DisplayCurrency is the currency every amount is expressed in.
var DisplayCurrency = currency.EUR

var printer = message.NewPrinter(language.English)

// Format renders m with the currency symbol for display, e.g. "€ 15.00".
func (m Money) Format() string {
	return printer.Sprint(currency.Symbol(DisplayCurrency.Amount(m.Euros())))
}
