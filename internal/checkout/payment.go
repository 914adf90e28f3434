package checkout

import (
	"fmt"
	"strings"
	"unicode"
)

// Method identifies a payment variant.
type Method string

const (
	MethodCard           Method = "card"
	MethodPayPal         Method = "paypal"
	MethodCashOnDelivery Method = "cod"
)

// Payment is one of Card, PayPal or CashOnDelivery.
type Payment interface {
	Method() Method
	// Complete reports whether every field the variant requires is present.
	Complete() bool
	// MaskedDetail is what the confirmation may show about the payment.
	MaskedDetail() string
}

type Card struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type PayPal struct {
	Email string `json:"email"`
}

type CashOnDelivery struct{}

func (Card) Method() Method           { return MethodCard }
func (PayPal) Method() Method         { return MethodPayPal }
func (CashOnDelivery) Method() Method { return MethodCashOnDelivery }

func (c Card) Complete() bool {
	return strings.TrimSpace(c.Number) != "" &&
		strings.TrimSpace(c.Expiry) != "" &&
		strings.TrimSpace(c.CVV) != ""
}

func (p PayPal) Complete() bool { return strings.TrimSpace(p.Email) != "" }

func (CashOnDelivery) Complete() bool { return true }

// MaskedDetail keeps only the last four digits of the card number.
func (c Card) MaskedDetail() string {
	digits := onlyDigits(c.Number)
	if digits == "" {
		return ""
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return "**** **** **** " + digits
}

func (p PayPal) MaskedDetail() string { return strings.TrimSpace(p.Email) }

func (CashOnDelivery) MaskedDetail() string { return "" }

// PaymentFields is the flat form representation of every variant's inputs.
type PaymentFields struct {
	Method      Method `json:"method"`
	CardNumber  string `json:"cardNumber,omitempty"`
	CardExpiry  string `json:"cardExpiry,omitempty"`
	CardCVV     string `json:"cardCvv,omitempty"`
	PayPalEmail string `json:"paypalEmail,omitempty"`
}

// Payment builds the variant named by f.Method. Fields that belong to other
// variants are ignored.
func (f PaymentFields) Payment() (Payment, error) {
	switch f.Method {
	case MethodCard:
		return Card{Number: f.CardNumber, Expiry: NormalizeExpiry(f.CardExpiry), CVV: f.CardCVV}, nil
	case MethodPayPal:
		return PayPal{Email: f.PayPalEmail}, nil
	case MethodCashOnDelivery:
		return CashOnDelivery{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(f.Method))
	}
}

// NormalizeExpiry strips non-digits and inserts the slash after the month,
// so "1226", "12/26" and "12-26" all become "12/26".
func NormalizeExpiry(raw string) string {
	d := onlyDigits(raw)
	if len(d) > 4 {
		d = d[:4]
	}
	if len(d) >= 3 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
