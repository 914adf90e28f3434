package checkout

import (
	"errors"
	"testing"
)

func TestNormalizeExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"1", "1"},
		{"12", "12"},
		{"122", "12/2"},
		{"1226", "12/26"},
		{"12/26", "12/26"},
		{"12-26", "12/26"},
		{"122699", "12/26"},
		{"ab12cd26", "12/26"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeExpiry(tt.in); got != tt.want {
				t.Errorf("NormalizeExpiry(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPaymentComplete(t *testing.T) {
	tests := []struct {
		name string
		p    Payment
		want bool
	}{
		{"card complete", Card{Number: "4242424242424242", Expiry: "12/26", CVV: "123"}, true},
		{"card missing cvv", Card{Number: "4242424242424242", Expiry: "12/26"}, false},
		{"card missing expiry", Card{Number: "4242424242424242", CVV: "123"}, false},
		{"card blank number", Card{Number: "   ", Expiry: "12/26", CVV: "123"}, false},
		{"paypal with email", PayPal{Email: "a@b.co"}, true},
		{"paypal empty", PayPal{}, false},
		{"cash on delivery", CashOnDelivery{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskedDetail(t *testing.T) {
	tests := []struct {
		name string
		p    Payment
		want string
	}{
		{"card", Card{Number: "4242 4242 4242 1234"}, "**** **** **** 1234"},
		{"short card", Card{Number: "12"}, "**** **** **** 12"},
		{"paypal", PayPal{Email: " me@example.com "}, "me@example.com"},
		{"cod", CashOnDelivery{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.MaskedDetail(); got != tt.want {
				t.Errorf("MaskedDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaymentFields(t *testing.T) {
	p, err := PaymentFields{Method: MethodCard, CardNumber: "4111", CardExpiry: "0128", CardCVV: "1"}.Payment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	card, ok := p.(Card)
	if !ok {
		t.Fatalf("got %T, want Card", p)
	}
	if card.Expiry != "01/28" {
		t.Errorf("expiry = %q, want 01/28", card.Expiry)
	}

	p, err = PaymentFields{Method: MethodCashOnDelivery, CardNumber: "ignored"}.Payment()
	if err != nil || p.Method() != MethodCashOnDelivery {
		t.Errorf("cod: got %v, %v", p, err)
	}

	_, err = PaymentFields{Method: "bitcoin"}.Payment()
	if !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("err = %v, want ErrUnknownMethod", err)
	}
}
