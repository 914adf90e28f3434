package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"expensecart/internal/cart"
	"expensecart/internal/catalog"
	"expensecart/internal/checkout"
	"expensecart/internal/log"
	"expensecart/internal/notify"
	"expensecart/internal/repository/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type gatewayFunc func(ctx context.Context, c checkout.Charge) error

func (f gatewayFunc) Authorize(ctx context.Context, c checkout.Charge) error { return f(ctx, c) }

type harness struct {
	t           *testing.T
	srv         *Server
	store       *cart.Store
	failPayment atomic.Bool
	readyErr    error
}

type testEnvelope struct {
	Data          json.RawMessage       `json:"data"`
	Error         *ErrorBody            `json:"error"`
	Notifications []notify.Notification `json:"notifications"`
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := notify.ContextNotifier{Logger: quiet}

	h := &harness{t: t}
	h.store = cart.New(notifier)
	svc := catalog.NewService(memory.New(memory.DefaultSeed()), h.store, notifier)
	gw := gatewayFunc(func(context.Context, checkout.Charge) error {
		if h.failPayment.Load() {
			return checkout.ErrPaymentDeclined
		}
		return nil
	})
	flow := checkout.NewFlow(h.store, gw, checkout.DefaultPricing(), notifier)

	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 10_000
	}
	h.srv = NewServer(":0", Deps{
		Catalog: svc,
		Cart:    h.store,
		Flow:    flow,
		Ready:   func(context.Context) error { return h.readyErr },
		Logger:  log.New(log.Config{Output: io.Discard}),
	}, opts)
	t.Cleanup(func() { _ = h.srv.Shutdown(context.Background()) })
	return h
}

func (h *harness) do(method, path, body string) (*httptest.ResponseRecorder, testEnvelope) {
	h.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rec, req)

	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type cartResponse struct {
	Lines []struct {
		ID        string  `json:"id"`
		Quantity  int     `json:"quantity"`
		LineTotal float64 `json:"lineTotal"`
	} `json:"lines"`
	Totals struct {
		Subtotal     float64 `json:"subtotal"`
		Shipping     float64 `json:"shipping"`
		FreeShipping bool    `json:"freeShipping"`
		Total        float64 `json:"total"`
		VAT          float64 `json:"vat"`
		Quantity     int     `json:"quantity"`
		Display      struct {
			Total    string `json:"total"`
			Shipping string `json:"shipping"`
			Articles string `json:"articles"`
		} `json:"display"`
	} `json:"totals"`
	DialogOpen bool `json:"dialogOpen"`
}

type checkoutResponse struct {
	State      checkout.State  `json:"state"`
	Method     checkout.Method `json:"method"`
	CanConfirm bool            `json:"canConfirm"`
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, Options{})

	rec, _ := h.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = h.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.readyErr = errors.New("backend down")
	rec, _ = h.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	h := newHarness(t, Options{})
	rec, _ := h.do(http.MethodGet, "/api/cart", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))
}

func TestListExpenses(t *testing.T) {
	h := newHarness(t, Options{})

	rec, env := h.do(http.MethodGet, "/api/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeData[struct {
		Expenses   []json.RawMessage `json:"expenses"`
		Categories []string          `json:"categories"`
	}](t, env)
	assert.Len(t, got.Expenses, len(memory.DefaultSeed()))
	assert.Contains(t, got.Categories, "Utilities")
	assert.Empty(t, env.Notifications)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestCreateExpense(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.SetDialogOpen(true)

	rec, env := h.do(http.MethodPost, "/api/expenses", `{"description":"Pizza","category":"Food","amount":15.5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeData[struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}](t, env)
	assert.NotEmpty(t, created.ID)
	assert.InDelta(t, 15.5, created.Amount, 0.001)
	assert.False(t, h.store.DialogOpen())

	require.Len(t, env.Notifications, 1)
	assert.Equal(t, "Expense created successfully", env.Notifications[0].Message)

	var trigger map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
	assert.Equal(t, "success", trigger["show-notification"]["type"])
	assert.Equal(t, "Expense created successfully", trigger["show-notification"]["message"])
}

func TestCreateExpenseFormEncoded(t *testing.T) {
	h := newHarness(t, Options{})

	rec, _ := h.do(http.MethodPost, "/api/expenses", "description=Taxi&category=Transport&amount=12%2C50")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateExpenseValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"amount below range", `{"description":"Gum","category":"Food","amount":5}`, "amount"},
		{"amount missing", `{"description":"Gum","category":"Food"}`, "amount"},
		{"amount not a number", `{"description":"Gum","category":"Food","amount":"abc"}`, "amount"},
		{"blank description", `{"description":"  ","category":"Food","amount":20}`, "description"},
		{"unknown category", `{"description":"Gum","category":"Snacks","amount":20}`, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			rec, env := h.do(http.MethodPost, "/api/expenses", tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, "validation_failed", env.Error.Code)
			assert.Contains(t, env.Error.Fields, tt.field)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t, Options{})
	rec, env := h.do(http.MethodPost, "/api/expenses", `{"description":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "bad_request", env.Error.Code)
}

func TestUpdateMissingExpense(t *testing.T) {
	h := newHarness(t, Options{})
	rec, env := h.do(http.MethodPut, "/api/expenses/nope", `{"description":"Gum","category":"Food","amount":20}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotEmpty(t, env.Notifications)
	assert.Equal(t, notify.Error, env.Notifications[0].Level)
}

func TestCartCommands(t *testing.T) {
	h := newHarness(t, Options{})

	h.do(http.MethodPost, "/api/cart/items", `{"id":"1"}`)
	h.do(http.MethodPost, "/api/cart/items", `{"id":"1"}`)
	rec, env := h.do(http.MethodPost, "/api/cart/items", "id=5")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, `"Desk lamp" added to cart`, env.Notifications[0].Message)

	view := decodeData[cartResponse](t, env)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "1", view.Lines[0].ID)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.InDelta(t, 91.00, view.Lines[0].LineTotal, 0.001)
	assert.InDelta(t, 116.99, view.Totals.Subtotal, 0.001)
	assert.True(t, view.Totals.FreeShipping)
	assert.InDelta(t, 116.99, view.Totals.Total, 0.001)
	assert.InDelta(t, 23.40, view.Totals.VAT, 0.001)
	assert.Equal(t, 3, view.Totals.Quantity)
	assert.Equal(t, "3 Articles", view.Totals.Display.Articles)
	assert.Equal(t, "Free", view.Totals.Display.Shipping)
	assert.Contains(t, view.Totals.Display.Total, "116.99")

	_, env = h.do(http.MethodPost, "/api/cart/items/5/increment", "")
	view = decodeData[cartResponse](t, env)
	assert.Equal(t, 2, view.Lines[1].Quantity)

	for range 3 {
		_, env = h.do(http.MethodPost, "/api/cart/items/5/decrement", "")
	}
	view = decodeData[cartResponse](t, env)
	assert.Equal(t, 1, view.Lines[1].Quantity, "decrement floors at one")

	rec, env = h.do(http.MethodDelete, "/api/cart/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeData[cartResponse](t, env)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Item removed from cart", env.Notifications[0].Message)

	_, env = h.do(http.MethodDelete, "/api/cart", "")
	view = decodeData[cartResponse](t, env)
	assert.Empty(t, view.Lines)
	assert.InDelta(t, 5.00, view.Totals.Total, 0.001, "empty cart still shows shipping")
}

func TestAddUnknownExpenseToCart(t *testing.T) {
	h := newHarness(t, Options{})

	rec, _ := h.do(http.MethodPost, "/api/cart/items", `{"id":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.do(http.MethodPost, "/api/cart/items", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, h.store.Len())
}

func TestSetDialog(t *testing.T) {
	h := newHarness(t, Options{})

	_, env := h.do(http.MethodPut, "/api/cart/dialog", `{"open":true}`)
	assert.True(t, decodeData[cartResponse](t, env).DialogOpen)

	rec, _ := h.do(http.MethodPut, "/api/cart/dialog", `{"open":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteExpenseCascadesToCart(t *testing.T) {
	h := newHarness(t, Options{})
	h.do(http.MethodPost, "/api/cart/items", `{"id":"2"}`)
	h.do(http.MethodPost, "/api/cart/items", `{"id":"3"}`)

	rec, env := h.do(http.MethodDelete, "/api/expenses/2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeData[struct {
		ID   string       `json:"id"`
		Cart cartResponse `json:"cart"`
	}](t, env)
	assert.Equal(t, "2", got.ID)
	require.Len(t, got.Cart.Lines, 1)
	assert.Equal(t, "3", got.Cart.Lines[0].ID)
	assert.Equal(t, "Expense deleted successfully", env.Notifications[len(env.Notifications)-1].Message)

	rec, _ = h.do(http.MethodDelete, "/api/expenses/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutHappyPath(t *testing.T) {
	h := newHarness(t, Options{})
	h.do(http.MethodPost, "/api/cart/items", `{"id":"6"}`)

	rec, env := h.do(http.MethodPost, "/api/checkout/form", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, checkout.FormOpen, decodeData[checkoutResponse](t, env).State)

	rec, env = h.do(http.MethodPost, "/api/checkout/shipping", `{"fullName":"","email":"nope","address":"1 Main St","city":"London","country":"United Kingdom"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]string{
		"fullName": "Full name is required",
		"email":    "Invalid email address",
	}, env.Error.Fields)

	rec, env = h.do(http.MethodPost, "/api/checkout/shipping", `{"fullName":"Ada Lovelace","email":"ada@example.com","address":"1 Main St","city":"London","country":"United Kingdom"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, checkout.AwaitingPaymentChoice, decodeData[checkoutResponse](t, env).State)

	rec, env = h.do(http.MethodPut, "/api/checkout/payment", `{"method":"card","cardNumber":"4242 4242 4242 4242","cardExpiry":"1229","cardCvv":"123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[checkoutResponse](t, env)
	assert.Equal(t, checkout.MethodCard, view.Method)
	assert.True(t, view.CanConfirm)

	rec, env = h.do(http.MethodPost, "/api/checkout/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeData[struct {
		Reference    string `json:"reference"`
		MaskedDetail string `json:"maskedDetail"`
		Totals       struct {
			Total float64 `json:"total"`
		} `json:"totals"`
		Shipping checkout.Submission `json:"shipping"`
	}](t, env)
	assert.NotEmpty(t, summary.Reference)
	assert.Equal(t, "**** **** **** 4242", summary.MaskedDetail)
	assert.InDelta(t, 20.00, summary.Totals.Total, 0.001)
	assert.Equal(t, "Ada Lovelace", summary.Shipping.FullName)
	assert.Equal(t, "Order placed successfully!", env.Notifications[0].Message)

	rec, _ = h.do(http.MethodGet, "/api/confirmation", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = h.do(http.MethodPost, "/api/confirmation/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[cartResponse](t, env).Lines)

	rec, _ = h.do(http.MethodGet, "/api/confirmation", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, env = h.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, checkout.Reviewing, decodeData[checkoutResponse](t, env).State)
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	h := newHarness(t, Options{})

	rec, env := h.do(http.MethodPost, "/api/checkout/form", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "empty_cart", env.Error.Code)
}

func TestCheckoutWrongState(t *testing.T) {
	h := newHarness(t, Options{})

	rec, env := h.do(http.MethodPut, "/api/checkout/payment", `{"method":"cod"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", env.Error.Code)

	rec, env = h.do(http.MethodPut, "/api/checkout/payment", `{"method":"bitcoin"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_payment", env.Error.Code)
}

func advanceToPayment(t *testing.T, h *harness) {
	t.Helper()
	h.do(http.MethodPost, "/api/cart/items", `{"id":"4"}`)
	h.do(http.MethodPost, "/api/checkout/form", "")
	rec, _ := h.do(http.MethodPost, "/api/checkout/shipping", `{"fullName":"Ada","email":"ada@example.com","address":"1 Main St","city":"Rome","country":"Italy"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestConfirmPaymentFailure(t *testing.T) {
	h := newHarness(t, Options{})
	advanceToPayment(t, h)
	h.do(http.MethodPut, "/api/checkout/payment", `{"method":"paypal","paypalEmail":"ada@example.com"}`)
	h.failPayment.Store(true)

	rec, env := h.do(http.MethodPost, "/api/checkout/confirm", "")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Len(t, env.Notifications, 1)
	assert.Equal(t, notify.Notification{Level: notify.Error, Message: "Payment failed. Please try again."}, env.Notifications[0])

	_, env = h.do(http.MethodGet, "/api/checkout", "")
	assert.Equal(t, checkout.AwaitingPaymentChoice, decodeData[checkoutResponse](t, env).State)
	assert.False(t, h.store.Loading())

	h.failPayment.Store(false)
	rec, _ = h.do(http.MethodPost, "/api/checkout/confirm", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfirmIncompletePayment(t *testing.T) {
	h := newHarness(t, Options{})
	advanceToPayment(t, h)
	h.do(http.MethodPut, "/api/checkout/payment", `{"method":"card","cardNumber":"4242"}`)

	rec, env := h.do(http.MethodPost, "/api/checkout/confirm", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_payment", env.Error.Code)
}

func TestCancelCheckout(t *testing.T) {
	h := newHarness(t, Options{})
	advanceToPayment(t, h)

	rec, env := h.do(http.MethodPost, "/api/checkout/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, checkout.Reviewing, decodeData[checkoutResponse](t, env).State)
	assert.Equal(t, 1, h.store.Len(), "cancel keeps the cart")
}

func TestBusyLatchRejectsSubmissions(t *testing.T) {
	h := newHarness(t, Options{})
	release, err := h.store.BeginSubmission()
	require.NoError(t, err)
	defer release()

	rec, env := h.do(http.MethodPost, "/api/expenses", `{"description":"Gum","category":"Food","amount":20}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "busy", env.Error.Code)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, Options{RateLimitPerMinute: 1})

	rec, _ := h.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", env.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("HX-Trigger"))

	rec, _ = h.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health checks are not rate limited")
}
