package http

import (
	"context"
	"errors"
	"net/http"

	"expensecart/internal/cart"
	"expensecart/internal/catalog"
	"expensecart/internal/checkout"
	"expensecart/internal/core"
)

// Field errors for expense inputs, keyed like the request fields.
var expenseFieldErrors = []struct {
	err   error
	field string
}{
	{core.ErrEmptyDescription, "description"},
	{core.ErrDescriptionLong, "description"},
	{core.ErrInvalidAmount, "amount"},
	{core.ErrAmountOutOfRange, "amount"},
	{core.ErrInvalidCategory, "category"},
	{core.ErrInvalidCountry, "country"},
	{core.ErrEmptyID, "id"},
}

// classify maps a command error to a status and error body.
func classify(err error) (int, ErrorBody) {
	var fieldErrs checkout.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusUnprocessableEntity, ErrorBody{
			Code:    "validation_failed",
			Message: "Please fix the highlighted fields",
			Fields:  fieldErrs,
		}
	}
	for _, fe := range expenseFieldErrors {
		if errors.Is(err, fe.err) {
			return http.StatusUnprocessableEntity, ErrorBody{
				Code:    "validation_failed",
				Message: err.Error(),
				Fields:  map[string]string{fe.field: err.Error()},
			}
		}
	}

	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: err.Error()}
	case errors.Is(err, checkout.ErrUnknownMethod), errors.Is(err, checkout.ErrPaymentIncomplete):
		return http.StatusUnprocessableEntity, ErrorBody{Code: "invalid_payment", Message: err.Error()}
	case errors.Is(err, cart.ErrBusy):
		return http.StatusConflict, ErrorBody{Code: "busy", Message: err.Error()}
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusConflict, ErrorBody{Code: "empty_cart", Message: err.Error()}
	case errors.Is(err, checkout.ErrInvalidTransition):
		return http.StatusConflict, ErrorBody{Code: "invalid_state", Message: err.Error()}
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, checkout.ErrNoConfirmation):
		return http.StatusNotFound, ErrorBody{Code: "not_found", Message: err.Error()}
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return http.StatusPaymentRequired, ErrorBody{Code: "payment_declined", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Code: "timeout", Message: err.Error()}
	default:
		return http.StatusBadGateway, ErrorBody{Code: "upstream_failure", Message: err.Error()}
	}
}
