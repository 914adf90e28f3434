// This file parses command payloads. Bodies may be JSON objects or
// form-encoded, so HTMX forms and JSON clients share the same handlers.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensecart/internal/checkout"
	"expensecart/internal/core"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and stores it for parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as a JSON object or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: read body: %v", errBadRequest, p.err)
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return p.err
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Has reports whether key was sent.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetBool accepts JSON booleans and "true"/"false"/"on"/"1" form values.
func (p *RequestBodyParser) GetBool(key string) (bool, error) {
	v := strings.ToLower(p.Get(key))
	switch v {
	case "true", "on", "1":
		return true, nil
	case "false", "off", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s is not a boolean", errBadRequest, key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseBody reads and parses the request body.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseExpenseInput reads description, category and amount. The amount
// accepts "12.34", "12,34" or a JSON number.
func ParseExpenseInput(p *RequestBodyParser) (core.ExpenseInput, error) {
	in := core.ExpenseInput{
		Description: p.Get("description"),
		Category:    core.Category(p.Get("category")),
	}
	raw := p.Get("amount")
	if raw == "" {
		return in, core.ErrInvalidAmount
	}
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return in, err
	}
	in.Amount = core.Money{Cents: cents}
	return in, nil
}

func ParseSubmission(p *RequestBodyParser) checkout.Submission {
	return checkout.Submission{
		FullName: p.Get("fullName"),
		Email:    p.Get("email"),
		Address:  p.Get("address"),
		City:     p.Get("city"),
		Country:  core.Country(p.Get("country")),
	}
}

func ParsePaymentFields(p *RequestBodyParser) checkout.PaymentFields {
	return checkout.PaymentFields{
		Method:      checkout.Method(p.Get("method")),
		CardNumber:  p.Get("cardNumber"),
		CardExpiry:  p.Get("cardExpiry"),
		CardCVV:     p.Get("cardCvv"),
		PayPalEmail: p.Get("paypalEmail"),
	}
}
