// Package http exposes the cart, checkout and catalog commands as a JSON
// API. Every response carries the notifications raised while handling the
// command, in the body and as an HX-Trigger show-notification event.
package http

import (
	"encoding/json"
	"net/http"

	"expensecart/internal/notify"
)

// Notification display durations, in milliseconds.
const (
	successDurationMs = 3000
	errorDurationMs   = 5000
)

// ErrorBody describes a failed command.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Data          any                   `json:"data,omitempty"`
	Error         *ErrorBody            `json:"error,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	headers    map[string]string
	envelope   Envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		envelope:   Envelope{Notifications: []notify.Notification{}},
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// Notify appends notifications to the body. The last one is also raised as
// the show-notification trigger.
func (b *ResponseBuilder) Notify(notes ...notify.Notification) *ResponseBuilder {
	if len(notes) == 0 {
		return b
	}
	b.envelope.Notifications = append(b.envelope.Notifications, notes...)
	last := notes[len(notes)-1]
	duration := successDurationMs
	if last.Level == notify.Error || last.Level == notify.Warning {
		duration = errorDurationMs
	}
	return b.Trigger("show-notification", map[string]any{
		"type":     string(last.Level),
		"message":  last.Message,
		"duration": duration,
	})
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the response payload.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.envelope.Data = v
	return b
}

// Fail sets the status and error body.
func (b *ResponseBuilder) Fail(status int, body ErrorBody) *ResponseBuilder {
	b.statusCode = status
	b.envelope.Error = &body
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	payload, err := json.Marshal(b.envelope)
	if err != nil {
		http.Error(w, `{"error":{"code":"internal","message":"encode response"}}`, http.StatusInternalServerError)
		return
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}
