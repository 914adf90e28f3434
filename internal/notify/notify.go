// Package notify carries transient user-facing notifications ("toasts")
// from command handlers back to whoever issued the command.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level represents the type of notification to display.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Warning Level = "warning"
	Info    Level = "info"
)

// Notification is a single transient message.
type Notification struct {
	Level   Level  `json:"type"`
	Message string `json:"message"`
}

// Notifier receives notifications raised while handling a command.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Collector accumulates the notifications raised during one command.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// Add appends a notification.
func (c *Collector) Add(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Drain returns the collected notifications and resets the collector.
func (c *Collector) Drain() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items
	c.items = nil
	return out
}

type collectorKey struct{}

// WithCollector returns a context carrying a fresh Collector.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// FromContext returns the Collector stored in ctx, if any.
func FromContext(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

// ContextNotifier routes notifications to the Collector found in the context
// and logs them. Notifications raised outside a command are only logged.
type ContextNotifier struct {
	Logger *slog.Logger
}

func (n ContextNotifier) Notify(ctx context.Context, note Notification) {
	if c, ok := FromContext(ctx); ok {
		c.Add(note)
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if note.Level == Error {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "Notification raised", "type", string(note.Level), "message", note.Message)
}

// SendSuccess and SendError raise a notification with a fixed message. The
// message is used as-is. Success and Error are taken by the levels.
func SendSuccess(ctx context.Context, n Notifier, msg string) {
	if n != nil {
		n.Notify(ctx, Notification{Level: Success, Message: msg})
	}
}

func SendError(ctx context.Context, n Notifier, msg string) {
	if n != nil {
		n.Notify(ctx, Notification{Level: Error, Message: msg})
	}
}
