package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"expensecart/internal/cart"
	"expensecart/internal/catalog"
	"expensecart/internal/checkout"
	"expensecart/internal/log"
	"expensecart/internal/middleware/ratelimit"
	"expensecart/internal/middleware/security"
	"expensecart/internal/middleware/trace"
	"expensecart/internal/notify"
)

// Deps are the command targets shared by every handler.
type Deps struct {
	Catalog *catalog.Service
	Cart    *cart.Store
	Flow    *checkout.Flow
	// Ready reports backend reachability for /readyz. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
}

type Options struct {
	RateLimitPerMinute int
	ReadHeaderTimeout  time.Duration
}

type Server struct {
	http.Server
	catalog *catalog.Service
	cart    *cart.Store
	flow    *checkout.Flow
	ready   func(ctx context.Context) error
	logger  *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
// Shutdown must be called to stop the rate limiter.
func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}

	s := &Server{
		catalog:  deps.Catalog,
		cart:     deps.Cart,
		flow:     deps.Flow,
		ready:    deps.Ready,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	api.HandleFunc("GET /api/cart", s.handleGetCart)
	api.HandleFunc("DELETE /api/cart", s.handleClearCart)
	api.HandleFunc("POST /api/cart/items", s.handleAddToCart)
	api.HandleFunc("POST /api/cart/items/{id}/increment", s.handleIncrement)
	api.HandleFunc("POST /api/cart/items/{id}/decrement", s.handleDecrement)
	api.HandleFunc("DELETE /api/cart/items/{id}", s.handleRemoveFromCart)
	api.HandleFunc("PUT /api/cart/dialog", s.handleSetDialog)

	api.HandleFunc("GET /api/checkout", s.handleGetCheckout)
	api.HandleFunc("POST /api/checkout/form", s.handleOpenForm)
	api.HandleFunc("POST /api/checkout/shipping", s.handleSubmitShipping)
	api.HandleFunc("PUT /api/checkout/payment", s.handleSelectPayment)
	api.HandleFunc("POST /api/checkout/confirm", s.handleConfirm)
	api.HandleFunc("POST /api/checkout/cancel", s.handleCancel)

	api.HandleFunc("GET /api/confirmation", s.handleGetConfirmation)
	api.HandleFunc("POST /api/confirmation/finish", s.handleFinish)

	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(withNotifications(api)))

	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until Shutdown. ErrServerClosed is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withNotifications gives each command its own notification collector.
func withNotifications(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := notify.WithCollector(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func drain(ctx context.Context) []notify.Notification {
	if c, ok := notify.FromContext(ctx); ok {
		return c.Drain()
	}
	return nil
}

// respond writes data with the notifications raised so far.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	NewResponse().
		Status(status).
		Data(data).
		Notify(drain(r.Context())...).
		Write(w)
}

// fail maps err to a status and writes the error body. Upstream failures are
// logged here; everything else is visible in the access log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Command failed", err, log.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
	}
	NewResponse().
		Fail(status, body).
		Notify(drain(r.Context())...).
		Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewResponse().
		Fail(http.StatusTooManyRequests, ErrorBody{Code: "rate_limited", Message: "rate limit exceeded"}).
		Notify(notify.Notification{Level: notify.Error, Message: "Too many requests. Please try again later."}).
		Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
