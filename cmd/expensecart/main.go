package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"expensecart/internal/amqp"
	"expensecart/internal/backend"
	"expensecart/internal/cache"
	"expensecart/internal/cart"
	"expensecart/internal/catalog"
	"expensecart/internal/checkout"
	"expensecart/internal/cli"
	"expensecart/internal/core"
	apphttp "expensecart/internal/http"
	"expensecart/internal/log"
	"expensecart/internal/notify"
)

const (
	shutdownTimeout    = 30 * time.Second
	cacheSweepInterval = time.Minute
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		// The logger is not configured yet.
		os.Stderr.WriteString(err.Error() + "\n")
	}

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, backendCfg.Type.String(), log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Backend ready", log.FieldBackend, res.Type.String(), log.FieldOperation, log.OpStartup)

	notifier := notify.ContextNotifier{Logger: logger.WithComponent(log.ComponentApp).Slog()}
	store := cart.New(notifier)

	listing := cache.NewLRUCache[[]core.Expense](1, cfg.CatalogCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	cacheManager.Register(listing)
	cacheManager.Start(ctx, cacheSweepInterval)

	opts := []catalog.Option{catalog.WithCache(listing)}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, uuid.NewString())
		if err != nil {
			// Events are optional; the cart works without them.
			logger.Warn("AMQP unavailable, running without change events", log.FieldError, err)
			events = nil
		} else {
			opts = append(opts, catalog.WithPublisher(events))
		}
	}

	svc := catalog.NewService(res.Repository, store, notifier, opts...)
	flow := checkout.NewFlow(
		store,
		checkout.NewSimulatedGateway(cfg.PaymentLatency, cfg.PaymentFailureRate),
		checkout.Pricing{
			ShippingFee:      cfg.ShippingFee,
			FreeShippingOver: cfg.FreeShippingOver,
			VATPercent:       cfg.VATPercent,
		},
		notifier,
	)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Catalog: svc,
		Cart:    store,
		Flow:    flow,
		Ready:   res.Ping,
		Logger:  logger,
	}, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	if events != nil {
		g.Go(func() error {
			err := events.ConsumeExpenseEvents(gctx, svc.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		cacheManager.Stop()
		return cli.Cleanup(logger, shutdownTimeout,
			srv.Shutdown,
			func(context.Context) error {
				if events == nil {
					return nil
				}
				return events.Close()
			},
			func(context.Context) error { return res.Cleanup() },
		)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}
