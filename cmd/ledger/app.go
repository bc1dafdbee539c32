package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/events"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/metrics"
	"budgetbook/internal/storage"
)

// app is one opened ledger with its stores and optional listeners.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	out     io.Writer
	svc     *ledger.Service
	creds   *storage.CredentialStore
	metrics *metrics.Recorder

	closers []func() error
}

// openApp builds the backend, classifier and ledger service and loads the
// stored records. Change events are wired when AMQP_URL is set; the serve
// command publishes through a bounded async queue, one-shot commands
// publish inline before exiting.
func openApp(ctx context.Context, cfg *config.Config, logger *log.Logger, out io.Writer, serving bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger, out: out, metrics: metrics.NewRecorder()}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	bcfg.OnSkip = func(store, reason string) { a.metrics.SkipHook(store)(reason) }

	result, err := backend.NewFactory(logger.Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, result.Cleanup)
	a.creds = result.Credentials

	cls, err := cli.LoadClassifier(logger, cfg.CategoryTableFile)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load category table: %w", err)
	}

	a.svc = ledger.NewService(result.Records, cls, ledger.Options{
		Logger:           logger.Slog(),
		OnPersistFailure: a.metrics.PersistFailure,
	})
	a.metrics.TrackLedgerSize(a.svc.Len)
	if err := a.svc.AddListener(a.metrics); err != nil {
		a.close()
		return nil, err
	}

	n, err := a.svc.Load(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	logger.Info("Ledger loaded", log.FieldOperation, log.OpLoad, log.FieldCount, n, log.FieldBackend, cfg.DataBackend)

	if cfg.AMQPURL != "" {
		if err := a.wireEvents(ctx, serving); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) wireEvents(ctx context.Context, async bool) error {
	client, err := events.NewClient(ctx, a.cfg.AMQPURL, a.cfg.AMQPExchange, a.logger.Slog())
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	publisher := events.NewPublisher(client, a.cfg.PublishTimeout, a.logger.Slog(),
		events.WithErrorHook(func(kind events.Kind, _ error) { a.metrics.PublishFailure(string(kind)) }))

	if !async {
		return a.svc.AddListener(publisher)
	}

	queued, err := ledger.NewAsyncListener(publisher, a.cfg.EventQueueSize)
	if err != nil {
		return err
	}
	// The queue must drain before the client it publishes through closes.
	a.closers = append(a.closers, queued.Close)
	if err := a.svc.AddListener(queued); err != nil {
		return err
	}
	a.logger.Info("Change events enabled", "exchange", a.cfg.AMQPExchange, "queue_size", a.cfg.EventQueueSize)
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
}
