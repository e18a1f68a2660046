// Package poller drives the batch dispatcher from a long-polling queue consumer.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/target/csv-ingestor/internal/adapters/queue"
	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
)

// Receiver long-polls the source queue for a batch.
type Receiver interface {
	Receive(ctx context.Context, opts queue.ReceiveOptions) ([]model.QueueMessage, error)
}

// Config controls poll loop behaviour.
type Config struct {
	// Workers is the number of concurrent poll loops.
	Workers int
	Receive queue.ReceiveOptions
	// BatchTimeout bounds each dispatch, the equivalent of an invocation time budget.
	BatchTimeout time.Duration
}

// Options holds the dependencies for creating a Poller.
type Options struct {
	Source     Receiver             // Required
	Dispatcher core.BatchDispatcher // Required
	Config     Config
	Logger     *slog.Logger
	// NewBackOff overrides the receive error backoff policy.
	NewBackOff func() backoff.BackOff
}

// Poller repeatedly receives batches and hands each to the dispatcher.
type Poller struct {
	source     Receiver
	dispatcher core.BatchDispatcher
	cfg        Config
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// New creates a Poller.
func New(opts Options) (*Poller, error) {
	if opts.Source == nil {
		return nil, errors.New("Receiver is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("BatchDispatcher is required")
	}
	if opts.Config.Workers <= 0 {
		opts.Config.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "poller")
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = defaultBackOff
	}
	return &Poller{
		source:     opts.Source,
		dispatcher: opts.Dispatcher,
		cfg:        opts.Config,
		newBackOff: opts.NewBackOff,
		logger:     opts.Logger,
	}, nil
}

//nolint:ireturn // backoff.BackOff is the library's policy abstraction.
func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitialBackoff
	b.MaxInterval = defaultMaxBackoff
	b.MaxElapsedTime = 0
	return b
}

// Run polls until ctx is cancelled. A batch in flight when ctx is cancelled runs to
// completion within its own timeout. Run returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "starting poller", "workers", p.cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range p.cfg.Workers {
		g.Go(func() error {
			p.loop(gctx, p.logger.With("worker", i))
			return nil
		})
	}
	err := g.Wait()
	p.logger.InfoContext(ctx, "poller stopped")
	return err
}

func (p *Poller) loop(ctx context.Context, logger *slog.Logger) {
	bo := p.newBackOff()
	for ctx.Err() == nil {
		batch, err := p.source.Receive(ctx, p.cfg.Receive)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				wait = defaultMaxBackoff
			}
			logger.WarnContext(ctx, "receive failed; backing off", "error", err, "wait", wait)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}
		bo.Reset()
		if len(batch) == 0 {
			continue
		}
		p.dispatch(ctx, logger, batch)
	}
}

func (p *Poller) dispatch(ctx context.Context, logger *slog.Logger, batch []model.QueueMessage) {
	bctx := context.WithoutCancel(ctx)
	if p.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(bctx, p.cfg.BatchTimeout)
		defer cancel()
	}
	if _, err := p.dispatcher.Dispatch(bctx, batch); err != nil {
		// The batch becomes visible again once its visibility timeout lapses.
		logger.ErrorContext(ctx, "batch dispatch failed", "messages", len(batch), "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
