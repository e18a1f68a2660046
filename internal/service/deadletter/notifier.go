// Package deadletter fans permanently failed messages out to every registered sink.
package deadletter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/target/csv-ingestor/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the dead-letter notifier.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches dead-letter payloads to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs a dead-letter notifier. Registrations without a sink are skipped.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dead_letter")
	}

	sinks := make([]SinkRegistration, 0, len(opts.Sinks))
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{logger: logger, sinks: sinks}
}

// Notify delivers payload to every sink concurrently and waits for all of them. Sink
// failures are logged and counted; they never hold up the caller's acknowledgement.
func (s *Service) Notify(ctx context.Context, payload notify.DeadLetterPayload) int {
	if s == nil || len(s.sinks) == 0 {
		return 0
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
	)
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := entry.Sink.SendDeadLetter(ctx, payload)
			if err == nil {
				return
			}
			failed.Add(1)
			s.logger.ErrorContext(ctx, "dead-letter delivery error",
				"sink", entry.Name,
				"message_id", payload.MessageID,
				"bucket", payload.Bucket,
				"key", payload.Key,
				"error", err,
			)
		}()
	}
	wg.Wait()

	return int(failed.Load())
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}
