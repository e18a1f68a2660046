package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
	obserrors "github.com/target/csv-ingestor/internal/observability/errors"
	"github.com/target/csv-ingestor/internal/observability/metrics"
	"github.com/target/csv-ingestor/internal/observability/notify"
	"github.com/target/csv-ingestor/internal/observability/statsd"
)

const ackTimeout = 10 * time.Second

// DeadLetterNotifier forwards permanently failed messages and reports how many sinks failed.
type DeadLetterNotifier interface {
	Notify(ctx context.Context, payload notify.DeadLetterPayload) int
}

// DispatcherPipeline groups the collaborators a dispatch drives.
type DispatcherPipeline struct {
	Sessions core.SessionOpener // Required
	Ingestor core.Ingestor      // Required
	// Acker deletes handled messages. When nil, acknowledgement is left to the caller
	// through BatchReport.Retained.
	Acker core.MessageAcker
}

// DispatcherTelemetry groups optional observability hooks.
type DispatcherTelemetry struct {
	Logger  *slog.Logger
	Metrics statsd.Sink
	// NewID generates invocation ids; defaults to random UUIDs.
	NewID func() string
}

// DispatcherOptions groups dependencies for Dispatcher.
type DispatcherOptions struct {
	Pipeline    DispatcherPipeline  // Required
	DeadLetters DeadLetterNotifier  // Optional
	Telemetry   DispatcherTelemetry // Optional
}

// Dispatcher processes a delivered batch: one database session per batch, messages in
// delivery order, one queue decision per message.
type Dispatcher struct {
	sessions    core.SessionOpener
	ingestor    core.Ingestor
	acker       core.MessageAcker
	deadLetters DeadLetterNotifier
	metrics     statsd.Sink
	newID       func() string
	logger      *slog.Logger
}

var _ core.BatchDispatcher = (*Dispatcher)(nil)

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Pipeline.Sessions == nil {
		return nil, errors.New("SessionOpener is required")
	}
	if opts.Pipeline.Ingestor == nil {
		return nil, errors.New("Ingestor is required")
	}

	logger := opts.Telemetry.Logger
	if logger == nil {
		logger = slog.Default().With("component", "dispatcher")
	}
	newID := opts.Telemetry.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	return &Dispatcher{
		sessions:    opts.Pipeline.Sessions,
		ingestor:    opts.Pipeline.Ingestor,
		acker:       opts.Pipeline.Acker,
		deadLetters: opts.DeadLetters,
		metrics:     opts.Telemetry.Metrics,
		newID:       newID,
		logger:      logger,
	}, nil
}

// MustNewDispatcher panics if construction fails.
func MustNewDispatcher(opts DispatcherOptions) *Dispatcher {
	d, err := NewDispatcher(opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Dispatch handles every message of batch and reports what happened to each. It returns an
// error, without touching any message, when the batch is structurally invalid or no database
// session can be opened; the whole batch is then redelivered. Per-message failures never
// abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, batch []model.QueueMessage) (model.BatchReport, error) {
	started := time.Now()
	report := model.BatchReport{InvocationID: d.newID()}
	logger := d.logger.With("invocation_id", report.InvocationID)

	if err := model.ValidateBatch(batch); err != nil {
		logger.ErrorContext(ctx, "rejecting malformed batch", "error", err)
		return report, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid batch")
	}
	if len(batch) == 0 {
		return report, nil
	}

	sess, err := d.sessions.Open(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "database session unavailable; batch left for redelivery",
			"messages", len(batch),
			"error", err,
		)
		return report, fmt.Errorf("open database session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.WarnContext(ctx, "close database session", "error", cerr)
		}
	}()

	report.Results = make([]model.MessageResult, 0, len(batch))
	for _, msg := range batch {
		res := d.handle(ctx, logger, sess, report.InvocationID, msg)
		metrics.EmitIngestion(d.metrics, res)
		report.Results = append(report.Results, res)
	}

	metrics.EmitBatch(d.metrics, report, time.Since(started))
	logger.InfoContext(ctx, "batch dispatched",
		"messages", len(batch),
		"loaded", report.Count(model.OutcomeLoaded),
		"already_processed", report.Count(model.OutcomeAlreadyProcessed),
		"retryable", report.Count(model.OutcomeRetryableFailure),
		"permanent", report.Count(model.OutcomePermanentFailure),
		"retained", len(report.Retained()),
	)
	return report, nil
}

func (d *Dispatcher) handle(
	ctx context.Context,
	logger *slog.Logger,
	sess core.Session,
	invocationID string,
	msg model.QueueMessage,
) model.MessageResult {
	res := model.MessageResult{MessageID: msg.MessageID}
	logger = logger.With("message_id", msg.MessageID)

	ref, err := model.ParseEventEnvelope(msg.Body)
	if err != nil {
		res.Outcome = model.PermanentFailure(apperrors.Wrap(err, apperrors.ErrCodeValidation, "malformed notification"))
	} else {
		res.Object = ref
		logger = logger.With("bucket", ref.Bucket, "key", ref.Key)
		res.Outcome = d.ingestor.Ingest(ctx, sess, ref)
	}
	res.Action = model.ActionFor(res.Outcome)

	if res.Action == model.ActionDeadLetter {
		if failed := d.deadLetter(ctx, invocationID, msg, res); failed > 0 {
			logger.WarnContext(ctx, "dead-letter forwarding incomplete; deleting anyway", "failed_sinks", failed)
		}
	}
	if res.Action != model.ActionRetain {
		res.AckErr = d.ack(ctx, msg)
	}

	attrs := []any{"outcome", res.Outcome.Kind, "action", res.Action}
	if res.Outcome.Cause != nil {
		attrs = append(attrs, "error", res.Outcome.Cause)
	}
	if res.AckErr != nil {
		logger.WarnContext(ctx, "message left on queue after failed acknowledgement",
			append(attrs, "ack_error", res.AckErr)...)
	} else {
		logger.InfoContext(ctx, "message handled", attrs...)
	}
	return res
}

func (d *Dispatcher) deadLetter(
	ctx context.Context,
	invocationID string,
	msg model.QueueMessage,
	res model.MessageResult,
) int {
	if d.deadLetters == nil {
		return 0
	}
	payload := notify.DeadLetterPayload{
		InvocationID:    invocationID,
		MessageID:       msg.MessageID,
		Bucket:          res.Object.Bucket,
		Key:             res.Object.Key,
		OriginalMessage: msg.Body,
		ErrorClass:      obserrors.Classify(res.Outcome.Cause),
		OccurredAt:      time.Now().UTC(),
	}
	if res.Outcome.Cause != nil {
		payload.Error = res.Outcome.Cause.Error()
	}
	return d.deadLetters.Notify(ctx, payload)
}

func (d *Dispatcher) ack(ctx context.Context, msg model.QueueMessage) error {
	if d.acker == nil {
		return nil
	}
	// Deletes still go out after the invocation budget is spent.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if err := d.acker.Delete(ackCtx, msg.ReceiptToken); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
