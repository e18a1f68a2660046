// Package lambdahandler adapts the batch dispatcher to the AWS Lambda SQS event source.
package lambdahandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
)

// Options holds the dependencies for creating a Handler.
type Options struct {
	Dispatcher core.BatchDispatcher // Required
	Logger     *slog.Logger
	// ResponseMargin is reserved before the runtime deadline so the partial batch
	// response is returned even when loading runs long.
	ResponseMargin time.Duration
}

// Handler turns an SQS event into a dispatch and reports messages that must be redelivered
// through the partial batch response. Messages not listed are deleted by the event source.
type Handler struct {
	dispatcher core.BatchDispatcher
	margin     time.Duration
	logger     *slog.Logger
}

// New creates a Handler.
func New(opts Options) (*Handler, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("BatchDispatcher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "lambda_handler")
	}
	return &Handler{
		dispatcher: opts.Dispatcher,
		margin:     max(opts.ResponseMargin, 0),
		logger:     logger,
	}, nil
}

// Handle processes one invocation payload. A structurally invalid payload or an unavailable
// database fails the whole invocation so the event source redelivers every message.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (events.SQSEventResponse, error) {
	batch, err := model.ParseBatch(raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "rejecting invocation payload", "error", err)
		return events.SQSEventResponse{}, err
	}

	ctx, cancel := h.budget(ctx)
	defer cancel()

	report, err := h.dispatcher.Dispatch(ctx, batch)
	if err != nil {
		return events.SQSEventResponse{}, fmt.Errorf("dispatch batch: %w", err)
	}

	resp := events.SQSEventResponse{}
	for _, id := range report.Retained() {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return resp, nil
}

// budget shortens the runtime deadline by the response margin.
func (h *Handler) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || h.margin == 0 {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-h.margin))
}

// Start hands control to the Lambda runtime. It does not return.
func (h *Handler) Start() {
	h.logger.Info("starting lambda handler")
	lambda.Start(h.Handle)
}
