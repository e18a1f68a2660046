// Package queue adapts Amazon SQS to the ingestion ports.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
	"github.com/target/csv-ingestor/internal/observability/notify"
)

// API is the subset of the SQS client used here.
type API interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// NewClient builds an SQS client, honouring a custom endpoint for local stacks.
func NewClient(cfg aws.Config, endpoint string) *sqs.Client {
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// ReceiveOptions tunes one long-poll receive.
type ReceiveOptions struct {
	MaxMessages       int32
	WaitTime          time.Duration
	VisibilityTimeout time.Duration
}

// Queue receives from and deletes on one source queue.
type Queue struct {
	api    API
	url    string
	logger *slog.Logger
}

var _ core.MessageAcker = (*Queue)(nil)

// New constructs a Queue for url.
func New(api API, url string, logger *slog.Logger) (*Queue, error) {
	if api == nil {
		return nil, errors.New("sqs client is required")
	}
	if url == "" {
		return nil, errors.New("queue url is required")
	}
	if logger == nil {
		logger = slog.Default().With("component", "queue")
	}
	return &Queue{api: api, url: url, logger: logger}, nil
}

// URL returns the queue URL.
func (q *Queue) URL() string { return q.url }

// Receive long-polls for up to opts.MaxMessages messages. An empty result is not an error.
func (q *Queue) Receive(ctx context.Context, opts ReceiveOptions) ([]model.QueueMessage, error) {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: opts.MaxMessages,
		WaitTimeSeconds:     int32(opts.WaitTime / time.Second),
	}
	if opts.VisibilityTimeout > 0 {
		in.VisibilityTimeout = int32(opts.VisibilityTimeout / time.Second)
	}

	out, err := q.api.ReceiveMessage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("receive from %s: %w", q.url, err)
	}

	msgs := make([]model.QueueMessage, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, model.QueueMessage{
			MessageID:    aws.ToString(m.MessageId),
			ReceiptToken: aws.ToString(m.ReceiptHandle),
			Body:         aws.ToString(m.Body),
		})
	}
	return msgs, nil
}

// Delete implements core.MessageAcker.
func (q *Queue) Delete(ctx context.Context, receiptToken string) error {
	_, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptToken),
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", q.url, err)
	}
	return nil
}

// deadLetterMessage is the body written to the dead-letter queue.
type deadLetterMessage struct {
	OriginalMessage string `json:"original_message"`
	Error           string `json:"error"`
}

// DeadLetterSink forwards dropped messages to a dead-letter queue.
type DeadLetterSink struct {
	api API
	url string
}

var _ notify.Sink = (*DeadLetterSink)(nil)

// NewDeadLetterSink constructs a sink writing to url.
func NewDeadLetterSink(api API, url string) (*DeadLetterSink, error) {
	if api == nil {
		return nil, errors.New("sqs client is required")
	}
	if url == "" {
		return nil, errors.New("dead-letter queue url is required")
	}
	return &DeadLetterSink{api: api, url: url}, nil
}

// SendDeadLetter implements notify.Sink. The original body is forwarded byte for byte.
func (s *DeadLetterSink) SendDeadLetter(ctx context.Context, payload notify.DeadLetterPayload) error {
	body, err := json.Marshal(deadLetterMessage{OriginalMessage: payload.OriginalMessage, Error: payload.Error})
	if err != nil {
		return fmt.Errorf("encode dead-letter message: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.url),
		MessageBody: aws.String(string(body)),
	}
	if payload.ErrorClass != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			"error_class": {DataType: aws.String("String"), StringValue: aws.String(payload.ErrorClass)},
		}
	}
	if _, err := s.api.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("send to %s: %w", s.url, err)
	}
	return nil
}
