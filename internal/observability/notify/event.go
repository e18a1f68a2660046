package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityError    = "error"
)

// DeadLetterPayload captures the canonical data emitted when a message is dropped after a
// permanent failure.
type DeadLetterPayload struct {
	InvocationID string
	MessageID    string
	Bucket       string
	Key          string
	// OriginalMessage is the raw queue message body, forwarded untouched.
	OriginalMessage string
	Error           string
	ErrorClass      string
	Severity        string
	OccurredAt      time.Time
	Metadata        map[string]string
}

// Sink describes a destination capable of consuming dead-letter notifications.
type Sink interface {
	SendDeadLetter(ctx context.Context, payload DeadLetterPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload DeadLetterPayload) error

// SendDeadLetter implements the Sink interface.
func (f SinkFunc) SendDeadLetter(ctx context.Context, payload DeadLetterPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
