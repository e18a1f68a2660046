package model

import "time"

// OutcomeKind tags the variant held by an IngestionOutcome.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeLoaded           OutcomeKind = "loaded"
	OutcomeAlreadyProcessed OutcomeKind = "already_processed"
	OutcomeRetryableFailure OutcomeKind = "retryable_failure"
	OutcomePermanentFailure OutcomeKind = "permanent_failure"
)

// IngestionOutcome is the result of ingesting one notification. Only the fields of the
// active variant are meaningful: RowsCopied/Duration/TargetTable for Loaded, Cause for failures.
type IngestionOutcome struct {
	Kind        OutcomeKind
	TargetTable string
	RowsCopied  int64
	Duration    time.Duration
	Cause       error
}

// Loaded builds a successful outcome.
func Loaded(table string, rows int64, d time.Duration) IngestionOutcome {
	return IngestionOutcome{Kind: OutcomeLoaded, TargetTable: table, RowsCopied: rows, Duration: d}
}

// AlreadyProcessed builds the idempotent no-op outcome.
func AlreadyProcessed() IngestionOutcome {
	return IngestionOutcome{Kind: OutcomeAlreadyProcessed}
}

// RetryableFailure builds an outcome that leaves the message for redelivery.
func RetryableFailure(cause error) IngestionOutcome {
	return IngestionOutcome{Kind: OutcomeRetryableFailure, Cause: cause}
}

// PermanentFailure builds an outcome that drops the message.
func PermanentFailure(cause error) IngestionOutcome {
	return IngestionOutcome{Kind: OutcomePermanentFailure, Cause: cause}
}

// Failed reports whether the outcome is one of the failure variants.
func (o IngestionOutcome) Failed() bool {
	return o.Kind == OutcomeRetryableFailure || o.Kind == OutcomePermanentFailure
}

// QueueAction is what the dispatcher does with a message after ingesting it.
type QueueAction string

// Queue actions.
const (
	// ActionDelete acknowledges the message.
	ActionDelete QueueAction = "delete"
	// ActionDeadLetter forwards the message to the dead-letter sinks and then deletes it.
	ActionDeadLetter QueueAction = "dead_letter"
	// ActionRetain leaves the message for the queue's own redelivery policy.
	ActionRetain QueueAction = "retain"
)

// ActionFor maps an outcome to its queue action.
func ActionFor(o IngestionOutcome) QueueAction {
	switch o.Kind {
	case OutcomeLoaded, OutcomeAlreadyProcessed:
		return ActionDelete
	case OutcomePermanentFailure:
		return ActionDeadLetter
	default:
		return ActionRetain
	}
}

// MessageResult records what happened to one message of a batch.
type MessageResult struct {
	MessageID string
	Object    ObjectRef
	Outcome   IngestionOutcome
	Action    QueueAction
	// AckErr is set when the delete call itself failed; the message will then be redelivered
	// and short-circuit on the ledger.
	AckErr error
}

// BatchReport summarizes one dispatch.
type BatchReport struct {
	InvocationID string
	Results      []MessageResult
}

// Retained returns the ids of messages left on the queue, either deliberately or because the
// delete call failed.
func (r BatchReport) Retained() []string {
	var ids []string
	for _, res := range r.Results {
		if res.Action == ActionRetain || res.AckErr != nil {
			ids = append(ids, res.MessageID)
		}
	}
	return ids
}

// Count returns how many results carry the given outcome kind.
func (r BatchReport) Count(kind OutcomeKind) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome.Kind == kind {
			n++
		}
	}
	return n
}
