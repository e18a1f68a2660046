package metrics

import (
	"time"

	"github.com/target/csv-ingestor/internal/domain/model"
	obserrors "github.com/target/csv-ingestor/internal/observability/errors"
	"github.com/target/csv-ingestor/internal/observability/statsd"
)

// Metric names.
const (
	MetricOutcome  = "ingest.outcome"
	MetricDuration = "ingest.duration"
	MetricRows     = "ingest.rows"
	MetricBatch    = "ingest.batch"
	MetricAckError = "ingest.ack_error"
)

// EmitIngestion emits the per-message metrics for one dispatched message.
func EmitIngestion(sink statsd.Sink, res model.MessageResult) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"outcome": string(res.Outcome.Kind),
		"action":  string(res.Action),
	}
	if res.Outcome.TargetTable != "" {
		tags["table"] = res.Outcome.TargetTable
	}
	if class := obserrors.Classify(res.Outcome.Cause); class != "" {
		tags["error_class"] = class
	}

	sink.Count(MetricOutcome, 1, tags)

	if res.Outcome.Kind == model.OutcomeLoaded {
		loaded := map[string]string{"table": res.Outcome.TargetTable}
		sink.Count(MetricRows, res.Outcome.RowsCopied, loaded)
		if res.Outcome.Duration > 0 {
			sink.Timing(MetricDuration, res.Outcome.Duration, CloneTags(loaded))
		}
	}

	if res.AckErr != nil {
		sink.Count(MetricAckError, 1, map[string]string{"action": string(res.Action)})
	}
}

// EmitBatch emits the batch-level size and wall time of one dispatch.
func EmitBatch(sink statsd.Sink, report model.BatchReport, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.Gauge(MetricBatch+".size", float64(len(report.Results)), nil)
	sink.Gauge(MetricBatch+".retained", float64(len(report.Retained())), nil)
	if elapsed > 0 {
		sink.Timing(MetricBatch+".duration", elapsed, nil)
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
