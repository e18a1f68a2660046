// Package pagerduty raises incidents for dead-lettered objects through the Events API v2.
package pagerduty

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/target/csv-ingestor/internal/observability/notify"
)

// APIEndpoint is the PagerDuty Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

const component = "s3-copy-loader"

// Config captures runtime configuration for the PagerDuty sink.
type Config struct {
	RoutingKey string
	Source     string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// Endpoint overrides APIEndpoint.
	Endpoint string
}

// Client publishes trigger events.
type Client struct {
	routingKey string
	source     string
	endpoint   string
	poster     notify.Poster
}

var _ notify.Sink = (*Client)(nil)

type event struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"`
	DedupKey    string       `json:"dedup_key"`
	Payload     eventPayload `json:"payload"`
}

type eventPayload struct {
	Summary       string            `json:"summary"`
	Severity      string            `json:"severity"`
	Source        string            `json:"source"`
	Component     string            `json:"component"`
	Class         string            `json:"class,omitempty"`
	Timestamp     string            `json:"timestamp"`
	CustomDetails map[string]string `json:"custom_details"`
}

// NewClient constructs a client. A routing key is required.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "csv-ingestor"
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = APIEndpoint
	}
	return &Client{
		routingKey: key,
		source:     source,
		endpoint:   endpoint,
		poster:     notify.NewPoster("pagerduty", cfg.Timeout, cfg.RetryLimit, cfg.Client),
	}, nil
}

// SendDeadLetter triggers an incident. Failures for the same object share a dedup key, so
// repeated uploads of a broken file collapse into one incident.
func (c *Client) SendDeadLetter(ctx context.Context, payload notify.DeadLetterPayload) error {
	body, err := json.Marshal(c.buildEvent(payload))
	if err != nil {
		return fmt.Errorf("encode pagerduty event: %w", err)
	}
	return c.poster.Post(ctx, c.endpoint, body)
}

func (c *Client) buildEvent(payload notify.DeadLetterPayload) event {
	severity := strings.ToLower(strings.TrimSpace(payload.Severity))
	if severity == "" {
		severity = notify.SeverityCritical
	}
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	object := notify.ObjectURI(payload)
	details := make(map[string]string, len(payload.Metadata)+4)
	for k, v := range payload.Metadata {
		details[k] = v
	}
	details["object"] = object
	details["message_id"] = payload.MessageID
	details["invocation_id"] = payload.InvocationID
	details["error"] = payload.Error

	return event{
		RoutingKey:  c.routingKey,
		EventAction: "trigger",
		DedupKey:    "csv-ingestor/dead-letter/" + object,
		Payload: eventPayload{
			Summary:       "CSV load permanently failed for " + object,
			Severity:      severity,
			Source:        c.source,
			Component:     component,
			Class:         payload.ErrorClass,
			Timestamp:     occurredAt.UTC().Format(time.RFC3339),
			CustomDetails: details,
		},
	}
}
