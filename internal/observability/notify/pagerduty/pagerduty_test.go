package pagerduty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/csv-ingestor/internal/observability/notify"
)

func TestNewClientRequiresRoutingKey(t *testing.T) {
	_, err := NewClient(Config{RoutingKey: "  "})
	require.Error(t, err)
}

func TestBuildEvent(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "rk"})
	require.NoError(t, err)

	occurred := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := client.buildEvent(notify.DeadLetterPayload{
		InvocationID: "inv-1",
		MessageID:    "m-1",
		Bucket:       "landing",
		Key:          "sales/jan.csv",
		Error:        "relation does not exist",
		ErrorClass:   "pg_42p01",
		OccurredAt:   occurred,
		Metadata:     map[string]string{"table": "sales", "object": "ignored"},
	})

	assert.Equal(t, "rk", ev.RoutingKey)
	assert.Equal(t, "trigger", ev.EventAction)
	assert.Equal(t, "csv-ingestor/dead-letter/s3://landing/sales/jan.csv", ev.DedupKey)
	assert.Equal(t, notify.SeverityCritical, ev.Payload.Severity)
	assert.Equal(t, "csv-ingestor", ev.Payload.Source)
	assert.Equal(t, component, ev.Payload.Component)
	assert.Equal(t, "pg_42p01", ev.Payload.Class)
	assert.Equal(t, "2024-01-02T03:04:05Z", ev.Payload.Timestamp)
	assert.Contains(t, ev.Payload.Summary, "s3://landing/sales/jan.csv")
	assert.Equal(t, map[string]string{
		"object":        "s3://landing/sales/jan.csv",
		"message_id":    "m-1",
		"invocation_id": "inv-1",
		"error":         "relation does not exist",
		"table":         "sales",
	}, ev.Payload.CustomDetails)
}

func TestBuildEventHonoursSeverity(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "rk", Source: "etl-prod"})
	require.NoError(t, err)

	ev := client.buildEvent(notify.DeadLetterPayload{Severity: "ERROR"})
	assert.Equal(t, notify.SeverityError, ev.Payload.Severity)
	assert.Equal(t, "etl-prod", ev.Payload.Source)
}

func TestSendDeadLetterPostsEvent(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL})
	require.NoError(t, err)
	require.NoError(t, client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{Bucket: "b", Key: "t/k.csv"}))

	assert.Equal(t, "rk", got["routing_key"])
	assert.Equal(t, "trigger", got["event_action"])
}

func TestSendDeadLetterDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"status":"invalid event"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL, RetryLimit: 3})
	require.NoError(t, err)

	err = client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{})
	var se *notify.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}
