package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/csv-ingestor/internal/observability/notify"
)

func TestNewClientRequiresWebhook(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

// rendered flattens every text in the message for substring assertions.
func rendered(msg message) string {
	var b strings.Builder
	b.WriteString(msg.Text)
	for _, blk := range msg.Blocks {
		if blk.Text != nil {
			b.WriteString("\n" + blk.Text.Text)
		}
		for _, f := range blk.Fields {
			b.WriteString("\n" + f.Text)
		}
		for _, e := range blk.Elements {
			b.WriteString("\n" + e.Text)
		}
	}
	return b.String()
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#ingest",
		Username:   "bot",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.DeadLetterPayload{
		InvocationID: "inv-1",
		MessageID:    "m-42",
		Bucket:       "landing",
		Key:          "sales/jan.csv",
		Error:        `relation "sales" does not exist`,
		ErrorClass:   "pg_42p01",
		OccurredAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Metadata:     map[string]string{"table": "sales"},
	})

	assert.Equal(t, "bot", msg.Username)
	assert.Equal(t, "#ingest", msg.Channel)
	assert.Equal(t, "CSV load dead-lettered: s3://landing/sales/jan.csv", msg.Text)

	text := rendered(msg)
	for _, want := range []string{
		"`m-42`", "inv-1", "s3://landing/sales/jan.csv", "pg_42p01",
		"does not exist", "table: sales", notify.SeverityCritical, "2024-01-02T03:04:05Z",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatMessageObjectLink(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{
			name:   "with console prefix",
			prefix: "https://console.example/s3/object",
			want:   "<https://console.example/s3/object/landing/sales/jan.csv|s3://landing/sales/jan.csv>",
		},
		{
			name:   "invalid prefix",
			prefix: "not a url",
			want:   "*Object*\ns3://landing/sales/jan.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(Config{
				WebhookURL:       "https://hooks.slack.com/services/test",
				ConsoleURLPrefix: tt.prefix,
			})
			require.NoError(t, err)

			msg := client.formatMessage(notify.DeadLetterPayload{Bucket: "landing", Key: "sales/jan.csv"})
			assert.Contains(t, rendered(msg), tt.want)
		})
	}
}

func TestFormatMessageEscapesAndTruncatesError(t *testing.T) {
	client, err := NewClient(Config{WebhookURL: "https://hooks.slack.com/services/test"})
	require.NoError(t, err)

	long := "<row> & " + strings.Repeat("x", 2*maxErrorRunes)
	text := rendered(client.formatMessage(notify.DeadLetterPayload{Error: long}))

	assert.Contains(t, text, "&lt;row&gt; &amp; ")
	assert.NotContains(t, text, strings.Repeat("x", 2*maxErrorRunes))
}

func TestSendDeadLetterRetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 1})
	require.NoError(t, err)

	require.NoError(t, client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{MessageID: "m1"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendDeadLetterReportsRejection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 2})
	require.NoError(t, err)

	err = client.SendDeadLetter(context.Background(), notify.DeadLetterPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_token")
	assert.Equal(t, int32(1), calls.Load())
}
