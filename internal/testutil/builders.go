package testutil

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/target/csv-ingestor/internal/domain/model"
)

// S3EventBody returns an S3 ObjectCreated notification body for bucket/key. The key is
// URL-encoded the way S3 encodes it.
func S3EventBody(bucket, key string) string {
	doc := map[string]any{
		"Records": []any{
			map[string]any{
				"eventSource": "aws:s3",
				"eventName":   "ObjectCreated:Put",
				"s3": map[string]any{
					"bucket": map[string]any{"name": bucket},
					"object": map[string]any{"key": url.QueryEscape(key), "size": 0},
				},
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// MessageBuilder builds queue messages for dispatcher tests.
type MessageBuilder struct {
	msg model.QueueMessage
}

// NewMessage creates a builder for a message with the given id. The receipt defaults to "rh-<id>".
func NewMessage(id string) *MessageBuilder {
	return &MessageBuilder{msg: model.QueueMessage{MessageID: id, ReceiptToken: "rh-" + id}}
}

// ForObject sets the body to an S3 event for bucket/key.
func (b *MessageBuilder) ForObject(bucket, key string) *MessageBuilder {
	b.msg.Body = S3EventBody(bucket, key)
	return b
}

// WithBody sets a raw body.
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.msg.Body = body
	return b
}

// WithReceipt overrides the receipt token.
func (b *MessageBuilder) WithReceipt(receipt string) *MessageBuilder {
	b.msg.ReceiptToken = receipt
	return b
}

// Build returns the message.
func (b *MessageBuilder) Build() model.QueueMessage {
	return b.msg
}

// BatchJSON renders messages as the Lambda SQS event payload.
func BatchJSON(msgs ...model.QueueMessage) []byte {
	records := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, map[string]any{
			"messageId":     m.MessageID,
			"receiptHandle": m.ReceiptToken,
			"body":          m.Body,
			"eventSource":   "aws:sqs",
		})
	}
	b, err := json.Marshal(map[string]any{"Records": records})
	if err != nil {
		panic(err)
	}
	return b
}

// CSV joins a header and rows into a CSV document with a trailing newline.
func CSV(header string, rows ...string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, r := range rows {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// NumberedCSV returns a two-column CSV (id,name) with n data rows.
func NumberedCSV(n int) string {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("%d,row-%d", i+1, i+1)
	}
	return CSV("id,name", rows...)
}

// TestTime is the fixed clock reading used by ledger tests.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// ConcurrentTestRunner races operations against each other.
type ConcurrentTestRunner struct {
	t TestingTB
}

// NewConcurrentTestRunner creates a runner reporting through t.
func NewConcurrentTestRunner(t TestingTB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t}
}

// RunConcurrent releases every function at the same moment and waits for all of them.
// Errors are returned in argument order.
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()

	start := make(chan struct{})
	results := make([]error, len(funcs))
	var wg sync.WaitGroup
	for i, f := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i] = f()
		}()
	}
	close(start)
	wg.Wait()
	return results
}

// AssertNoErrors fails the test on the first non-nil error.
func (r *ConcurrentTestRunner) AssertNoErrors(errs []error) {
	r.t.Helper()
	for i, err := range errs {
		if err != nil {
			r.t.Fatalf("Concurrent operation %d failed: %v", i, err)
		}
	}
}
