//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Sentinel errors returned while validating queue payloads.
var (
	// ErrMalformedBatch marks structural problems with the delivered batch itself.
	ErrMalformedBatch = errors.New("malformed message batch")
	// ErrMalformedEnvelope marks a message whose body is not a usable storage event.
	ErrMalformedEnvelope = errors.New("malformed storage event envelope")
)

// ObjectRef identifies one object in object storage.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// String renders the reference as an s3:// URI for logging.
func (r ObjectRef) String() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// QueueMessage is one message of a delivered batch. ReceiptToken is opaque and only
// meaningful to the queue that delivered the message.
type QueueMessage struct {
	MessageID    string `json:"messageId"`
	ReceiptToken string `json:"receiptHandle"`
	Body         string `json:"body"`
}

// Notification is a validated message: the object it announces plus the receipt needed to ack it.
type Notification struct {
	ObjectRef
	MessageID    string
	ReceiptToken string
}

// storageEvent mirrors the subset of the S3 event notification document we consume.
type storageEvent struct {
	Records []storageEventRecord `json:"Records"`
}

type storageEventRecord struct {
	S3 *struct {
		Bucket *struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object *struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// ParseEventEnvelope extracts the object reference from a message body holding an S3 event
// notification. Keys arrive URL-encoded ('+' for space) and are decoded before use.
// Every failure wraps ErrMalformedEnvelope.
func ParseEventEnvelope(body string) (ObjectRef, error) {
	var ev storageEvent
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return ObjectRef{}, fmt.Errorf("%w: invalid JSON in message body: %w", ErrMalformedEnvelope, err)
	}
	if len(ev.Records) == 0 {
		return ObjectRef{}, fmt.Errorf("%w: 'Records' missing or empty", ErrMalformedEnvelope)
	}

	rec := ev.Records[0]
	if rec.S3 == nil || rec.S3.Bucket == nil || rec.S3.Object == nil {
		return ObjectRef{}, fmt.Errorf("%w: record lacks s3.bucket or s3.object", ErrMalformedEnvelope)
	}

	bucket := strings.TrimSpace(rec.S3.Bucket.Name)
	if bucket == "" {
		return ObjectRef{}, fmt.Errorf("%w: bucket name is empty", ErrMalformedEnvelope)
	}
	if rec.S3.Object.Key == "" {
		return ObjectRef{}, fmt.Errorf("%w: object key is empty", ErrMalformedEnvelope)
	}

	key, err := url.QueryUnescape(rec.S3.Object.Key)
	if err != nil {
		return ObjectRef{}, fmt.Errorf("%w: object key is not URL-encoded correctly: %w", ErrMalformedEnvelope, err)
	}

	return ObjectRef{Bucket: bucket, Key: key}, nil
}

// batchEnvelope is the generic messaging envelope wrapping a batch of queue messages.
type batchEnvelope struct {
	Records *[]QueueMessage `json:"Records"`
}

// ParseBatch decodes a raw batch envelope ({"Records":[{messageId, receiptHandle, body}, ...]}).
// Structural problems fail the whole batch before any message is looked at.
func ParseBatch(raw []byte) ([]QueueMessage, error) {
	var env batchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBatch, err)
	}
	if env.Records == nil {
		return nil, fmt.Errorf("%w: 'Records' not found", ErrMalformedBatch)
	}
	msgs := *env.Records
	if err := ValidateBatch(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// ValidateBatch checks the structural fields every message needs to be processed and acknowledged.
// Message bodies are validated later, one message at a time.
func ValidateBatch(msgs []QueueMessage) error {
	for i, m := range msgs {
		if m.Body == "" {
			return fmt.Errorf("%w: record %d has no body", ErrMalformedBatch, i)
		}
		if m.ReceiptToken == "" {
			return fmt.Errorf("%w: record %d has no receipt handle", ErrMalformedBatch, i)
		}
	}
	return nil
}
