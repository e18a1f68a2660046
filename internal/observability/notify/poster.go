package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultPostTimeout  = 5 * time.Second
	defaultRetryBackoff = 200 * time.Millisecond
	maxErrorBody        = 4096
)

// StatusError is returned when an endpoint answers outside the 2xx range.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %s: %s", e.Service, e.Status, e.Body)
}

// Retryable reports whether resending the same request may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Poster sends JSON documents to an HTTP endpoint, retrying transport errors, throttling and
// server errors with exponential backoff. Other 4xx responses fail immediately.
type Poster struct {
	// Service names the remote system in errors.
	Service    string
	Client     *http.Client
	RetryLimit int
	// InitialBackoff is the first retry delay; defaults to 200ms.
	InitialBackoff time.Duration
}

// NewPoster returns a Poster with an HTTP client bounded by timeout.
func NewPoster(service string, timeout time.Duration, retryLimit int, hc *http.Client) Poster {
	if timeout <= 0 {
		timeout = defaultPostTimeout
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return Poster{Service: service, Client: hc, RetryLimit: max(retryLimit, 0)}
}

// Post delivers body to url.
func (p Poster) Post(ctx context.Context, url string, body []byte) error {
	initial := p.InitialBackoff
	if initial <= 0 {
		initial = defaultRetryBackoff
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initial
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(p.RetryLimit, 0))), ctx)

	return backoff.Retry(func() error {
		err := p.once(ctx, url, body)
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (p Poster) once(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create %s request: %w", p.Service, err))
	}
	req.Header.Set("Content-Type", "application/json")

	hc := p.Client
	if hc == nil {
		hc = &http.Client{Timeout: defaultPostTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.Service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return fmt.Errorf("read %s error response: %w", p.Service, readErr)
		}
		return &StatusError{
			Service:    p.Service,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain %s response body: %w", p.Service, err)
	}
	return nil
}

// ObjectURI renders the s3:// reference of a payload's object.
func ObjectURI(p DeadLetterPayload) string {
	return "s3://" + p.Bucket + "/" + p.Key
}
