// Package slack posts dead-lettered objects to a Slack incoming webhook.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/target/csv-ingestor/internal/observability/notify"
)

// maxErrorRunes bounds the error text posted to a channel; COPY errors can quote whole rows.
const maxErrorRunes = 500

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
	// ConsoleURLPrefix, when set, turns the object reference into a link: <prefix>/<bucket>/<key>.
	ConsoleURLPrefix string
}

// Client delivers dead-letter notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	console    *url.URL
	poster     notify.Poster
}

var _ notify.Sink = (*Client)(nil)

type message struct {
	Text     string  `json:"text"`
	Channel  string  `json:"channel,omitempty"`
	Username string  `json:"username,omitempty"`
	Blocks   []block `json:"blocks"`
}

type block struct {
	Type     string       `json:"type"`
	Text     *textObject  `json:"text,omitempty"`
	Fields   []textObject `json:"fields,omitempty"`
	Elements []textObject `json:"elements,omitempty"`
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) textObject { return textObject{Type: "mrkdwn", Text: s} }

// NewClient builds a Slack webhook client. An unparsable console prefix is ignored.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "csv-ingestor"
	}

	var console *url.URL
	if prefix := strings.TrimSpace(cfg.ConsoleURLPrefix); prefix != "" {
		if u, err := url.Parse(prefix); err == nil && u.Scheme != "" && u.Host != "" {
			console = u
		}
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		console:    console,
		poster:     notify.NewPoster("slack webhook", cfg.Timeout, cfg.RetryLimit, cfg.Client),
	}, nil
}

// SendDeadLetter posts a formatted message to Slack.
func (c *Client) SendDeadLetter(ctx context.Context, payload notify.DeadLetterPayload) error {
	body, err := json.Marshal(c.formatMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}
	return c.poster.Post(ctx, c.webhookURL, body)
}

func (c *Client) formatMessage(payload notify.DeadLetterPayload) message {
	occurred := payload.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	severity := payload.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	object := notify.ObjectURI(payload)

	title := "*CSV load dead-lettered*"
	if payload.MessageID != "" {
		title += " `" + payload.MessageID + "`"
	}

	fields := []textObject{
		mrkdwn("*Object*\n" + c.objectLink(payload.Bucket, payload.Key)),
		mrkdwn("*Severity*\n" + severity),
	}
	if payload.InvocationID != "" {
		fields = append(fields, mrkdwn("*Invocation*\n"+payload.InvocationID))
	}
	if payload.ErrorClass != "" {
		fields = append(fields, mrkdwn("*Error class*\n"+payload.ErrorClass))
	}

	blocks := []block{
		{Type: "section", Text: &textObject{Type: "mrkdwn", Text: title}},
		{Type: "section", Fields: fields},
	}
	if payload.Error != "" {
		blocks = append(blocks, block{
			Type: "section",
			Text: &textObject{Type: "mrkdwn", Text: "```" + escape(truncate(payload.Error, maxErrorRunes)) + "```"},
		})
	}

	footer := make([]textObject, 0, len(payload.Metadata)+1)
	for _, k := range sortedKeys(payload.Metadata) {
		footer = append(footer, mrkdwn(k+": "+escape(payload.Metadata[k])))
	}
	footer = append(footer, mrkdwn(occurred.UTC().Format(time.RFC3339)))
	blocks = append(blocks, block{Type: "context", Elements: footer})

	return message{
		Text:     "CSV load dead-lettered: " + object,
		Channel:  c.channel,
		Username: c.username,
		Blocks:   blocks,
	}
}

// objectLink renders s3://bucket/key, linked to the console when a prefix is configured.
func (c *Client) objectLink(bucket, key string) string {
	label := escape("s3://" + bucket + "/" + key)
	if c.console == nil || bucket == "" {
		return label
	}
	link := c.console.JoinPath(bucket, key)
	return fmt.Sprintf("<%s|%s>", link.String(), label)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escape(value string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(value)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
