// Package statsd emits DogStatsD-style metrics over UDP.
package statsd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const dialTimeout = 5 * time.Second

// Sink describes the minimal interface required to emit StatsD-style metrics.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Discard drops every metric.
var Discard Sink = discard{}

type discard struct{}

func (discard) Count(string, int64, map[string]string)          {}
func (discard) Gauge(string, float64, map[string]string)        {}
func (discard) Timing(string, time.Duration, map[string]string) {}

// Config describes the StatsD endpoint and the metadata attached to every line.
type Config struct {
	Address string
	Prefix  string
	// Tags are added to every metric; per-call tags win on key collisions.
	Tags map[string]string
}

// Client writes one datagram per metric. It is safe for concurrent use.
type Client struct {
	prefix string
	tags   map[string]string
	logger *slog.Logger

	mu sync.Mutex
	w  io.WriteCloser
}

var _ Sink = (*Client)(nil)

// Dial connects to cfg.Address over UDP.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, errors.New("statsd address is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	return newClient(conn, cfg, logger), nil
}

func newClient(w io.WriteCloser, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default().With("component", "statsd")
	}
	return &Client{
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		tags:   cleanTags(cfg.Tags),
		logger: logger,
		w:      w,
	}
}

// Count increments a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.emit(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge records the current value of a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.emit(name, strconv.FormatFloat(value, 'f', -1, 64), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.emit(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// Close releases the connection. Metrics emitted afterwards are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return nil
	}
	err := c.w.Close()
	c.w = nil
	return err
}

func (c *Client) emit(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	metric := metricName(c.prefix, name)
	if metric == "" {
		return
	}

	var line strings.Builder
	line.WriteString(metric)
	line.WriteByte(':')
	line.WriteString(value)
	line.WriteByte('|')
	line.WriteString(kind)
	line.WriteString(renderTags(c.tags, tags))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return
	}
	if _, err := io.WriteString(c.w, line.String()); err != nil {
		c.logger.Debug("statsd write failed", "metric", metric, "error", err)
	}
}

// metricName joins prefix and name, replacing characters that break the line protocol.
func metricName(prefix, name string) string {
	n := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', ':', '|', '@', '#', ',':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	n = strings.Trim(n, ".")
	switch {
	case n == "":
		return ""
	case prefix == "":
		return n
	default:
		return prefix + "." + n
	}
}

func renderTags(global, local map[string]string) string {
	if len(global) == 0 && len(local) == 0 {
		return ""
	}
	merged := cleanTags(global)
	for k, v := range cleanTags(local) {
		merged[k] = v
	}
	if len(merged) == 0 {
		return ""
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ":" + merged[k]
	}
	return "|#" + strings.Join(pairs, ",")
}

func cleanTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}
