package config

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how batches reach the dispatcher.
type Mode string

const (
	// ModeLambda runs under the AWS Lambda runtime with an SQS event source mapping.
	ModeLambda Mode = "lambda"
	// ModePoll long-polls the queue from a long-running process.
	ModePoll Mode = "poll"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLambda:
		return ModeLambda, nil
	case ModePoll:
		return ModePoll, nil
	default:
		return "", fmt.Errorf("invalid ingest mode %q (valid: lambda, poll)", s)
	}
}

const (
	defaultWorkers           = 1
	maxWorkers               = 64
	defaultInvocationTimeout = 5 * time.Minute
	defaultResponseMargin    = 5 * time.Second
)

// RuntimeConfig controls how the ingestor is driven.
type RuntimeConfig struct {
	Mode Mode `env:"INGEST_MODE" envDefault:"poll"`
	// Workers is the number of concurrent poll loops. Each loop processes its batch sequentially.
	Workers int `env:"INGEST_WORKERS" envDefault:"1"`
	// InvocationTimeout bounds one batch dispatch in poll mode. Lambda mode uses the runtime deadline.
	InvocationTimeout time.Duration `env:"INGEST_INVOCATION_TIMEOUT" envDefault:"5m"`
	// ResponseMargin is kept free before the Lambda deadline to return the batch response.
	ResponseMargin time.Duration `env:"INGEST_LAMBDA_RESPONSE_MARGIN" envDefault:"5s"`
}

// Sanitize normalises the mode and clamps worker counts and timeouts.
func (c *RuntimeConfig) Sanitize() {
	if m, err := ParseMode(string(c.Mode)); err == nil {
		c.Mode = m
	} else {
		c.Mode = ModePoll
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.Workers > maxWorkers {
		c.Workers = maxWorkers
	}
	if c.InvocationTimeout <= 0 {
		c.InvocationTimeout = defaultInvocationTimeout
	}
	if c.ResponseMargin < 0 {
		c.ResponseMargin = defaultResponseMargin
	}
}
