package config

import (
	"errors"
	"fmt"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - runtime.go: Invocation mode, workers, and time budget
//   - aws.go: AWS region/endpoint, queue, and secret store settings
//   - database.go: Database and cache configuration
//   - pipeline.go: Ledger, table resolution, and bulk loader settings
//   - observability.go: Metrics and dead-letter notifications
type AppConfig struct {
	// LogLevel selects the slog level (debug, info, warn, error).
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Invocation mode configuration
	Runtime RuntimeConfig

	// AWS collaborators
	AWS     AWSConfig   `envPrefix:"AWS_"`
	Queue   QueueConfig `envPrefix:"SQS_"`
	Secrets SecretsConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// Pipeline configuration
	Ledger   LedgerConfig
	Resolver ResolverConfig
	Loader   LoaderConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Runtime.Sanitize()
	c.AWS.Sanitize()
	c.Queue.Sanitize()
	c.Secrets.Sanitize()
	c.Postgres.Sanitize()
	c.Redis.Sanitize()
	c.Ledger.Sanitize()
	c.Resolver.Sanitize()
	c.Loader.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports configuration that cannot be repaired by Sanitize.
// It must be called after Sanitize.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Runtime.Mode == ModePoll && c.Queue.QueueURL == "" {
		errs = append(errs, errors.New("SQS_QUEUE_URL is required in poll mode"))
	}
	if err := c.Resolver.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Loader.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Ledger.Table == c.Resolver.MappingTable {
		errs = append(errs, fmt.Errorf("ledger and mapping tables must differ (both %q)", c.Ledger.Table))
	}
	return errors.Join(errs...)
}
