package config

import (
	"strings"
	"time"
)

// AWSConfig holds settings shared by every AWS client.
type AWSConfig struct {
	Region string `env:"REGION" envDefault:"us-east-1"`
	// Endpoint overrides the service endpoint (LocalStack, MinIO). Empty uses AWS.
	Endpoint string `env:"ENDPOINT"`
	// S3ForcePathStyle is required by most S3-compatible stores.
	S3ForcePathStyle bool `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	// StaticAccessKeyID and StaticSecretAccessKey pin credentials for local emulators.
	// When either is empty the SDK default credential chain is used.
	StaticAccessKeyID     string `env:"STATIC_ACCESS_KEY_ID"`
	StaticSecretAccessKey string `env:"STATIC_SECRET_ACCESS_KEY"`
}

// Sanitize trims whitespace.
func (c *AWSConfig) Sanitize() {
	c.Region = strings.TrimSpace(c.Region)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.StaticAccessKeyID = strings.TrimSpace(c.StaticAccessKeyID)
	c.StaticSecretAccessKey = strings.TrimSpace(c.StaticSecretAccessKey)
}

// HasStaticCredentials reports whether both static credential parts are set.
func (c *AWSConfig) HasStaticCredentials() bool {
	return c.StaticAccessKeyID != "" && c.StaticSecretAccessKey != ""
}

const (
	maxReceiveMessages = 10
	maxWaitTime        = 20 * time.Second
)

// QueueConfig controls the notification queue and its dead-letter sink.
type QueueConfig struct {
	QueueURL          string        `env:"QUEUE_URL"`
	DLQURL            string        `env:"DLQ_URL"`
	MaxMessages       int32         `env:"MAX_MESSAGES"       envDefault:"10"`
	WaitTime          time.Duration `env:"WAIT_TIME"          envDefault:"20s"`
	VisibilityTimeout time.Duration `env:"VISIBILITY_TIMEOUT" envDefault:"0s"`
}

// Sanitize clamps receive parameters to the ranges SQS accepts.
func (c *QueueConfig) Sanitize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.DLQURL = strings.TrimSpace(c.DLQURL)
	if c.MaxMessages <= 0 || c.MaxMessages > maxReceiveMessages {
		c.MaxMessages = maxReceiveMessages
	}
	if c.WaitTime < 0 {
		c.WaitTime = 0
	}
	if c.WaitTime > maxWaitTime {
		c.WaitTime = maxWaitTime
	}
	if c.VisibilityTimeout < 0 {
		c.VisibilityTimeout = 0
	}
}

// DeadLetterEnabled reports whether permanent failures are forwarded to a queue.
func (c *QueueConfig) DeadLetterEnabled() bool {
	return c.DLQURL != ""
}

// SecretsConfig names the Secrets Manager secret holding database credentials.
type SecretsConfig struct {
	// SecretName is empty in development, in which case the static DB_* settings are used.
	SecretName string `env:"SECRET_NAME"`
}

// Sanitize trims whitespace.
func (c *SecretsConfig) Sanitize() {
	c.SecretName = strings.TrimSpace(c.SecretName)
}
