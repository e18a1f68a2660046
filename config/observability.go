package config

import (
	"strings"
	"time"
)

const (
	defaultAlertSource   = "csv-ingestor"
	defaultMetricsPrefix = "csv_ingestor"
	defaultAlertTimeout  = 5 * time.Second
)

// ObservabilityConfig groups StatsD metrics and alerting on dead-lettered messages.
type ObservabilityConfig struct {
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Alerts  AlertsConfig  `envPrefix:"ALERTS_"`
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Alerts.Sanitize()
}

// MetricsConfig controls emission to a StatsD agent.
type MetricsConfig struct {
	Enabled       bool   `env:"ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"PREFIX"         envDefault:"csv_ingestor"`
	// Tags are attached to every metric, written as "env:prod,team:data".
	Tags map[string]string `env:"TAGS"`
}

// Sanitize trims values and turns metrics off when no agent address remains.
func (c *MetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	if c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), "."); c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
	if len(c.Tags) == 0 {
		return
	}
	tags := make(map[string]string, len(c.Tags))
	for k, v := range c.Tags {
		if k = strings.TrimSpace(k); k != "" {
			tags[k] = strings.TrimSpace(v)
		}
	}
	c.Tags = tags
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// AlertsConfig controls which external sinks hear about dead-lettered messages. A sink is
// active once its credential is set.
type AlertsConfig struct {
	Timeout    time.Duration   `env:"TIMEOUT"     envDefault:"5s"`
	RetryLimit int             `env:"RETRY_LIMIT" envDefault:"3"`
	Slack      SlackAlerts     `envPrefix:"SLACK_"`
	PagerDuty  PagerDutyAlerts `envPrefix:"PAGERDUTY_"`
}

// Sanitize normalises alert settings.
func (c *AlertsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultAlertTimeout
	}
	c.RetryLimit = max(c.RetryLimit, 0)

	c.Slack.WebhookURL = strings.TrimSpace(c.Slack.WebhookURL)
	c.Slack.Channel = strings.TrimSpace(c.Slack.Channel)
	c.Slack.ConsoleURLPrefix = strings.TrimRight(strings.TrimSpace(c.Slack.ConsoleURLPrefix), "/")
	if c.Slack.Username = strings.TrimSpace(c.Slack.Username); c.Slack.Username == "" {
		c.Slack.Username = defaultAlertSource
	}

	c.PagerDuty.RoutingKey = strings.TrimSpace(c.PagerDuty.RoutingKey)
	if c.PagerDuty.Source = strings.TrimSpace(c.PagerDuty.Source); c.PagerDuty.Source == "" {
		c.PagerDuty.Source = defaultAlertSource
	}
}

// SlackAlerts posts dead-lettered objects to an incoming webhook.
type SlackAlerts struct {
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"     envDefault:"csv-ingestor"`
	// ConsoleURLPrefix links the object in the message: <prefix>/<bucket>/<key>.
	ConsoleURLPrefix string `env:"CONSOLE_URL_PREFIX"`
}

// Enabled reports whether a webhook is configured.
func (s SlackAlerts) Enabled() bool { return s.WebhookURL != "" }

// PagerDutyAlerts raises an Events API v2 incident per dead-lettered object.
type PagerDutyAlerts struct {
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"      envDefault:"csv-ingestor"`
}

// Enabled reports whether a routing key is configured.
func (p PagerDutyAlerts) Enabled() bool { return p.RoutingKey != "" }
