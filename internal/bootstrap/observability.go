package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/observability/notify"
	"github.com/target/csv-ingestor/internal/observability/notify/pagerduty"
	"github.com/target/csv-ingestor/internal/observability/notify/slack"
	"github.com/target/csv-ingestor/internal/observability/statsd"
	"github.com/target/csv-ingestor/internal/service/deadletter"
)

// buildMetrics dials StatsD when enabled. A dial failure disables metrics rather than
// failing startup. The returned close func is never nil.
//
//nolint:ireturn // Discard and *statsd.Client are interchangeable sinks.
func buildMetrics(ctx context.Context, logger *slog.Logger, cfg config.MetricsConfig) (statsd.Sink, func() error) {
	if !cfg.IsEnabled() {
		return statsd.Discard, func() error { return nil }
	}
	client, err := statsd.Dial(ctx, statsd.Config{
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Tags:    cfg.Tags,
	}, logger.With("component", "statsd"))
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialise statsd client", "error", err)
		return statsd.Discard, func() error { return nil }
	}
	return client, client.Close
}

// buildDeadLetterNotifier registers every enabled sink. dlq may be nil.
func buildDeadLetterNotifier(
	logger *slog.Logger,
	cfg config.AlertsConfig,
	dlq notify.Sink,
) *deadletter.Service {
	sinks := make([]deadletter.SinkRegistration, 0, 3)
	if dlq != nil {
		sinks = append(sinks, deadletter.SinkRegistration{Name: "dlq", Sink: dlq})
	}

	if cfg.Slack.Enabled() {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:       cfg.Slack.WebhookURL,
			Channel:          cfg.Slack.Channel,
			Username:         cfg.Slack.Username,
			Timeout:          cfg.Timeout,
			RetryLimit:       cfg.RetryLimit,
			ConsoleURLPrefix: cfg.Slack.ConsoleURLPrefix,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, deadletter.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	if cfg.PagerDuty.Enabled() {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, deadletter.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}

	return deadletter.NewService(deadletter.Options{
		Logger: logger.With("component", "dead_letter"),
		Sinks:  sinks,
	})
}
