package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func parseFrom(t *testing.T, vars map[string]string) AppConfig {
	t.Helper()
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()
	return cfg
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg := parseFrom(t, map[string]string{})

	if cfg.Runtime.Mode != ModePoll {
		t.Errorf("expected default mode poll, got %q", cfg.Runtime.Mode)
	}
	if cfg.Runtime.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Runtime.Workers)
	}
	if cfg.Ledger.Table != "processed_files" {
		t.Errorf("unexpected ledger table %q", cfg.Ledger.Table)
	}
	if cfg.Resolver.Strategy != ResolutionPrefix || cfg.Resolver.MappingTable != "table_mappings" {
		t.Errorf("unexpected resolver config %#v", cfg.Resolver)
	}
	if cfg.Loader.ChunkSize != DefaultCopyChunkSize || cfg.Loader.Delimiter != "," {
		t.Errorf("unexpected loader config %#v", cfg.Loader)
	}
	if cfg.Postgres.ConnectTimeout != 10*time.Second {
		t.Errorf("expected 10s connect timeout, got %s", cfg.Postgres.ConnectTimeout)
	}
	if cfg.Queue.MaxMessages != 10 || cfg.Queue.WaitTime != 20*time.Second {
		t.Errorf("unexpected queue config %#v", cfg.Queue)
	}
	if cfg.Redis.Enabled || cfg.Redis.ProcessedTTL != 24*time.Hour {
		t.Errorf("unexpected redis config %#v", cfg.Redis)
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	cfg := parseFrom(t, map[string]string{
		"INGEST_MODE":             "LAMBDA",
		"AWS_REGION":              "eu-west-1",
		"AWS_ENDPOINT":            "http://localhost:4566",
		"AWS_S3_FORCE_PATH_STYLE": "true",
		"SQS_QUEUE_URL":           "https://sqs.eu-west-1.amazonaws.com/123/ingest",
		"SQS_DLQ_URL":             "https://sqs.eu-west-1.amazonaws.com/123/ingest-dlq",
		"SECRET_NAME":             " prod/warehouse ",
		"TABLE_RESOLUTION":        "Mapping",
		"MAPPING_TABLE":           "ops.table_mappings",
		"PROCESSED_FILES_TABLE":   "ops.processed_files",
		"COPY_DELIMITER":          "|",
	})

	if cfg.Runtime.Mode != ModeLambda {
		t.Errorf("expected lambda mode, got %q", cfg.Runtime.Mode)
	}

	expectedAWS := AWSConfig{Region: "eu-west-1", Endpoint: "http://localhost:4566", S3ForcePathStyle: true}
	if !reflect.DeepEqual(cfg.AWS, expectedAWS) {
		t.Fatalf("unexpected aws configuration:\nexpected: %#v\ngot:      %#v", expectedAWS, cfg.AWS)
	}
	if !cfg.Queue.DeadLetterEnabled() {
		t.Error("expected dead-letter queue to be enabled")
	}
	if cfg.Secrets.SecretName != "prod/warehouse" {
		t.Errorf("expected trimmed secret name, got %q", cfg.Secrets.SecretName)
	}
	if cfg.Resolver.Strategy != ResolutionMapping {
		t.Errorf("expected mapping strategy, got %q", cfg.Resolver.Strategy)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoaderConfig_Sanitize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultCopyChunkSize},
		{-1, DefaultCopyChunkSize},
		{1024, MinCopyChunkSize},
		{128 * 1024, 128 * 1024},
		{64 * 1024 * 1024, MaxCopyChunkSize},
	}
	for _, tt := range tests {
		c := LoaderConfig{ChunkSize: tt.in, Delimiter: ","}
		c.Sanitize()
		if c.ChunkSize != tt.want {
			t.Errorf("ChunkSize(%d): expected %d, got %d", tt.in, tt.want, c.ChunkSize)
		}
	}
}

func TestQueueConfig_Sanitize(t *testing.T) {
	c := QueueConfig{MaxMessages: 50, WaitTime: time.Minute, VisibilityTimeout: -time.Second}
	c.Sanitize()
	if c.MaxMessages != 10 || c.WaitTime != 20*time.Second || c.VisibilityTimeout != 0 {
		t.Fatalf("unexpected sanitized queue config %#v", c)
	}
}

func TestRuntimeConfig_Sanitize(t *testing.T) {
	c := RuntimeConfig{Mode: "bogus", Workers: 1000, InvocationTimeout: -1}
	c.Sanitize()
	if c.Mode != ModePoll || c.Workers != maxWorkers || c.InvocationTimeout != defaultInvocationTimeout {
		t.Fatalf("unexpected sanitized runtime config %#v", c)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" Poll "); err != nil || m != ModePoll {
		t.Fatalf("expected poll, got %q (%v)", m, err)
	}
	if _, err := ParseMode("batch"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{
			name:    "poll mode requires queue url",
			vars:    map[string]string{"INGEST_MODE": "poll"},
			wantErr: "SQS_QUEUE_URL",
		},
		{
			name:    "lambda mode without queue url",
			vars:    map[string]string{"INGEST_MODE": "lambda"},
			wantErr: "",
		},
		{
			name:    "unknown resolution strategy",
			vars:    map[string]string{"INGEST_MODE": "lambda", "TABLE_RESOLUTION": "regex"},
			wantErr: "TABLE_RESOLUTION",
		},
		{
			name:    "multi-byte delimiter",
			vars:    map[string]string{"INGEST_MODE": "lambda", "COPY_DELIMITER": "||"},
			wantErr: "COPY_DELIMITER",
		},
		{
			name:    "quote delimiter",
			vars:    map[string]string{"INGEST_MODE": "lambda", "COPY_DELIMITER": `"`},
			wantErr: "COPY_DELIMITER",
		},
		{
			name: "ledger and mapping table collide",
			vars: map[string]string{
				"INGEST_MODE":           "lambda",
				"PROCESSED_FILES_TABLE": "meta",
				"MAPPING_TABLE":         "meta",
			},
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseFrom(t, tt.vars)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestObservability_AlertSinksFollowCredentials(t *testing.T) {
	cfg := parseFrom(t, map[string]string{
		"ALERTS_SLACK_CHANNEL":         "#ingest",
		"ALERTS_PAGERDUTY_ROUTING_KEY": " rk ",
		"ALERTS_RETRY_LIMIT":           "-1",
	})
	alerts := cfg.Observability.Alerts
	if alerts.Slack.Enabled() {
		t.Error("expected slack to be disabled without a webhook url")
	}
	if !alerts.PagerDuty.Enabled() || alerts.PagerDuty.RoutingKey != "rk" {
		t.Errorf("unexpected pagerduty config %#v", alerts.PagerDuty)
	}
	if alerts.RetryLimit != 0 || alerts.Timeout != 5*time.Second {
		t.Errorf("unexpected alert limits %#v", alerts)
	}
}

func TestObservability_MetricsSettings(t *testing.T) {
	cfg := parseFrom(t, map[string]string{
		"METRICS_ENABLED": "true",
		"METRICS_PREFIX":  " warehouse.ingest. ",
		"METRICS_TAGS":    "env:prod, team :data",
	})
	m := cfg.Observability.Metrics
	if !m.IsEnabled() {
		t.Fatal("expected metrics to be enabled")
	}
	if m.Prefix != "warehouse.ingest" {
		t.Errorf("unexpected prefix %q", m.Prefix)
	}
	want := map[string]string{"env": "prod", "team": "data"}
	if !reflect.DeepEqual(m.Tags, want) {
		t.Errorf("expected tags %v, got %v", want, m.Tags)
	}

	off := parseFrom(t, map[string]string{"METRICS_ENABLED": "true", "METRICS_STATSD_ADDRESS": " "})
	if off.Observability.Metrics.IsEnabled() {
		t.Error("expected metrics to be disabled without an address")
	}
}
