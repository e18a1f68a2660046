package bootstrap

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/csv-ingestor/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "ParseLogLevel(%q)", in)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SQS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/123/ingest")
	t.Setenv("INGEST_MODE", "poll")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(&cfg))
	assert.Equal(t, config.ModePoll, cfg.Runtime.Mode)
	assert.Equal(t, "processed_files", cfg.Ledger.Table)
	assert.Equal(t, config.ResolutionPrefix, cfg.Resolver.Strategy)
}

func TestValidateConfigRejectsInvalidStrategy(t *testing.T) {
	t.Setenv("INGEST_MODE", "lambda")
	t.Setenv("TABLE_RESOLUTION", "guess")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	err = ValidateConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TABLE_RESOLUTION")
}

func TestValidateConfigRequiresQueueInPollMode(t *testing.T) {
	t.Setenv("INGEST_MODE", "poll")
	t.Setenv("SQS_QUEUE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	err = ValidateConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQS_QUEUE_URL")
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
