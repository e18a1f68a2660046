package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}
	// .env may set LOG_LEVEL.
	logger = bootstrap.InitLogger(cfg.LogLevel)
	logStartupInfo(ctx, logger, &cfg)

	awsCfg, err := bootstrap.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	if cfg.Postgres.RunMigrationsOnStart {
		if err = migrateOnStart(ctx, awsCfg, &cfg, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	redisClient := connectCache(ctx, &cfg, logger)
	if redisClient != nil {
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	ing, err := bootstrap.BuildIngestor(ctx, bootstrap.IngestorDeps{
		Config: &cfg,
		AWS:    awsCfg,
		Redis:  redisClient,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build ingestor: %w", err)
	}
	defer func() {
		if cerr := ing.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close ingestor failed", "error", cerr)
		}
	}()

	switch cfg.Runtime.Mode {
	case config.ModeLambda:
		return bootstrap.RunLambda(ing, &cfg, logger)
	default:
		return bootstrap.RunPoller(ctx, ing, &cfg, logger)
	}
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting csv ingestor",
		"mode", cfg.Runtime.Mode,
		"workers", cfg.Runtime.Workers,
		"ledger_table", cfg.Ledger.Table,
		"table_resolution", cfg.Resolver.Strategy,
		"redis_cache", cfg.Redis.Enabled,
	)
}

func migrateOnStart(ctx context.Context, awsCfg aws.Config, cfg *config.AppConfig, logger *slog.Logger) error {
	creds, err := bootstrap.NewCredentialSource(awsCfg, cfg)
	if err != nil {
		return err
	}
	db, err := bootstrap.ConnectDB(ctx, creds, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	return bootstrap.RunMigrations(ctx, db, logger)
}

// connectCache returns nil when the processed-marker cache is disabled. A Redis outage at
// startup disables the cache instead of failing; the ledger remains authoritative.
//
//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func connectCache(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) redis.UniversalClient {
	if !cfg.Redis.Enabled {
		return nil
	}
	client, err := bootstrap.ConnectCache(ctx, cfg.Redis, logger)
	if err != nil {
		logger.WarnContext(ctx, "processed cache disabled", "error", err)
		return nil
	}
	return client
}
