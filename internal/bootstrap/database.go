package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	"github.com/target/csv-ingestor/internal/migrate"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig config.DBConfig
	Logger   *slog.Logger
}

// DSNOptions returns the connection parameters that are not part of the credentials.
func DSNOptions(cfg config.DBConfig) model.DSNOptions {
	return model.DSNOptions{SSLMode: cfg.SSLMode, ConnectTimeout: cfg.ConnectTimeout}
}

// ConnectDB opens a long-lived database handle for operator tooling. The ingestion path opens
// one session per invocation through data.Connector instead.
func ConnectDB(ctx context.Context, creds core.CredentialSource, cfg DatabaseConfig) (*sql.DB, error) {
	c, err := creds.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch database credentials: %w", err)
	}

	db, err := pgxutil.Open(ctx, c.DSN(DSNOptions(cfg.DBConfig)))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.InfoContext(ctx, "database connected",
			"host", c.Host,
			"port", c.Port,
			"database", c.DBName,
		)
	}
	return db, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := migrate.Run(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
