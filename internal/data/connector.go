package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
)

// ConnectorOptions configures a Connector.
type ConnectorOptions struct {
	Credentials core.CredentialSource // Required
	DSN         model.DSNOptions
	Logger      *slog.Logger
}

// Connector opens one database session per invocation. Credentials are fetched on every
// Open so rotated secrets take effect without a restart.
type Connector struct {
	creds  core.CredentialSource
	dsn    model.DSNOptions
	logger *slog.Logger
	// open is replaced in tests.
	open func(ctx context.Context, dsn string) (*sql.DB, error)
}

var _ core.SessionOpener = (*Connector)(nil)

// NewConnector constructs a Connector.
func NewConnector(opts ConnectorOptions) (*Connector, error) {
	if opts.Credentials == nil {
		return nil, errors.New("CredentialSource is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "connector")
	}
	return &Connector{creds: opts.Credentials, dsn: opts.DSN, logger: logger, open: pgxutil.Open}, nil
}

// Open implements core.SessionOpener. Any failure here is fatal to the invocation.
//
//nolint:ireturn // returns the port so dispatchers stay storage-agnostic
func (c *Connector) Open(ctx context.Context) (core.Session, error) {
	creds, err := c.creds.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch database credentials: %w", err)
	}

	db, err := c.open(ctx, creds.DSN(c.dsn))
	if err != nil {
		return nil, fmt.Errorf("connect to %s/%s: %w", creds.Host, creds.DBName, err)
	}
	c.logger.DebugContext(ctx, "database session opened", "host", creds.Host, "dbname", creds.DBName)
	return pgxutil.NewSession(db, nil), nil
}
