package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/bootstrap"
	"github.com/target/csv-ingestor/internal/data"
)

const defaultCommandTimeout = 5 * time.Minute

// app carries state shared by every subcommand.
type app struct {
	logger  *slog.Logger
	cfg     config.AppConfig
	timeout time.Duration
	// connect is replaced in tests.
	connect func(ctx context.Context, a *app) (*sql.DB, error)
}

func main() {
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{logger: logger, connect: connectDB}).ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "command failed", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must signal failure to shell scripts
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ingestor-admin",
		Short:         "Operator tooling for the CSV ingestor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", defaultCommandTimeout, "overall command timeout")

	cmd.AddCommand(
		newMigrateCommand(a),
		newEnsureLedgerCommand(a),
		newMappingsCommand(a),
		newResolveCommand(a),
		newLedgerCommand(a),
	)
	return cmd
}

// withDB runs fn with a database handle bounded by the command timeout.
func (a *app) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *sql.DB) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	db, err := a.connect(ctx, a)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			a.logger.WarnContext(ctx, "close database failed", "error", cerr)
		}
	}()
	return fn(ctx, db)
}

func connectDB(ctx context.Context, a *app) (*sql.DB, error) {
	awsCfg, err := bootstrap.LoadAWSConfig(ctx, a.cfg.AWS)
	if err != nil {
		return nil, err
	}
	creds, err := bootstrap.NewCredentialSource(awsCfg, &a.cfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.ConnectDB(ctx, creds, bootstrap.DatabaseConfig{DBConfig: a.cfg.Postgres, Logger: a.logger})
}

func (a *app) ledgerRepo(db *sql.DB) (*data.LedgerRepo, error) {
	return data.NewLedgerRepo(db, a.cfg.Ledger.Table)
}

func (a *app) mappingRepo(db *sql.DB) (*data.TableMappingRepo, error) {
	return data.NewTableMappingRepo(db, a.cfg.Resolver.MappingTable)
}

func writef(cmd *cobra.Command, format string, args ...any) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	return err
}
