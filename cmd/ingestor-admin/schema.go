package main

import (
	"context"
	"database/sql"
	"fmt"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/target/csv-ingestor/internal/bootstrap"
	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/migrate"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				return bootstrap.RunMigrations(ctx, db, a.logger)
			})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether each is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				status, err := migrate.Status(ctx, db)
				if err != nil {
					return err
				}
				return writeMigrationStatus(cmd, status)
			})
		},
	})
	return cmd
}

func writeMigrationStatus(cmd *cobra.Command, status []migrate.Migration) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "VERSION\tAPPLIED"); err != nil {
		return err
	}
	for _, m := range status {
		if _, err := fmt.Fprintf(w, "%s\t%t\n", m.Version, m.Applied); err != nil {
			return err
		}
	}
	return w.Flush()
}

func newEnsureLedgerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-ledger",
		Short: "Create the configured ledger and mapping tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				ledger, err := a.ledgerRepo(db)
				if err != nil {
					return err
				}
				mappings, err := a.mappingRepo(db)
				if err != nil {
					return err
				}
				err = pgxutil.NewSession(db, nil).WithTx(ctx, func(tx pgx.Tx) error {
					if ensureErr := ledger.EnsureSchema(ctx, tx); ensureErr != nil {
						return ensureErr
					}
					return mappings.EnsureSchema(ctx, tx)
				})
				if err != nil {
					return err
				}
				return writef(cmd, "ledger %s and mappings %s ready\n", a.cfg.Ledger.Table, a.cfg.Resolver.MappingTable)
			})
		},
	}
}
