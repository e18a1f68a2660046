package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/target/csv-ingestor/config"
	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/data"
	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	"github.com/target/csv-ingestor/internal/service"
)

func newMappingsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Manage prefix-to-table mappings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every mapping",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
					repo, err := a.mappingRepo(db)
					if err != nil {
						return err
					}
					mappings, err := repo.List(ctx)
					if err != nil {
						return err
					}
					return writeMappings(cmd.OutOrStdout(), mappings)
				})
			},
		},
		&cobra.Command{
			Use:   "add <prefix> <table>",
			Short: "Create or replace the mapping for a prefix",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				m := model.TableMapping{Prefix: args[0], TableName: args[1]}
				m.Normalize()
				if err := m.Validate(); err != nil {
					return err
				}
				return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
					repo, err := a.mappingRepo(db)
					if err != nil {
						return err
					}
					if upsertErr := repo.Upsert(ctx, m); upsertErr != nil {
						return upsertErr
					}
					return writef(cmd, "%s -> %s\n", m.Prefix, m.TableName)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <prefix>",
			Short: "Delete the mapping for a prefix",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
					repo, err := a.mappingRepo(db)
					if err != nil {
						return err
					}
					if delErr := repo.Delete(ctx, args[0]); delErr != nil {
						if errors.Is(delErr, data.ErrTableMappingNotFound) {
							return fmt.Errorf("no mapping for prefix %q", args[0])
						}
						return delErr
					}
					return writef(cmd, "removed %s\n", args[0])
				})
			},
		},
	)
	return cmd
}

func writeMappings(w io.Writer, mappings []model.TableMapping) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "PREFIX\tTABLE"); err != nil {
		return err
	}
	for _, m := range mappings {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", m.Prefix, m.TableName); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <key>",
		Short: "Show the table an object key would be loaded into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mappings core.TableMappingSource
			if a.cfg.Resolver.Strategy == config.ResolutionMapping {
				repo, err := data.NewTableMappingRepo(nil, a.cfg.Resolver.MappingTable)
				if err != nil {
					return err
				}
				mappings = repo
			}
			resolver, err := service.NewTableResolver(string(a.cfg.Resolver.Strategy), mappings)
			if err != nil {
				return err
			}
			if mappings == nil {
				// Prefix resolution never reads the database.
				table, resolveErr := resolver.Resolve(cmd.Context(), nil, args[0])
				if resolveErr != nil {
					return resolveErr
				}
				return writef(cmd, "%s\n", table)
			}
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				var table string
				err := pgxutil.NewSession(db, nil).WithTx(ctx, func(tx pgx.Tx) error {
					var resolveErr error
					table, resolveErr = resolver.Resolve(ctx, tx, args[0])
					return resolveErr
				})
				if err != nil {
					return err
				}
				return writef(cmd, "%s\n", table)
			})
		},
	}
}
