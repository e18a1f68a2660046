package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/target/csv-ingestor/internal/data"
	"github.com/target/csv-ingestor/internal/domain/model"
)

type ledgerListFlags struct {
	bucket string
	table  string
	limit  int
	offset int
}

func (f ledgerListFlags) options() model.LedgerListOptions {
	opts := model.LedgerListOptions{Limit: f.limit, Offset: f.offset}
	if f.bucket != "" {
		opts.Bucket = &f.bucket
	}
	if f.table != "" {
		opts.Table = &f.table
	}
	return opts
}

func newLedgerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the processed-files ledger",
	}

	var flags ledgerListFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List ledger rows, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				repo, err := a.ledgerRepo(db)
				if err != nil {
					return err
				}
				records, err := repo.List(ctx, flags.options())
				if err != nil {
					return err
				}
				return writeLedger(cmd.OutOrStdout(), records)
			})
		},
	}
	list.Flags().StringVar(&flags.bucket, "bucket", "", "only rows for this bucket")
	list.Flags().StringVar(&flags.table, "table", "", "only rows loaded into this table")
	list.Flags().IntVar(&flags.limit, "limit", 50, "maximum rows to print (max 1000)")
	list.Flags().IntVar(&flags.offset, "offset", 0, "rows to skip")

	show := &cobra.Command{
		Use:   "show <bucket> <key>",
		Short: "Show the ledger row for one object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *sql.DB) error {
				repo, err := a.ledgerRepo(db)
				if err != nil {
					return err
				}
				rec, err := repo.Get(ctx, args[0], args[1])
				if errors.Is(err, data.ErrLedgerRecordNotFound) {
					return fmt.Errorf("s3://%s/%s has not been ingested", args[0], args[1])
				}
				if err != nil {
					return err
				}
				return writeLedger(cmd.OutOrStdout(), []*model.IngestionRecord{rec})
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func writeLedger(w io.Writer, records []*model.IngestionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "PROCESSED AT\tOBJECT\tTABLE\tROWS\tBYTES\tDURATION"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(tw, "%s\ts3://%s/%s\t%s\t%d\t%d\t%s\n",
			r.ProcessedAt.UTC().Format(time.RFC3339),
			r.Bucket, r.Key,
			r.TargetTable,
			r.RowsCopied,
			r.SourceSizeBytes,
			formatDuration(r.ProcessingDuration),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// formatDuration renders a processing duration, "-" when none was recorded.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
