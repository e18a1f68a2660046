package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

var (
	// ErrLedgerRecordNotFound is returned when no ledger row exists for an object.
	ErrLedgerRecordNotFound = errors.New("ledger record not found")
	// ErrLedgerReadsNotConfigured is returned by read helpers on a repo built without a DB.
	ErrLedgerReadsNotConfigured = errors.New("ledger repository has no database handle")
)

// LedgerRepo stores the processed-files ledger. Pipeline methods run inside the caller's
// transaction; Get and List use DB and serve operator tooling.
type LedgerRepo struct {
	DB *sql.DB

	name    string
	ident   string
	ensured atomic.Bool
}

// NewLedgerRepo creates a LedgerRepo for the given table ("table" or "schema.table").
// db may be nil when only the transactional methods are used.
func NewLedgerRepo(db *sql.DB, table string) (*LedgerRepo, error) {
	ident, err := quoteTableName(table)
	if err != nil {
		return nil, fmt.Errorf("ledger table: %w", err)
	}
	return &LedgerRepo{DB: db, name: table, ident: ident}, nil
}

// Table returns the configured table name.
func (r *LedgerRepo) Table() string {
	return r.name
}

// EnsureSchema creates the ledger table when it is missing. Once the table has been seen
// the check is skipped for the rest of the process.
func (r *LedgerRepo) EnsureSchema(ctx context.Context, tx pgx.Tx) error {
	if r.ensured.Load() {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, r.ident).Scan(&exists); err != nil {
		return fmt.Errorf("check ledger table: %w", apperrors.ClassifyDBError(err))
	}
	if exists {
		r.ensured.Store(true)
		return nil
	}

	// Not memoized here: the table only becomes durable once the caller commits.
	if _, err := tx.Exec(ctx, r.createTableSQL()); err != nil {
		if apperrors.IsUniqueViolation(err) || apperrors.SQLState(err) == pgerrcode.DuplicateTable {
			return apperrors.Wrap(err, apperrors.ErrCodeRetryable, "ledger table created concurrently")
		}
		return fmt.Errorf("create ledger table: %w", apperrors.ClassifyDBError(err))
	}
	return nil
}

func (r *LedgerRepo) createTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS ` + r.ident + ` (
		id BIGSERIAL PRIMARY KEY,
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		target_table TEXT NOT NULL,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		processing_time INTERVAL NOT NULL,
		rows_copied BIGINT NOT NULL CHECK (rows_copied >= 0),
		s3_size_bytes BIGINT NOT NULL CHECK (s3_size_bytes >= 0),
		UNIQUE (bucket, key)
	)`
}

// IsProcessed reports whether a ledger row exists for ref, as seen by tx.
func (r *LedgerRepo) IsProcessed(ctx context.Context, tx pgx.Tx, ref model.ObjectRef) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ` + r.ident + ` WHERE bucket = $1 AND key = $2)`
	if err := tx.QueryRow(ctx, query, ref.Bucket, ref.Key).Scan(&exists); err != nil {
		return false, fmt.Errorf("check ledger: %w", apperrors.ClassifyDBError(err))
	}
	return exists, nil
}

// RecordProcessed inserts rec. It returns false without error when another transaction
// already recorded the same (bucket, key); the uniqueness constraint serializes the two.
func (r *LedgerRepo) RecordProcessed(ctx context.Context, tx pgx.Tx, rec *model.IngestionRecord) (bool, error) {
	if rec == nil {
		return false, apperrors.Internal("ledger record is required")
	}
	if err := rec.Validate(); err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeInternal, "invalid ledger record")
	}

	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	query := `INSERT INTO ` + r.ident + `
		(bucket, key, target_table, processed_at, processing_time, rows_copied, s3_size_bytes)
		VALUES ($1, $2, $3, $4, $5::bigint * interval '1 microsecond', $6, $7)
		ON CONFLICT (bucket, key) DO NOTHING`

	tag, err := tx.Exec(ctx, query,
		rec.Bucket,
		rec.Key,
		rec.TargetTable,
		processedAt.UTC(),
		rec.ProcessingDuration.Microseconds(),
		rec.RowsCopied,
		rec.SourceSizeBytes,
	)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("record ledger row: %w", apperrors.ClassifyDBError(err))
	}
	return tag.RowsAffected() == 1, nil
}

// ledgerRow matches the column list of ledgerSelect.
type ledgerRow struct {
	ID               int64     `db:"id"`
	Bucket           string    `db:"bucket"`
	Key              string    `db:"key"`
	TargetTable      string    `db:"target_table"`
	ProcessedAt      time.Time `db:"processed_at"`
	ProcessingTimeUS int64     `db:"processing_time_us"`
	RowsCopied       int64     `db:"rows_copied"`
	SourceSizeBytes  int64     `db:"s3_size_bytes"`
}

func (row ledgerRow) toModel() *model.IngestionRecord {
	return &model.IngestionRecord{
		ID:                 row.ID,
		Bucket:             row.Bucket,
		Key:                row.Key,
		TargetTable:        row.TargetTable,
		ProcessedAt:        row.ProcessedAt,
		ProcessingDuration: time.Duration(row.ProcessingTimeUS) * time.Microsecond,
		RowsCopied:         row.RowsCopied,
		SourceSizeBytes:    row.SourceSizeBytes,
	}
}

const ledgerColumns = `id, bucket, key, target_table, processed_at,
	(EXTRACT(EPOCH FROM processing_time) * 1000000)::bigint AS processing_time_us,
	rows_copied, s3_size_bytes`

// Get returns the ledger row for (bucket, key).
func (r *LedgerRepo) Get(ctx context.Context, bucket, key string) (*model.IngestionRecord, error) {
	if r.DB == nil {
		return nil, ErrLedgerReadsNotConfigured
	}
	var row ledgerRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+ledgerColumns+` FROM `+r.ident+` WHERE bucket = $1 AND key = $2`, bucket, key)
		if err != nil {
			return err
		}
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[ledgerRow])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLedgerRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger record: %w", err)
	}
	return row.toModel(), nil
}

// List returns ledger rows, newest first.
func (r *LedgerRepo) List(ctx context.Context, opts model.LedgerListOptions) ([]*model.IngestionRecord, error) {
	if r.DB == nil {
		return nil, ErrLedgerReadsNotConfigured
	}
	opts.Normalize()

	var (
		where []string
		args  []any
	)
	if opts.Bucket != nil {
		args = append(args, *opts.Bucket)
		where = append(where, fmt.Sprintf("bucket = $%d", len(args)))
	}
	if opts.Table != nil {
		args = append(args, *opts.Table)
		where = append(where, fmt.Sprintf("target_table = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + ledgerColumns + ` FROM ` + r.ident)
	if len(where) > 0 {
		sb.WriteString(` WHERE ` + strings.Join(where, " AND "))
	}
	args = append(args, opts.Limit, opts.Offset)
	fmt.Fprintf(&sb, ` ORDER BY processed_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var out []*model.IngestionRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, sb.String(), args...)
		if err != nil {
			return err
		}
		collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[ledgerRow])
		if err != nil {
			return err
		}
		out = make([]*model.IngestionRecord, 0, len(collected))
		for _, row := range collected {
			out = append(out, row.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger records: %w", err)
	}
	return out, nil
}

// quoteTableName validates a "table" or "schema.table" name and returns it quoted.
func quoteTableName(name string) (string, error) {
	parts, err := model.SplitTableName(name)
	if err != nil {
		return "", fmt.Errorf("%q: %w", name, err)
	}
	return pgx.Identifier(parts).Sanitize(), nil
}
