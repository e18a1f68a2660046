package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

// ErrTableMappingNotFound is returned when deleting a prefix that has no mapping.
var ErrTableMappingNotFound = errors.New("table mapping not found")

// TableMappingRepo reads and maintains prefix-to-table mappings.
type TableMappingRepo struct {
	DB *sql.DB

	ident string
}

// NewTableMappingRepo creates a TableMappingRepo for the given table. db may be nil when
// only ListInTx is used.
func NewTableMappingRepo(db *sql.DB, table string) (*TableMappingRepo, error) {
	ident, err := quoteTableName(table)
	if err != nil {
		return nil, fmt.Errorf("mapping table: %w", err)
	}
	return &TableMappingRepo{DB: db, ident: ident}, nil
}

// EnsureSchema creates the mapping table when missing.
func (r *TableMappingRepo) EnsureSchema(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+r.ident+` (
		prefix TEXT PRIMARY KEY,
		table_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("create mapping table: %w", apperrors.ClassifyDBError(err))
	}
	return nil
}

// ListInTx returns every mapping visible to tx.
func (r *TableMappingRepo) ListInTx(ctx context.Context, tx pgx.Tx) ([]model.TableMapping, error) {
	rows, err := tx.Query(ctx, `SELECT prefix, table_name FROM `+r.ident)
	if err != nil {
		return nil, fmt.Errorf("list table mappings: %w", apperrors.ClassifyDBError(err))
	}
	mappings, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.TableMapping])
	if err != nil {
		return nil, fmt.Errorf("scan table mappings: %w", apperrors.ClassifyDBError(err))
	}
	return mappings, nil
}

// List returns every mapping ordered by prefix.
func (r *TableMappingRepo) List(ctx context.Context) ([]model.TableMapping, error) {
	var out []model.TableMapping
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT prefix, table_name FROM `+r.ident+` ORDER BY prefix`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TableMapping])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list table mappings: %w", err)
	}
	return out, nil
}

// Upsert creates or replaces the mapping for m.Prefix.
func (r *TableMappingRepo) Upsert(ctx context.Context, m model.TableMapping) error {
	m.Normalize()
	if err := m.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid table mapping")
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO `+r.ident+` (prefix, table_name) VALUES ($1, $2)
		ON CONFLICT (prefix) DO UPDATE SET table_name = EXCLUDED.table_name`, m.Prefix, m.TableName)
	if err != nil {
		return fmt.Errorf("upsert table mapping: %w", err)
	}
	return nil
}

// Delete removes the mapping for prefix.
func (r *TableMappingRepo) Delete(ctx context.Context, prefix string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM `+r.ident+` WHERE prefix = $1`, prefix)
	if err != nil {
		return fmt.Errorf("delete table mapping: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete table mapping: %w", err)
	}
	if n == 0 {
		return ErrTableMappingNotFound
	}
	return nil
}
