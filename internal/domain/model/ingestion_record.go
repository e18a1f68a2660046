package model

import (
	"errors"
	"strings"
	"time"
)

// IngestionRecord is one ledger row: proof that an object was loaded into TargetTable.
// Rows are created in the same transaction as the load and never updated or deleted.
type IngestionRecord struct {
	ID                 int64         `json:"id"                  db:"id"`
	Bucket             string        `json:"bucket"              db:"bucket"`
	Key                string        `json:"key"                 db:"key"`
	TargetTable        string        `json:"target_table"        db:"target_table"`
	ProcessedAt        time.Time     `json:"processed_at"        db:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration" db:"processing_duration"`
	RowsCopied         int64         `json:"rows_copied"         db:"rows_copied"`
	SourceSizeBytes    int64         `json:"source_size_bytes"   db:"source_size_bytes"`
}

// Validate enforces the ledger invariants before insert.
func (r *IngestionRecord) Validate() error {
	if strings.TrimSpace(r.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if r.Key == "" {
		return errors.New("key is required")
	}
	if strings.TrimSpace(r.TargetTable) == "" {
		return errors.New("target_table is required")
	}
	if r.RowsCopied < 0 {
		return errors.New("rows_copied must be >= 0")
	}
	if r.SourceSizeBytes < 0 {
		return errors.New("source_size_bytes must be >= 0")
	}
	if r.ProcessingDuration < 0 {
		return errors.New("processing_duration must be >= 0")
	}
	return nil
}

// LedgerListOptions filters ledger listings for operator tooling.
type LedgerListOptions struct {
	Bucket *string `json:"bucket,omitempty"`
	Table  *string `json:"table,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// Normalize clamps paging values.
func (o *LedgerListOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}
