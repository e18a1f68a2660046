package core

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/domain/model"
)

// This file contains the ports between the ingestion services and their collaborators.
// Services depend on these interfaces; adapters and repositories implement them.

// Session is a database handle scoped to one invocation.
type Session interface {
	// WithTx runs fn inside one transaction. The transaction commits when fn returns nil
	// and rolls back otherwise.
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
	Close() error
}

// SessionOpener opens a fresh Session. Implementations fetch credentials on every call.
type SessionOpener interface {
	Open(ctx context.Context) (Session, error)
}

// CredentialSource returns database credentials.
type CredentialSource interface {
	Fetch(ctx context.Context) (model.DBCredentials, error)
}

// LedgerStore records which objects have been ingested. All methods run inside the caller's transaction.
type LedgerStore interface {
	EnsureSchema(ctx context.Context, tx pgx.Tx) error
	IsProcessed(ctx context.Context, tx pgx.Tx, ref model.ObjectRef) (bool, error)
	// RecordProcessed inserts rec and reports whether this call inserted it. false means a
	// concurrent writer recorded the same object first.
	RecordProcessed(ctx context.Context, tx pgx.Tx, rec *model.IngestionRecord) (bool, error)
}

// TableMappingSource lists prefix mappings visible to the caller's transaction.
type TableMappingSource interface {
	ListInTx(ctx context.Context, tx pgx.Tx) ([]model.TableMapping, error)
}

// TableResolver maps an object key to its destination table.
type TableResolver interface {
	Resolve(ctx context.Context, tx pgx.Tx, key string) (string, error)
}

// BulkLoader streams a delimited file into a table.
type BulkLoader interface {
	Load(ctx context.Context, tx pgx.Tx, req model.LoadRequest) (model.LoadResult, error)
}

// ObjectStore opens objects for streaming reads.
type ObjectStore interface {
	Open(ctx context.Context, ref model.ObjectRef) (*model.StoredObject, error)
}

// MessageAcker removes handled messages from the source queue.
type MessageAcker interface {
	Delete(ctx context.Context, receiptToken string) error
}

// ProcessedCache is a best-effort marker of objects already in the ledger.
type ProcessedCache interface {
	IsProcessed(ctx context.Context, ref model.ObjectRef) (bool, error)
	MarkProcessed(ctx context.Context, ref model.ObjectRef) error
}

// Ingestor runs one notification through the pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, sess Session, ref model.ObjectRef) model.IngestionOutcome
}

// BatchDispatcher processes one delivered batch.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, batch []model.QueueMessage) (model.BatchReport, error)
}
