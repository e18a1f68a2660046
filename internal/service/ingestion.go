package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
)

// errLostRace aborts a transaction whose ledger insert lost to a concurrent worker, so the
// rows it copied are discarded with it.
var errLostRace = errors.New("object recorded by a concurrent worker")

// IngestionPipeline groups the collaborators every ingestion needs.
type IngestionPipeline struct {
	Ledger   core.LedgerStore   // Required
	Resolver core.TableResolver // Required
	Objects  core.ObjectStore   // Required
	Loader   core.BulkLoader    // Required
	// Now defaults to time.Now.
	Now func() time.Time
}

// IngestionServiceOptions groups dependencies for IngestionService.
type IngestionServiceOptions struct {
	Pipeline IngestionPipeline   // Required
	Cache    core.ProcessedCache // Optional: best-effort processed markers
	Logger   *slog.Logger        // Optional
}

// IngestionService loads one object per call, exactly once across redeliveries.
type IngestionService struct {
	ledger   core.LedgerStore
	resolver core.TableResolver
	objects  core.ObjectStore
	loader   core.BulkLoader
	cache    core.ProcessedCache
	now      func() time.Time
	logger   *slog.Logger
}

var _ core.Ingestor = (*IngestionService)(nil)

// NewIngestionService constructs an IngestionService.
func NewIngestionService(opts IngestionServiceOptions) (*IngestionService, error) {
	p := opts.Pipeline
	switch {
	case p.Ledger == nil:
		return nil, errors.New("LedgerStore is required")
	case p.Resolver == nil:
		return nil, errors.New("TableResolver is required")
	case p.Objects == nil:
		return nil, errors.New("ObjectStore is required")
	case p.Loader == nil:
		return nil, errors.New("BulkLoader is required")
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "ingestion")
	}

	return &IngestionService{
		ledger:   p.Ledger,
		resolver: p.Resolver,
		objects:  p.Objects,
		loader:   p.Loader,
		cache:    opts.Cache,
		now:      now,
		logger:   logger,
	}, nil
}

// MustNewIngestionService panics if construction fails.
func MustNewIngestionService(opts IngestionServiceOptions) *IngestionService {
	svc, err := NewIngestionService(opts)
	if err != nil {
		panic(err)
	}
	return svc
}

// ingestState carries what the transaction produced back to Ingest.
type ingestState struct {
	table     string
	duplicate bool
	rows      int64
	bytes     int64
	elapsed   time.Duration
}

// Ingest runs ref through the pipeline inside one transaction of sess. The ledger check, the
// load and the ledger insert commit together or not at all. Errors never escape: every
// failure is reported as a tagged outcome.
func (s *IngestionService) Ingest(ctx context.Context, sess core.Session, ref model.ObjectRef) model.IngestionOutcome {
	logger := s.logger.With("bucket", ref.Bucket, "key", ref.Key)
	start := s.now()

	if s.cachedAsProcessed(ctx, logger, ref) {
		logger.InfoContext(ctx, "object already processed", "source", "cache")
		return model.AlreadyProcessed()
	}

	var st ingestState
	err := sess.WithTx(ctx, func(tx pgx.Tx) error {
		return s.ingestInTx(ctx, tx, ref, start, &st)
	})

	var outcome model.IngestionOutcome
	switch {
	case errors.Is(err, errLostRace):
		logger.InfoContext(ctx, "object recorded by a concurrent worker; load rolled back")
		outcome = model.AlreadyProcessed()
	case err != nil:
		outcome = outcomeForError(err)
		logger.WarnContext(ctx, "ingestion failed",
			"outcome", outcome.Kind,
			"table", st.table,
			"error", err,
		)
	case st.duplicate:
		logger.InfoContext(ctx, "object already processed", "source", "ledger")
		outcome = model.AlreadyProcessed()
	default:
		outcome = model.Loaded(st.table, st.rows, st.elapsed)
		logger.InfoContext(ctx, "object loaded",
			"table", st.table,
			"rows", st.rows,
			"bytes", st.bytes,
			"duration", st.elapsed,
		)
	}

	if !outcome.Failed() {
		s.markProcessed(ctx, logger, ref)
	}
	return outcome
}

func (s *IngestionService) ingestInTx(
	ctx context.Context,
	tx pgx.Tx,
	ref model.ObjectRef,
	start time.Time,
	st *ingestState,
) error {
	if err := s.ledger.EnsureSchema(ctx, tx); err != nil {
		return fmt.Errorf("ensure ledger: %w", err)
	}

	table, err := s.resolver.Resolve(ctx, tx, ref.Key)
	if err != nil {
		return fmt.Errorf("resolve table: %w", err)
	}
	st.table = table

	done, err := s.ledger.IsProcessed(ctx, tx, ref)
	if err != nil {
		return fmt.Errorf("check ledger: %w", err)
	}
	if done {
		st.duplicate = true
		return nil
	}

	obj, err := s.objects.Open(ctx, ref)
	if err != nil {
		return fmt.Errorf("open %s: %w", ref, err)
	}
	defer func() {
		if cerr := obj.Body.Close(); cerr != nil {
			s.logger.DebugContext(ctx, "close object body", "object", ref.String(), "error", cerr)
		}
	}()

	res, err := s.loader.Load(ctx, tx, model.LoadRequest{
		Table:         table,
		Body:          obj.Body,
		ExpectedBytes: obj.ContentLength,
	})
	if err != nil {
		return fmt.Errorf("load into %s: %w", table, err)
	}

	size := obj.ContentLength
	if size < 0 {
		size = res.BytesRead
	}
	finished := s.now()
	rec := &model.IngestionRecord{
		Bucket:             ref.Bucket,
		Key:                ref.Key,
		TargetTable:        table,
		ProcessedAt:        finished,
		ProcessingDuration: max(finished.Sub(start), 0),
		RowsCopied:         res.RowsCopied,
		SourceSizeBytes:    size,
	}
	inserted, err := s.ledger.RecordProcessed(ctx, tx, rec)
	if err != nil {
		return fmt.Errorf("record ledger: %w", err)
	}
	if !inserted {
		return errLostRace
	}

	st.rows = res.RowsCopied
	st.bytes = res.BytesRead
	st.elapsed = rec.ProcessingDuration
	return nil
}

func (s *IngestionService) cachedAsProcessed(ctx context.Context, logger *slog.Logger, ref model.ObjectRef) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.IsProcessed(ctx, ref)
	if err != nil {
		logger.WarnContext(ctx, "processed cache lookup failed", "error", err)
		return false
	}
	return hit
}

func (s *IngestionService) markProcessed(ctx context.Context, logger *slog.Logger, ref model.ObjectRef) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkProcessed(ctx, ref); err != nil {
		logger.WarnContext(ctx, "processed cache update failed", "error", err)
	}
}

// outcomeForError maps a pipeline error onto an outcome. Only errors explicitly classified as
// validation or permanent drop the message; everything else is left for redelivery.
func outcomeForError(err error) model.IngestionOutcome {
	if apperrors.IsTerminal(err) {
		return model.PermanentFailure(err)
	}
	return model.RetryableFailure(err)
}
