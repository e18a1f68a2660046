package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/csv-ingestor/internal/core"
	"github.com/target/csv-ingestor/internal/data"
	"github.com/target/csv-ingestor/internal/data/pgxutil"
	"github.com/target/csv-ingestor/internal/domain/model"
	"github.com/target/csv-ingestor/internal/testutil"
)

// memObjectStore serves object bodies from memory.
type memObjectStore struct {
	objects map[string]string
	// failAfter, when positive, makes bodies fail after that many bytes.
	failAfter int
}

func (s *memObjectStore) Open(_ context.Context, ref model.ObjectRef) (*model.StoredObject, error) {
	body, ok := s.objects[ref.String()]
	if !ok {
		return nil, fmt.Errorf("no object %s", ref)
	}
	var r io.Reader = strings.NewReader(body)
	if s.failAfter > 0 {
		r = io.MultiReader(io.LimitReader(r, int64(s.failAfter)), errReader{errors.New("connection reset by peer")})
	}
	return &model.StoredObject{Ref: ref, Body: io.NopCloser(r), ContentLength: int64(len(body))}, nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

// failingLedger fails every ledger insert after delegating the other calls.
type failingLedger struct {
	core.LedgerStore
}

func (failingLedger) RecordProcessed(context.Context, pgx.Tx, *model.IngestionRecord) (bool, error) {
	return false, errors.New("connection lost before ledger insert")
}

func newIntegrationIngestion(t *testing.T, db *sql.DB, objects core.ObjectStore, wrap func(core.LedgerStore) core.LedgerStore) *IngestionService {
	t.Helper()
	ledger, err := data.NewLedgerRepo(db, "processed_files")
	require.NoError(t, err)
	loader, err := data.NewCopyLoader(data.CopyLoaderOptions{ChunkSize: 4096})
	require.NoError(t, err)

	var store core.LedgerStore = ledger
	if wrap != nil {
		store = wrap(ledger)
	}
	return MustNewIngestionService(IngestionServiceOptions{
		Pipeline: IngestionPipeline{
			Ledger:   store,
			Resolver: PrefixResolver{},
			Objects:  objects,
			Loader:   loader,
		},
	})
}

func TestIngestionService_Integration_Idempotence(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithDB(t, func(db *sql.DB) {
		ctx := context.Background()
		testutil.CreateTargetTable(t, db, "sales", "id INT NOT NULL, name TEXT NOT NULL")

		ref := model.ObjectRef{Bucket: "landing", Key: "sales/jan.csv"}
		objects := &memObjectStore{objects: map[string]string{ref.String(): testutil.NumberedCSV(100)}}
		svc := newIntegrationIngestion(t, db, objects, nil)
		sess := pgxutil.NewSession(db, nil)

		first := svc.Ingest(ctx, sess, ref)
		second := svc.Ingest(ctx, sess, ref)

		require.Equal(t, model.OutcomeLoaded, first.Kind, "cause: %v", first.Cause)
		assert.Equal(t, int64(100), first.RowsCopied)
		assert.Equal(t, model.OutcomeAlreadyProcessed, second.Kind)
		assert.Equal(t, int64(100), testutil.CountRows(t, db, "sales"))
		assert.Equal(t, int64(1), testutil.CountRows(t, db, "processed_files"))
	})
}

func TestIngestionService_Integration_MidLoadFailureLeavesNoRows(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithDB(t, func(db *sql.DB) {
		ctx := context.Background()
		testutil.CreateTargetTable(t, db, "sales", "id INT NOT NULL, name TEXT NOT NULL")

		ref := model.ObjectRef{Bucket: "landing", Key: "sales/big.csv"}
		body := testutil.NumberedCSV(5000)
		objects := &memObjectStore{objects: map[string]string{ref.String(): body}, failAfter: len(body) / 2}
		svc := newIntegrationIngestion(t, db, objects, nil)

		outcome := svc.Ingest(ctx, pgxutil.NewSession(db, nil), ref)

		assert.Equal(t, model.OutcomeRetryableFailure, outcome.Kind)
		assert.Equal(t, int64(0), testutil.CountRows(t, db, "sales"))
		assert.Equal(t, int64(0), testutil.CountRows(t, db, "processed_files"))
	})
}

func TestIngestionService_Integration_LedgerFailureRollsBackLoad(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithDB(t, func(db *sql.DB) {
		ctx := context.Background()
		testutil.CreateTargetTable(t, db, "sales", "id INT NOT NULL, name TEXT NOT NULL")

		ref := model.ObjectRef{Bucket: "landing", Key: "sales/jan.csv"}
		objects := &memObjectStore{objects: map[string]string{ref.String(): testutil.NumberedCSV(10)}}
		svc := newIntegrationIngestion(t, db, objects, func(l core.LedgerStore) core.LedgerStore {
			return failingLedger{LedgerStore: l}
		})

		outcome := svc.Ingest(ctx, pgxutil.NewSession(db, nil), ref)

		assert.Equal(t, model.OutcomeRetryableFailure, outcome.Kind)
		assert.Equal(t, int64(0), testutil.CountRows(t, db, "sales"))
	})
}

func TestIngestionService_Integration_MissingTableIsPermanent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithDB(t, func(db *sql.DB) {
		ref := model.ObjectRef{Bucket: "landing", Key: "no_such_table/jan.csv"}
		objects := &memObjectStore{objects: map[string]string{ref.String(): testutil.NumberedCSV(1)}}
		svc := newIntegrationIngestion(t, db, objects, nil)

		outcome := svc.Ingest(context.Background(), pgxutil.NewSession(db, nil), ref)

		assert.Equal(t, model.OutcomePermanentFailure, outcome.Kind)
		assert.Equal(t, int64(0), testutil.CountRows(t, db, "processed_files"))
	})
}

func TestIngestionService_Integration_ConcurrentDuplicateRace(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithDB(t, func(db *sql.DB) {
		ctx := context.Background()
		testutil.CreateTargetTable(t, db, "sales", "id INT NOT NULL, name TEXT NOT NULL")

		ref := model.ObjectRef{Bucket: "landing", Key: "sales/race.csv"}
		objects := &memObjectStore{objects: map[string]string{ref.String(): testutil.NumberedCSV(500)}}
		svc := newIntegrationIngestion(t, db, objects, nil)

		outcomes := make([]model.IngestionOutcome, 2)
		runner := testutil.NewConcurrentTestRunner(t)
		errs := runner.RunConcurrent(
			func() error { outcomes[0] = svc.Ingest(ctx, pgxutil.NewSession(db, nil), ref); return nil },
			func() error { outcomes[1] = svc.Ingest(ctx, pgxutil.NewSession(db, nil), ref); return nil },
		)
		runner.AssertNoErrors(errs)

		kinds := []model.OutcomeKind{outcomes[0].Kind, outcomes[1].Kind}
		assert.ElementsMatch(t, []model.OutcomeKind{model.OutcomeLoaded, model.OutcomeAlreadyProcessed}, kinds,
			"causes: %v / %v", outcomes[0].Cause, outcomes[1].Cause)
		assert.Equal(t, int64(500), testutil.CountRows(t, db, "sales"))
		assert.Equal(t, int64(1), testutil.CountRows(t, db, "processed_files"))
	})
}
