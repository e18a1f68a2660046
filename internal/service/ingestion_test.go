package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
	"github.com/target/csv-ingestor/internal/mocks"
)

var testRef = model.ObjectRef{Bucket: "landing", Key: "sales/2024/jan.csv"}

type ingestionMocks struct {
	ledger   *mocks.MockLedgerStore
	resolver *mocks.MockTableResolver
	objects  *mocks.MockObjectStore
	loader   *mocks.MockBulkLoader
	cache    *mocks.MockProcessedCache
}

// steppingClock returns start on the first call and start+step on every call after.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		t := start.Add(time.Duration(calls) * step)
		calls++
		return t
	}
}

func newTestIngestionService(t *testing.T, withCache bool) (*IngestionService, ingestionMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := ingestionMocks{
		ledger:   mocks.NewMockLedgerStore(ctrl),
		resolver: mocks.NewMockTableResolver(ctrl),
		objects:  mocks.NewMockObjectStore(ctrl),
		loader:   mocks.NewMockBulkLoader(ctrl),
	}
	opts := IngestionServiceOptions{
		Pipeline: IngestionPipeline{
			Ledger:   m.ledger,
			Resolver: m.resolver,
			Objects:  m.objects,
			Loader:   m.loader,
			Now:      steppingClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), 2*time.Second),
		},
	}
	if withCache {
		m.cache = mocks.NewMockProcessedCache(ctrl)
		opts.Cache = m.cache
	}
	svc, err := NewIngestionService(opts)
	require.NoError(t, err)
	return svc, m
}

func storedObject(body string) *model.StoredObject {
	return &model.StoredObject{
		Ref:           testRef,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

func (m ingestionMocks) expectUpToDedup(processed bool) {
	m.ledger.EXPECT().EnsureSchema(gomock.Any(), gomock.Any()).Return(nil)
	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), testRef.Key).Return("sales", nil)
	m.ledger.EXPECT().IsProcessed(gomock.Any(), gomock.Any(), testRef).Return(processed, nil)
}

func TestNewIngestionService_RequiredDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	full := IngestionPipeline{
		Ledger:   mocks.NewMockLedgerStore(ctrl),
		Resolver: mocks.NewMockTableResolver(ctrl),
		Objects:  mocks.NewMockObjectStore(ctrl),
		Loader:   mocks.NewMockBulkLoader(ctrl),
	}

	tests := []struct {
		name    string
		mutate  func(p *IngestionPipeline)
		wantErr string
	}{
		{"ledger", func(p *IngestionPipeline) { p.Ledger = nil }, "LedgerStore is required"},
		{"resolver", func(p *IngestionPipeline) { p.Resolver = nil }, "TableResolver is required"},
		{"objects", func(p *IngestionPipeline) { p.Objects = nil }, "ObjectStore is required"},
		{"loader", func(p *IngestionPipeline) { p.Loader = nil }, "BulkLoader is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := full
			tt.mutate(&p)
			svc, err := NewIngestionService(IngestionServiceOptions{Pipeline: p})
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	svc, err := NewIngestionService(IngestionServiceOptions{Pipeline: full})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestMustNewIngestionService_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewIngestionService(IngestionServiceOptions{})
	})
}

func TestIngestionService_Loaded(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}
	body := "id,name\n1,a\n2,b\n3,c\n"

	m.expectUpToDedup(false)
	m.objects.EXPECT().Open(gomock.Any(), testRef).Return(storedObject(body), nil)
	m.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, req model.LoadRequest) (model.LoadResult, error) {
			assert.Equal(t, "sales", req.Table)
			assert.Equal(t, int64(len(body)), req.ExpectedBytes)
			n, err := io.Copy(io.Discard, req.Body)
			require.NoError(t, err)
			return model.LoadResult{RowsCopied: 3, BytesRead: n}, nil
		})
	m.ledger.EXPECT().RecordProcessed(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, rec *model.IngestionRecord) (bool, error) {
			assert.Equal(t, "landing", rec.Bucket)
			assert.Equal(t, testRef.Key, rec.Key)
			assert.Equal(t, "sales", rec.TargetTable)
			assert.Equal(t, int64(3), rec.RowsCopied)
			assert.Equal(t, int64(len(body)), rec.SourceSizeBytes)
			assert.Equal(t, 2*time.Second, rec.ProcessingDuration)
			assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 2, 0, time.UTC), rec.ProcessedAt)
			return true, nil
		})

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeLoaded, outcome.Kind)
	assert.Equal(t, "sales", outcome.TargetTable)
	assert.Equal(t, int64(3), outcome.RowsCopied)
	assert.Equal(t, 2*time.Second, outcome.Duration)
	assert.Equal(t, 1, sess.commits)
	assert.Equal(t, 0, sess.rollbacks)
}

func TestIngestionService_AlreadyProcessedSkipsObjectRead(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}

	m.expectUpToDedup(true)
	// No Open, Load or RecordProcessed expectations: any call fails the test.

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeAlreadyProcessed, outcome.Kind)
	assert.Equal(t, 1, sess.commits)
}

func TestIngestionService_SecondDeliveryIsNoop(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}
	recorded := false

	m.ledger.EXPECT().EnsureSchema(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), testRef.Key).Return("sales", nil).Times(2)
	m.ledger.EXPECT().IsProcessed(gomock.Any(), gomock.Any(), testRef).
		DoAndReturn(func(context.Context, pgx.Tx, model.ObjectRef) (bool, error) { return recorded, nil }).
		Times(2)
	m.objects.EXPECT().Open(gomock.Any(), testRef).Return(storedObject("id\n1\n"), nil).Times(1)
	m.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.LoadResult{RowsCopied: 1}, nil).Times(1)
	m.ledger.EXPECT().RecordProcessed(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, pgx.Tx, *model.IngestionRecord) (bool, error) {
			recorded = true
			return true, nil
		}).Times(1)

	first := svc.Ingest(context.Background(), sess, testRef)
	second := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeLoaded, first.Kind)
	assert.Equal(t, model.OutcomeAlreadyProcessed, second.Kind)
}

func TestIngestionService_LostRaceRollsBack(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}

	m.expectUpToDedup(false)
	m.objects.EXPECT().Open(gomock.Any(), testRef).Return(storedObject("id\n1\n"), nil)
	m.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.LoadResult{RowsCopied: 1}, nil)
	m.ledger.EXPECT().RecordProcessed(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeAlreadyProcessed, outcome.Kind)
	assert.Equal(t, 0, sess.commits)
	assert.Equal(t, 1, sess.rollbacks, "rows copied by the losing worker must be rolled back")
}

func TestIngestionService_FailureClassification(t *testing.T) {
	privilege := apperrors.ClassifyDBError(&pgconn.PgError{Code: pgerrcode.InsufficientPrivilege, Message: "permission denied"})
	undefined := apperrors.ClassifyDBError(&pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: "relation does not exist"})
	reset := apperrors.ClassifyDBError(errors.New("read tcp: connection reset by peer"))

	tests := []struct {
		name string
		err  error
		want model.OutcomeKind
	}{
		{"insufficient privilege", privilege, model.OutcomePermanentFailure},
		{"undefined table", undefined, model.OutcomePermanentFailure},
		{"connection reset", reset, model.OutcomeRetryableFailure},
		{"unclassified", errors.New("boom"), model.OutcomeRetryableFailure},
		{"deadline", context.DeadlineExceeded, model.OutcomeRetryableFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestIngestionService(t, false)
			sess := &fakeSession{}

			m.expectUpToDedup(false)
			m.objects.EXPECT().Open(gomock.Any(), testRef).Return(storedObject("id\n1\n"), nil)
			m.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.LoadResult{}, tt.err)

			outcome := svc.Ingest(context.Background(), sess, testRef)

			assert.Equal(t, tt.want, outcome.Kind)
			require.Error(t, outcome.Cause)
			assert.ErrorIs(t, outcome.Cause, tt.err)
			assert.Equal(t, 1, sess.rollbacks)
			assert.Equal(t, 0, sess.commits)
		})
	}
}

func TestIngestionService_MalformedKeyIsPermanent(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerStore(ctrl)
	ledger.EXPECT().EnsureSchema(gomock.Any(), gomock.Any()).Return(nil)

	svc := MustNewIngestionService(IngestionServiceOptions{
		Pipeline: IngestionPipeline{
			Ledger:   ledger,
			Resolver: PrefixResolver{},
			Objects:  mocks.NewMockObjectStore(ctrl),
			Loader:   mocks.NewMockBulkLoader(ctrl),
		},
	})
	sess := &fakeSession{}

	outcome := svc.Ingest(context.Background(), sess, model.ObjectRef{Bucket: "landing", Key: "onlyfilename.csv"})

	assert.Equal(t, model.OutcomePermanentFailure, outcome.Kind)
	assert.Equal(t, 1, sess.rollbacks)
}

func TestIngestionService_MissingMappingTableKeepsMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mocks.NewMockLedgerStore(ctrl)
	ledger.EXPECT().EnsureSchema(gomock.Any(), gomock.Any()).Return(nil)
	source := mocks.NewMockTableMappingSource(ctrl)
	source.EXPECT().ListInTx(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.ClassifyDBError(&pgconn.PgError{Code: pgerrcode.UndefinedTable}))

	resolver, err := NewMappingResolver(source)
	require.NoError(t, err)
	svc := MustNewIngestionService(IngestionServiceOptions{
		Pipeline: IngestionPipeline{
			Ledger:   ledger,
			Resolver: resolver,
			Objects:  mocks.NewMockObjectStore(ctrl),
			Loader:   mocks.NewMockBulkLoader(ctrl),
		},
	})
	sess := &fakeSession{}

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeRetryableFailure, outcome.Kind)
	assert.Equal(t, model.ActionRetain, model.ActionFor(outcome))
	assert.Equal(t, 1, sess.rollbacks)
}

func TestIngestionService_ObjectStoreErrors(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}

	m.expectUpToDedup(false)
	m.objects.EXPECT().Open(gomock.Any(), testRef).Return(nil, apperrors.Permanent("object does not exist"))

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomePermanentFailure, outcome.Kind)
}

func TestIngestionService_UnknownContentLengthUsesBytesRead(t *testing.T) {
	svc, m := newTestIngestionService(t, false)
	sess := &fakeSession{}

	m.expectUpToDedup(false)
	obj := storedObject("id\n1\n")
	obj.ContentLength = -1
	m.objects.EXPECT().Open(gomock.Any(), testRef).Return(obj, nil)
	m.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.LoadResult{RowsCopied: 1, BytesRead: 5}, nil)
	m.ledger.EXPECT().RecordProcessed(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pgx.Tx, rec *model.IngestionRecord) (bool, error) {
			assert.Equal(t, int64(5), rec.SourceSizeBytes)
			return true, nil
		})

	outcome := svc.Ingest(context.Background(), sess, testRef)
	assert.Equal(t, model.OutcomeLoaded, outcome.Kind)
}

func TestIngestionService_CacheHitSkipsDatabase(t *testing.T) {
	svc, m := newTestIngestionService(t, true)
	sess := &fakeSession{}

	m.cache.EXPECT().IsProcessed(gomock.Any(), testRef).Return(true, nil)
	m.cache.EXPECT().MarkProcessed(gomock.Any(), testRef).Return(nil)

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeAlreadyProcessed, outcome.Kind)
	assert.Equal(t, 0, sess.commits+sess.rollbacks)
}

func TestIngestionService_CacheErrorsAreIgnored(t *testing.T) {
	svc, m := newTestIngestionService(t, true)
	sess := &fakeSession{}

	m.cache.EXPECT().IsProcessed(gomock.Any(), testRef).Return(false, errors.New("redis down"))
	m.expectUpToDedup(true)
	m.cache.EXPECT().MarkProcessed(gomock.Any(), testRef).Return(errors.New("redis down"))

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeAlreadyProcessed, outcome.Kind)
}

func TestIngestionService_FailureIsNotCached(t *testing.T) {
	svc, m := newTestIngestionService(t, true)
	sess := &fakeSession{}

	m.cache.EXPECT().IsProcessed(gomock.Any(), testRef).Return(false, nil)
	m.ledger.EXPECT().EnsureSchema(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	// No MarkProcessed expectation.

	outcome := svc.Ingest(context.Background(), sess, testRef)

	assert.Equal(t, model.OutcomeRetryableFailure, outcome.Kind)
}
