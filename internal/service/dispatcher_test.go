package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/csv-ingestor/internal/domain/model"
	apperrors "github.com/target/csv-ingestor/internal/errors"
	"github.com/target/csv-ingestor/internal/mocks"
	"github.com/target/csv-ingestor/internal/observability/notify"
	"github.com/target/csv-ingestor/internal/testutil"
)

type recordingNotifier struct {
	payloads []notify.DeadLetterPayload
	failed   int
}

func (r *recordingNotifier) Notify(_ context.Context, payload notify.DeadLetterPayload) int {
	r.payloads = append(r.payloads, payload)
	return r.failed
}

type dispatcherMocks struct {
	sessions *mocks.MockSessionOpener
	ingestor *mocks.MockIngestor
	acker    *mocks.MockMessageAcker
	notifier *recordingNotifier
	session  *fakeSession
}

func newTestDispatcher(t *testing.T) (*Dispatcher, dispatcherMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := dispatcherMocks{
		sessions: mocks.NewMockSessionOpener(ctrl),
		ingestor: mocks.NewMockIngestor(ctrl),
		acker:    mocks.NewMockMessageAcker(ctrl),
		notifier: &recordingNotifier{},
		session:  &fakeSession{},
	}
	d, err := NewDispatcher(DispatcherOptions{
		Pipeline:    DispatcherPipeline{Sessions: m.sessions, Ingestor: m.ingestor, Acker: m.acker},
		DeadLetters: m.notifier,
		Telemetry:   DispatcherTelemetry{NewID: func() string { return "inv-1" }},
	})
	require.NoError(t, err)
	return d, m
}

func (m dispatcherMocks) expectSession() {
	m.sessions.EXPECT().Open(gomock.Any()).Return(m.session, nil)
}

func message(id, bucket, key string) model.QueueMessage {
	return testutil.NewMessage(id).ForObject(bucket, key).Build()
}

func TestNewDispatcher_RequiredDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)

	_, err := NewDispatcher(DispatcherOptions{Pipeline: DispatcherPipeline{Ingestor: mocks.NewMockIngestor(ctrl)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SessionOpener is required")

	_, err = NewDispatcher(DispatcherOptions{Pipeline: DispatcherPipeline{Sessions: mocks.NewMockSessionOpener(ctrl)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ingestor is required")

	assert.Panics(t, func() { MustNewDispatcher(DispatcherOptions{}) })
}

func TestDispatcher_BatchIsolation(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.expectSession()

	batch := []model.QueueMessage{
		message("m1", "landing", "sales/a.csv"),
		testutil.NewMessage("m2").WithBody(`{"Records":[]}`).Build(),
		message("m3", "landing", "sales/c.csv"),
	}

	gomock.InOrder(
		m.ingestor.EXPECT().Ingest(gomock.Any(), m.session, model.ObjectRef{Bucket: "landing", Key: "sales/a.csv"}).
			Return(model.Loaded("sales", 10, 0)),
		m.ingestor.EXPECT().Ingest(gomock.Any(), m.session, model.ObjectRef{Bucket: "landing", Key: "sales/c.csv"}).
			Return(model.Loaded("sales", 5, 0)),
	)
	m.acker.EXPECT().Delete(gomock.Any(), "rh-m1").Return(nil)
	m.acker.EXPECT().Delete(gomock.Any(), "rh-m2").Return(nil)
	m.acker.EXPECT().Delete(gomock.Any(), "rh-m3").Return(nil)

	report, err := d.Dispatch(context.Background(), batch)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "inv-1", report.InvocationID)
	assert.Equal(t, model.OutcomeLoaded, report.Results[0].Outcome.Kind)
	assert.Equal(t, model.OutcomePermanentFailure, report.Results[1].Outcome.Kind)
	assert.True(t, apperrors.IsValidation(report.Results[1].Outcome.Cause))
	assert.Equal(t, model.OutcomeLoaded, report.Results[2].Outcome.Kind)
	assert.Empty(t, report.Retained())
	assert.True(t, m.session.closed)

	require.Len(t, m.notifier.payloads, 1)
	dl := m.notifier.payloads[0]
	assert.Equal(t, "m2", dl.MessageID)
	assert.Equal(t, "inv-1", dl.InvocationID)
	assert.Equal(t, `{"Records":[]}`, dl.OriginalMessage)
	assert.NotEmpty(t, dl.Error)
}

func TestDispatcher_PermanentVersusRetryableRouting(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.expectSession()

	privilege := apperrors.Permanent("permission denied for table sales")
	reset := apperrors.Retryable("connection reset by peer")

	m.ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.PermanentFailure(privilege))
	m.ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.RetryableFailure(reset))
	m.acker.EXPECT().Delete(gomock.Any(), "rh-denied").Return(nil)
	// No delete for the retryable message.

	report, err := d.Dispatch(context.Background(), []model.QueueMessage{
		message("denied", "landing", "sales/a.csv"),
		message("reset", "landing", "sales/b.csv"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.ActionDeadLetter, report.Results[0].Action)
	assert.Equal(t, model.ActionRetain, report.Results[1].Action)
	assert.Equal(t, []string{"reset"}, report.Retained())
	require.Len(t, m.notifier.payloads, 1)
	assert.Equal(t, "landing", m.notifier.payloads[0].Bucket)
	assert.Equal(t, "sales/a.csv", m.notifier.payloads[0].Key)
}

func TestDispatcher_SessionFailureTouchesNothing(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.sessions.EXPECT().Open(gomock.Any()).Return(nil, errors.New("secret unavailable"))
	// No Ingest or Delete expectations.

	report, err := d.Dispatch(context.Background(), []model.QueueMessage{
		message("m1", "landing", "sales/a.csv"),
		message("m2", "landing", "sales/b.csv"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret unavailable")
	assert.Empty(t, report.Results)
}

func TestDispatcher_MalformedBatchRejectedBeforeSession(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), []model.QueueMessage{
		message("m1", "landing", "sales/a.csv"),
		{MessageID: "m2", ReceiptToken: "rh-m2"},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformedBatch)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDispatcher_EmptyBatch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	report, err := d.Dispatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestDispatcher_DeleteFailureRetainsMessage(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.expectSession()

	m.ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.AlreadyProcessed())
	m.acker.EXPECT().Delete(gomock.Any(), "rh-m1").Return(errors.New("throttled"))

	report, err := d.Dispatch(context.Background(), []model.QueueMessage{message("m1", "landing", "sales/a.csv")})
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	require.Error(t, report.Results[0].AckErr)
	assert.Equal(t, []string{"m1"}, report.Retained())
}

func TestDispatcher_DeadLetterFailureStillDeletes(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.expectSession()
	m.notifier.failed = 1

	m.ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.PermanentFailure(apperrors.Permanent("no mapping")))
	m.acker.EXPECT().Delete(gomock.Any(), "rh-m1").Return(nil)

	report, err := d.Dispatch(context.Background(), []model.QueueMessage{message("m1", "landing", "x/a.csv")})
	require.NoError(t, err)
	assert.Empty(t, report.Retained())
}

func TestDispatcher_WithoutAckerLeavesAcknowledgementToCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	sessions := mocks.NewMockSessionOpener(ctrl)
	ingestor := mocks.NewMockIngestor(ctrl)
	sess := &fakeSession{}
	sessions.EXPECT().Open(gomock.Any()).Return(sess, nil)
	ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Loaded("sales", 1, 0))
	ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.RetryableFailure(errors.New("reset")))

	d := MustNewDispatcher(DispatcherOptions{Pipeline: DispatcherPipeline{Sessions: sessions, Ingestor: ingestor}})

	report, err := d.Dispatch(context.Background(), []model.QueueMessage{
		message("ok", "landing", "sales/a.csv"),
		message("retry", "landing", "sales/b.csv"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"retry"}, report.Retained())
	assert.NotEmpty(t, report.InvocationID)
	assert.True(t, sess.closed)
}

func TestDispatcher_CanceledContextStillVisitsEveryMessage(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.expectSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.ingestor.EXPECT().Ingest(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(model.RetryableFailure(context.Canceled)).Times(2)

	report, err := d.Dispatch(ctx, []model.QueueMessage{
		message("m1", "landing", "sales/a.csv"),
		message("m2", "landing", "sales/b.csv"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, report.Retained())
}
