package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReports struct{ mock.Mock }

func (m *MockReports) Handle(ctx context.Context, query queries.GetReportQuery) (queries.Report, error) {
	args := m.Called(ctx, query)
	r, _ := args.Get(0).(queries.Report)
	return r, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Send(ctx context.Context, msg ports.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type MockDay struct{ mock.Mock }

func (m *MockDay) Rollover(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockClearer struct{ mock.Mock }

func (m *MockClearer) Clear() int {
	return m.Called().Int(0)
}

type rolloverFixture struct {
	reports  *MockReports
	notifier *MockNotifier
	day      *MockDay
	clearer  *MockClearer
	job      *RolloverJob
}

func newRolloverFixture(t *testing.T, cfg RolloverConfig) *rolloverFixture {
	t.Helper()
	f := &rolloverFixture{
		reports:  &MockReports{},
		notifier: &MockNotifier{},
		day:      &MockDay{},
		clearer:  &MockClearer{},
	}
	f.job = NewRolloverJob(cfg, f.reports, f.notifier, f.day, f.clearer, slog.Default())
	t.Cleanup(func() {
		f.reports.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.day.AssertExpectations(t)
		f.clearer.AssertExpectations(t)
	})
	return f
}

func TestRolloverJob_SummaryThenReset(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	f := newRolloverFixture(t, RolloverConfig{Location: moscow, Admin: 500})
	f.job.now = func() time.Time { return time.Date(2025, 3, 14, 20, 59, 0, 0, time.UTC) }

	dayStart := time.Date(2025, 3, 14, 0, 0, 0, 0, moscow)
	mock.InOrder(
		f.reports.
			On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetReportQuery) bool {
				_, filtered := q.Requester()
				return q.From().Equal(dayStart) && q.To().Before(dayStart.AddDate(0, 0, 1)) && !filtered
			})).
			Return(queries.Report{TotalPackages: 3, TotalPrice: 18, DeliveredPackages: 2}, nil).
			Once(),
		f.notifier.
			On("Send", mock.Anything, mock.MatchedBy(func(msg ports.Message) bool {
				return msg.Recipient == 500 && msg.Kind == ports.MessageDailySummary &&
					msg.Attributes["day"] == "2025-03-14" &&
					msg.Attributes["total_packages"] == "3" &&
					msg.Attributes["total_price"] == "18" &&
					msg.Attributes["delivered_packages"] == "2"
			})).
			Return(nil).
			Once(),
		f.day.On("Rollover", mock.Anything).Return(nil).Once(),
		f.clearer.On("Clear").Return(1).Once(),
	)

	require.NoError(t, f.job.Run(t.Context()))
}

func TestRolloverJob_SummaryFailureDoesNotBlockReset(t *testing.T) {
	f := newRolloverFixture(t, RolloverConfig{Admin: 500})
	f.reports.On("Handle", mock.Anything, mock.Anything).Return(queries.Report{}, nil).Once()
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(ports.ErrNotificationFailed).Once()
	f.day.On("Rollover", mock.Anything).Return(nil).Once()
	f.clearer.On("Clear").Return(0).Once()

	require.NoError(t, f.job.Run(t.Context()))
}

func TestRolloverJob_NoAdminSkipsSummary(t *testing.T) {
	f := newRolloverFixture(t, RolloverConfig{})
	f.day.On("Rollover", mock.Anything).Return(nil).Once()
	f.clearer.On("Clear").Return(0).Once()

	require.NoError(t, f.job.Run(t.Context()))
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRolloverJob_ResetFailure(t *testing.T) {
	f := newRolloverFixture(t, RolloverConfig{})
	f.day.On("Rollover", mock.Anything).Return(assert.AnError).Once()

	err := f.job.Run(t.Context())

	require.ErrorIs(t, err, assert.AnError)
	f.clearer.AssertNotCalled(t, "Clear")
}

func TestRolloverJob_StartRejectsBadSchedule(t *testing.T) {
	f := newRolloverFixture(t, RolloverConfig{Schedule: "every night"})

	require.Error(t, f.job.Start())
}

func TestRolloverJob_NilLoggerFallsBack(t *testing.T) {
	day, clearer := &MockDay{}, &MockClearer{}
	day.On("Rollover", mock.Anything).Return(nil).Once()
	clearer.On("Clear").Return(0).Once()

	job := NewRolloverJob(RolloverConfig{}, &MockReports{}, &MockNotifier{}, day, clearer, nil)

	require.NoError(t, job.Run(t.Context()))
	day.AssertExpectations(t)
	clearer.AssertExpectations(t)
}

type stubJob struct {
	startErr error
	started  bool
	stopped  bool
}

func (j *stubJob) Start() error {
	j.started = j.startErr == nil
	return j.startErr
}

func (j *stubJob) Stop() { j.stopped = true }

func TestJobManager_StopsStartedJobsOnFailure(t *testing.T) {
	first, second := &stubJob{}, &stubJob{startErr: assert.AnError}
	jm := NewJobManager(first, second)

	err := jm.StartAll()

	require.ErrorIs(t, err, assert.AnError)
	assert.True(t, first.stopped)
	assert.False(t, second.stopped)
}

func TestJobManager_StartAndStopAll(t *testing.T) {
	first, second := &stubJob{}, &stubJob{}
	jm := NewJobManager(first, second)

	require.NoError(t, jm.StartAll())
	jm.StopAll()

	assert.True(t, first.started && second.started)
	assert.True(t, first.stopped && second.stopped)
}
