package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

var weekdayClient = models.Client{
	ID:          "client-1",
	Name:        "Jamie Rivera",
	Initials:    "JR",
	ParentEmail: "alex@example.com",
	Location:    "North",
	Schedule:    models.Schedule{Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true},
	PaymentStatus: models.PaymentStatus{
		"September 2025": models.FundingActive,
	},
	CreatedAt: time.Date(2025, time.September, 1, 8, 0, 0, 0, time.UTC),
}

func newAttendanceFixture(t *testing.T, store *memStore, cache *CacheService, queue mailQueue) *AttendanceService {
	t.Helper()
	clock := dates.FixedClock(time.Date(2025, time.September, 17, 10, 0, 0, 0, time.UTC))
	strikes := NewStrikeNotifier(queue, time.Hour, zap.NewNop())
	return NewAttendanceService(store, store, cache, strikes, NewMetricsService(), clock, zap.NewNop())
}

func TestAttendanceServiceCycle(t *testing.T) {
	store := newMemStore(weekdayClient)
	svc := newAttendanceFixture(t, store, nil, nil)
	ctx := context.Background()

	want := []models.AttendanceState{
		models.StatePresent2h,
		models.StatePresent3h,
		models.StateExcused,
		models.StateUnexcused,
		models.StatePresent2h,
	}
	for _, state := range want {
		resp, err := svc.Cycle(ctx, "s1", weekdayClient.ID, "2025-09-15")
		require.NoError(t, err)
		require.NotNil(t, resp.Record)
		assert.Equal(t, state, resp.Record.State)
		assert.Equal(t, state, store.stateOn(weekdayClient.ID, "2025-09-15"))
		require.Len(t, resp.Week, 5)
		assert.Equal(t, state, resp.Week[0].State)
	}
}

func TestAttendanceServiceCycleUpdatesSummary(t *testing.T) {
	store := newMemStore(weekdayClient)
	svc := newAttendanceFixture(t, store, nil, nil)

	resp, err := svc.Cycle(context.Background(), "s1", weekdayClient.ID, "2025-09-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-15", resp.Date)
	assert.Equal(t, "2025-09", resp.Summary.Month)
	assert.Equal(t, 22, resp.Summary.DaysScheduled)
	assert.Equal(t, 1, resp.Summary.DaysAttended)
	assert.Equal(t, 2.0, resp.Summary.TotalHours)
	assert.Equal(t, 5, resp.Summary.AttendancePercentage)
}

func TestAttendanceServiceSelectAndClear(t *testing.T) {
	store := newMemStore(weekdayClient)
	svc := newAttendanceFixture(t, store, nil, nil)
	ctx := context.Background()

	resp, err := svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-16", "3h")
	require.NoError(t, err)
	assert.Equal(t, models.StatePresent3h, resp.Record.State)

	resp, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-16", "3h")
	require.NoError(t, err)
	assert.Equal(t, models.StatePresent3h, resp.Record.State)

	resp, err = svc.Clear(ctx, "s1", weekdayClient.ID, "2025-09-16")
	require.NoError(t, err)
	assert.Nil(t, resp.Record)
	assert.Equal(t, models.StateNone, store.stateOn(weekdayClient.ID, "2025-09-16"))
	assert.Equal(t, models.StateNone, resp.Week[1].State)
	assert.Zero(t, resp.Summary.DaysAttended)

	next, err := svc.Cycle(ctx, "s1", weekdayClient.ID, "2025-09-16")
	require.NoError(t, err)
	assert.Equal(t, models.StatePresent2h, next.Record.State, "cycling after a clear restarts at 2h")

	_, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-16", "4h")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceStrikeNotices(t *testing.T) {
	store := newMemStore(weekdayClient)
	svc := newAttendanceFixture(t, store, nil, nil)
	ctx := context.Background()

	resp, err := svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-08", "unexcused")
	require.NoError(t, err)
	assert.Nil(t, resp.Strike)

	resp, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-09", "unexcused")
	require.NoError(t, err)
	require.NotNil(t, resp.Strike)
	assert.Equal(t, 2, resp.Strike.Count)
	assert.Equal(t, "September 2025", resp.Strike.MonthLabel)

	resp, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-09", "unexcused")
	require.NoError(t, err)
	assert.Nil(t, resp.Strike, "rewriting the same state keeps the count")

	resp, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-10", "unexcused")
	require.NoError(t, err)
	require.NotNil(t, resp.Strike)
	assert.Equal(t, 3, resp.Strike.Count)

	resp, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-11", "unexcused")
	require.NoError(t, err)
	assert.Nil(t, resp.Strike)
}

func TestAttendanceServiceClientNotFound(t *testing.T) {
	store := newMemStore()
	svc := newAttendanceFixture(t, store, nil, nil)

	_, err := svc.Cycle(context.Background(), "s1", "missing", "2025-09-15")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClientNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.records)
}

func TestAttendanceServiceRejectsBadDate(t *testing.T) {
	svc := newAttendanceFixture(t, newMemStore(weekdayClient), nil, nil)

	_, err := svc.Cycle(context.Background(), "s1", weekdayClient.ID, "15/09/2025")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceWriteFailureLeavesStateUntouched(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.put(weekdayClient.ID, day(2025, time.September, 15), models.StatePresent2h)
	store.writeErr = errors.New("db down")
	svc := newAttendanceFixture(t, store, nil, nil)

	_, err := svc.Cycle(context.Background(), "s1", weekdayClient.ID, "2025-09-15")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StatePresent2h, store.stateOn(weekdayClient.ID, "2025-09-15"))
}

func TestAttendanceServiceReloadFailurePatchesConfirmedWrite(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.failListFrom = 2
	svc := newAttendanceFixture(t, store, nil, nil)

	resp, err := svc.Select(context.Background(), "s1", weekdayClient.ID, "2025-09-15", "3h")
	require.NoError(t, err)
	assert.Equal(t, models.StatePresent3h, resp.Week[0].State)
	assert.Equal(t, 3.0, resp.Summary.TotalHours)
}

func TestAttendanceServiceClientDetail(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.put(weekdayClient.ID, day(2025, time.September, 16), models.StatePresent3h)
	store.put(weekdayClient.ID, day(2025, time.August, 29), models.StatePresent2h)
	svc := newAttendanceFixture(t, store, nil, nil)

	detail, err := svc.ClientDetail(context.Background(), "s1", weekdayClient.ID, dto.ClientDetailQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2025-09", detail.Summary.Month)
	assert.Equal(t, 1, detail.Summary.DaysAttended)
	assert.Len(t, detail.Attendance, 2)
	assert.Equal(t, models.FundingActive, detail.PaymentStatus["September 2025"])
	assert.Equal(t, dto.WeekNavigation{
		WeekStart:   "2025-09-15",
		PrevWeek:    "2025-09-08",
		NextWeek:    "2025-09-22",
		CurrentWeek: "2025-09-15",
		Today:       "2025-09-17",
	}, detail.Navigation)
	assert.Equal(t, models.StatePresent3h, detail.Week[1].State)

	prev, err := svc.ClientDetail(context.Background(), "s1", weekdayClient.ID, dto.ClientDetailQuery{Month: "2025-08", Week: "2025-08-27"})
	require.NoError(t, err)
	assert.Equal(t, "August 2025", prev.Summary.MonthLabel)
	assert.Zero(t, prev.Summary.DaysScheduled, "client enrolled in September")
	assert.Zero(t, prev.Summary.DaysAttended)
	assert.Equal(t, "2025-08-25", prev.Navigation.WeekStart)
	assert.Equal(t, models.StatePresent2h, prev.Week[4].State)

	_, err = svc.ClientDetail(context.Background(), "s1", weekdayClient.ID, dto.ClientDetailQuery{Month: "Sept"})
	assert.Error(t, err)
}

func TestAttendanceServiceDashboardUsesCache(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.put(weekdayClient.ID, day(2025, time.September, 15), models.StateUnexcused)
	repo := newMemCache()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := newAttendanceFixture(t, store, cache, nil)
	ctx := context.Background()

	first, hit, err := svc.Dashboard(ctx, "", models.ClientFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first.Clients, 1)
	assert.Equal(t, "September 2025", first.MonthLabel)
	assert.Equal(t, models.FundingActive, first.Clients[0].Funding)
	assert.Equal(t, 1, first.Clients[0].Summary.UnexcusedCount)
	assert.True(t, repo.has(SummaryCacheKey(weekdayClient.ID, "2025-09")))

	second, hit, err := svc.Dashboard(ctx, "2025-09", models.ClientFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Clients[0].Summary, second.Clients[0].Summary)

	_, err = svc.Select(ctx, "s1", weekdayClient.ID, "2025-09-16", "unexcused")
	require.NoError(t, err)
	third, _, err := svc.Dashboard(ctx, "2025-09", models.ClientFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, third.Clients[0].Summary.UnexcusedCount)

	empty, hit, err := svc.Dashboard(ctx, "", models.ClientFilter{Location: "Nowhere"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, empty.Clients)
}

func TestAttendanceServiceNotifyParent(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.put(weekdayClient.ID, day(2025, time.September, 15), models.StateUnexcused)
	store.put(weekdayClient.ID, day(2025, time.September, 16), models.StateUnexcused)
	queue := &fakeMailQueue{}
	svc := newAttendanceFixture(t, store, nil, queue)

	resp, err := svc.NotifyParent(context.Background(), weekdayClient.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, 2, resp.Notice.Count)
	require.Len(t, queue.jobs, 1)

	_, err = newAttendanceFixture(t, store, nil, nil).NotifyParent(context.Background(), weekdayClient.ID, "")
	assert.Equal(t, appErrors.ErrMailDisabled.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceNotifyParentWithoutStrikes(t *testing.T) {
	store := newMemStore(weekdayClient)
	store.put(weekdayClient.ID, day(2025, time.September, 15), models.StateUnexcused)
	queue := &fakeMailQueue{}
	svc := newAttendanceFixture(t, store, nil, queue)

	_, err := svc.NotifyParent(context.Background(), weekdayClient.ID, "2025-09")
	assert.Equal(t, appErrors.ErrNoStrikeNotice.Code, appErrors.FromError(err).Code)

	_, err = svc.NotifyParent(context.Background(), weekdayClient.ID, "2025-08")
	assert.Equal(t, appErrors.ErrNoStrikeNotice.Code, appErrors.FromError(err).Code)

	_, err = svc.NotifyParent(context.Background(), weekdayClient.ID, "September 2025")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, queue.jobs)
}
