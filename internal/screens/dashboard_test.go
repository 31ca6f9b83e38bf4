package screens

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenseas/backoffice/internal/models"
)

type fakeDashboardService struct {
	delay       time.Duration
	overviewErr error

	timelineCalls int32
	lastPeriod    models.TimelinePeriod
	lastBy        string
}

func (f *fakeDashboardService) sleep(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeDashboardService) Overview(ctx context.Context) (*models.Overview, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	if f.overviewErr != nil {
		return nil, f.overviewErr
	}
	return &models.Overview{TotalInvestors: 12, ActiveInvestors: 10}, nil
}

func (f *fakeDashboardService) CollectionsTimeline(ctx context.Context, period models.TimelinePeriod) ([]models.TimelinePoint, error) {
	atomic.AddInt32(&f.timelineCalls, 1)
	f.lastPeriod = period
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	return []models.TimelinePoint{{Period: "2025-01", Count: 3}}, nil
}

func (f *fakeDashboardService) PaymentStatus(ctx context.Context) ([]models.StatusSlice, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	return []models.StatusSlice{{Status: models.PaymentPending, Count: 4}}, nil
}

func (f *fakeDashboardService) OverdueInvestors(ctx context.Context) ([]models.Investor, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	return []models.Investor{{ID: 1, FullName: "Jane Doe", IsOverdue: true}}, nil
}

func (f *fakeDashboardService) RecentActivity(ctx context.Context) ([]models.Payment, error) {
	if err := f.sleep(ctx); err != nil {
		return nil, err
	}
	return []models.Payment{{ID: 7}}, nil
}

func (f *fakeDashboardService) TopInvestors(ctx context.Context, by string) ([]models.TopInvestor, error) {
	f.lastBy = by
	return []models.TopInvestor{{ID: 1, FullName: "Jane Doe"}}, nil
}

func TestDashboardLoadJoinsAllAggregates(t *testing.T) {
	svc := &fakeDashboardService{}
	s := NewDashboardScreen(svc, NewNotifier(time.Minute), nil)

	require.NoError(t, s.Load(context.Background()))

	require.NotNil(t, s.Overview())
	assert.Equal(t, 12, s.Overview().TotalInvestors)
	assert.Len(t, s.Timeline(), 1)
	assert.Len(t, s.Statuses(), 1)
	assert.Len(t, s.Overdue(), 1)
	assert.Len(t, s.Activity(), 1)
	assert.Equal(t, models.PeriodMonthly, svc.lastPeriod)
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
}

func TestDashboardLoadRunsConcurrently(t *testing.T) {
	// Five fetches of 50ms each: a sequential join would take 250ms.
	svc := &fakeDashboardService{delay: 50 * time.Millisecond}
	s := NewDashboardScreen(svc, NewNotifier(time.Minute), nil)

	start := time.Now()
	require.NoError(t, s.Load(context.Background()))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 200*time.Millisecond,
		"load took %v, aggregates are not being fetched concurrently", elapsed)
}

func TestDashboardLoadIsAllOrNothing(t *testing.T) {
	svc := &fakeDashboardService{overviewErr: errors.New("aggregate unavailable")}
	s := NewDashboardScreen(svc, NewNotifier(time.Minute), nil)

	require.Error(t, s.Load(context.Background()))
	assert.Error(t, s.Err())
	assert.Nil(t, s.Overview())
	assert.Empty(t, s.Timeline())
	assert.Empty(t, s.Statuses())
	assert.Empty(t, s.Overdue())
	assert.Empty(t, s.Activity())
}

func TestDashboardChangePeriodRefetchesTimelineOnly(t *testing.T) {
	svc := &fakeDashboardService{}
	s := NewDashboardScreen(svc, NewNotifier(time.Minute), nil)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, int32(1), atomic.LoadInt32(&svc.timelineCalls))

	require.NoError(t, s.ChangePeriod(context.Background(), models.PeriodQuarterly))

	assert.Equal(t, int32(2), atomic.LoadInt32(&svc.timelineCalls))
	assert.Equal(t, models.PeriodQuarterly, svc.lastPeriod)
	// The other aggregates survive untouched.
	require.NotNil(t, s.Overview())
	assert.Len(t, s.Overdue(), 1)
}

func TestDashboardTopInvestors(t *testing.T) {
	svc := &fakeDashboardService{}
	s := NewDashboardScreen(svc, NewNotifier(time.Minute), nil)

	top, err := s.TopInvestors(context.Background(), "total_paid")
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "total_paid", svc.lastBy)
}
