package screens

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sevenseas/backoffice/internal/models"
)

// DashboardService is the slice of the dashboard facade this screen uses.
type DashboardService interface {
	Overview(ctx context.Context) (*models.Overview, error)
	CollectionsTimeline(ctx context.Context, period models.TimelinePeriod) ([]models.TimelinePoint, error)
	PaymentStatus(ctx context.Context) ([]models.StatusSlice, error)
	OverdueInvestors(ctx context.Context) ([]models.Investor, error)
	RecentActivity(ctx context.Context) ([]models.Payment, error)
	TopInvestors(ctx context.Context, by string) ([]models.TopInvestor, error)
}

// DashboardScreen joins the five independent aggregates into one render.
type DashboardScreen struct {
	mu     sync.Mutex
	svc    DashboardService
	notify *Notifier
	log    *zap.Logger

	overview  *models.Overview
	timeline  []models.TimelinePoint
	statuses  []models.StatusSlice
	overdue   []models.Investor
	activity  []models.Payment
	period    models.TimelinePeriod
	loading   bool
	err       error
}

// NewDashboardScreen builds the screen; the timeline starts monthly.
func NewDashboardScreen(svc DashboardService, notify *Notifier, log *zap.Logger) *DashboardScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &DashboardScreen{svc: svc, notify: notify, log: log, period: models.PeriodMonthly}
}

// Load issues the five aggregate fetches concurrently and joins on all of
// them, so time-to-render tracks the slowest request rather than the sum.
// Any single failure fails the whole load: a partially rendered dashboard
// would be misleading.
func (s *DashboardScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	period := s.period
	s.mu.Unlock()

	var (
		overview *models.Overview
		timeline []models.TimelinePoint
		statuses []models.StatusSlice
		overdue  []models.Investor
		activity []models.Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { overview, err = s.svc.Overview(gctx); return })
	g.Go(func() (err error) { timeline, err = s.svc.CollectionsTimeline(gctx, period); return })
	g.Go(func() (err error) { statuses, err = s.svc.PaymentStatus(gctx); return })
	g.Go(func() (err error) { overdue, err = s.svc.OverdueInvestors(gctx); return })
	g.Go(func() (err error) { activity, err = s.svc.RecentActivity(gctx); return })
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.err = fmt.Errorf("failed to load dashboard: %w", err)
		s.log.Warn("dashboard load failed", zap.Error(err))
		return s.err
	}
	s.overview = overview
	s.timeline = timeline
	s.statuses = statuses
	s.overdue = overdue
	s.activity = activity
	return nil
}

// ChangePeriod switches the timeline granularity and refetches just the
// timeline; the other aggregates are unaffected.
func (s *DashboardScreen) ChangePeriod(ctx context.Context, period models.TimelinePeriod) error {
	s.mu.Lock()
	s.period = period
	s.mu.Unlock()

	timeline, err := s.svc.CollectionsTimeline(ctx, period)
	if err != nil {
		s.notify.Push(SeverityError, detailOr(err, "Failed to load collections timeline."))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.timeline = timeline
	return nil
}

// TopInvestors fetches the on-demand ranking without touching the joined
// screen state.
func (s *DashboardScreen) TopInvestors(ctx context.Context, by string) ([]models.TopInvestor, error) {
	return s.svc.TopInvestors(ctx, by)
}

// Loading reports whether the joined load is in flight.
func (s *DashboardScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal load error for this screen, if any.
func (s *DashboardScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Overview returns the KPI rollup, nil before a successful load.
func (s *DashboardScreen) Overview() *models.Overview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overview
}

// Timeline returns the collections chart buckets.
func (s *DashboardScreen) Timeline() []models.TimelinePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline
}

// Statuses returns the payment-status distribution.
func (s *DashboardScreen) Statuses() []models.StatusSlice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses
}

// Overdue returns the overdue-investor list.
func (s *DashboardScreen) Overdue() []models.Investor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overdue
}

// Activity returns the recent payment activity.
func (s *DashboardScreen) Activity() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}
