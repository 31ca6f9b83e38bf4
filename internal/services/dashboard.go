package services

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/models"
)

// Dashboard is the facade for the read-only aggregate endpoints. The five
// screen-load aggregates are independent; the dashboard screen fetches
// them concurrently.
type Dashboard struct {
	c *api.Client
}

// NewDashboard returns a dashboard facade backed by c.
func NewDashboard(c *api.Client) *Dashboard {
	return &Dashboard{c: c}
}

// Overview fetches the KPI rollup.
func (s *Dashboard) Overview(ctx context.Context) (*models.Overview, error) {
	var o models.Overview
	if err := s.c.Get(ctx, "/dashboard/overview/", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// CollectionsTimeline fetches the collections chart buckets for the given
// period granularity.
func (s *Dashboard) CollectionsTimeline(ctx context.Context, period models.TimelinePeriod) ([]models.TimelinePoint, error) {
	q := url.Values{"period": {string(period)}}
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/dashboard/collections-timeline/", q, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.TimelinePoint](raw)
}

// PaymentStatus fetches the payment-status distribution.
func (s *Dashboard) PaymentStatus(ctx context.Context) ([]models.StatusSlice, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/dashboard/payment-status/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.StatusSlice](raw)
}

// OverdueInvestors fetches investors with overdue payments.
func (s *Dashboard) OverdueInvestors(ctx context.Context) ([]models.Investor, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/dashboard/overdue-investors/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Investor](raw)
}

// RecentActivity fetches the latest recorded payments.
func (s *Dashboard) RecentActivity(ctx context.Context) ([]models.Payment, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/dashboard/recent-activity/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Payment](raw)
}

// TopInvestors fetches the top-investor ranking ordered by the given
// column ("share_amount" or "total_paid"). Fetched on demand, not part of
// the screen-load join.
func (s *Dashboard) TopInvestors(ctx context.Context, by string) ([]models.TopInvestor, error) {
	q := url.Values{"by": {by}}
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/dashboard/top-investors/", q, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.TopInvestor](raw)
}
