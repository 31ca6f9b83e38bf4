package models

import "github.com/shopspring/decimal"

// Overview carries the dashboard KPI aggregates.
type Overview struct {
	ProjectTarget     decimal.Decimal `json:"project_target"`
	TotalCommitted    decimal.Decimal `json:"total_committed"`
	TotalRaised       decimal.Decimal `json:"total_raised"`
	TotalOutstanding  decimal.Decimal `json:"total_outstanding"`
	CollectionRate    float64         `json:"collection_rate"`
	TargetAchieved    float64         `json:"target_achieved_rate"`
	TotalInvestors    int             `json:"total_investors"`
	ActiveInvestors   int             `json:"active_investors"`
	VerifiedPayments  int             `json:"verified_payments_count"`
	PendingPayments   int             `json:"pending_payments_count"`
	OverduePayments   int             `json:"overdue_payments_count"`
	LPCount           int             `json:"lp_count"`
	GPCount           int             `json:"gp_count"`
	KycPendingCount   int             `json:"kyc_pending_count"`
}

// TimelinePeriod selects the bucketing for the collections timeline.
type TimelinePeriod string

const (
	PeriodWeekly    TimelinePeriod = "weekly"
	PeriodMonthly   TimelinePeriod = "monthly"
	PeriodQuarterly TimelinePeriod = "quarterly"
)

// TimelinePoint is one bucket of the collections timeline chart.
type TimelinePoint struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
	Count  int             `json:"count"`
}

// StatusSlice is one wedge of the payment-status distribution.
type StatusSlice struct {
	Status PaymentStatus   `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// TopInvestor is one row of the on-demand top-investors aggregate.
type TopInvestor struct {
	ID          int64           `json:"id"`
	FullName    string          `json:"full_name"`
	ShareAmount decimal.Decimal `json:"share_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}
