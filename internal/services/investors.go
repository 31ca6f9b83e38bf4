package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/models"
)

// InvestorPayload is the writable field set for creating or replacing an
// investor record. Optional fields marked omitempty are dropped from the
// encoded payload when empty, letting the server apply its defaults.
type InvestorPayload struct {
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone,omitempty"`
	InvestorType           string `json:"investor_type"`
	ShareAmount            string `json:"share_amount"`
	SharesOwned            int    `json:"shares_owned,omitempty"`
	EntryFeeAmount         string `json:"entry_fee_amount,omitempty"`
	QuarterlyPaymentAmount string `json:"quarterly_payment_amount,omitempty"`
	KycStatus              string `json:"kyc_status,omitempty"`
	JoinedDate             string `json:"joined_date"`
	Notes                  string `json:"notes,omitempty"`
}

// Investors is the facade for the investor resource.
type Investors struct {
	c *api.Client
}

// NewInvestors returns an investor facade backed by c.
func NewInvestors(c *api.Client) *Investors {
	return &Investors{c: c}
}

// List fetches investors, optionally constrained by server-side filters.
func (s *Investors) List(ctx context.Context, filters url.Values) ([]models.Investor, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/investors/", filters, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Investor](raw)
}

// Get fetches a single investor by id.
func (s *Investors) Get(ctx context.Context, id int64) (*models.Investor, error) {
	var inv models.Investor
	if err := s.c.Get(ctx, fmt.Sprintf("/investors/%d/", id), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create adds a new investor.
func (s *Investors) Create(ctx context.Context, payload InvestorPayload) (*models.Investor, error) {
	var inv models.Investor
	if err := s.c.Post(ctx, "/investors/", payload, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update replaces an investor record.
func (s *Investors) Update(ctx context.Context, id int64, payload InvestorPayload) (*models.Investor, error) {
	var inv models.Investor
	if err := s.c.Put(ctx, fmt.Sprintf("/investors/%d/", id), payload, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// PartialUpdate patches the given fields only.
func (s *Investors) PartialUpdate(ctx context.Context, id int64, fields map[string]any) (*models.Investor, error) {
	var inv models.Investor
	if err := s.c.Patch(ctx, fmt.Sprintf("/investors/%d/", id), fields, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Delete soft-deletes an investor; the server moves the record to
// INACTIVE rather than purging it.
func (s *Investors) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, fmt.Sprintf("/investors/%d/", id))
}

// Summary fetches the financial rollup for one investor.
func (s *Investors) Summary(ctx context.Context, id int64) (*models.InvestorSummary, error) {
	var sum models.InvestorSummary
	if err := s.c.Get(ctx, fmt.Sprintf("/investors/%d/summary/", id), nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// Payments fetches all payments recorded for one investor.
func (s *Investors) Payments(ctx context.Context, id int64) ([]models.Payment, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, fmt.Sprintf("/investors/%d/payments/", id), nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Payment](raw)
}
