package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/models"
)

// PaymentDraft is the payment-creation payload. It is always sent as
// multipart form data because it may carry a receipt attachment. Optional
// fields left empty are pruned before encoding, matching what the server's
// serializer expects.
type PaymentDraft struct {
	Investor        string
	PaymentType     string
	Amount          string
	Currency        string
	PaymentMethod   string
	PaymentDate     string
	DueDate         string
	ReferenceNumber string
	Quarter         string
	Notes           string
	Receipt         *api.FileField
}

// Fields returns the form values to send: required fields always, the
// optional ones only when set.
func (d PaymentDraft) Fields() map[string]string {
	fields := map[string]string{
		"investor":       d.Investor,
		"payment_type":   d.PaymentType,
		"amount":         d.Amount,
		"currency":       d.Currency,
		"payment_method": d.PaymentMethod,
		"payment_date":   d.PaymentDate,
	}
	optional := map[string]string{
		"due_date":         d.DueDate,
		"reference_number": d.ReferenceNumber,
		"quarter":          d.Quarter,
		"notes":            d.Notes,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}

// Payments is the facade for the payment resource.
type Payments struct {
	c *api.Client
}

// NewPayments returns a payment facade backed by c.
func NewPayments(c *api.Client) *Payments {
	return &Payments{c: c}
}

// List fetches payments, optionally constrained by server-side filters.
func (s *Payments) List(ctx context.Context, filters url.Values) ([]models.Payment, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/payments/", filters, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Payment](raw)
}

// Get fetches a single payment by id.
func (s *Payments) Get(ctx context.Context, id int64) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.Get(ctx, fmt.Sprintf("/payments/%d/", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create records a new payment, uploading the receipt attachment when the
// draft carries one.
func (s *Payments) Create(ctx context.Context, draft PaymentDraft) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.PostMultipart(ctx, "/payments/", draft.Fields(), draft.Receipt, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces a payment record.
func (s *Payments) Update(ctx context.Context, id int64, fields map[string]any) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.Put(ctx, fmt.Sprintf("/payments/%d/", id), fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PartialUpdate patches the given fields only.
func (s *Payments) PartialUpdate(ctx context.Context, id int64, fields map[string]any) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.Patch(ctx, fmt.Sprintf("/payments/%d/", id), fields, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a payment.
func (s *Payments) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, fmt.Sprintf("/payments/%d/", id))
}

type verifyRequest struct {
	Notes string `json:"notes"`
}

type failRequest struct {
	Reason string `json:"reason"`
}

// Verify transitions a pending payment to VERIFIED with optional notes.
// The server enforces the admin-role requirement; the client only hides
// the affordance from non-admins.
func (s *Payments) Verify(ctx context.Context, id int64, notes string) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.Post(ctx, fmt.Sprintf("/payments/%d/verify/", id), verifyRequest{Notes: notes}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Fail transitions a pending payment to FAILED with an optional reason.
func (s *Payments) Fail(ctx context.Context, id int64, reason string) (*models.Payment, error) {
	var p models.Payment
	if err := s.c.Post(ctx, fmt.Sprintf("/payments/%d/fail/", id), failRequest{Reason: reason}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Overdue fetches the payments past their due date and still pending.
func (s *Payments) Overdue(ctx context.Context) ([]models.Payment, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/payments/overdue/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.Payment](raw)
}
