package services

import (
	"context"
	"fmt"

	"github.com/sevenseas/backoffice/internal/api"
)

// Reports is the facade for the binary statement/receipt endpoints. The
// returned bytes are an opaque PDF blob; this layer neither parses nor
// validates the content.
type Reports struct {
	c *api.Client
}

// NewReports returns a reports facade backed by c.
func NewReports(c *api.Client) *Reports {
	return &Reports{c: c}
}

// InvestorStatement downloads the PDF statement for one investor.
func (s *Reports) InvestorStatement(ctx context.Context, investorID int64) ([]byte, error) {
	return s.c.Download(ctx, fmt.Sprintf("/reports/investor-statement/%d/", investorID))
}

// PaymentReceipt downloads the PDF receipt for one payment.
func (s *Reports) PaymentReceipt(ctx context.Context, paymentID int64) ([]byte, error) {
	return s.c.Download(ctx, fmt.Sprintf("/reports/payment-receipt/%d/", paymentID))
}
