package screens

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sevenseas/backoffice/internal/download"
	"github.com/sevenseas/backoffice/internal/models"
)

// ReportService is the slice of the reports facade this screen uses.
type ReportService interface {
	InvestorStatement(ctx context.Context, investorID int64) ([]byte, error)
	PaymentReceipt(ctx context.Context, paymentID int64) ([]byte, error)
}

// PaymentLister loads the payment choices for the receipt selector.
type PaymentLister interface {
	List(ctx context.Context, filters url.Values) ([]models.Payment, error)
}

// ReportsScreen drives statement and receipt generation: it loads the
// investor and payment lists to pick from, then downloads the opaque PDF
// blob and saves it under the deterministic filename.
type ReportsScreen struct {
	mu        sync.Mutex
	reports   ReportService
	investors InvestorLister
	payments  PaymentLister
	notify    *Notifier
	log       *zap.Logger

	dir string

	investorList []models.Investor
	paymentList  []models.Payment
	loading      bool
	err          error

	downloadingStatement bool
	downloadingReceipt   bool
}

// NewReportsScreen builds the screen; downloads land in dir.
func NewReportsScreen(reports ReportService, investors InvestorLister, payments PaymentLister, dir string, notify *Notifier, log *zap.Logger) *ReportsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportsScreen{reports: reports, investors: investors, payments: payments, dir: dir, notify: notify, log: log}
}

// Load fetches the two selector lists concurrently and joins on both,
// all-or-nothing.
func (s *ReportsScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	var (
		investors []models.Investor
		payments  []models.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { investors, err = s.investors.List(gctx, nil); return })
	g.Go(func() (err error) { payments, err = s.payments.List(gctx, nil); return })
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.err = fmt.Errorf("failed to load data: %w", err)
		s.log.Warn("reports screen load failed", zap.Error(err))
		return s.err
	}
	s.investorList = investors
	s.paymentList = payments
	return nil
}

// Loading reports whether the joined load is in flight.
func (s *ReportsScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal load error for this screen, if any.
func (s *ReportsScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Investors returns the statement selector choices.
func (s *ReportsScreen) Investors() []models.Investor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investorList
}

// Payments returns the receipt selector choices.
func (s *ReportsScreen) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentList
}

// DownloadingStatement reports the statement button's busy flag.
func (s *ReportsScreen) DownloadingStatement() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadingStatement
}

// DownloadingReceipt reports the receipt button's busy flag.
func (s *ReportsScreen) DownloadingReceipt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadingReceipt
}

// DownloadStatement fetches the PDF statement for the selected investor
// and saves it as statement_{lastName}_{investorId}.pdf. The blob is not
// parsed or validated; a non-success response surfaces a notification.
func (s *ReportsScreen) DownloadStatement(ctx context.Context, investorID int64) (string, error) {
	s.mu.Lock()
	var target *models.Investor
	for i := range s.investorList {
		if s.investorList[i].ID == investorID {
			target = &s.investorList[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("investor %d not loaded", investorID)
	}
	s.downloadingStatement = true
	lastName := target.LastName
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.downloadingStatement = false
		s.mu.Unlock()
	}()

	data, err := s.reports.InvestorStatement(ctx, investorID)
	if err != nil {
		s.notify.Push(SeverityError, "Failed to download statement. Please try again.")
		return "", err
	}
	path, err := download.Statement(s.dir, lastName, investorID, data)
	if err != nil {
		s.notify.Push(SeverityError, "Failed to save statement.")
		return "", err
	}
	s.notify.Push(SeveritySuccess, fmt.Sprintf("Statement saved to %s.", path))
	return path, nil
}

// DownloadReceipt fetches the PDF receipt for the selected payment and
// saves it as receipt_{paymentId}_{investorName}.pdf.
func (s *ReportsScreen) DownloadReceipt(ctx context.Context, paymentID int64) (string, error) {
	s.mu.Lock()
	var target *models.Payment
	for i := range s.paymentList {
		if s.paymentList[i].ID == paymentID {
			target = &s.paymentList[i]
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return "", fmt.Errorf("payment %d not loaded", paymentID)
	}
	s.downloadingReceipt = true
	investorName := target.InvestorName
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.downloadingReceipt = false
		s.mu.Unlock()
	}()

	data, err := s.reports.PaymentReceipt(ctx, paymentID)
	if err != nil {
		s.notify.Push(SeverityError, "Failed to download receipt. Please try again.")
		return "", err
	}
	path, err := download.Receipt(s.dir, paymentID, investorName, data)
	if err != nil {
		s.notify.Push(SeverityError, "Failed to save receipt.")
		return "", err
	}
	s.notify.Push(SeveritySuccess, fmt.Sprintf("Receipt saved to %s.", path))
	return path, nil
}
