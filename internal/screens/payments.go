package screens

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/format"
	"github.com/sevenseas/backoffice/internal/models"
	"github.com/sevenseas/backoffice/internal/services"
)

// PaymentService is the slice of the payment facade this screen uses.
type PaymentService interface {
	List(ctx context.Context, filters url.Values) ([]models.Payment, error)
	Create(ctx context.Context, draft services.PaymentDraft) (*models.Payment, error)
	Verify(ctx context.Context, id int64, notes string) (*models.Payment, error)
	Fail(ctx context.Context, id int64, reason string) (*models.Payment, error)
}

// InvestorLister loads the investor options for the payment form's
// selection control.
type InvestorLister interface {
	List(ctx context.Context, filters url.Values) ([]models.Investor, error)
}

// SessionInfo exposes the current identity for role gating.
type SessionInfo interface {
	User() *models.User
}

// PaymentsScreen is the view model for the payment list and the
// record/verify/fail workflows.
type PaymentsScreen struct {
	mu        sync.Mutex
	svc       PaymentService
	investors InvestorLister
	session   SessionInfo
	notify    *Notifier
	log       *zap.Logger

	payments []models.Payment
	loading  bool
	err      error

	form    *Form
	receipt *api.FileField

	investorOptions        []models.Investor
	loadingInvestorOptions bool
}

// NewPaymentsScreen builds the screen. investors feeds the selection
// control in the create dialog; session drives admin-only affordances.
func NewPaymentsScreen(svc PaymentService, investors InvestorLister, session SessionInfo, notify *Notifier, log *zap.Logger) *PaymentsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentsScreen{svc: svc, investors: investors, session: session, notify: notify, log: log}
}

// Load fetches the payment list, all-or-nothing.
func (s *PaymentsScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	payments, err := s.svc.List(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.err = fmt.Errorf("failed to load payments: %w", err)
		s.log.Warn("payment list load failed", zap.Error(err))
		return s.err
	}
	s.payments = payments
	return nil
}

// Loading reports whether a load is in flight.
func (s *PaymentsScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal load error for this screen, if any.
func (s *PaymentsScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Payments returns the fetched sequence.
func (s *PaymentsScreen) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

// IsAdmin reports whether the session may verify or fail payments.
func (s *PaymentsScreen) IsAdmin() bool {
	return s.session.User().IsAdmin()
}

// CanTransition reports whether the verify/fail affordances are shown for
// a payment: it must be PENDING and the session must be an admin.
func (s *PaymentsScreen) CanTransition(p models.Payment) bool {
	return p.CanVerify() && s.IsAdmin()
}

// Verify transitions a pending payment to VERIFIED. The action itself
// enforces the gate, not just the rendering: a non-pending payment or a
// non-admin session is rejected before any request is made. Success
// refetches the whole list so server-computed fields stay authoritative;
// failure leaves the payment untouched for retry.
func (s *PaymentsScreen) Verify(ctx context.Context, id int64, notes string) error {
	if err := s.gateTransition(id); err != nil {
		return err
	}
	if _, err := s.svc.Verify(ctx, id, notes); err != nil {
		s.notify.Push(SeverityError, detailOr(err, "Failed to verify payment."))
		return err
	}
	s.notify.Push(SeveritySuccess, fmt.Sprintf("Payment #%d verified successfully.", id))
	return s.Load(ctx)
}

// Fail transitions a pending payment to FAILED, with the same gating as
// Verify.
func (s *PaymentsScreen) Fail(ctx context.Context, id int64, reason string) error {
	if err := s.gateTransition(id); err != nil {
		return err
	}
	if _, err := s.svc.Fail(ctx, id, reason); err != nil {
		s.notify.Push(SeverityError, detailOr(err, "Failed to update payment."))
		return err
	}
	s.notify.Push(SeverityWarning, fmt.Sprintf("Payment #%d marked as failed.", id))
	return s.Load(ctx)
}

// gateTransition rejects a verify/fail attempt unless the payment is
// PENDING in the loaded list and the session role is ADMIN.
func (s *PaymentsScreen) gateTransition(id int64) error {
	if !s.IsAdmin() {
		return fmt.Errorf("payment transitions require the admin role")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ID == id {
			if !p.CanVerify() {
				return fmt.Errorf("payment #%d is %s, only pending payments can be verified or failed", id, p.PaymentStatus)
			}
			return nil
		}
	}
	return fmt.Errorf("payment #%d not loaded", id)
}

// OpenCreate opens the record-payment dialog seeded with today's date and
// the usual defaults, and starts loading the investor options in the
// background. The options fetch never blocks the dialog: it has its own
// loading flag scoped to the selection control.
func (s *PaymentsScreen) OpenCreate(ctx context.Context) {
	s.mu.Lock()
	s.form = newForm(map[string]string{
		"investor":         "",
		"payment_type":     string(models.PaymentEntryFee),
		"amount":           "",
		"currency":         string(models.USD),
		"payment_method":   string(models.MethodBankTransfer),
		"payment_date":     time.Now().Format("2006-01-02"),
		"due_date":         "",
		"reference_number": "",
		"quarter":          "",
		"notes":            "",
	})
	s.receipt = nil
	s.mu.Unlock()

	go s.LoadInvestorOptions(ctx)
}

// LoadInvestorOptions fetches the investor list for the selection
// control. A failure is logged but not fatal to the dialog; the control
// just stays empty.
func (s *PaymentsScreen) LoadInvestorOptions(ctx context.Context) {
	s.mu.Lock()
	s.loadingInvestorOptions = true
	s.mu.Unlock()

	options, err := s.investors.List(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingInvestorOptions = false
	if err != nil {
		s.log.Warn("investor options load failed", zap.Error(err))
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.investorOptions = options
}

// InvestorOptions returns the choices for the investor selection control.
func (s *PaymentsScreen) InvestorOptions() []models.Investor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investorOptions
}

// LoadingInvestorOptions reports the selection control's own loading flag.
func (s *PaymentsScreen) LoadingInvestorOptions() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingInvestorOptions
}

// Form exposes the open dialog's state, nil when closed.
func (s *PaymentsScreen) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetField edits one form field, clearing that field's error.
func (s *PaymentsScreen) SetField(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Set(field, value)
}

// AttachReceipt sets the receipt document to upload with the payment.
func (s *PaymentsScreen) AttachReceipt(filename string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return
	}
	s.receipt = &api.FileField{Field: "receipt_document", Filename: filename, Content: content}
}

// CloseDialog abandons the open form.
func (s *PaymentsScreen) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = nil
	s.receipt = nil
}

// Preview computes the live cross-currency estimate for the amount being
// composed: the KES equivalent of a USD amount, or the USD equivalent of
// a KES amount, at the single fixed rate. Purely user feedback; never
// sent to the server. An unparseable amount yields "".
func (s *PaymentsScreen) Preview(amount string, currency models.Currency) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return ""
	}
	if currency == models.KES {
		return format.Currency(format.ConvertKESToUSD(d))
	}
	return format.KES(d)
}

// Submit records the payment. Empty optional fields are pruned from the
// encoded payload; the receipt, when attached, rides along as a multipart
// file part.
func (s *PaymentsScreen) Submit(ctx context.Context) error {
	s.mu.Lock()
	form := s.form
	if !form.beginSubmit() {
		s.mu.Unlock()
		return fmt.Errorf("no form open")
	}
	draft := services.PaymentDraft{
		Investor:        form.Value("investor"),
		PaymentType:     form.Value("payment_type"),
		Amount:          form.Value("amount"),
		Currency:        form.Value("currency"),
		PaymentMethod:   form.Value("payment_method"),
		PaymentDate:     form.Value("payment_date"),
		DueDate:         form.Value("due_date"),
		ReferenceNumber: form.Value("reference_number"),
		Quarter:         form.Value("quarter"),
		Notes:           form.Value("notes"),
	}
	draft.Receipt = s.receipt
	s.mu.Unlock()

	_, err := s.svc.Create(ctx, draft)

	s.mu.Lock()
	if err != nil {
		if !form.applyError(err) {
			s.notify.Push(SeverityError, "Failed to create payment. Please try again.")
		}
		s.mu.Unlock()
		return err
	}
	form.succeed()
	s.form = nil
	s.receipt = nil
	s.mu.Unlock()

	s.notify.Push(SeveritySuccess, "Payment has been recorded successfully.")
	return s.Load(ctx)
}
