package screens

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sevenseas/backoffice/internal/models"
	"github.com/sevenseas/backoffice/internal/services"
)

// InvestorService is the slice of the investor facade this screen uses.
type InvestorService interface {
	List(ctx context.Context, filters url.Values) ([]models.Investor, error)
	Create(ctx context.Context, payload services.InvestorPayload) (*models.Investor, error)
	Update(ctx context.Context, id int64, payload services.InvestorPayload) (*models.Investor, error)
	Delete(ctx context.Context, id int64) error
}

// InvestorsScreen is the view model for the investor list: the fetched
// sequence, the free-text filter, and the create/edit/delete workflows.
type InvestorsScreen struct {
	mu     sync.Mutex
	svc    InvestorService
	notify *Notifier
	log    *zap.Logger

	investors []models.Investor
	loading   bool
	err       error
	query     string

	form     *Form
	editing  *models.Investor
	deleting *models.Investor
}

// NewInvestorsScreen builds the screen around the investor facade.
func NewInvestorsScreen(svc InvestorService, notify *Notifier, log *zap.Logger) *InvestorsScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvestorsScreen{svc: svc, notify: notify, log: log}
}

// Load fetches the investor list. The whole screen renders from this one
// fetch: failure leaves an error state and no partial data. A load whose
// context was cancelled (screen unmounted) applies nothing.
func (s *InvestorsScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	investors, err := s.svc.List(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.err = fmt.Errorf("failed to load investors: %w", err)
		s.log.Warn("investor list load failed", zap.Error(err))
		return s.err
	}
	s.investors = investors
	return nil
}

// Loading reports whether a load is in flight.
func (s *InvestorsScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal load error for this screen, if any.
func (s *InvestorsScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetQuery updates the free-text filter. Purely local; never fetches.
func (s *InvestorsScreen) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Visible returns the investors matching the current query: a
// case-insensitive substring match over full name, email and the investor
// type label. The underlying fetched sequence is never mutated.
func (s *InvestorsScreen) Visible() []models.Investor {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(s.query)
	out := make([]models.Investor, 0, len(s.investors))
	for _, inv := range s.investors {
		if q == "" ||
			strings.Contains(strings.ToLower(inv.FullName), q) ||
			strings.Contains(strings.ToLower(inv.Email), q) ||
			strings.Contains(strings.ToLower(inv.InvestorTypeDisplay), q) {
			out = append(out, inv)
		}
	}
	return out
}

// OpenCreate opens the dialog seeded with the empty-record template.
func (s *InvestorsScreen) OpenCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
	s.form = newForm(map[string]string{
		"first_name":    "",
		"last_name":     "",
		"email":         "",
		"phone":         "",
		"investor_type": string(models.LimitedPartner),
		"share_amount":  "",
		"shares_owned":  "",
		"kyc_status":    string(models.KycPending),
		"joined_date":   "",
		"notes":         "",
	})
}

// OpenEdit opens the dialog seeded from the selected investor's current
// field values.
func (s *InvestorsScreen) OpenEdit(inv models.Investor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = &inv
	s.form = newForm(map[string]string{
		"first_name":    inv.FirstName,
		"last_name":     inv.LastName,
		"email":         inv.Email,
		"phone":         inv.Phone,
		"investor_type": string(inv.InvestorType),
		"share_amount":  inv.ShareAmount.String(),
		"shares_owned":  strconv.Itoa(inv.SharesOwned),
		"kyc_status":    string(inv.KycStatus),
		"joined_date":   inv.JoinedDate,
		"notes":         inv.Notes,
	})
}

// Form exposes the open dialog's state, nil when closed.
func (s *InvestorsScreen) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetField edits one form field, clearing that field's error.
func (s *InvestorsScreen) SetField(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Set(field, value)
}

// CloseDialog abandons the open form.
func (s *InvestorsScreen) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = nil
	s.editing = nil
}

// Submit sends the form. On success it closes the dialog, announces the
// affected investor and refetches the full list; server-computed fields
// (total paid, completion percentage) make a local splice unreliable. A
// validation failure maps onto the form fields and keeps the dialog open;
// any other failure keeps the dialog open and raises a generic
// notification so the user's input is not lost.
func (s *InvestorsScreen) Submit(ctx context.Context) error {
	s.mu.Lock()
	form := s.form
	editing := s.editing
	if !form.beginSubmit() {
		s.mu.Unlock()
		return fmt.Errorf("no form open")
	}
	payload := services.InvestorPayload{
		FirstName:    form.Value("first_name"),
		LastName:     form.Value("last_name"),
		Email:        form.Value("email"),
		Phone:        form.Value("phone"),
		InvestorType: form.Value("investor_type"),
		ShareAmount:  form.Value("share_amount"),
		KycStatus:    form.Value("kyc_status"),
		JoinedDate:   form.Value("joined_date"),
		Notes:        form.Value("notes"),
	}
	if n, err := strconv.Atoi(form.Value("shares_owned")); err == nil {
		payload.SharesOwned = n
	}
	s.mu.Unlock()

	var saved *models.Investor
	var err error
	if editing != nil {
		saved, err = s.svc.Update(ctx, editing.ID, payload)
	} else {
		saved, err = s.svc.Create(ctx, payload)
	}

	s.mu.Lock()
	if err != nil {
		if !form.applyError(err) {
			s.notify.Push(SeverityError, "Failed to save investor. Please try again.")
		}
		s.mu.Unlock()
		return err
	}
	form.succeed()
	s.form = nil
	s.editing = nil
	s.mu.Unlock()

	s.notify.Push(SeveritySuccess, fmt.Sprintf("Investor %s saved successfully.", saved.FullName))
	return s.Load(ctx)
}

// OpenDelete arms the confirmation dialog for one investor.
func (s *InvestorsScreen) OpenDelete(inv models.Investor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleting = &inv
}

// Deleting returns the investor awaiting delete confirmation, if any.
func (s *InvestorsScreen) Deleting() *models.Investor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting
}

// CancelDelete closes the confirmation dialog without acting.
func (s *InvestorsScreen) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleting = nil
}

// ConfirmDelete fires the soft-delete for the armed investor. The
// confirmation closes either way; failure surfaces the server detail.
func (s *InvestorsScreen) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	target := s.deleting
	s.deleting = nil
	s.mu.Unlock()
	if target == nil {
		return fmt.Errorf("no investor selected for deletion")
	}

	if err := s.svc.Delete(ctx, target.ID); err != nil {
		s.notify.Push(SeverityError, detailOr(err, "Failed to deactivate investor."))
		return err
	}
	s.notify.Push(SeveritySuccess, fmt.Sprintf("Investor %s deactivated.", target.FullName))
	return s.Load(ctx)
}
