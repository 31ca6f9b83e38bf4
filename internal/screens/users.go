package screens

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sevenseas/backoffice/internal/models"
	"github.com/sevenseas/backoffice/internal/services"
)

// UserService is the slice of the user facade this screen uses.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, payload services.UserPayload) (*models.User, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// UsersScreen is the view model for the system-account list. It is an
// admin-only screen; the server is the real authorization boundary, this
// screen only shapes what is offered.
type UsersScreen struct {
	mu      sync.Mutex
	svc     UserService
	session SessionInfo
	notify  *Notifier
	log     *zap.Logger

	users   []models.User
	loading bool
	err     error
	query   string

	form     *Form
	editing  *models.User
	deleting *models.User
}

// NewUsersScreen builds the screen around the user facade.
func NewUsersScreen(svc UserService, session SessionInfo, notify *Notifier, log *zap.Logger) *UsersScreen {
	if log == nil {
		log = zap.NewNop()
	}
	return &UsersScreen{svc: svc, session: session, notify: notify, log: log}
}

// Load fetches the account list, all-or-nothing.
func (s *UsersScreen) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	users, err := s.svc.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		s.err = fmt.Errorf("failed to load users: %w", err)
		s.log.Warn("user list load failed", zap.Error(err))
		return s.err
	}
	s.users = users
	return nil
}

// Loading reports whether a load is in flight.
func (s *UsersScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the terminal load error for this screen, if any.
func (s *UsersScreen) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetQuery updates the free-text filter. Purely local; never fetches.
func (s *UsersScreen) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Visible returns the accounts matching the current query: a
// case-insensitive substring match over username, name, email and role.
func (s *UsersScreen) Visible() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(s.query)
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		name := strings.ToLower(u.FirstName + " " + u.LastName)
		if q == "" ||
			strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(name, q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(string(u.Role)), q) {
			out = append(out, u)
		}
	}
	return out
}

// CanDelete reports whether the delete affordance is enabled for an
// account: self-deletion is disabled for the current session's own id.
// This is UX only; the server re-asserts the rule.
func (s *UsersScreen) CanDelete(id int64) bool {
	current := s.session.User()
	return current == nil || current.ID != id
}

// OpenCreate opens the dialog seeded with the empty-account template.
func (s *UsersScreen) OpenCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
	s.form = newForm(map[string]string{
		"username":   "",
		"email":      "",
		"first_name": "",
		"last_name":  "",
		"password":   "",
		"role":       string(models.RoleViewer),
		"phone":      "",
	})
}

// OpenEdit opens the dialog seeded from the selected account.
func (s *UsersScreen) OpenEdit(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = &u
	s.form = newForm(map[string]string{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       string(u.Role),
		"phone":      u.Phone,
	})
}

// Form exposes the open dialog's state, nil when closed.
func (s *UsersScreen) Form() *Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// SetField edits one form field, clearing that field's error.
func (s *UsersScreen) SetField(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Set(field, value)
}

// CloseDialog abandons the open form.
func (s *UsersScreen) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = nil
	s.editing = nil
}

// Submit sends the form: a full payload on create, a partial field map on
// edit. Success closes the dialog, announces the account and refetches;
// validation failures map inline; other failures keep the dialog open.
func (s *UsersScreen) Submit(ctx context.Context) error {
	s.mu.Lock()
	form := s.form
	editing := s.editing
	if !form.beginSubmit() {
		s.mu.Unlock()
		return fmt.Errorf("no form open")
	}
	s.mu.Unlock()

	var saved *models.User
	var err error
	if editing != nil {
		fields := map[string]any{
			"email":      form.Value("email"),
			"first_name": form.Value("first_name"),
			"last_name":  form.Value("last_name"),
			"role":       form.Value("role"),
			"phone":      form.Value("phone"),
		}
		saved, err = s.svc.Update(ctx, editing.ID, fields)
	} else {
		saved, err = s.svc.Create(ctx, services.UserPayload{
			Username:  form.Value("username"),
			Email:     form.Value("email"),
			FirstName: form.Value("first_name"),
			LastName:  form.Value("last_name"),
			Password:  form.Value("password"),
			Role:      form.Value("role"),
			Phone:     form.Value("phone"),
		})
	}

	s.mu.Lock()
	if err != nil {
		if !form.applyError(err) {
			s.notify.Push(SeverityError, "Failed to save user. Please try again.")
		}
		s.mu.Unlock()
		return err
	}
	form.succeed()
	s.form = nil
	s.editing = nil
	s.mu.Unlock()

	s.notify.Push(SeveritySuccess, fmt.Sprintf("User %s saved successfully.", saved.Username))
	return s.Load(ctx)
}

// OpenDelete arms the confirmation dialog. Arming is refused for the
// current session's own account.
func (s *UsersScreen) OpenDelete(u models.User) error {
	if !s.CanDelete(u.ID) {
		return fmt.Errorf("cannot delete your own account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleting = &u
	return nil
}

// Deleting returns the account awaiting delete confirmation, if any.
func (s *UsersScreen) Deleting() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleting
}

// CancelDelete closes the confirmation dialog without acting.
func (s *UsersScreen) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleting = nil
}

// ConfirmDelete fires exactly one delete request for the armed account,
// then one refetch on success. Failure closes the confirmation and
// surfaces the server detail.
func (s *UsersScreen) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	target := s.deleting
	s.deleting = nil
	s.mu.Unlock()
	if target == nil {
		return fmt.Errorf("no user selected for deletion")
	}

	if err := s.svc.Delete(ctx, target.ID); err != nil {
		s.notify.Push(SeverityError, detailOr(err, "Failed to delete user."))
		return err
	}
	s.notify.Push(SeveritySuccess, fmt.Sprintf("User %s deleted.", target.Username))
	return s.Load(ctx)
}
