package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/models"
)

// UserPayload is the writable field set for system accounts. Password is
// only sent on create; updates go through PartialUpdate.
type UserPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// Users is the facade for the system-account resource. The server rejects
// these operations for non-admin callers.
type Users struct {
	c *api.Client
}

// NewUsers returns a user facade backed by c.
func NewUsers(c *api.Client) *Users {
	return &Users{c: c}
}

// List fetches all system accounts.
func (s *Users) List(ctx context.Context) ([]models.User, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/auth/users/", nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[models.User](raw)
}

// Get fetches a single account by id.
func (s *Users) Get(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.c.Get(ctx, fmt.Sprintf("/auth/users/%d/", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create adds a new system account.
func (s *Users) Create(ctx context.Context, payload UserPayload) (*models.User, error) {
	var u models.User
	if err := s.c.Post(ctx, "/auth/users/", payload, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update patches an account. The user screen always sends partial
// payloads, mirroring the API's PATCH-based update.
func (s *Users) Update(ctx context.Context, id int64, fields map[string]any) (*models.User, error) {
	var u models.User
	if err := s.c.Patch(ctx, fmt.Sprintf("/auth/users/%d/", id), fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes an account. Deleting the caller's own account is refused
// server-side; the screen additionally disables the affordance.
func (s *Users) Delete(ctx context.Context, id int64) error {
	return s.c.Delete(ctx, fmt.Sprintf("/auth/users/%d/", id))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword updates the current session's password.
func (s *Users) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return s.c.Post(ctx, "/auth/change-password/", changePasswordRequest{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// Me fetches the current session's profile.
func (s *Users) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.c.Get(ctx, "/auth/me/", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
