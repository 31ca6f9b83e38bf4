// Package session owns the authenticated-identity lifecycle: login,
// logout, persisted restore and token refresh. The store is the single
// owner of session state; persisted storage and in-memory state are
// mutated together so neither can go stale relative to the other.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/apierr"
	"github.com/sevenseas/backoffice/internal/models"
)

// The three persisted entries. They are independent files but are always
// written and cleared as a unit.
const (
	accessTokenFile  = "access_token"
	refreshTokenFile = "refresh_token"
	userFile         = "user.json"
)

// DefaultLoginMessage is shown when the server rejects a login without
// providing a detail message of its own.
const DefaultLoginMessage = "Login failed. Please check your credentials."

// refreshWindow is how close to expiry the access token may get before a
// request triggers a proactive refresh.
const refreshWindow = 30 * time.Second

// Result is the discriminated outcome of Login. Exactly one of the two
// shapes occurs: success, or failure with a non-empty message.
type Result struct {
	Success bool
	Message string
}

// Store holds the session state. It implements api.TokenSource.
type Store struct {
	mu  sync.Mutex
	dir string
	log *zap.Logger

	client *api.Client

	user         *models.User
	accessToken  string
	refreshToken string
	loading      bool

	// navigate is the side effect issued on logout: return the UI to the
	// public login screen.
	navigate func()

	refreshGroup singleflight.Group
}

// New creates a Store persisting under dir. The store reports loading
// until Restore has run, so the route guard can hold its decision.
func New(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, log: log, loading: true}
}

// Bind wires the HTTP client the store uses for auth endpoints, and
// registers the store's refresh hook for 401 retries.
func (s *Store) Bind(c *api.Client) {
	s.client = c
	c.OnUnauthorized(s.refreshAccess)
}

// OnLogout registers the navigation side effect invoked whenever the
// session is torn down.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigate = fn
}

// Restore loads the persisted session at process start. A readable token
// plus a parseable user profile restores the authenticated state. A user
// entry that is present but unparseable is treated as corrupt: the whole
// persisted session is cleared and the store stays logged out. Restore
// always clears the loading flag, success or not.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.loading = false }()

	access, accessErr := os.ReadFile(filepath.Join(s.dir, accessTokenFile))
	userRaw, userErr := os.ReadFile(filepath.Join(s.dir, userFile))

	if accessErr != nil || userErr != nil {
		return
	}

	var user models.User
	if err := json.Unmarshal(userRaw, &user); err != nil {
		s.log.Warn("persisted user profile is corrupt, clearing session", zap.Error(err))
		s.clearLocked()
		return
	}

	refresh, _ := os.ReadFile(filepath.Join(s.dir, refreshTokenFile))

	s.user = &user
	s.accessToken = string(access)
	s.refreshToken = string(refresh)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    models.User `json:"user"`
}

// Login authenticates against the server. It never returns an error:
// the outcome is always a Result so the caller can render inline feedback.
// On success the three persisted entries and the in-memory state are
// written in the same operation.
func (s *Store) Login(ctx context.Context, username, password string) Result {
	var resp loginResponse
	err := s.client.PublicPost(ctx, "/auth/login/", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		s.log.Info("login rejected", zap.String("username", username), zap.Error(err))
		return Result{Message: apierr.Detail(err, DefaultLoginMessage)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(resp.Access, resp.Refresh, &resp.User); err != nil {
		s.log.Error("failed to persist session", zap.Error(err))
		return Result{Message: "Login succeeded but the session could not be saved."}
	}
	s.user = &resp.User
	s.accessToken = resp.Access
	s.refreshToken = resp.Refresh

	s.log.Info("logged in", zap.String("username", resp.User.Username), zap.String("role", string(resp.User.Role)))
	return Result{Success: true}
}

// Logout clears the persisted entries and the in-memory state, then
// issues the navigation side effect. Safe to call when already logged out.
func (s *Store) Logout() {
	s.mu.Lock()
	s.clearLocked()
	navigate := s.navigate
	s.mu.Unlock()

	if navigate != nil {
		navigate()
	}
}

// IsLoading reports whether Restore has yet to complete.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsAuthenticated is true iff both a token and a parsed user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != "" && s.user != nil
}

// User returns the authenticated profile, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token implements api.TokenSource. When the access token is within the
// refresh window of its expiry and a refresh token is on hand, the token
// is refreshed first so the request goes out with a live credential.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	access, refresh := s.accessToken, s.refreshToken
	s.mu.Unlock()

	if access == "" {
		return "", nil
	}
	if refresh != "" && expiringSoon(access) {
		return s.refreshAccess(ctx)
	}
	return access, nil
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// refreshAccess exchanges the refresh token for a new access token.
// Concurrent callers collapse into a single flight. A failed refresh tears
// the session down so the caller lands back on the login screen.
func (s *Store) refreshAccess(ctx context.Context) (string, error) {
	token, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		s.mu.Lock()
		refresh := s.refreshToken
		s.mu.Unlock()
		if refresh == "" {
			return "", fmt.Errorf("no refresh token")
		}

		var resp refreshResponse
		if err := s.client.PublicPost(ctx, "/auth/refresh/", refreshRequest{Refresh: refresh}, &resp); err != nil {
			return "", err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := os.WriteFile(filepath.Join(s.dir, accessTokenFile), []byte(resp.Access), 0600); err != nil {
			return "", fmt.Errorf("persist refreshed token: %w", err)
		}
		s.accessToken = resp.Access
		return resp.Access, nil
	})
	if err != nil {
		s.log.Warn("token refresh failed, logging out", zap.Error(err))
		s.Logout()
		return "", fmt.Errorf("refresh session: %w", err)
	}
	return token.(string), nil
}

// persistLocked writes the three entries. Caller holds s.mu.
func (s *Store) persistLocked(access, refresh string, user *models.User) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	userRaw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, accessTokenFile), []byte(access), 0600); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, refreshTokenFile), []byte(refresh), 0600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, userFile), userRaw, 0600)
}

// clearLocked removes the persisted entries and resets memory. Caller
// holds s.mu. Missing files are fine: clearing is idempotent.
func (s *Store) clearLocked() {
	for _, name := range []string{accessTokenFile, refreshTokenFile, userFile} {
		_ = os.Remove(filepath.Join(s.dir, name))
	}
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
}

// expiringSoon peeks at the token's exp claim without verifying the
// signature; verification is the server's job. Tokens without a readable
// exp are treated as live and left to the 401 path.
func expiringSoon(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < refreshWindow
}
