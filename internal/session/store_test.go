package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevenseas/backoffice/internal/api"
	"github.com/sevenseas/backoffice/internal/models"
)

// fakeAuth is the chi-backed stand-in for the auth endpoints.
type fakeAuth struct {
	access       string
	refresh      string
	refreshCalls int32
	failRefresh  bool
}

func (f *fakeAuth) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login/", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		if body.Password != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access":  f.access,
			"refresh": f.refresh,
			"user": models.User{
				ID:       1,
				Username: body.Username,
				Role:     models.RoleAdmin,
			},
		})
	})
	r.Post("/auth/refresh/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&f.refreshCalls, 1)
		if f.failRefresh {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access": "refreshed-access"})
	})
	return r
}

func newTestStore(t *testing.T, f *fakeAuth) (*Store, string) {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	s := New(dir, nil)
	s.Bind(api.New(srv.URL, s, nil))
	return s, dir
}

// signedToken mints a token whose exp claim sits at the given instant. The
// store only peeks at claims, so any signing key will do.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestRestoreWithNothingPersisted(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuth{})
	assert.True(t, s.IsLoading())

	s.Restore()

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
}

func TestLoginPersistsAndRestores(t *testing.T) {
	f := &fakeAuth{access: "access-1", refresh: "refresh-1"}
	s, dir := newTestStore(t, f)

	res := s.Login(context.Background(), "alice", "s3cret")
	require.True(t, res.Success)
	assert.Empty(t, res.Message)
	assert.True(t, s.IsAuthenticated())
	require.NotNil(t, s.User())
	assert.Equal(t, "alice", s.User().Username)

	for _, name := range []string{"access_token", "refresh_token", "user.json"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}

	// A second store over the same directory picks the session back up.
	s2 := New(dir, nil)
	s2.Restore()
	assert.True(t, s2.IsAuthenticated())
	require.NotNil(t, s2.User())
	assert.Equal(t, "alice", s2.User().Username)

	tok, err := s2.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
}

func TestLoginRejectedUsesServerDetail(t *testing.T) {
	s, _ := newTestStore(t, &fakeAuth{})

	res := s.Login(context.Background(), "alice", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "No active account found with the given credentials", res.Message)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginFallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(t.TempDir(), nil)
	s.Bind(api.New(srv.URL, s, nil))

	res := s.Login(context.Background(), "alice", "s3cret")
	assert.False(t, res.Success)
	assert.Equal(t, DefaultLoginMessage, res.Message)
}

func TestRestoreClearsCorruptSession(t *testing.T) {
	s, dir := newTestStore(t, &fakeAuth{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "access_token"), []byte("tok"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "refresh_token"), []byte("ref"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte("{not json"), 0600))

	s.Restore()

	assert.False(t, s.IsLoading())
	assert.False(t, s.IsAuthenticated())
	for _, name := range []string{"access_token", "refresh_token", "user.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), "%s should have been removed", name)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := &fakeAuth{access: "access-1", refresh: "refresh-1"}
	s, dir := newTestStore(t, f)

	var navigations int
	s.OnLogout(func() { navigations++ })

	require.True(t, s.Login(context.Background(), "alice", "s3cret").Success)

	s.Logout()
	s.Logout()

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Equal(t, 2, navigations)
	_, err := os.Stat(filepath.Join(dir, "access_token"))
	assert.True(t, os.IsNotExist(err))
}

func TestTokenRefreshesWhenExpiringSoon(t *testing.T) {
	stale := signedToken(t, time.Now().Add(5*time.Second))
	f := &fakeAuth{access: stale, refresh: "refresh-1"}
	s, dir := newTestStore(t, f)
	require.True(t, s.Login(context.Background(), "alice", "s3cret").Success)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.refreshCalls))

	// The refreshed token is persisted, not just held in memory.
	raw, err := os.ReadFile(filepath.Join(dir, "access_token"))
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", string(raw))
}

func TestTokenSkipsRefreshWhenLive(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	f := &fakeAuth{access: live, refresh: "refresh-1"}
	s, _ := newTestStore(t, f)
	require.True(t, s.Login(context.Background(), "alice", "s3cret").Success)

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, live, tok)
	assert.Zero(t, atomic.LoadInt32(&f.refreshCalls))
}

func TestFailedRefreshTearsSessionDown(t *testing.T) {
	stale := signedToken(t, time.Now().Add(-time.Minute))
	f := &fakeAuth{access: stale, refresh: "refresh-1", failRefresh: true}
	s, _ := newTestStore(t, f)

	var navigations int
	s.OnLogout(func() { navigations++ })
	require.True(t, s.Login(context.Background(), "alice", "s3cret").Success)

	_, err := s.Token(context.Background())
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, navigations)
}
