package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lh3/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", DefaultLanding},
		{"/profile", "/profile"},
		{"/events/abc?tab=rsvps", "/events/abc?tab=rsvps"},
		{"//evil.example.com", DefaultLanding},
		{"https://evil.example.com/", DefaultLanding},
		{"javascript:alert(1)", DefaultLanding},
		{"profile", DefaultLanding},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeNext(tt.next), tt.next)
	}
}

func TestSessionManager_SignInAndCurrentUser(t *testing.T) {
	repo := testutils.NewMemoryUserRepository()
	user := testutils.CreateTestUser("alice")
	require.NoError(t, repo.Create(context.Background(), user))

	manager := NewSessionManager("test-session-secret", repo)

	// Sign in and capture the cookie
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, manager.SignIn(w, r, user))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The bound user resolves on the next request
	next := httptest.NewRequest(http.MethodGet, "/profile", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	current := manager.CurrentUser(next)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}

func TestSessionManager_AnonymousHasNoUser(t *testing.T) {
	manager := NewSessionManager("test-session-secret", testutils.NewMemoryUserRepository())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, manager.CurrentUser(r))
}

func TestSessionManager_SignOut(t *testing.T) {
	repo := testutils.NewMemoryUserRepository()
	user := testutils.CreateTestUser("alice")
	require.NoError(t, repo.Create(context.Background(), user))

	manager := NewSessionManager("test-session-secret", repo)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, manager.SignIn(w, r, user))

	signedIn := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range w.Result().Cookies() {
		signedIn.AddCookie(c)
	}

	out := httptest.NewRecorder()
	require.NoError(t, manager.SignOut(out, signedIn))

	// The cleared cookie no longer resolves a user
	after := httptest.NewRequest(http.MethodGet, "/profile", nil)
	for _, c := range out.Result().Cookies() {
		after.AddCookie(c)
	}
	assert.Nil(t, manager.CurrentUser(after))
}

func TestSessionManager_VanishedAccount(t *testing.T) {
	repo := testutils.NewMemoryUserRepository()
	user := testutils.CreateTestUser("alice")
	require.NoError(t, repo.Create(context.Background(), user))

	manager := NewSessionManager("test-session-secret", repo)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	require.NoError(t, manager.SignIn(w, r, user))

	// Bind the cookie to an account resolved through a fresh empty store
	empty := NewSessionManager("test-session-secret", testutils.NewMemoryUserRepository())
	next := httptest.NewRequest(http.MethodGet, "/profile", nil)
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}
	assert.Nil(t, empty.CurrentUser(next))
}
