package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"lh3/internal/auth"
	"lh3/internal/events"
	"lh3/internal/forum"
	"lh3/internal/users"
	"lh3/middleware"
	"lh3/models"
	"lh3/tests/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	server *httptest.Server
	client *http.Client
	repo   *testutils.MemoryUserRepository
}

func setupApp(t *testing.T) *testApp {
	factory := testutils.SetupTestRepositoryFactory(t)
	userRepo := testutils.NewMemoryUserRepository()

	authService := auth.NewService(userRepo)
	userService := users.NewUserService(userRepo)
	eventService := events.NewEventService(factory.NewEventRepository(), factory.NewRSVPRepository())
	forumService := forum.NewForumService(factory.NewForumPostRepository())
	sessions := auth.NewSessionManager("test-session-secret", userRepo)

	handler, err := NewWebHandler(authService, userService, eventService, forumService, sessions, "../../templates")
	require.NoError(t, err)

	mw := middleware.NewMiddleware(sessions, []byte("test-jwt-key"))
	router := handler.SetupRoutes(mw, auth.NewAPIHandlers(authService, []byte("test-jwt-key")), events.NewEventHandlers(eventService))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		repo: userRepo,
	}
}

func userWithPassword(t *testing.T, username, password string) *models.User {
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		Username:        username,
		Email:           username + "@x.com",
		PasswordHash:    hash,
		Role:            models.RoleMember,
		PrivacySettings: models.DefaultPrivacySettings(),
	}
}

func (app *testApp) get(t *testing.T, path string) *http.Response {
	resp, err := app.client.Get(app.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (app *testApp) postForm(t *testing.T, path string, form url.Values) *http.Response {
	resp, err := app.client.PostForm(app.server.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func registerForm(username, email, password, confirm string) url.Values {
	return url.Values{
		"username":         {username},
		"email":            {email},
		"password":         {password},
		"password_confirm": {confirm},
	}
}

func loginForm(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func TestRegistrationAndLoginScenario(t *testing.T) {
	app := setupApp(t)
	ctx := context.Background()

	// Register alice
	resp := app.postForm(t, "/register", registerForm("alice", "alice@x.com", "pw123", "pw123"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	stored, err := app.repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "member", string(stored.Role))

	// Same username, different email
	resp = app.postForm(t, "/register", registerForm("alice", "other@x.com", "pw456", "pw456"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Username already exists")

	// Wrong password and unknown user read identically
	resp = app.postForm(t, "/login", loginForm("alice", "wrongpw"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	wrongPassword := body(t, resp)
	assert.Contains(t, wrongPassword, auth.MsgInvalidCredentials)

	resp = app.postForm(t, "/login", loginForm("mallory", "pw123"))
	unknownUser := body(t, resp)
	assert.Contains(t, unknownUser, auth.MsgInvalidCredentials)

	// No session was established by the failed attempts
	resp = app.get(t, "/profile")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))

	// Correct credentials land on the default page
	resp = app.postForm(t, "/login", loginForm("alice", "pw123"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = app.get(t, "/profile")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "alice")
}

func TestRegister_MissingFields(t *testing.T) {
	app := setupApp(t)

	resp := app.postForm(t, "/register", registerForm("", "a@x.com", "pw", "pw"))
	assert.Contains(t, body(t, resp), "All fields required")

	resp = app.postForm(t, "/register", registerForm("a", "a@x.com", "pw", "pw2"))
	assert.Contains(t, body(t, resp), "Passwords do not match")
}

func TestProtectedPageCarriesNextParam(t *testing.T) {
	app := setupApp(t)
	require.NoError(t, app.repo.Create(context.Background(), userWithPassword(t, "alice", "pw123")))

	resp := app.get(t, "/profile/edit")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Equal(t, "/login?next="+url.QueryEscape("/profile/edit"), location)

	// Logging in through that form returns to the requested page
	resp = app.postForm(t, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw123"},
		"next":     {"/profile/edit"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/profile/edit", resp.Header.Get("Location"))
}

func TestLogin_RejectsExternalNext(t *testing.T) {
	app := setupApp(t)
	require.NoError(t, app.repo.Create(context.Background(), userWithPassword(t, "alice", "pw123")))

	resp := app.postForm(t, "/login", url.Values{
		"username": {"alice"},
		"password": {"pw123"},
		"next":     {"https://evil.example.com/"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestUsersListing_AdminOnly(t *testing.T) {
	app := setupApp(t)
	ctx := context.Background()

	require.NoError(t, app.repo.Create(ctx, userWithPassword(t, "alice", "pw123")))
	admin := userWithPassword(t, "root", "adminpw")
	admin.Role = models.RoleAdmin
	require.NoError(t, app.repo.Create(ctx, admin))

	// Anonymous is sent to login
	resp := app.get(t, "/users")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))

	// A member is denied with a notice and sent home
	app.postForm(t, "/login", loginForm("alice", "pw123"))
	resp = app.get(t, "/users")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = app.get(t, "/")
	assert.Contains(t, body(t, resp), "Administrator access required")

	// An admin gets the listing
	app.get(t, "/logout")
	app.postForm(t, "/login", loginForm("root", "adminpw"))
	resp = app.get(t, "/users")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing := body(t, resp)
	assert.Contains(t, listing, "alice")
	assert.Contains(t, listing, "root")
}

func TestUserShow_PrivacyGating(t *testing.T) {
	app := setupApp(t)
	ctx := context.Background()

	owner := userWithPassword(t, "alice", "pw123")
	owner.PrivacySettings[models.PrivacyFieldProfile] = models.VisibilityPrivate
	require.NoError(t, app.repo.Create(ctx, owner))

	resp := app.get(t, "/users/"+owner.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "This profile is private")
	assert.NotContains(t, page, "Username: alice")
}

func TestUserShow_Unknown(t *testing.T) {
	app := setupApp(t)

	resp := app.get(t, "/users/no-such-id")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
