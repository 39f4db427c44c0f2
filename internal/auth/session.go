package auth

import (
	"net/http"
	"net/url"
	"strings"

	"lh3/db"
	"lh3/models"

	"github.com/gorilla/sessions"
)

const (
	// SessionName is the cookie the session rides in
	SessionName = "lh3-session"
	// DefaultLanding is where a login without a pending destination goes
	DefaultLanding = "/"
)

// SessionManager binds the browsing agent to a user account through a
// signed cookie. It is constructed once at startup and passed to the
// handlers; the bound user is re-resolved through the repository on every
// request so role and privacy changes take effect immediately.
type SessionManager struct {
	store *sessions.CookieStore
	users db.UserRepository
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(secret string, users db.UserRepository) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, users: users}
}

// SignIn binds the session to the user
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, user *models.User) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values["user_id"] = user.ID
	return session.Save(r, w)
}

// SignOut invalidates the binding
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, SessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// CurrentUser returns the bound account, or nil when the session is
// anonymous or the bound account no longer resolves.
func (m *SessionManager) CurrentUser(r *http.Request) *models.User {
	session, _ := m.store.Get(r, SessionName)
	id, ok := session.Values["user_id"].(string)
	if !ok || id == "" {
		return nil
	}
	user, err := m.users.FindByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

// Flash queues a one-shot notice for the next rendered page
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, message string) {
	session, _ := m.store.Get(r, SessionName)
	session.AddFlash(message)
	session.Save(r, w)
}

// TakeFlashes drains the queued notices
func (m *SessionManager) TakeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := m.store.Get(r, SessionName)
	raw := session.Flashes()
	if len(raw) > 0 {
		session.Save(r, w)
	}
	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}

// SafeNext validates a post-login destination captured from the "next"
// parameter. Only same-site relative paths are honored; anything absolute
// or scheme-relative falls back to the default landing page.
func SafeNext(next string) string {
	if next == "" {
		return DefaultLanding
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return DefaultLanding
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return DefaultLanding
	}
	return next
}
