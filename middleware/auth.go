package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"lh3/internal/auth"

	"github.com/dgrijalva/jwt-go"
)

type Middleware struct {
	Sessions *auth.SessionManager
	JwtKey   []byte
}

func NewMiddleware(sessions *auth.SessionManager, jwtKey []byte) *Middleware {
	return &Middleware{Sessions: sessions, JwtKey: jwtKey}
}

// RequireAuth redirects anonymous requests to the login page, carrying
// the originally requested URL so the login handler can return there.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.Sessions.CurrentUser(r) == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin allows only admin accounts through. A signed-in non-admin
// gets a notice and lands back on the home page; the denial never leaks
// what the page would have shown.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := m.Sessions.CurrentUser(r)
		if user == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		if !auth.IsAdmin(user) {
			m.Sessions.Flash(w, r, "Administrator access required")
			http.Redirect(w, r, auth.DefaultLanding, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// APIAuth guards JSON endpoints with the bearer tokens issued by the API
// login handler.
func (m *Middleware) APIAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		tokenStr := authHeader[len("Bearer "):]
		claims := &auth.Claims{}

		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			return m.JwtKey, nil
		})

		if err != nil {
			if err == jwt.ErrSignatureInvalid {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if !token.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}
