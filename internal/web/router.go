package web

import (
	"net/http"

	"lh3/internal/auth"
	"lh3/internal/events"
	"lh3/middleware"

	"github.com/gorilla/mux"
)

// SetupRoutes wires every page and API endpoint. Auth requirements live
// here, next to the routes they protect.
func (h *WebHandler) SetupRoutes(m *middleware.Middleware, apiAuth *auth.APIHandlers, eventHandlers *events.EventHandlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// Web pages
	r.HandleFunc("/", h.Home).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("GET", "POST")
	r.HandleFunc("/logout", m.RequireAuth(h.Logout)).Methods("GET")
	r.HandleFunc("/register", h.Register).Methods("GET", "POST")
	r.HandleFunc("/profile", m.RequireAuth(h.Profile)).Methods("GET")
	r.HandleFunc("/profile/edit", m.RequireAuth(h.ProfileEdit)).Methods("GET", "POST")
	r.HandleFunc("/users", m.RequireAdmin(h.UsersList)).Methods("GET")
	r.HandleFunc("/users/{id}", h.UserShow).Methods("GET")
	r.HandleFunc("/events", h.EventsList).Methods("GET")
	r.HandleFunc("/events/create", m.RequireAuth(h.EventCreate)).Methods("GET", "POST")
	r.HandleFunc("/events/{id}", h.EventDetail).Methods("GET")
	r.HandleFunc("/events/{id}/rsvp", m.RequireAuth(h.EventRSVP)).Methods("POST")
	r.HandleFunc("/forum", h.ForumList).Methods("GET")
	r.HandleFunc("/forum/create", m.RequireAuth(h.ForumCreate)).Methods("GET", "POST")
	r.HandleFunc("/forum/{id}", h.ForumDetail).Methods("GET")

	// JSON API endpoints, bearer-token guarded
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", apiAuth.LoginHandler).Methods("POST")
	api.HandleFunc("/events", m.APIAuth(eventHandlers.List)).Methods("GET")
	api.HandleFunc("/events/{id}/rsvps", m.APIAuth(eventHandlers.RSVPs)).Methods("GET")

	// 404 handler
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
