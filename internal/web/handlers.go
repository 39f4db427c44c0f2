package web

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"time"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/internal/events"
	"lh3/internal/forum"
	"lh3/internal/users"
	"lh3/models"

	"github.com/gorilla/mux"
)

// msgUnavailable is shown whenever the backing store cannot be reached.
// It deliberately says nothing about what failed.
const msgUnavailable = "Service temporarily unavailable, please try again"

type WebHandler struct {
	authService  *auth.Service
	userService  *users.UserService
	eventService *events.EventService
	forumService *forum.ForumService
	sessions     *auth.SessionManager
	templates    *template.Template
}

type PageData struct {
	Page    string
	User    *models.User
	Error   string
	Notices []string
	Next    string
	// Form redisplay
	Username string
	Email    string
	// Page payloads
	Users   []*models.User
	Profile *users.ProfileView
	Events  []*models.Event
	Event   *models.Event
	RSVPs   []*models.RSVP
	MyRSVP  *models.RSVP
	Posts   []*models.ForumPost
	Post    *models.ForumPost
}

func NewWebHandler(
	authService *auth.Service,
	userService *users.UserService,
	eventService *events.EventService,
	forumService *forum.ForumService,
	sessions *auth.SessionManager,
	templateDir string,
) (*WebHandler, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return "TBA"
			}
			return t.Format("Mon 2 Jan 2006")
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"isPublic": func(v models.Visibility) bool {
			return v == models.VisibilityPublic
		},
		"rsvpIs": func(rsvp *models.RSVP, status string) bool {
			return rsvp != nil && string(rsvp.Status) == status
		},
	}

	templates, err := template.New("").Funcs(funcMap).ParseGlob(templateDir + "/*.html")
	if err != nil {
		return nil, err
	}

	return &WebHandler{
		authService:  authService,
		userService:  userService,
		eventService: eventService,
		forumService: forumService,
		sessions:     sessions,
		templates:    templates,
	}, nil
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	if data.User == nil {
		data.User = h.sessions.CurrentUser(r)
	}
	data.Notices = append(h.sessions.TakeFlashes(w, r), data.Notices...)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template execution error for %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// flashAndRedirect is the shared shape of every recoverable denial:
// a notice and a safe destination, never a hard error page.
func (h *WebHandler) flashAndRedirect(w http.ResponseWriter, r *http.Request, message, location string) {
	h.sessions.Flash(w, r, message)
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Home renders the landing page with the upcoming runs
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	eventList, err := h.eventService.List(r.Context())
	if err != nil {
		log.Printf("Failed to list events for home page: %v", err)
		h.render(w, r, "home.html", PageData{Page: "home", Error: msgUnavailable})
		return
	}
	h.render(w, r, "home.html", PageData{Page: "home", Events: eventList})
}

// Login renders the login form and establishes sessions. A failed login
// never reveals whether the username or the password was wrong.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")

	if r.Method == http.MethodGet {
		h.render(w, r, "login.html", PageData{Page: "login", Next: next})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if next == "" {
		next = r.FormValue("next")
	}

	user, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.render(w, r, "login.html", PageData{
				Page:     "login",
				Error:    auth.MsgInvalidCredentials,
				Username: username,
				Next:     next,
			})
			return
		}
		log.Printf("Login failed against store: %v", err)
		h.render(w, r, "login.html", PageData{Page: "login", Error: msgUnavailable, Username: username, Next: next})
		return
	}

	if err := h.sessions.SignIn(w, r, user); err != nil {
		log.Printf("Failed to save session: %v", err)
		h.render(w, r, "login.html", PageData{Page: "login", Error: msgUnavailable, Username: username, Next: next})
		return
	}

	http.Redirect(w, r, auth.SafeNext(next), http.StatusSeeOther)
}

// Logout destroys the session
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		log.Printf("Failed to clear session: %v", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Register renders the registration form and creates accounts
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "register.html", PageData{Page: "register"})
		return
	}

	input := auth.RegisterInput{
		Username:        r.FormValue("username"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}

	_, err := h.authService.Register(r.Context(), input)
	if err != nil {
		var validationErr *auth.ValidationError
		var duplicateErr *auth.DuplicateError
		data := PageData{Page: "register", Username: input.Username, Email: input.Email}
		switch {
		case errors.As(err, &validationErr):
			data.Error = validationErr.Message
		case errors.As(err, &duplicateErr):
			data.Error = duplicateErr.Message
		default:
			log.Printf("Registration failed against store: %v", err)
			data.Error = msgUnavailable
		}
		h.render(w, r, "register.html", data)
		return
	}

	h.flashAndRedirect(w, r, "Registration successful, please log in", "/login")
}

// Profile shows the signed-in member's own profile
func (h *WebHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.render(w, r, "profile.html", PageData{
		Page:    "profile",
		User:    user,
		Profile: users.BuildProfileView(user, user),
	})
}

// ProfileEdit lets the owner change bio, nickname, avatar reference and
// privacy settings. Role is not editable here.
func (h *WebHandler) ProfileEdit(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "profile_edit.html", PageData{Page: "profile_edit", User: user})
		return
	}

	bio := r.FormValue("bio")
	nickname := r.FormValue("hash_nickname")
	update := users.ProfileUpdate{
		Bio:          &bio,
		HashNickname: &nickname,
		PrivacySettings: map[string]models.Visibility{
			models.PrivacyFieldProfile: models.Visibility(r.FormValue("privacy_profile")),
			models.PrivacyFieldRuns:    models.Visibility(r.FormValue("privacy_runs")),
			models.PrivacyFieldStats:   models.Visibility(r.FormValue("privacy_stats")),
		},
	}
	// Avatar upload is filename-only; the file bytes are not stored
	if _, header, err := r.FormFile("avatar"); err == nil && header.Filename != "" {
		update.Avatar = &header.Filename
	}

	if err := h.userService.UpdateProfile(r.Context(), user, user, update); err != nil {
		log.Printf("Failed to update profile for %s: %v", user.ID, err)
		h.render(w, r, "profile_edit.html", PageData{Page: "profile_edit", User: user, Error: msgUnavailable})
		return
	}

	h.flashAndRedirect(w, r, "Profile updated", "/profile")
}

// UsersList is the admin-only account listing
func (h *WebHandler) UsersList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.userService.ListAll(r.Context())
	if err != nil {
		log.Printf("Failed to list users: %v", err)
		h.flashAndRedirect(w, r, msgUnavailable, auth.DefaultLanding)
		return
	}
	h.render(w, r, "users.html", PageData{Page: "users", Users: accounts})
}

// UserShow is a member's public profile, gated section by section by the
// owner's privacy settings. Hidden sections are omitted, not errored.
func (h *WebHandler) UserShow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	owner, err := h.userService.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		log.Printf("Failed to load user %s: %v", id, err)
		h.flashAndRedirect(w, r, msgUnavailable, auth.DefaultLanding)
		return
	}

	viewer := h.sessions.CurrentUser(r)
	h.render(w, r, "user_show.html", PageData{
		Page:    "user_show",
		User:    viewer,
		Profile: users.BuildProfileView(viewer, owner),
	})
}

// EventsList shows every run
func (h *WebHandler) EventsList(w http.ResponseWriter, r *http.Request) {
	eventList, err := h.eventService.List(r.Context())
	if err != nil {
		log.Printf("Failed to list events: %v", err)
		h.flashAndRedirect(w, r, msgUnavailable, auth.DefaultLanding)
		return
	}
	h.render(w, r, "events.html", PageData{Page: "events", Events: eventList})
}

// EventDetail shows one run with its RSVPs
func (h *WebHandler) EventDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	event, err := h.eventService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		log.Printf("Failed to load event %s: %v", id, err)
		h.flashAndRedirect(w, r, msgUnavailable, "/events")
		return
	}

	rsvps, err := h.eventService.RSVPs(r.Context(), id)
	if err != nil {
		log.Printf("Failed to load rsvps for event %s: %v", id, err)
		h.flashAndRedirect(w, r, msgUnavailable, "/events")
		return
	}

	data := PageData{Page: "event_detail", Event: event, RSVPs: rsvps}
	if viewer := h.sessions.CurrentUser(r); viewer != nil {
		data.User = viewer
		for _, rsvp := range rsvps {
			if rsvp.UserID == viewer.ID {
				data.MyRSVP = rsvp
				break
			}
		}
	}
	h.render(w, r, "event_detail.html", data)
}

// EventCreate renders the new-run form and records the run
func (h *WebHandler) EventCreate(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "event_create.html", PageData{Page: "event_create", User: user})
		return
	}

	runNumber, _ := strconv.Atoi(r.FormValue("run_number"))
	eventDate := parseEventDate(r.FormValue("event_date"))

	event, err := h.eventService.Create(r.Context(), user, events.CreateInput{
		RunNumber:   runNumber,
		Descriptor:  r.FormValue("descriptor"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Address:     r.FormValue("address"),
		EventDate:   eventDate,
	})
	if err != nil {
		var validationErr *auth.ValidationError
		data := PageData{Page: "event_create", User: user}
		if errors.As(err, &validationErr) {
			data.Error = validationErr.Message
		} else {
			log.Printf("Failed to create event: %v", err)
			data.Error = msgUnavailable
		}
		h.render(w, r, "event_create.html", data)
		return
	}

	h.flashAndRedirect(w, r, "Event created successfully", "/events/"+event.ID)
}

// EventRSVP records or replaces the member's answer for a run
func (h *WebHandler) EventRSVP(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id := mux.Vars(r)["id"]
	status := models.RSVPStatus(r.FormValue("status"))

	_, err := h.eventService.RSVP(r.Context(), user, id, status)
	if err != nil {
		var validationErr *auth.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.flashAndRedirect(w, r, validationErr.Message, "/events/"+id)
		case errors.Is(err, db.ErrNotFound):
			h.NotFound(w, r)
		default:
			log.Printf("Failed to record rsvp for event %s: %v", id, err)
			h.flashAndRedirect(w, r, msgUnavailable, "/events")
		}
		return
	}

	h.flashAndRedirect(w, r, "RSVP recorded", "/events/"+id)
}

// ForumList shows every post newest first
func (h *WebHandler) ForumList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.forumService.List(r.Context())
	if err != nil {
		log.Printf("Failed to list forum posts: %v", err)
		h.flashAndRedirect(w, r, msgUnavailable, auth.DefaultLanding)
		return
	}
	h.render(w, r, "forum.html", PageData{Page: "forum", Posts: posts})
}

// ForumDetail shows one post
func (h *WebHandler) ForumDetail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	post, err := h.forumService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		log.Printf("Failed to load forum post %s: %v", id, err)
		h.flashAndRedirect(w, r, msgUnavailable, "/forum")
		return
	}
	h.render(w, r, "forum_detail.html", PageData{Page: "forum_detail", Post: post})
}

// ForumCreate renders the new-post form and records the post
func (h *WebHandler) ForumCreate(w http.ResponseWriter, r *http.Request) {
	user := h.sessions.CurrentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "forum_create.html", PageData{Page: "forum_create", User: user})
		return
	}

	post, err := h.forumService.Create(r.Context(), user, r.FormValue("title"), r.FormValue("content"))
	if err != nil {
		var validationErr *auth.ValidationError
		data := PageData{Page: "forum_create", User: user}
		if errors.As(err, &validationErr) {
			data.Error = validationErr.Message
		} else {
			log.Printf("Failed to create forum post: %v", err)
			data.Error = msgUnavailable
		}
		h.render(w, r, "forum_create.html", data)
		return
	}

	h.flashAndRedirect(w, r, "Post created successfully", "/forum/"+post.ID)
}

// NotFound renders the 404 page
func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	h.render(w, r, "404.html", PageData{Page: "404"})
}

func parseEventDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
