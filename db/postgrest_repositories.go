package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lh3/models"
)

// Row shapes decoded from the remote table API. Required columns are
// pointers so a missing key is distinguishable from a zero value and can
// be rejected as a malformed record instead of silently defaulted.

type userRow struct {
	ID              *string                      `json:"id"`
	Username        *string                      `json:"username"`
	Email           *string                      `json:"email"`
	PasswordHash    *string                      `json:"password_hash"`
	Role            *string                      `json:"role"`
	PrivacySettings map[string]models.Visibility `json:"privacy_settings"`
	Bio             *string                      `json:"bio"`
	Avatar          *string                      `json:"avatar"`
	HashNickname    *string                      `json:"hash_nickname"`
	FavoriteRuns    []string                     `json:"favorite_runs"`
	PersonalStats   map[string]string            `json:"personal_stats"`
	CreatedAt       *time.Time                   `json:"created_at"`
	UpdatedAt       *time.Time                   `json:"updated_at"`
}

func (r *userRow) toUser() (*models.User, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return nil, fmt.Errorf("%w: user row missing id", ErrMalformedRecord)
	case r.Username == nil || *r.Username == "":
		return nil, fmt.Errorf("%w: user row missing username", ErrMalformedRecord)
	case r.Email == nil || *r.Email == "":
		return nil, fmt.Errorf("%w: user row missing email", ErrMalformedRecord)
	case r.Role == nil || *r.Role == "":
		return nil, fmt.Errorf("%w: user row missing role", ErrMalformedRecord)
	}

	user := &models.User{
		ID:              *r.ID,
		Username:        *r.Username,
		Email:           *r.Email,
		Role:            models.Role(*r.Role),
		PrivacySettings: r.PrivacySettings,
		Bio:             r.Bio,
		Avatar:          r.Avatar,
		HashNickname:    r.HashNickname,
		FavoriteRuns:    r.FavoriteRuns,
		PersonalStats:   r.PersonalStats,
	}
	// password_hash is legitimately absent for accounts that have not
	// activated or that authenticate externally
	if r.PasswordHash != nil {
		user.PasswordHash = *r.PasswordHash
	}
	if r.CreatedAt != nil {
		user.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		user.UpdatedAt = *r.UpdatedAt
	}
	user.NormalizePrivacySettings()
	return user, nil
}

func decodeUser(raw json.RawMessage) (*models.User, error) {
	var row userRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: user row: %v", ErrMalformedRecord, err)
	}
	return row.toUser()
}

func userPayload(u *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":               u.ID,
		"username":         u.Username,
		"email":            u.Email,
		"password_hash":    u.PasswordHash,
		"role":             u.Role,
		"privacy_settings": u.PrivacySettings,
		"bio":              u.Bio,
		"avatar":           u.Avatar,
		"hash_nickname":    u.HashNickname,
		"favorite_runs":    u.FavoriteRuns,
		"personal_stats":   u.PersonalStats,
		"created_at":       u.CreatedAt,
		"updated_at":       u.UpdatedAt,
	}
}

// PostgRESTUserRepository implements UserRepository against the remote store
type PostgRESTUserRepository struct {
	client *PostgRESTClient
}

// NewPostgRESTUserRepository creates a new PostgRESTUserRepository
func NewPostgRESTUserRepository(client *PostgRESTClient) *PostgRESTUserRepository {
	return &PostgRESTUserRepository{client: client}
}

// Close is a no-op; the underlying HTTP client owns no resources
func (r *PostgRESTUserRepository) Close() error { return nil }

// FindByID finds a user by ID
func (r *PostgRESTUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, map[string]string{"id": id})
}

// FindByUsername finds a user by exact username
func (r *PostgRESTUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, map[string]string{"username": username})
}

// FindByEmail finds a user by exact email
func (r *PostgRESTUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, map[string]string{"email": email})
}

func (r *PostgRESTUserRepository) findOne(ctx context.Context, filters map[string]string) (*models.User, error) {
	rows, err := r.client.Select(ctx, "users", filters)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeUser(rows[0])
}

// FindAll returns every user account
func (r *PostgRESTUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.client.Select(ctx, "users", nil)
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(rows))
	for _, raw := range rows {
		user, err := decodeUser(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// Create inserts a new user. Uniqueness of username and email is enforced
// by the store's constraints; a lost race comes back as ErrDuplicate.
func (r *PostgRESTUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = GenerateID()
	}
	user.CreatedAt, user.UpdatedAt = Timestamps()
	_, err := r.client.Insert(ctx, "users", userPayload(user))
	return err
}

// Update rewrites a user row by ID
func (r *PostgRESTUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	_, err := r.client.Update(ctx, "users", map[string]string{"id": user.ID}, userPayload(user))
	return err
}

type eventRow struct {
	ID          *string    `json:"id"`
	RunNumber   *int       `json:"run_number"`
	Descriptor  *string    `json:"descriptor"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Address     *string    `json:"address"`
	EventDate   *time.Time `json:"event_date"`
	CreatedBy   *string    `json:"created_by"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

func (r *eventRow) toEvent() (*models.Event, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return nil, fmt.Errorf("%w: event row missing id", ErrMalformedRecord)
	case r.RunNumber == nil:
		return nil, fmt.Errorf("%w: event row missing run_number", ErrMalformedRecord)
	case r.Descriptor == nil || *r.Descriptor == "":
		return nil, fmt.Errorf("%w: event row missing descriptor", ErrMalformedRecord)
	case r.Address == nil:
		return nil, fmt.Errorf("%w: event row missing address", ErrMalformedRecord)
	case r.EventDate == nil:
		return nil, fmt.Errorf("%w: event row missing event_date", ErrMalformedRecord)
	case r.CreatedBy == nil:
		return nil, fmt.Errorf("%w: event row missing created_by", ErrMalformedRecord)
	}

	event := &models.Event{
		ID:         *r.ID,
		RunNumber:  *r.RunNumber,
		Descriptor: *r.Descriptor,
		Address:    *r.Address,
		EventDate:  *r.EventDate,
		CreatedBy:  *r.CreatedBy,
	}
	if r.Description != nil {
		event.Description = *r.Description
	}
	if r.Location != nil {
		event.Location = *r.Location
	}
	if r.CreatedAt != nil {
		event.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		event.UpdatedAt = *r.UpdatedAt
	}
	return event, nil
}

func decodeEvent(raw json.RawMessage) (*models.Event, error) {
	var row eventRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: event row: %v", ErrMalformedRecord, err)
	}
	return row.toEvent()
}

func eventPayload(e *models.Event) map[string]interface{} {
	return map[string]interface{}{
		"id":          e.ID,
		"run_number":  e.RunNumber,
		"descriptor":  e.Descriptor,
		"description": e.Description,
		"location":    e.Location,
		"address":     e.Address,
		"event_date":  e.EventDate,
		"created_by":  e.CreatedBy,
		"created_at":  e.CreatedAt,
		"updated_at":  e.UpdatedAt,
	}
}

// PostgRESTEventRepository implements EventRepository against the remote store
type PostgRESTEventRepository struct {
	client *PostgRESTClient
}

// NewPostgRESTEventRepository creates a new PostgRESTEventRepository
func NewPostgRESTEventRepository(client *PostgRESTClient) *PostgRESTEventRepository {
	return &PostgRESTEventRepository{client: client}
}

// Close is a no-op
func (r *PostgRESTEventRepository) Close() error { return nil }

// FindByID finds an event by ID
func (r *PostgRESTEventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	rows, err := r.client.Select(ctx, "events", map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeEvent(rows[0])
}

// FindAll returns every event
func (r *PostgRESTEventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	rows, err := r.client.Select(ctx, "events", nil)
	if err != nil {
		return nil, err
	}
	events := make([]*models.Event, 0, len(rows))
	for _, raw := range rows {
		event, err := decodeEvent(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Create inserts a new event
func (r *PostgRESTEventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = GenerateID()
	}
	event.CreatedAt, event.UpdatedAt = Timestamps()
	_, err := r.client.Insert(ctx, "events", eventPayload(event))
	return err
}

// Update rewrites an event row by ID
func (r *PostgRESTEventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	_, err := r.client.Update(ctx, "events", map[string]string{"id": event.ID}, eventPayload(event))
	return err
}

type rsvpRow struct {
	ID        *string    `json:"id"`
	EventID   *string    `json:"event_id"`
	UserID    *string    `json:"user_id"`
	Status    *string    `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (r *rsvpRow) toRSVP() (*models.RSVP, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return nil, fmt.Errorf("%w: rsvp row missing id", ErrMalformedRecord)
	case r.EventID == nil || *r.EventID == "":
		return nil, fmt.Errorf("%w: rsvp row missing event_id", ErrMalformedRecord)
	case r.UserID == nil || *r.UserID == "":
		return nil, fmt.Errorf("%w: rsvp row missing user_id", ErrMalformedRecord)
	case r.Status == nil || *r.Status == "":
		return nil, fmt.Errorf("%w: rsvp row missing status", ErrMalformedRecord)
	}

	rsvp := &models.RSVP{
		ID:      *r.ID,
		EventID: *r.EventID,
		UserID:  *r.UserID,
		Status:  models.RSVPStatus(*r.Status),
	}
	if r.CreatedAt != nil {
		rsvp.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		rsvp.UpdatedAt = *r.UpdatedAt
	}
	return rsvp, nil
}

func decodeRSVP(raw json.RawMessage) (*models.RSVP, error) {
	var row rsvpRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: rsvp row: %v", ErrMalformedRecord, err)
	}
	return row.toRSVP()
}

// PostgRESTRSVPRepository implements RSVPRepository against the remote store
type PostgRESTRSVPRepository struct {
	client *PostgRESTClient
}

// NewPostgRESTRSVPRepository creates a new PostgRESTRSVPRepository
func NewPostgRESTRSVPRepository(client *PostgRESTClient) *PostgRESTRSVPRepository {
	return &PostgRESTRSVPRepository{client: client}
}

// Close is a no-op
func (r *PostgRESTRSVPRepository) Close() error { return nil }

// FindByEvent returns every RSVP for an event
func (r *PostgRESTRSVPRepository) FindByEvent(ctx context.Context, eventID string) ([]*models.RSVP, error) {
	rows, err := r.client.Select(ctx, "rsvps", map[string]string{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	rsvps := make([]*models.RSVP, 0, len(rows))
	for _, raw := range rows {
		rsvp, err := decodeRSVP(raw)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, nil
}

// FindByEventAndUser returns a member's RSVP for an event, if any
func (r *PostgRESTRSVPRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.RSVP, error) {
	rows, err := r.client.Select(ctx, "rsvps", map[string]string{"event_id": eventID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeRSVP(rows[0])
}

// Upsert creates the member's RSVP for the event or replaces its status
func (r *PostgRESTRSVPRepository) Upsert(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error) {
	existing, err := r.FindByEventAndUser(ctx, rsvp.EventID, rsvp.UserID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	if existing != nil {
		existing.Status = rsvp.Status
		existing.UpdatedAt = time.Now().UTC()
		raw, err := r.client.Update(ctx, "rsvps", map[string]string{"id": existing.ID}, map[string]interface{}{
			"status":     existing.Status,
			"updated_at": existing.UpdatedAt,
		})
		if err != nil {
			return nil, err
		}
		return decodeRSVP(raw)
	}

	if rsvp.ID == "" {
		rsvp.ID = GenerateID()
	}
	rsvp.CreatedAt, rsvp.UpdatedAt = Timestamps()
	raw, err := r.client.Insert(ctx, "rsvps", map[string]interface{}{
		"id":         rsvp.ID,
		"event_id":   rsvp.EventID,
		"user_id":    rsvp.UserID,
		"status":     rsvp.Status,
		"created_at": rsvp.CreatedAt,
		"updated_at": rsvp.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	return decodeRSVP(raw)
}

type forumPostRow struct {
	ID        *string    `json:"id"`
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	UserID    *string    `json:"user_id"`
	CreatedAt *time.Time `json:"created_at"`
}

func (r *forumPostRow) toForumPost() (*models.ForumPost, error) {
	switch {
	case r.ID == nil || *r.ID == "":
		return nil, fmt.Errorf("%w: forum post row missing id", ErrMalformedRecord)
	case r.Title == nil || *r.Title == "":
		return nil, fmt.Errorf("%w: forum post row missing title", ErrMalformedRecord)
	case r.Content == nil:
		return nil, fmt.Errorf("%w: forum post row missing content", ErrMalformedRecord)
	case r.UserID == nil || *r.UserID == "":
		return nil, fmt.Errorf("%w: forum post row missing user_id", ErrMalformedRecord)
	}

	post := &models.ForumPost{
		ID:      *r.ID,
		Title:   *r.Title,
		Content: *r.Content,
		UserID:  *r.UserID,
	}
	if r.CreatedAt != nil {
		post.CreatedAt = *r.CreatedAt
	}
	return post, nil
}

func decodeForumPost(raw json.RawMessage) (*models.ForumPost, error) {
	var row forumPostRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: forum post row: %v", ErrMalformedRecord, err)
	}
	return row.toForumPost()
}

// PostgRESTForumPostRepository implements ForumPostRepository against the
// remote store
type PostgRESTForumPostRepository struct {
	client *PostgRESTClient
}

// NewPostgRESTForumPostRepository creates a new PostgRESTForumPostRepository
func NewPostgRESTForumPostRepository(client *PostgRESTClient) *PostgRESTForumPostRepository {
	return &PostgRESTForumPostRepository{client: client}
}

// Close is a no-op
func (r *PostgRESTForumPostRepository) Close() error { return nil }

// FindByID finds a forum post by ID
func (r *PostgRESTForumPostRepository) FindByID(ctx context.Context, id string) (*models.ForumPost, error) {
	rows, err := r.client.Select(ctx, "forum_posts", map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return decodeForumPost(rows[0])
}

// FindAll returns every forum post
func (r *PostgRESTForumPostRepository) FindAll(ctx context.Context) ([]*models.ForumPost, error) {
	rows, err := r.client.Select(ctx, "forum_posts", nil)
	if err != nil {
		return nil, err
	}
	posts := make([]*models.ForumPost, 0, len(rows))
	for _, raw := range rows {
		post, err := decodeForumPost(raw)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// Create inserts a new forum post
func (r *PostgRESTForumPostRepository) Create(ctx context.Context, post *models.ForumPost) error {
	if post.ID == "" {
		post.ID = GenerateID()
	}
	post.CreatedAt = time.Now().UTC()
	_, err := r.client.Insert(ctx, "forum_posts", map[string]interface{}{
		"id":         post.ID,
		"title":      post.Title,
		"content":    post.Content,
		"user_id":    post.UserID,
		"created_at": post.CreatedAt,
	})
	return err
}
