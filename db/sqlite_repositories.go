package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lh3/models"

	"github.com/mattn/go-sqlite3"
)

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func encodeJSON(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding json column: %w", err)
	}
	return string(encoded), nil
}

// SQLiteUserRepository implements the UserRepository interface for SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteUserRepository) Close() error {
	return r.db.Close()
}

const userColumns = `id, username, email, password_hash, role, privacy_settings, bio, avatar, hash_nickname, favorite_runs, personal_stats, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	var passwordHash, bio, avatar, hashNickname sql.NullString
	var privacySettings string
	var favoriteRuns, personalStats sql.NullString

	err := row.Scan(&user.ID, &user.Username, &user.Email, &passwordHash, &user.Role,
		&privacySettings, &bio, &avatar, &hashNickname, &favoriteRuns, &personalStats,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}

	if user.Role == "" {
		return nil, fmt.Errorf("%w: user row missing role", ErrMalformedRecord)
	}
	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	if bio.Valid {
		user.Bio = &bio.String
	}
	if avatar.Valid {
		user.Avatar = &avatar.String
	}
	if hashNickname.Valid {
		user.HashNickname = &hashNickname.String
	}
	if privacySettings != "" {
		if err := json.Unmarshal([]byte(privacySettings), &user.PrivacySettings); err != nil {
			return nil, fmt.Errorf("%w: user privacy_settings: %v", ErrMalformedRecord, err)
		}
	}
	if favoriteRuns.Valid && favoriteRuns.String != "" {
		if err := json.Unmarshal([]byte(favoriteRuns.String), &user.FavoriteRuns); err != nil {
			return nil, fmt.Errorf("%w: user favorite_runs: %v", ErrMalformedRecord, err)
		}
	}
	if personalStats.Valid && personalStats.String != "" {
		if err := json.Unmarshal([]byte(personalStats.String), &user.PersonalStats); err != nil {
			return nil, fmt.Errorf("%w: user personal_stats: %v", ErrMalformedRecord, err)
		}
	}

	user.NormalizePrivacySettings()
	return &user, nil
}

// FindByID finds a user by ID
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByUsername finds a user by exact username
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

// FindByEmail finds a user by exact email
func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindAll returns every user account ordered by username
func (r *SQLiteUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Create inserts a new user. Duplicate usernames or emails are rejected by
// the UNIQUE constraints and surface as ErrDuplicate.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = GenerateID()
	}
	user.CreatedAt, user.UpdatedAt = Timestamps()

	privacy, err := encodeJSON(user.PrivacySettings)
	if err != nil {
		return err
	}
	runs, err := encodeJSON(user.FavoriteRuns)
	if err != nil {
		return err
	}
	stats, err := encodeJSON(user.PersonalStats)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email, nullString(user.PasswordHash), user.Role,
		privacy, user.Bio, user.Avatar, user.HashNickname, nullString(runs), nullString(stats),
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// Update rewrites a user row by ID
func (r *SQLiteUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	privacy, err := encodeJSON(user.PrivacySettings)
	if err != nil {
		return err
	}
	runs, err := encodeJSON(user.FavoriteRuns)
	if err != nil {
		return err
	}
	stats, err := encodeJSON(user.PersonalStats)
	if err != nil {
		return err
	}

	query := `UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?,
		privacy_settings = ?, bio = ?, avatar = ?, hash_nickname = ?, favorite_runs = ?,
		personal_stats = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, nullString(user.PasswordHash), user.Role,
		privacy, user.Bio, user.Avatar, user.HashNickname, nullString(runs), nullString(stats),
		user.UpdatedAt, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// SQLiteEventRepository implements the EventRepository interface for SQLite
type SQLiteEventRepository struct {
	db *sql.DB
}

// NewSQLiteEventRepository creates a new SQLiteEventRepository
func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteEventRepository) Close() error {
	return r.db.Close()
}

const eventColumns = `id, run_number, descriptor, description, location, address, event_date, created_by, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var event models.Event
	var description, location sql.NullString

	err := row.Scan(&event.ID, &event.RunNumber, &event.Descriptor, &description,
		&location, &event.Address, &event.EventDate, &event.CreatedBy,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning event: %w", err)
	}

	if description.Valid {
		event.Description = description.String
	}
	if location.Valid {
		event.Location = location.String
	}
	return &event, nil
}

// FindByID finds an event by ID
func (r *SQLiteEventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return scanEvent(r.db.QueryRowContext(ctx, query, id))
}

// FindAll returns every event ordered by date
func (r *SQLiteEventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY event_date`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Create inserts a new event
func (r *SQLiteEventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = GenerateID()
	}
	event.CreatedAt, event.UpdatedAt = Timestamps()

	query := `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.RunNumber, event.Descriptor, event.Description, event.Location,
		event.Address, event.EventDate, event.CreatedBy, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}
	return nil
}

// Update rewrites an event row by ID
func (r *SQLiteEventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	query := `UPDATE events SET run_number = ?, descriptor = ?, description = ?,
		location = ?, address = ?, event_date = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		event.RunNumber, event.Descriptor, event.Description, event.Location,
		event.Address, event.EventDate, event.UpdatedAt, event.ID)
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating event: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SQLiteRSVPRepository implements the RSVPRepository interface for SQLite
type SQLiteRSVPRepository struct {
	db *sql.DB
}

// NewSQLiteRSVPRepository creates a new SQLiteRSVPRepository
func NewSQLiteRSVPRepository(db *sql.DB) *SQLiteRSVPRepository {
	return &SQLiteRSVPRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteRSVPRepository) Close() error {
	return r.db.Close()
}

func scanRSVP(row interface{ Scan(...interface{}) error }) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Status,
		&rsvp.CreatedAt, &rsvp.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning rsvp: %w", err)
	}
	return &rsvp, nil
}

// FindByEvent returns every RSVP for an event
func (r *SQLiteRSVPRepository) FindByEvent(ctx context.Context, eventID string) ([]*models.RSVP, error) {
	query := `SELECT id, event_id, user_id, status, created_at, updated_at FROM rsvps WHERE event_id = ?`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("error querying rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []*models.RSVP
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, rows.Err()
}

// FindByEventAndUser returns a member's RSVP for an event, if any
func (r *SQLiteRSVPRepository) FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.RSVP, error) {
	query := `SELECT id, event_id, user_id, status, created_at, updated_at FROM rsvps WHERE event_id = ? AND user_id = ?`
	return scanRSVP(r.db.QueryRowContext(ctx, query, eventID, userID))
}

// Upsert creates the member's RSVP for the event or replaces its status.
// The (event_id, user_id) UNIQUE constraint makes the replace atomic.
func (r *SQLiteRSVPRepository) Upsert(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error) {
	if rsvp.ID == "" {
		rsvp.ID = GenerateID()
	}
	rsvp.CreatedAt, rsvp.UpdatedAt = Timestamps()

	query := `INSERT INTO rsvps (id, event_id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id, user_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		rsvp.ID, rsvp.EventID, rsvp.UserID, rsvp.Status, rsvp.CreatedAt, rsvp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error upserting rsvp: %w", err)
	}
	return r.FindByEventAndUser(ctx, rsvp.EventID, rsvp.UserID)
}

// SQLiteForumPostRepository implements the ForumPostRepository interface
// for SQLite
type SQLiteForumPostRepository struct {
	db *sql.DB
}

// NewSQLiteForumPostRepository creates a new SQLiteForumPostRepository
func NewSQLiteForumPostRepository(db *sql.DB) *SQLiteForumPostRepository {
	return &SQLiteForumPostRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteForumPostRepository) Close() error {
	return r.db.Close()
}

func scanForumPost(row interface{ Scan(...interface{}) error }) (*models.ForumPost, error) {
	var post models.ForumPost
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning forum post: %w", err)
	}
	return &post, nil
}

// FindByID finds a forum post by ID
func (r *SQLiteForumPostRepository) FindByID(ctx context.Context, id string) (*models.ForumPost, error) {
	query := `SELECT id, title, content, user_id, created_at FROM forum_posts WHERE id = ?`
	return scanForumPost(r.db.QueryRowContext(ctx, query, id))
}

// FindAll returns every forum post newest first
func (r *SQLiteForumPostRepository) FindAll(ctx context.Context) ([]*models.ForumPost, error) {
	query := `SELECT id, title, content, user_id, created_at FROM forum_posts ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying forum posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.ForumPost
	for rows.Next() {
		post, err := scanForumPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Create inserts a new forum post
func (r *SQLiteForumPostRepository) Create(ctx context.Context, post *models.ForumPost) error {
	if post.ID == "" {
		post.ID = GenerateID()
	}
	post.CreatedAt = time.Now().UTC()

	query := `INSERT INTO forum_posts (id, title, content, user_id, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.Title, post.Content, post.UserID, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting forum post: %w", err)
	}
	return nil
}
