package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lh3/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the lookup matched no row. It is a valid empty
	// result, not a transport failure.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate means an insert violated a uniqueness constraint
	ErrDuplicate = errors.New("record already exists")
	// ErrStoreUnavailable means the backend could not be reached or errored
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMalformedRecord means a stored row is missing or mis-types a
	// required field and cannot be turned into a model
	ErrMalformedRecord = errors.New("malformed record")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// UserRepository defines the interface for user account operations
type UserRepository interface {
	Repository
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// EventRepository defines the interface for event operations
type EventRepository interface {
	Repository
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindAll(ctx context.Context) ([]*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
}

// RSVPRepository defines the interface for RSVP operations
type RSVPRepository interface {
	Repository
	FindByEvent(ctx context.Context, eventID string) ([]*models.RSVP, error)
	FindByEventAndUser(ctx context.Context, eventID, userID string) (*models.RSVP, error)
	Upsert(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error)
}

// ForumPostRepository defines the interface for forum post operations
type ForumPostRepository interface {
	Repository
	FindByID(ctx context.Context, id string) (*models.ForumPost, error)
	FindAll(ctx context.Context) ([]*models.ForumPost, error)
	Create(ctx context.Context, post *models.ForumPost) error
}

// RepositoryFactory creates repositories for the configured backend.
// When a SQLite handle is present it wins; otherwise the remote
// PostgREST client is used.
type RepositoryFactory struct {
	SQLiteDB *sql.DB
	Client   *PostgRESTClient
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, client *PostgRESTClient) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB: sqliteDB,
		Client:   client,
	}
}

// NewUserRepository creates a new user repository
func (f *RepositoryFactory) NewUserRepository() UserRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteUserRepository(f.SQLiteDB)
	}
	return NewPostgRESTUserRepository(f.Client)
}

// NewEventRepository creates a new event repository
func (f *RepositoryFactory) NewEventRepository() EventRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteEventRepository(f.SQLiteDB)
	}
	return NewPostgRESTEventRepository(f.Client)
}

// NewRSVPRepository creates a new RSVP repository
func (f *RepositoryFactory) NewRSVPRepository() RSVPRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteRSVPRepository(f.SQLiteDB)
	}
	return NewPostgRESTRSVPRepository(f.Client)
}

// NewForumPostRepository creates a new forum post repository
func (f *RepositoryFactory) NewForumPostRepository() ForumPostRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteForumPostRepository(f.SQLiteDB)
	}
	return NewPostgRESTForumPostRepository(f.Client)
}

// GenerateID generates a unique ID for a record
func GenerateID() string {
	return uuid.New().String()
}

// Timestamps returns created/updated values for a new record
func Timestamps() (time.Time, time.Time) {
	now := time.Now().UTC()
	return now, now
}
