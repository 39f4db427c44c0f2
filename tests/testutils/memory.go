package testutils

import (
	"context"
	"sort"
	"sync"

	"lh3/db"
	"lh3/models"
)

// MemoryUserRepository is an in-memory db.UserRepository used to test the
// auth workflows without a database.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) Close() error { return nil }

func cloneUser(u *models.User) *models.User {
	clone := *u
	if u.PrivacySettings != nil {
		clone.PrivacySettings = make(map[string]models.Visibility, len(u.PrivacySettings))
		for k, v := range u.PrivacySettings {
			clone.PrivacySettings[k] = v
		}
	}
	clone.FavoriteRuns = append([]string(nil), u.FavoriteRuns...)
	return &clone
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, db.ErrNotFound
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *MemoryUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return db.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = db.GenerateID()
	}
	user.CreatedAt, user.UpdatedAt = db.Timestamps()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return db.ErrDuplicate
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}
