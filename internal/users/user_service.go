package users

import (
	"context"
	"fmt"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/models"
)

// UserService wraps profile and account listing operations
type UserService struct {
	repo db.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(repo db.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// FindByID returns one account
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// ListAll returns every account. Callers gate this behind the admin role.
func (s *UserService) ListAll(ctx context.Context) ([]*models.User, error) {
	return s.repo.FindAll(ctx)
}

// ProfileUpdate carries the fields a profile edit may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Bio             *string
	HashNickname    *string
	Avatar          *string
	FavoriteRuns    []string
	PersonalStats   map[string]string
	PrivacySettings map[string]models.Visibility
}

// UpdateProfile applies an edit to owner on behalf of editor. Only the
// owner or an admin may edit; role is never changed through this path.
func (s *UserService) UpdateProfile(ctx context.Context, editor, owner *models.User, update ProfileUpdate) error {
	if !auth.CanEditProfile(editor, owner) {
		return auth.ErrForbidden
	}

	if update.Bio != nil {
		owner.Bio = update.Bio
	}
	if update.HashNickname != nil {
		owner.HashNickname = update.HashNickname
	}
	if update.Avatar != nil {
		// Only the filename is recorded; avatar bytes are not persisted
		owner.Avatar = update.Avatar
	}
	if update.FavoriteRuns != nil {
		owner.FavoriteRuns = update.FavoriteRuns
	}
	if update.PersonalStats != nil {
		owner.PersonalStats = update.PersonalStats
	}
	if update.PrivacySettings != nil {
		owner.PrivacySettings = update.PrivacySettings
	}
	owner.NormalizePrivacySettings()

	if err := s.repo.Update(ctx, owner); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

// ProfileView is a profile filtered down to what the viewer may see
type ProfileView struct {
	User        *models.User
	ShowProfile bool
	ShowRuns    bool
	ShowStats   bool
}

// BuildProfileView applies per-section privacy gating. Hidden sections
// are omitted from the view, never errored.
func BuildProfileView(viewer, owner *models.User) *ProfileView {
	return &ProfileView{
		User:        owner,
		ShowProfile: auth.CanViewProfileField(viewer, owner, models.PrivacyFieldProfile),
		ShowRuns:    auth.CanViewProfileField(viewer, owner, models.PrivacyFieldRuns),
		ShowStats:   auth.CanViewProfileField(viewer, owner, models.PrivacyFieldStats),
	}
}
