package auth

import (
	"context"
	"errors"
	"fmt"

	"lh3/db"
	"lh3/models"
)

// Service implements the registration and login workflows over the user
// repository and the password hasher.
type Service struct {
	users db.UserRepository
}

// NewService creates a new Service
func NewService(users db.UserRepository) *Service {
	return &Service{users: users}
}

// RegisterInput is the registration form
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

// Register validates the input, hashes the password and creates the
// account. Checks run in order and the first failure wins:
// required fields, password confirmation, username taken, email taken.
// New accounts are always members with every profile section public.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, &ValidationError{Message: "All fields required"}
	}
	if input.Password != input.PasswordConfirm {
		return nil, &ValidationError{Message: "Passwords do not match"}
	}

	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, &DuplicateError{Message: "Username already exists"}
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, &DuplicateError{Message: "Email already in use"}
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	passwordHash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:        input.Username,
		Email:           input.Email,
		PasswordHash:    passwordHash,
		Role:            models.RoleMember,
		PrivacySettings: models.DefaultPrivacySettings(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The pre-checks race against concurrent registration; the store's
		// uniqueness constraint is the authority. A lost race surfaces as a
		// duplicate, never as a half-created account.
		if errors.Is(err, db.ErrDuplicate) {
			return nil, &DuplicateError{Message: "Username or email already in use"}
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

// Login verifies the credentials and returns the account. An unknown
// username and a wrong password both return ErrInvalidCredentials,
// deliberately indistinguishable.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	// Accounts without a password hash (not yet activated or externally
	// authenticated) cannot log in with a password.
	if user.PasswordHash == "" || !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
