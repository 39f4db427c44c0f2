package models

import "time"

// Role determines what a user is allowed to do
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// Visibility controls who can see a section of a user's profile
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Profile sections that carry an individual privacy setting
const (
	PrivacyFieldProfile = "profile"
	PrivacyFieldRuns    = "runs"
	PrivacyFieldStats   = "stats"
)

// PrivacyFields lists every section a privacy setting exists for
var PrivacyFields = []string{PrivacyFieldProfile, PrivacyFieldRuns, PrivacyFieldStats}

// User represents a club member account
type User struct {
	ID              string                `json:"id"`
	Username        string                `json:"username"`
	Email           string                `json:"email"`
	PasswordHash    string                `json:"-"` // Never serialize the password hash
	Role            Role                  `json:"role"`
	PrivacySettings map[string]Visibility `json:"privacy_settings"`
	Bio             *string               `json:"bio,omitempty"`
	Avatar          *string               `json:"avatar,omitempty"`
	HashNickname    *string               `json:"hash_nickname,omitempty"`
	FavoriteRuns    []string              `json:"favorite_runs,omitempty"`
	PersonalStats   map[string]string     `json:"personal_stats,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// DefaultPrivacySettings returns the settings applied to new accounts:
// every section public.
func DefaultPrivacySettings() map[string]Visibility {
	settings := make(map[string]Visibility, len(PrivacyFields))
	for _, field := range PrivacyFields {
		settings[field] = VisibilityPublic
	}
	return settings
}

// NormalizePrivacySettings fills in any missing section as public and
// coerces unknown values to public. Records written before a section
// existed come back without that key.
func (u *User) NormalizePrivacySettings() {
	if u.PrivacySettings == nil {
		u.PrivacySettings = DefaultPrivacySettings()
		return
	}
	for _, field := range PrivacyFields {
		if u.PrivacySettings[field] != VisibilityPrivate {
			u.PrivacySettings[field] = VisibilityPublic
		}
	}
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsGuest reports whether the user holds the guest role
func (u *User) IsGuest() bool {
	return u != nil && u.Role == RoleGuest
}

// DisplayName returns the hash nickname when one is set, otherwise the username
func (u *User) DisplayName() string {
	if u.HashNickname != nil && *u.HashNickname != "" {
		return *u.HashNickname
	}
	return u.Username
}
