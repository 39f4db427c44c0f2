package auth

import "lh3/models"

// IsAdmin reports whether the user holds the admin role. A nil user
// (anonymous) is never an admin.
func IsAdmin(user *models.User) bool {
	return user.IsAdmin()
}

// IsGuest reports whether the user holds the guest role
func IsGuest(user *models.User) bool {
	return user.IsGuest()
}

// CanViewProfileField decides whether viewer may see one section of
// owner's profile. Owners always see their own profile, admins see
// everything, and everyone else (anonymous included) is gated by the
// owner's privacy setting for that section.
func CanViewProfileField(viewer, owner *models.User, field string) bool {
	if owner == nil {
		return false
	}
	if viewer != nil {
		if viewer.ID == owner.ID || viewer.IsAdmin() {
			return true
		}
	}
	return owner.PrivacySettings[field] == models.VisibilityPublic
}

// CanEditProfile decides whether viewer may change owner's profile:
// only the owner or an admin.
func CanEditProfile(viewer, owner *models.User) bool {
	if viewer == nil || owner == nil {
		return false
	}
	return viewer.ID == owner.ID || viewer.IsAdmin()
}

// CanManageEvent decides whether user may update an event: its creator
// or an admin.
func CanManageEvent(user *models.User, event *models.Event) bool {
	if user == nil || event == nil {
		return false
	}
	return user.ID == event.CreatedBy || user.IsAdmin()
}
