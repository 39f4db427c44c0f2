package testutils

import (
	"time"

	"lh3/models"

	"github.com/google/uuid"
)

func CreateTestUser(username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:              uuid.New().String(),
		Username:        username,
		Email:           username + "@example.com",
		Role:            models.RoleMember,
		PrivacySettings: models.DefaultPrivacySettings(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func CreateTestAdmin(username string) *models.User {
	admin := CreateTestUser(username)
	admin.Role = models.RoleAdmin
	return admin
}

func CreateTestEvent(createdBy string) *models.Event {
	now := time.Now().UTC()
	return &models.Event{
		ID:         uuid.New().String(),
		RunNumber:  42,
		Descriptor: "The Mismanagement Run",
		Address:    "1 Trail Head Lane",
		EventDate:  now.Add(7 * 24 * time.Hour),
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func CreateTestPost(userID string) *models.ForumPost {
	return &models.ForumPost{
		ID:        uuid.New().String(),
		Title:     "Post-run circle notes",
		Content:   "On-on to the usual place afterwards.",
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
}
