package dto

import (
	"time"

	"github.com/google/uuid"

	"polytask/domain/models"
)

type UserResponse struct {
	ID                uuid.UUID                `json:"id"`
	Name              string                   `json:"name"`
	Email             string                   `json:"email"`
	PreferredLanguage string                   `json:"preferredLanguage"`
	Timezone          string                   `json:"timezone"`
	NotificationPrefs models.NotificationPrefs `json:"notificationPreferences"`
	CreatedAt         time.Time                `json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

// UpdateProfileRequest — partial update; empty strings / nil map mean "ไม่แก้"
type UpdateProfileRequest struct {
	Name              string                   `json:"name" validate:"omitempty,min=1,max=100"`
	PreferredLanguage string                   `json:"preferredLanguage" validate:"omitempty,oneof=en de fr"`
	Timezone          string                   `json:"timezone" validate:"omitempty,max=64"`
	NotificationPrefs models.NotificationPrefs `json:"notificationPreferences" validate:"omitempty"`
}
