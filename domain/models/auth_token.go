package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is the revocation record behind a bearer JWT: the JWT's jti equals
// this row's ID, so deleting the row kills the token regardless of its expiry.
type AuthToken struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"not null;default:'api'"` // device/client label
	ExpiresAt  time.Time `gorm:"not null;index"`
	LastUsedAt *time.Time
	CreatedAt  time.Time

	User User `gorm:"foreignKey:UserID"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

func (t *AuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
