package models

import (
	"time"

	"github.com/google/uuid"

	"polytask/pkg/i18n"
)

// Notification types ที่ user ปิด/เปิดได้
const (
	NotifyTaskCreated = "task_created"
	NotifyTaskUpdated = "task_updated"
	NotifyTaskDeleted = "task_deleted"
	NotifyTaskDueSoon = "task_due_soon"
)

// User states (soft delete แบบเดียวกับ Task)
const (
	UserStateActive  = "active"
	UserStateDeleted = "deleted"
)

type User struct {
	ID                uuid.UUID `gorm:"primaryKey;type:uuid"`
	Name              string    `gorm:"not null"`
	Email             string    `gorm:"uniqueIndex;not null"`
	Password          string    `gorm:"not null"` // bcrypt hash
	PreferredLanguage string    `gorm:"not null;default:'en'"`
	Timezone          string    `gorm:"not null;default:'UTC'"`
	NotificationPrefs NotificationPrefs
	State             string `gorm:"not null;default:'active';index"`
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Tasks  []Task      `gorm:"foreignKey:UserID"`
	Tokens []AuthToken `gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsDeleted() bool {
	return u.State == UserStateDeleted
}

// Locale returns the user's preferred language if supported, otherwise the fallback.
func (u *User) Locale() string {
	if code, ok := i18n.Normalize(u.PreferredLanguage); ok {
		return code
	}
	return i18n.FallbackLocale
}

// DefaultNotificationPrefs คือค่า default ของทุก notification type
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{
		NotifyTaskCreated: true,
		NotifyTaskUpdated: true,
		NotifyTaskDeleted: true,
		NotifyTaskDueSoon: true,
	}
}

// MergedNotificationPrefs merges stored preferences over the defaults, so new
// notification types are on for existing users until they opt out.
func (u *User) MergedNotificationPrefs() NotificationPrefs {
	merged := DefaultNotificationPrefs()
	for k, v := range u.NotificationPrefs {
		merged[k] = v
	}
	return merged
}

// WantsNotification ตรวจสอบ preference ของ notification type (merged กับ defaults)
func (u *User) WantsNotification(notifyType string) bool {
	return u.MergedNotificationPrefs()[notifyType]
}
