package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Task priorities
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Lifecycle states. Soft delete is an explicit state, not a nullable-timestamp
// convention; queries must opt in to see deleted rows.
const (
	TaskStateActive  = "active"
	TaskStateDeleted = "deleted"
)

type Task struct {
	ID          uuid.UUID        `gorm:"primaryKey;type:uuid"`
	Name        TranslatedString `gorm:"not null"`
	Description TranslatedString
	Status      string     `gorm:"not null;default:'pending';index"`
	Priority    string     `gorm:"not null;default:'medium';index"`
	DueDate     *time.Time `gorm:"index"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Position    int        `gorm:"not null;default:0"` // ลำดับใน subtask list
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	State       string     `gorm:"not null;default:'active';index"`
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// กัน due-soon mail ซ้ำ; reset เมื่อ due date เปลี่ยน
	DueSoonNotifiedAt *time.Time

	User     User   `gorm:"foreignKey:UserID"`
	Subtasks []Task `gorm:"foreignKey:ParentID"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsRoot ตรวจสอบว่าเป็น root task (ไม่มี parent)
func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

func (t *Task) IsDeleted() bool {
	return t.State == TaskStateDeleted
}
