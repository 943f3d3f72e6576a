package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"polytask/domain/dto"
	"polytask/domain/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error

	// GetByID โหลด task พร้อม active subtasks; includeDeleted = รวม task ที่ถูก soft delete
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Task, error)

	// List คืน page ของ tasks ตาม filter พร้อม total count ก่อน pagination
	// locale ใช้กับ locale-scoped search เท่านั้น
	List(ctx context.Context, userID uuid.UUID, filter *dto.TaskFilter, locale string) ([]*models.Task, int64, error)

	Update(ctx context.Context, task *models.Task) error

	// SoftDelete mark state=deleted เฉพาะ task เอง (ไม่ cascade ไป subtasks)
	SoftDelete(ctx context.Context, task *models.Task, at time.Time) error

	// Restore คืน task กลับเป็น active
	Restore(ctx context.Context, task *models.Task) error

	// ListSubtasks - active subtasks ของ parent เรียงตาม position
	ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*models.Task, error)

	// CountSubtasks นับ subtasks ทุก state — soft-deleted ก็นับ เพราะ restore กลับมาได้
	CountSubtasks(ctx context.Context, parentID uuid.UUID) (int64, error)

	// NextPosition - ตำแหน่งถัดไปสำหรับ subtask ใหม่ใต้ parent (root ใช้ parentID = nil)
	NextPosition(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID) (int, error)

	// Reorder เขียน position ใหม่ตามลำดับ ids ใน transaction เดียวกัน
	Reorder(ctx context.Context, parentID uuid.UUID, ids []uuid.UUID) error

	// Stats นับจาก active tasks ทั้งหมดของ user (ไม่สน filter)
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*dto.TaskStatsResponse, error)

	// ListDueSoonUnnotified - active tasks ที่ due ในช่วง [from, to] ยังไม่จบงาน
	// และยังไม่เคยส่ง due-soon mail
	ListDueSoonUnnotified(ctx context.Context, from, to time.Time) ([]*models.Task, error)

	// MarkDueSoonNotified stamp กันส่งซ้ำในรอบถัดไป
	MarkDueSoonNotified(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// PurgeDeletedBefore ลบถาวร tasks ที่ soft delete ค้างนานเกิน cutoff (maintenance job)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
