package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"polytask/domain/models"
)

type TokenRepository interface {
	Create(ctx context.Context, token *models.AuthToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuthToken, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByUserID ลบทุก token ของ user; exceptID ข้าม token ปัจจุบัน (nil = ลบหมด)
	DeleteByUserID(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error)

	// Rotate สร้าง token ใหม่และลบตัวเก่าใน transaction เดียวกัน
	Rotate(ctx context.Context, oldID uuid.UUID, fresh *models.AuthToken) error

	// DeleteExpired ลบ token ที่หมดอายุแล้ว (maintenance job)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
