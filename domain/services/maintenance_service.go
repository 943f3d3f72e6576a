package services

import "context"

// MaintenanceService - background jobs ที่รันตาม schedule
type MaintenanceService interface {
	// PurgeExpiredTokens ลบ auth tokens ที่หมดอายุ (รายชั่วโมง)
	PurgeExpiredTokens(ctx context.Context) (int64, error)

	// PurgeOldDeletedTasks ลบถาวร tasks ที่ soft delete เกิน retention (รายวัน)
	PurgeOldDeletedTasks(ctx context.Context) (int64, error)

	// NotifyDueSoonTasks ส่งเมลแจ้งเตือน tasks ที่ใกล้ถึง due date
	NotifyDueSoonTasks(ctx context.Context) (int64, error)
}
