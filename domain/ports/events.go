package ports

import (
	"context"

	"polytask/domain/dto"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Event Publisher Port - สำหรับ broadcast task lifecycle events
// ═══════════════════════════════════════════════════════════════════════════════

// EventPublisher - Interface สำหรับส่ง task events (fire-and-forget)
// Implementations ต้องไม่ทำให้ request fail เมื่อ broker ล่ม
type EventPublisher interface {
	// PublishTaskEvent ส่ง event หลัง mutation สำเร็จ
	PublishTaskEvent(ctx context.Context, event *dto.TaskEvent) error
}
