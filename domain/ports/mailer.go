package ports

import "context"

// ═══════════════════════════════════════════════════════════════════════════════
// Mail Queue Port - สำหรับ enqueue email notifications
// ═══════════════════════════════════════════════════════════════════════════════

// Mail templates
const (
	MailTemplateTaskCreated = "task_created"
	MailTemplateTaskUpdated = "task_updated"
	MailTemplateTaskDeleted = "task_deleted"
	MailTemplateTaskDueSoon = "task_due_soon"
)

// MailMessage - Plain struct (ไม่มี NATS dependency)
// Locale กำหนดภาษาของ template ที่ mail worker จะ render
type MailMessage struct {
	Template string         `json:"template"`
	To       string         `json:"to"`
	Locale   string         `json:"locale"`
	Context  map[string]any `json:"context"`
}

// MailQueue - Interface สำหรับ enqueue mail เข้า work queue
// การส่งจริงเป็นหน้าที่ของ consumer แยกต่างหาก
type MailQueue interface {
	// Enqueue วาง message เข้า queue; ห้าม block request path นาน
	Enqueue(ctx context.Context, msg *MailMessage) error
}
