package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"polytask/domain/dto"
	"polytask/domain/ports"
	natspkg "polytask/infrastructure/nats"
)

// NATSEventPublisher implements EventPublisher using NATS Pub/Sub
// conn เป็น nil ได้ (NATS disabled) — publish จะเป็น no-op
type NATSEventPublisher struct {
	conn *nats.Conn
}

// NewNATSEventPublisher สร้าง EventPublisher adapter สำหรับ NATS
func NewNATSEventPublisher(conn *nats.Conn) ports.EventPublisher {
	return &NATSEventPublisher{
		conn: conn,
	}
}

// PublishTaskEvent ส่ง event ไปที่ subject: tasks.{userID}.{event}
func (p *NATSEventPublisher) PublishTaskEvent(ctx context.Context, event *dto.TaskEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if p.conn == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf(natspkg.SubjectTaskEvents, event.UserID, event.Type)
	return p.conn.Publish(subject, data)
}
