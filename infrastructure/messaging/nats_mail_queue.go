package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"polytask/domain/ports"
	natspkg "polytask/infrastructure/nats"
)

// NATSMailQueue implements MailQueue using NATS JetStream
// js เป็น nil ได้ (NATS disabled) — enqueue จะเป็น no-op
type NATSMailQueue struct {
	js jetstream.JetStream
}

// NewNATSMailQueue สร้าง MailQueue adapter สำหรับ JetStream
func NewNATSMailQueue(js jetstream.JetStream) ports.MailQueue {
	return &NATSMailQueue{
		js: js,
	}
}

// Enqueue วาง mail message เข้า NOTIFICATIONS stream
// JetStream ack ยืนยันว่า message ถูก persist แล้ว mail worker ค่อย consume
func (q *NATSMailQueue) Enqueue(ctx context.Context, msg *ports.MailMessage) error {
	if msg == nil {
		return fmt.Errorf("mail message cannot be nil")
	}
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}
	if q.js == nil {
		return nil
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}

	_, err = q.js.Publish(ctx, natspkg.SubjectNotifyEmail, data)
	return err
}
