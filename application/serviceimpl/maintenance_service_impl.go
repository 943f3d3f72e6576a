package serviceimpl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"polytask/domain/models"
	"polytask/domain/ports"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/pkg/logger"
)

// deletedTaskRetention คือระยะเวลาที่ soft-deleted tasks ยัง restore ได้
const deletedTaskRetention = 30 * 24 * time.Hour

// dueSoonWindow - tasks ที่ due ภายในช่วงนี้ถือว่า "ใกล้ due" และได้เมลแจ้งเตือน
const dueSoonWindow = 24 * time.Hour

type MaintenanceServiceImpl struct {
	taskRepo  repositories.TaskRepository
	tokenRepo repositories.TokenRepository
	userRepo  repositories.UserRepository
	mail      ports.MailQueue
}

func NewMaintenanceService(
	taskRepo repositories.TaskRepository,
	tokenRepo repositories.TokenRepository,
	userRepo repositories.UserRepository,
	mail ports.MailQueue,
) services.MaintenanceService {
	return &MaintenanceServiceImpl{
		taskRepo:  taskRepo,
		tokenRepo: tokenRepo,
		userRepo:  userRepo,
		mail:      mail,
	}
}

func (s *MaintenanceServiceImpl) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	purged, err := s.tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to purge expired tokens", "error", err)
		return 0, err
	}
	if purged > 0 {
		logger.InfoContext(ctx, "Expired tokens purged", "count", purged)
	}
	return purged, nil
}

func (s *MaintenanceServiceImpl) PurgeOldDeletedTasks(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-deletedTaskRetention)
	purged, err := s.taskRepo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to purge deleted tasks", "error", err)
		return 0, err
	}
	if purged > 0 {
		logger.InfoContext(ctx, "Old deleted tasks purged", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

// NotifyDueSoonTasks ส่งเมลสำหรับ tasks ที่ due ภายใน dueSoonWindow แล้ว stamp
// กันส่งซ้ำ — task ที่ owner ปิด notification ก็ stamp เหมือนกัน เปิด pref
// ทีหลังไม่ได้เมลย้อนหลัง
func (s *MaintenanceServiceImpl) NotifyDueSoonTasks(ctx context.Context) (int64, error) {
	if s.mail == nil {
		return 0, nil
	}

	now := time.Now()
	tasks, err := s.taskRepo.ListDueSoonUnnotified(ctx, now, now.Add(dueSoonWindow))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list due-soon tasks", "error", err)
		return 0, err
	}

	owners := make(map[uuid.UUID]*models.User)
	var notified []uuid.UUID
	var enqueued int64

	for _, task := range tasks {
		owner, ok := owners[task.UserID]
		if !ok {
			owner, err = s.userRepo.GetByID(ctx, task.UserID)
			if err != nil {
				logger.WarnContext(ctx, "Failed to load task owner for due-soon mail", "user_id", task.UserID, "error", err)
				continue
			}
			owners[task.UserID] = owner
		}

		notified = append(notified, task.ID)
		if !owner.WantsNotification(models.NotifyTaskDueSoon) {
			continue
		}

		msg := &ports.MailMessage{
			Template: ports.MailTemplateTaskDueSoon,
			To:       owner.Email,
			Locale:   owner.Locale(),
			Context: map[string]any{
				"taskId":   task.ID.String(),
				"taskName": task.Name.Get(owner.Locale()),
				"dueDate":  task.DueDate,
			},
		}
		if err := s.mail.Enqueue(ctx, msg); err != nil {
			logger.WarnContext(ctx, "Failed to enqueue due-soon mail", "task_id", task.ID, "error", err)
			continue
		}
		enqueued++
	}

	if err := s.taskRepo.MarkDueSoonNotified(ctx, notified, now); err != nil {
		logger.ErrorContext(ctx, "Failed to mark due-soon tasks as notified", "error", err)
		return enqueued, err
	}

	if enqueued > 0 {
		logger.InfoContext(ctx, "Due-soon notifications enqueued", "count", enqueued)
	}
	return enqueued, nil
}
