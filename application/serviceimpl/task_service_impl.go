package serviceimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/ports"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/infrastructure/redis"
	"polytask/pkg/apperr"
	"polytask/pkg/i18n"
	"polytask/pkg/logger"
)

const (
	taskListCacheTTL  = 60 * time.Second
	taskStatsCacheTTL = 5 * time.Minute
)

// event type -> notification preference ที่ควบคุมการส่งเมล (restored ไม่มีเมล)
var eventNotifyType = map[string]string{
	dto.TaskEventCreated: models.NotifyTaskCreated,
	dto.TaskEventUpdated: models.NotifyTaskUpdated,
	dto.TaskEventDeleted: models.NotifyTaskDeleted,
}

var eventMailTemplate = map[string]string{
	dto.TaskEventCreated: ports.MailTemplateTaskCreated,
	dto.TaskEventUpdated: ports.MailTemplateTaskUpdated,
	dto.TaskEventDeleted: ports.MailTemplateTaskDeleted,
}

type TaskServiceImpl struct {
	taskRepo repositories.TaskRepository
	userRepo repositories.UserRepository
	cache    *redis.Client
	events   ports.EventPublisher
	mail     ports.MailQueue
}

func NewTaskService(
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	cache *redis.Client,
	events ports.EventPublisher,
	mail ports.MailQueue,
) services.TaskService {
	return &TaskServiceImpl{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cache:    cache,
		events:   events,
		mail:     mail,
	}
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, userID uuid.UUID, locale string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	if !req.Name.HasFallback() {
		return nil, apperr.ValidationField("name", "must include an '"+i18n.FallbackLocale+"' entry")
	}
	if err := validateDueDate(req.DueDate); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		if _, err := s.validateParent(ctx, userID, *req.ParentID, nil); err != nil {
			return nil, err
		}
	}

	status := req.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	position, err := s.taskRepo.NextPosition(ctx, userID, req.ParentID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to compute task position", "user_id", userID, "error", err)
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     req.DueDate,
		ParentID:    req.ParentID,
		Position:    position,
		UserID:      userID,
		State:       models.TaskStateActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to create task", "user_id", userID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task created", "task_id", task.ID, "user_id", userID)

	s.afterMutation(ctx, dto.TaskEventCreated, task, locale, nil)

	return dto.TaskToTaskResponse(task, locale), nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, userID, taskID uuid.UUID, locale string) (*dto.TaskResponse, error) {
	// ดึงตรงตัวเห็นได้แม้ถูกลบ (ให้ client ตัดสินใจ restore ได้)
	task, err := s.getOwned(ctx, userID, taskID, true)
	if err != nil {
		return nil, err
	}
	return dto.TaskToTaskResponse(task, locale), nil
}

// cachedPage คือ payload ที่ memoize ไว้ใน Redis ต่อ filter signature
type cachedPage struct {
	Items []dto.TaskResponse `json:"items"`
	Meta  dto.PaginationMeta `json:"meta"`
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID, locale string, filter *dto.TaskFilter) ([]dto.TaskResponse, *dto.PaginationMeta, error) {
	filter.Normalize()
	if fields := filter.Validate(); fields != nil {
		return nil, nil, apperr.Validation(fields)
	}

	key := taskListCacheKey(userID, filter.Signature(locale))

	if s.cache != nil {
		var page cachedPage
		if err := s.cache.GetJSON(ctx, key, &page); err == nil {
			return page.Items, &page.Meta, nil
		}
	}

	tasks, total, err := s.taskRepo.List(ctx, userID, filter, locale)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tasks", "user_id", userID, "error", err)
		return nil, nil, err
	}

	page := cachedPage{
		Items: dto.TasksToTaskResponses(tasks, locale),
		Meta: dto.PaginationMeta{
			Total: total,
			Page:  filter.Page,
			Limit: filter.Limit,
		},
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, page, taskListCacheTTL); err != nil {
			logger.WarnContext(ctx, "Failed to cache task listing", "key", key, "error", err)
		}
	}

	return page.Items, &page.Meta, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, locale string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.getOwned(ctx, userID, taskID, false)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]dto.FieldChange)

	if req.Name != nil {
		if !req.Name.HasFallback() {
			return nil, apperr.ValidationField("name", "must include an '"+i18n.FallbackLocale+"' entry")
		}
		if !translatedEqual(task.Name, req.Name) {
			changes["name"] = dto.FieldChange{Old: task.Name, New: req.Name}
			task.Name = req.Name
		}
	}
	if req.Description != nil {
		if !translatedEqual(task.Description, req.Description) {
			changes["description"] = dto.FieldChange{Old: task.Description, New: req.Description}
			task.Description = req.Description
		}
	}
	if req.Status != nil && *req.Status != task.Status {
		changes["status"] = dto.FieldChange{Old: task.Status, New: *req.Status}
		task.Status = *req.Status
	}
	if req.Priority != nil && *req.Priority != task.Priority {
		changes["priority"] = dto.FieldChange{Old: task.Priority, New: *req.Priority}
		task.Priority = *req.Priority
	}

	switch {
	case req.ClearDue:
		if task.DueDate != nil {
			changes["due_date"] = dto.FieldChange{Old: task.DueDate, New: nil}
			task.DueDate = nil
			task.DueSoonNotifiedAt = nil
		}
	case req.DueDate != nil:
		if err := validateDueDate(req.DueDate); err != nil {
			return nil, err
		}
		if !timePtrEqual(task.DueDate, req.DueDate) {
			changes["due_date"] = dto.FieldChange{Old: task.DueDate, New: req.DueDate}
			task.DueDate = req.DueDate
			// due ใหม่ = รอบแจ้งเตือนใหม่
			task.DueSoonNotifiedAt = nil
		}
	}

	switch {
	case req.ClearParent:
		if task.ParentID != nil {
			changes["parent_id"] = dto.FieldChange{Old: task.ParentID, New: nil}
			task.ParentID = nil
			if task.Position, err = s.taskRepo.NextPosition(ctx, userID, nil); err != nil {
				return nil, err
			}
		}
	case req.ParentID != nil:
		if !uuidPtrEqual(task.ParentID, req.ParentID) {
			if err := s.checkReparent(ctx, userID, task, *req.ParentID); err != nil {
				return nil, err
			}
			changes["parent_id"] = dto.FieldChange{Old: task.ParentID, New: req.ParentID}
			task.ParentID = req.ParentID
			if task.Position, err = s.taskRepo.NextPosition(ctx, userID, req.ParentID); err != nil {
				return nil, err
			}
		}
	}

	if len(changes) == 0 {
		return dto.TaskToTaskResponse(task, locale), nil
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to update task", "task_id", taskID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task updated", "task_id", taskID, "fields", len(changes))

	s.afterMutation(ctx, dto.TaskEventUpdated, task, locale, changes)

	return dto.TaskToTaskResponse(task, locale), nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.getOwned(ctx, userID, taskID, false)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := s.taskRepo.SoftDelete(ctx, task, now); err != nil {
		logger.ErrorContext(ctx, "Failed to delete task", "task_id", taskID, "error", err)
		return err
	}
	task.State = models.TaskStateDeleted
	task.DeletedAt = &now

	logger.InfoContext(ctx, "Task deleted", "task_id", taskID, "user_id", userID)

	s.afterMutation(ctx, dto.TaskEventDeleted, task, i18n.FallbackLocale, nil)

	return nil
}

func (s *TaskServiceImpl) RestoreTask(ctx context.Context, userID, taskID uuid.UUID, locale string) (*dto.TaskResponse, error) {
	task, err := s.getOwned(ctx, userID, taskID, true)
	if err != nil {
		return nil, err
	}
	if !task.IsDeleted() {
		return nil, apperr.ValidationField("state", "task is not deleted")
	}

	// parent ต้องยังเป็น root อยู่ ไม่งั้น restore แล้วความลึกเกิน 2 ชั้น
	if task.ParentID != nil {
		parent, err := s.taskRepo.GetByID(ctx, *task.ParentID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Hierarchy("parent task no longer exists")
			}
			return nil, err
		}
		if !parent.IsRoot() {
			return nil, apperr.Hierarchy("cannot restore under a nested parent")
		}
	}

	if err := s.taskRepo.Restore(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to restore task", "task_id", taskID, "error", err)
		return nil, err
	}
	task.State = models.TaskStateActive
	task.DeletedAt = nil

	logger.InfoContext(ctx, "Task restored", "task_id", taskID, "user_id", userID)

	s.afterMutation(ctx, dto.TaskEventRestored, task, locale, nil)

	return dto.TaskToTaskResponse(task, locale), nil
}

func (s *TaskServiceImpl) ListSubtasks(ctx context.Context, userID, parentID uuid.UUID, locale string) ([]dto.TaskResponse, error) {
	if _, err := s.getOwned(ctx, userID, parentID, false); err != nil {
		return nil, err
	}

	subtasks, err := s.taskRepo.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return dto.TasksToTaskResponses(subtasks, locale), nil
}

func (s *TaskServiceImpl) CreateSubtask(ctx context.Context, userID, parentID uuid.UUID, locale string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	req.ParentID = &parentID
	return s.CreateTask(ctx, userID, locale, req)
}

func (s *TaskServiceImpl) ReorderSubtasks(ctx context.Context, userID, parentID uuid.UUID, locale string, req *dto.ReorderSubtasksRequest) ([]dto.TaskResponse, error) {
	if _, err := s.getOwned(ctx, userID, parentID, false); err != nil {
		return nil, err
	}

	current, err := s.taskRepo.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, err
	}

	// ids ต้องเป็น permutation ของ active subtasks พอดี — ขาดหรือเกินไม่ได้
	if len(req.IDs) != len(current) {
		return nil, apperr.ValidationField("ids", "must contain exactly the active subtask ids")
	}
	existing := make(map[uuid.UUID]bool, len(current))
	for _, st := range current {
		existing[st.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(req.IDs))
	for _, id := range req.IDs {
		if !existing[id] || seen[id] {
			return nil, apperr.ValidationField("ids", "must contain exactly the active subtask ids")
		}
		seen[id] = true
	}

	if err := s.taskRepo.Reorder(ctx, parentID, req.IDs); err != nil {
		logger.ErrorContext(ctx, "Failed to reorder subtasks", "parent_id", parentID, "error", err)
		return nil, err
	}

	s.invalidateCaches(ctx, userID)

	subtasks, err := s.taskRepo.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return dto.TasksToTaskResponses(subtasks, locale), nil
}

func (s *TaskServiceImpl) MoveTask(ctx context.Context, userID, taskID uuid.UUID, locale string, req *dto.MoveTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.getOwned(ctx, userID, taskID, false)
	if err != nil {
		return nil, err
	}

	if uuidPtrEqual(task.ParentID, req.ParentID) {
		return dto.TaskToTaskResponse(task, locale), nil
	}

	if req.ParentID != nil {
		if err := s.checkReparent(ctx, userID, task, *req.ParentID); err != nil {
			return nil, err
		}
	}

	changes := map[string]dto.FieldChange{
		"parent_id": {Old: task.ParentID, New: req.ParentID},
	}
	task.ParentID = req.ParentID
	if task.Position, err = s.taskRepo.NextPosition(ctx, userID, req.ParentID); err != nil {
		return nil, err
	}
	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to move task", "task_id", taskID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task moved", "task_id", taskID, "parent_id", req.ParentID)

	s.afterMutation(ctx, dto.TaskEventUpdated, task, locale, changes)

	return dto.TaskToTaskResponse(task, locale), nil
}

func (s *TaskServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (*dto.TaskStatsResponse, error) {
	if s.cache == nil {
		return s.taskRepo.Stats(ctx, userID, time.Now())
	}

	var stats dto.TaskStatsResponse
	err := s.cache.GetOrSet(ctx, taskStatsCacheKey(userID), &stats, taskStatsCacheTTL, func() (interface{}, error) {
		return s.taskRepo.Stats(ctx, userID, time.Now())
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ========== internals ==========

// getOwned แยกสองเคสชัดเจน: ไม่มี task = not found, มีแต่ของคนอื่น = forbidden
func (s *TaskServiceImpl) getOwned(ctx context.Context, userID, taskID uuid.UUID, includeDeleted bool) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID, includeDeleted)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, err
	}
	if task.UserID != userID {
		return nil, apperr.Forbidden("task belongs to another user")
	}
	return task, nil
}

// validateParent ตรวจ invariant ของ hierarchy: parent ต้องมีจริง เป็นของ
// owner เดียวกัน เป็น root และไม่ใช่ตัวเอง
func (s *TaskServiceImpl) validateParent(ctx context.Context, userID, parentID uuid.UUID, selfID *uuid.UUID) (*models.Task, error) {
	if selfID != nil && parentID == *selfID {
		return nil, apperr.Hierarchy("task cannot be its own parent")
	}

	parent, err := s.taskRepo.GetByID(ctx, parentID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("parent task not found")
		}
		return nil, err
	}
	if parent.UserID != userID {
		return nil, apperr.Forbidden("parent task belongs to another user")
	}
	if !parent.IsRoot() {
		return nil, apperr.Hierarchy("cannot nest under a subtask")
	}
	return parent, nil
}

// checkReparent = validateParent + กันไม่ให้ task ที่มี subtasks ของตัวเอง
// กลายเป็น subtask (ความลึกเกิน 2 ชั้น) — soft-deleted subtasks นับด้วย
// เพราะ restore ทำให้มันกลับมาห้อยใต้ task นี้ได้
func (s *TaskServiceImpl) checkReparent(ctx context.Context, userID uuid.UUID, task *models.Task, parentID uuid.UUID) error {
	if _, err := s.validateParent(ctx, userID, parentID, &task.ID); err != nil {
		return err
	}

	subtaskCount, err := s.taskRepo.CountSubtasks(ctx, task.ID)
	if err != nil {
		return err
	}
	if subtaskCount > 0 {
		return apperr.Hierarchy("task with subtasks cannot become a subtask")
	}
	return nil
}

func validateDueDate(due *time.Time) error {
	if due != nil && !due.After(time.Now()) {
		return apperr.ValidationField("dueDate", "must be in the future")
	}
	return nil
}

// afterMutation จัดการ side effects หลัง mutation สำเร็จ: ล้าง cache,
// ส่ง event, enqueue mail — ทั้งหมด best-effort ไม่ทำให้ request fail
func (s *TaskServiceImpl) afterMutation(ctx context.Context, eventType string, task *models.Task, locale string, changes map[string]dto.FieldChange) {
	s.invalidateCaches(ctx, task.UserID)

	if s.events != nil {
		event := &dto.TaskEvent{
			Type:       eventType,
			UserID:     task.UserID,
			Task:       *dto.TaskToTaskResponse(task, locale),
			Changes:    changes,
			OccurredAt: time.Now(),
		}
		if err := s.events.PublishTaskEvent(ctx, event); err != nil {
			logger.WarnContext(ctx, "Failed to publish task event", "task_id", task.ID, "event", eventType, "error", err)
		}
	}

	s.enqueueMail(ctx, eventType, task)
}

func (s *TaskServiceImpl) enqueueMail(ctx context.Context, eventType string, task *models.Task) {
	notifyType, ok := eventNotifyType[eventType]
	if !ok || s.mail == nil {
		return
	}

	owner, err := s.userRepo.GetByID(ctx, task.UserID)
	if err != nil {
		logger.WarnContext(ctx, "Failed to load task owner for notification", "user_id", task.UserID, "error", err)
		return
	}
	if !owner.WantsNotification(notifyType) {
		return
	}

	msg := &ports.MailMessage{
		Template: eventMailTemplate[eventType],
		To:       owner.Email,
		Locale:   owner.Locale(),
		Context: map[string]any{
			"taskId":   task.ID.String(),
			"taskName": task.Name.Get(owner.Locale()),
			"event":    eventType,
		},
	}
	if err := s.mail.Enqueue(ctx, msg); err != nil {
		logger.WarnContext(ctx, "Failed to enqueue notification mail", "user_id", owner.ID, "error", err)
	}
}

func (s *TaskServiceImpl) invalidateCaches(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("tasks:list:%s:*", userID)
	if _, err := s.cache.ScanAndDelete(ctx, pattern); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate task listing cache", "user_id", userID, "error", err)
	}
	if err := s.cache.Del(ctx, taskStatsCacheKey(userID)); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate task stats cache", "user_id", userID, "error", err)
	}
}

func taskListCacheKey(userID uuid.UUID, signature string) string {
	return fmt.Sprintf("tasks:list:%s:%s", userID, signature)
}

func taskStatsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("tasks:stats:%s", userID)
}

// ========== comparison helpers ==========

func translatedEqual(a, b models.TranslatedString) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
