package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/repositories"
	"polytask/pkg/i18n"
)

// Sort allow-list: ป้องกัน SQL injection ผ่าน sortBy — column ต้องมาจาก map นี้เท่านั้น
var taskSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"status":     "status",
}

// priority เรียงตามความหมาย ไม่ใช่ตามตัวอักษร
const priorityOrderExpr = "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END"

type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) repositories.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Task, error) {
	query := r.db.WithContext(ctx).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Where("state = ?", models.TaskStateActive).Order("position ASC")
		}).
		Where("id = ?", id)
	if !includeDeleted {
		query = query.Where("state = ?", models.TaskStateActive)
	}

	var task models.Task
	if err := query.First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, userID uuid.UUID, filter *dto.TaskFilter, locale string) ([]*models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", userID)
	query = applyFilter(query, filter, locale)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []*models.Task
	err := query.
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Where("state = ?", models.TaskStateActive).Order("position ASC")
		}).
		Order(orderClause(filter, locale)).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&tasks).Error
	return tasks, total, err
}

func applyFilter(query *gorm.DB, filter *dto.TaskFilter, locale string) *gorm.DB {
	if !filter.IncludeDeleted {
		query = query.Where("state = ?", models.TaskStateActive)
	}
	// completed ถูกซ่อนโดย default ยกเว้นขอดูตรงๆ
	if !filter.IncludeCompleted && filter.Status != models.TaskStatusCompleted {
		query = query.Where("status <> ?", models.TaskStatusCompleted)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if parentID := filter.ParentUUID(); parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		switch filter.Scope {
		case dto.ScopeRoot:
			query = query.Where("parent_id IS NULL")
		case dto.ScopeSubtasks:
			query = query.Where("parent_id IS NOT NULL")
		}
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.HasSearch() {
		clause, args := searchClause(filter, locale)
		query = query.Where(clause, args...)
	}
	return query
}

// searchClause ค้นใน name/description ของ locale ปัจจุบัน + fallback
// (หรือทุก locale เมื่อ allLocales) ด้วย JSONB ->> + ILIKE
func searchClause(filter *dto.TaskFilter, locale string) (string, []any) {
	locales := []string{locale}
	if filter.AllLocales {
		locales = i18n.SupportedLocales
	} else if locale != i18n.FallbackLocale {
		locales = append(locales, i18n.FallbackLocale)
	}

	pattern := "%" + escapeLike(filter.Search) + "%"
	var clauses []string
	var args []any
	for _, loc := range locales {
		clauses = append(clauses,
			fmt.Sprintf("name->>'%s' ILIKE ?", loc),
			fmt.Sprintf("description->>'%s' ILIKE ?", loc))
		args = append(args, pattern, pattern)
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	// Save เขียนทุก column — partial update ประกอบเสร็จแล้วในชั้น service
	return r.db.WithContext(ctx).Omit("Subtasks", "User").Save(task).Error
}

// SoftDelete ไม่ cascade — subtasks ยัง active และ query ได้ตามปกติ
func (r *TaskRepositoryImpl) SoftDelete(ctx context.Context, task *models.Task, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"state":      models.TaskStateDeleted,
			"deleted_at": at,
		}).Error
}

func (r *TaskRepositoryImpl) Restore(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"state":      models.TaskStateActive,
			"deleted_at": nil,
		}).Error
}

func (r *TaskRepositoryImpl) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND state = ?", parentID, models.TaskStateActive).
		Order("position ASC").
		Find(&tasks).Error
	return tasks, err
}

// CountSubtasks นับรวม soft-deleted ด้วย — restore คืนชีพได้ จึงยังผูก parent อยู่
func (r *TaskRepositoryImpl) CountSubtasks(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

func (r *TaskRepositoryImpl) NextPosition(ctx context.Context, userID uuid.UUID, parentID *uuid.UUID) (int, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("user_id = ? AND state = ?", userID, models.TaskStateActive)
	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var next int
	err := query.Select("COALESCE(MAX(position) + 1, 0)").Scan(&next).Error
	return next, err
}

func (r *TaskRepositoryImpl) Reorder(ctx context.Context, parentID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range ids {
			if err := tx.Model(&models.Task{}).
				Where("id = ? AND parent_id = ?", id, parentID).
				Update("position", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TaskRepositoryImpl) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*dto.TaskStatsResponse, error) {
	active := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Task{}).
			Where("user_id = ? AND state = ?", userID, models.TaskStateActive)
	}

	stats := &dto.TaskStatsResponse{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
	}

	if err := active().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := active().Select("status AS key, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byPriority []bucket
	if err := active().Select("priority AS key, COUNT(*) AS count").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, b := range byPriority {
		stats.ByPriority[b.Key] = b.Count
	}

	err := active().
		Where("due_date < ? AND status NOT IN ?", now,
			[]string{models.TaskStatusCompleted, models.TaskStatusCancelled}).
		Count(&stats.Overdue).Error
	if err != nil {
		return nil, err
	}

	if stats.Total > 0 {
		stats.CompletionPercent = int(100 * stats.ByStatus[models.TaskStatusCompleted] / stats.Total)
	}

	return stats, nil
}

func (r *TaskRepositoryImpl) ListDueSoonUnnotified(ctx context.Context, from, to time.Time) ([]*models.Task, error) {
	var tasks []*models.Task
	err := r.db.WithContext(ctx).
		Where("state = ? AND due_soon_notified_at IS NULL", models.TaskStateActive).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Where("status NOT IN ?", []string{models.TaskStatusCompleted, models.TaskStatusCancelled}).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepositoryImpl) MarkDueSoonNotified(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id IN ?", ids).
		Update("due_soon_notified_at", at).Error
}

func (r *TaskRepositoryImpl) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("state = ? AND deleted_at < ?", models.TaskStateDeleted, cutoff).
		Delete(&models.Task{})
	return result.RowsAffected, result.Error
}

func orderClause(filter *dto.TaskFilter, locale string) string {
	dir := "DESC"
	if filter.SortDir == "asc" {
		dir = "ASC"
	}

	switch filter.SortBy {
	case "priority":
		return priorityOrderExpr + " " + dir
	case "name":
		// เรียงตามชื่อใน locale ปัจจุบัน ตกไป fallback เมื่อไม่มีคำแปล
		return fmt.Sprintf("COALESCE(name->>'%s', name->>'%s') %s", locale, i18n.FallbackLocale, dir)
	default:
		if col, ok := taskSortColumns[filter.SortBy]; ok {
			return col + " " + dir
		}
		return "created_at " + dir
	}
}

// escapeLike กัน % และ _ ใน search term ไม่ให้กลายเป็น wildcard
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
