package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/repositories"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuthToken{}, &models.Task{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:                uuid.New(),
		Name:              "Owner",
		Email:             uuid.NewString() + "@example.com",
		Password:          "hash",
		PreferredLanguage: "en",
		Timezone:          "UTC",
		State:             models.UserStateActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTask(t *testing.T, repo repositories.TaskRepository, userID uuid.UUID, mutate func(*models.Task)) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:        uuid.New(),
		Name:      models.TranslatedString{"en": "task"},
		Status:    models.TaskStatusPending,
		Priority:  models.TaskPriorityMedium,
		UserID:    userID,
		State:     models.TaskStateActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if mutate != nil {
		mutate(task)
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func defaultFilter() *dto.TaskFilter {
	f := &dto.TaskFilter{}
	f.Normalize()
	return f
}

func TestListExcludesCompletedAndDeletedByDefault(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	open := seedTask(t, repo, user.ID, nil)
	seedTask(t, repo, user.ID, func(task *models.Task) { task.Status = models.TaskStatusCompleted })
	gone := seedTask(t, repo, user.ID, nil)
	require.NoError(t, repo.SoftDelete(ctx, gone, time.Now()))

	tasks, total, err := repo.List(ctx, user.ID, defaultFilter(), "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, open.ID, tasks[0].ID)

	t.Run("includeCompleted opts back in", func(t *testing.T) {
		f := defaultFilter()
		f.IncludeCompleted = true
		_, total, err := repo.List(ctx, user.ID, f, "en")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("explicit completed status shows completed", func(t *testing.T) {
		f := defaultFilter()
		f.Status = models.TaskStatusCompleted
		_, total, err := repo.List(ctx, user.ID, f, "en")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("includeDeleted opts back in", func(t *testing.T) {
		f := defaultFilter()
		f.IncludeDeleted = true
		_, total, err := repo.List(ctx, user.ID, f, "en")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestListScopeAndParentFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	root := seedTask(t, repo, user.ID, nil)
	seedTask(t, repo, user.ID, func(task *models.Task) { task.ParentID = &root.ID })

	f := defaultFilter()
	f.Scope = dto.ScopeRoot
	_, total, err := repo.List(ctx, user.ID, f, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	f = defaultFilter()
	f.Scope = dto.ScopeSubtasks
	_, total, err = repo.List(ctx, user.ID, f, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// parentId ชัดเจนชนะ scope
	f = defaultFilter()
	f.Scope = dto.ScopeRoot
	f.ParentID = root.ID.String()
	tasks, total, err := repo.List(ctx, user.ID, f, "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, tasks, 1)
	assert.Equal(t, &root.ID, tasks[0].ParentID)
}

func TestSoftDeleteDoesNotCascade(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	parent := seedTask(t, repo, user.ID, nil)
	child := seedTask(t, repo, user.ID, func(task *models.Task) { task.ParentID = &parent.ID })

	require.NoError(t, repo.SoftDelete(ctx, parent, time.Now()))

	// parent หายจาก active query
	_, err := repo.GetByID(ctx, parent.ID, false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// แต่ยังดึงได้เมื่อ includeDeleted
	got, err := repo.GetByID(ctx, parent.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStateDeleted, got.State)
	assert.NotNil(t, got.DeletedAt)

	// subtask ไม่โดนลบตาม
	gotChild, err := repo.GetByID(ctx, child.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStateActive, gotChild.State)

	// restore คืนค่า
	require.NoError(t, repo.Restore(ctx, parent))
	got, err = repo.GetByID(ctx, parent.ID, false)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)
}

func TestCountSubtasksIncludesDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	parent := seedTask(t, repo, user.ID, nil)
	child := seedTask(t, repo, user.ID, func(task *models.Task) { task.ParentID = &parent.ID })
	require.NoError(t, repo.SoftDelete(ctx, child, time.Now()))

	// soft-deleted subtask ยังนับ — restore ได้ แปลว่ายังผูก parent อยู่
	count, err := repo.CountSubtasks(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// แต่ ListSubtasks เห็นเฉพาะ active
	subtasks, err := repo.ListSubtasks(ctx, parent.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)
}

func TestDueSoonQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	now := time.Now()
	in6h := now.Add(6 * time.Hour)
	in48h := now.Add(48 * time.Hour)

	due := seedTask(t, repo, user.ID, func(task *models.Task) { task.DueDate = &in6h })
	seedTask(t, repo, user.ID, func(task *models.Task) { task.DueDate = &in48h })
	seedTask(t, repo, user.ID, func(task *models.Task) {
		task.DueDate = &in6h
		task.Status = models.TaskStatusCancelled
	})
	seedTask(t, repo, user.ID, nil) // ไม่มี due date

	tasks, err := repo.ListDueSoonUnnotified(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, due.ID, tasks[0].ID)

	require.NoError(t, repo.MarkDueSoonNotified(ctx, []uuid.UUID{due.ID}, now))
	tasks, err = repo.ListDueSoonUnnotified(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestNextPositionAndReorder(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	parent := seedTask(t, repo, user.ID, nil)

	pos, err := repo.NextPosition(ctx, user.ID, &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pos)

	a := seedTask(t, repo, user.ID, func(task *models.Task) { task.ParentID = &parent.ID; task.Position = 0 })
	b := seedTask(t, repo, user.ID, func(task *models.Task) { task.ParentID = &parent.ID; task.Position = 1 })

	pos, err = repo.NextPosition(ctx, user.ID, &parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	// root กับ subtask list นับแยกกัน
	pos, err = repo.NextPosition(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, repo.Reorder(ctx, parent.ID, []uuid.UUID{b.ID, a.ID}))
	subtasks, err := repo.ListSubtasks(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)
	assert.Equal(t, b.ID, subtasks[0].ID)
	assert.Equal(t, a.ID, subtasks[1].ID)
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	overdue := time.Now().Add(-time.Hour)
	seedTask(t, repo, user.ID, func(task *models.Task) { task.DueDate = &overdue })
	seedTask(t, repo, user.ID, func(task *models.Task) {
		task.Status = models.TaskStatusCompleted
		task.DueDate = &overdue // completed ไม่นับ overdue
	})
	seedTask(t, repo, user.ID, func(task *models.Task) { task.Priority = models.TaskPriorityUrgent })
	deleted := seedTask(t, repo, user.ID, nil)
	require.NoError(t, repo.SoftDelete(ctx, deleted, time.Now()))

	stats, err := repo.Stats(ctx, user.ID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[models.TaskStatusPending])
	assert.Equal(t, int64(1), stats.ByStatus[models.TaskStatusCompleted])
	assert.Equal(t, int64(1), stats.ByPriority[models.TaskPriorityUrgent])
	assert.Equal(t, int64(1), stats.Overdue)
	assert.Equal(t, 33, stats.CompletionPercent)
}

func TestPurgeDeletedBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	user := seedUser(t, db)
	ctx := context.Background()

	old := seedTask(t, repo, user.ID, nil)
	require.NoError(t, repo.SoftDelete(ctx, old, time.Now().Add(-40*24*time.Hour)))
	recent := seedTask(t, repo, user.ID, nil)
	require.NoError(t, repo.SoftDelete(ctx, recent, time.Now()))

	purged, err := repo.PurgeDeletedBefore(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.GetByID(ctx, old.ID, true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetByID(ctx, recent.ID, true)
	assert.NoError(t, err)
}

// ========== pure helpers ==========

func TestSearchClauseLocales(t *testing.T) {
	f := &dto.TaskFilter{Search: "milk"}

	clause, args := searchClause(f, "de")
	// locale ปัจจุบัน + fallback = 2 locales x (name, description)
	assert.Len(t, args, 4)
	assert.Contains(t, clause, "name->>'de' ILIKE ?")
	assert.Contains(t, clause, "name->>'en' ILIKE ?")
	assert.Equal(t, "%milk%", args[0])

	// locale = fallback ไม่ค้นซ้ำ
	_, args = searchClause(f, "en")
	assert.Len(t, args, 2)

	f.AllLocales = true
	_, args = searchClause(f, "en")
	assert.Len(t, args, 6)
}

func TestEscapeLike(t *testing.T) {
	f := &dto.TaskFilter{Search: "50%_done"}
	_, args := searchClause(f, "en")
	assert.Equal(t, `%50\%\_done%`, args[0])
}

func TestOrderClause(t *testing.T) {
	f := defaultFilter()
	assert.Equal(t, "created_at DESC", orderClause(f, "en"))

	f.SortBy = "priority"
	f.SortDir = "asc"
	assert.Equal(t, priorityOrderExpr+" ASC", orderClause(f, "en"))

	f.SortBy = "name"
	assert.Equal(t, "COALESCE(name->>'de', name->>'en') ASC", orderClause(f, "de"))

	// ค่าที่ไม่อยู่ใน allow-list ตกไป default
	f.SortBy = "evil; DROP TABLE tasks"
	assert.Equal(t, "created_at ASC", orderClause(f, "en"))
}
