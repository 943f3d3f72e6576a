package services

import (
	"context"

	"github.com/google/uuid"

	"polytask/domain/dto"
)

// TaskService - ทุก operation รับ userID ของผู้เรียกและ locale ที่ resolve แล้ว
// Ownership checks อยู่ในชั้นนี้: ไม่พบ = not found, ของคนอื่น = forbidden
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, locale string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID, locale string) (*dto.TaskResponse, error)
	ListTasks(ctx context.Context, userID uuid.UUID, locale string, filter *dto.TaskFilter) ([]dto.TaskResponse, *dto.PaginationMeta, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, locale string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	RestoreTask(ctx context.Context, userID, taskID uuid.UUID, locale string) (*dto.TaskResponse, error)

	ListSubtasks(ctx context.Context, userID, parentID uuid.UUID, locale string) ([]dto.TaskResponse, error)
	CreateSubtask(ctx context.Context, userID, parentID uuid.UUID, locale string, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	ReorderSubtasks(ctx context.Context, userID, parentID uuid.UUID, locale string, req *dto.ReorderSubtasksRequest) ([]dto.TaskResponse, error)
	MoveTask(ctx context.Context, userID, taskID uuid.UUID, locale string, req *dto.MoveTaskRequest) (*dto.TaskResponse, error)

	GetStats(ctx context.Context, userID uuid.UUID) (*dto.TaskStatsResponse, error)
}
