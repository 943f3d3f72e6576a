package dto

import (
	"math"

	"polytask/domain/models"
)

func UserToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:                user.ID,
		Name:              user.Name,
		Email:             user.Email,
		PreferredLanguage: user.PreferredLanguage,
		Timezone:          user.Timezone,
		NotificationPrefs: user.MergedNotificationPrefs(),
		CreatedAt:         user.CreatedAt,
		UpdatedAt:         user.UpdatedAt,
	}
}

// TaskToTaskResponse builds the task snapshot. Display fields are resolved
// against locale; completion percent comes from the preloaded subtasks.
func TaskToTaskResponse(task *models.Task, locale string) *TaskResponse {
	if task == nil {
		return nil
	}

	return &TaskResponse{
		ID:                 task.ID,
		Name:               task.Name,
		Description:        task.Description,
		DisplayName:        task.Name.Get(locale),
		DisplayDescription: task.Description.Get(locale),
		Status:             task.Status,
		Priority:           task.Priority,
		DueDate:            task.DueDate,
		ParentID:           task.ParentID,
		Position:           task.Position,
		UserID:             task.UserID,
		State:              task.State,
		SubtaskCount:       len(task.Subtasks),
		CompletionPercent:  CompletionPercent(task.Subtasks),
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}

// CompletionPercent = round(100 * completed / total), 0 เมื่อไม่มี subtask
func CompletionPercent(subtasks []models.Task) int {
	if len(subtasks) == 0 {
		return 0
	}
	completed := 0
	for _, st := range subtasks {
		if st.Status == models.TaskStatusCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(subtasks))))
}

func TasksToTaskResponses(tasks []*models.Task, locale string) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = *TaskToTaskResponse(task, locale)
	}
	return out
}
