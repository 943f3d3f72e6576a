package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"polytask/domain/dto"
	"polytask/domain/services"
	"polytask/interfaces/api/middleware"
	"polytask/pkg/apperr"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// serviceError แปลง service error เป็น response: typed error รู้ status ของ
// ตัวเอง ที่เหลือคือ 500
func serviceError(c *fiber.Ctx, err error) error {
	if appErr := apperr.From(err); appErr != nil {
		return utils.AppErrorResponse(c, appErr)
	}
	logger.ErrorContext(c.UserContext(), "Unexpected service error", "path", c.Path(), "error", err)
	return utils.InternalServerErrorResponse(c)
}

func parseIDParam(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errors)
		return utils.ValidationErrorResponse(c, errors)
	}

	task, err := h.taskService.CreateTask(ctx, user.ID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.CreatedResponse(c, task)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	task, err := h.taskService.GetTask(c.UserContext(), user.ID, taskID, middleware.GetLocale(c))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, task)
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var filter dto.TaskFilter
	if err := c.QueryParser(&filter); err != nil {
		logger.WarnContext(ctx, "Invalid query parameters", "error", err)
		return utils.BadRequestResponse(c, "Invalid query parameters")
	}

	if err := utils.ValidateStruct(&filter); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	tasks, meta, err := h.taskService.ListTasks(ctx, user.ID, middleware.GetLocale(c), &filter)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.PaginatedSuccessResponse(c, tasks, meta.Total, meta.Page, meta.Limit)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	task, err := h.taskService.UpdateTask(ctx, user.ID, taskID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	if err := h.taskService.DeleteTask(c.UserContext(), user.ID, taskID); err != nil {
		return serviceError(c, err)
	}

	return utils.NoContentResponse(c)
}

func (h *TaskHandler) RestoreTask(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	task, err := h.taskService.RestoreTask(c.UserContext(), user.ID, taskID, middleware.GetLocale(c))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, task)
}

func (h *TaskHandler) ListSubtasks(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	parentID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	subtasks, err := h.taskService.ListSubtasks(c.UserContext(), user.ID, parentID, middleware.GetLocale(c))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, subtasks)
}

func (h *TaskHandler) CreateSubtask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	parentID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	task, err := h.taskService.CreateSubtask(ctx, user.ID, parentID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.CreatedResponse(c, task)
}

func (h *TaskHandler) ReorderSubtasks(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	parentID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	var req dto.ReorderSubtasksRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	subtasks, err := h.taskService.ReorderSubtasks(ctx, user.ID, parentID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, subtasks)
}

func (h *TaskHandler) MoveTask(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	taskID, ok := parseIDParam(c)
	if !ok {
		return utils.BadRequestResponse(c, "Invalid task ID")
	}

	var req dto.MoveTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	task, err := h.taskService.MoveTask(ctx, user.ID, taskID, middleware.GetLocale(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, task)
}

func (h *TaskHandler) GetStats(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	stats, err := h.taskService.GetStats(c.UserContext(), user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.SuccessResponse(c, stats)
}
