package routes

import (
	"github.com/gofiber/fiber/v2"

	"polytask/interfaces/api/handlers"
)

func SetupTaskRoutes(api fiber.Router, h *handlers.Handlers, protected, locale fiber.Handler) {
	tasks := api.Group("/tasks")
	// locale middleware อยู่หลัง auth เพื่อให้เห็น user preference
	tasks.Use(protected, locale)

	tasks.Post("/", h.TaskHandler.CreateTask)
	tasks.Get("/", h.TaskHandler.ListTasks)
	tasks.Get("/stats", h.TaskHandler.GetStats)
	tasks.Get("/:id", h.TaskHandler.GetTask)
	tasks.Put("/:id", h.TaskHandler.UpdateTask)
	tasks.Delete("/:id", h.TaskHandler.DeleteTask)
	tasks.Post("/:id/restore", h.TaskHandler.RestoreTask)
	tasks.Get("/:id/subtasks", h.TaskHandler.ListSubtasks)
	tasks.Post("/:id/subtasks", h.TaskHandler.CreateSubtask)
	tasks.Put("/:id/subtasks/reorder", h.TaskHandler.ReorderSubtasks)
	tasks.Post("/:id/move", h.TaskHandler.MoveTask)
}
