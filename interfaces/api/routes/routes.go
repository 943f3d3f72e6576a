package routes

import (
	"github.com/gofiber/fiber/v2"

	"polytask/interfaces/api/handlers"
	"polytask/interfaces/api/middleware"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, deps *handlers.Services) {
	// Setup health and root routes
	SetupHealthRoutes(app)

	// API version group
	api := app.Group("/api/v1")

	protected := middleware.Protected(deps.JWTSecret, deps.TokenRepository)
	locale := middleware.LocaleMiddleware(deps.LocaleResolver)

	SetupAuthRoutes(api, h, deps, protected)
	SetupUserRoutes(api, h, protected)
	SetupTaskRoutes(api, h, protected, locale)
}
