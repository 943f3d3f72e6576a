package routes

import (
	"github.com/gofiber/fiber/v2"

	"polytask/interfaces/api/handlers"
	"polytask/interfaces/api/middleware"
)

func SetupAuthRoutes(api fiber.Router, h *handlers.Handlers, deps *handlers.Services, protected fiber.Handler) {
	auth := api.Group("/auth")

	rl := deps.RateLimiter
	auth.Post("/register", rl.Limit("register", middleware.RegisterLimit), h.AuthHandler.Register)
	auth.Post("/login", rl.Limit("login", middleware.LoginLimit), h.AuthHandler.Login)

	auth.Post("/refresh", protected, rl.Limit("refresh", middleware.RefreshLimit), h.AuthHandler.Refresh)
	auth.Post("/logout", protected, h.AuthHandler.Logout)
	auth.Post("/logout-all", protected, h.AuthHandler.LogoutAll)
	auth.Get("/me", protected, h.UserHandler.GetProfile)
}
