package handlers

import (
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/interfaces/api/middleware"
)

// Services contains all the services needed for handlers
type Services struct {
	AuthService     services.AuthService
	UserService     services.UserService
	TaskService     services.TaskService
	LocaleResolver  services.LocaleResolver
	TokenRepository repositories.TokenRepository // สำหรับ auth middleware (revocation check)
	RateLimiter     *middleware.RateLimiter
	JWTSecret       string
}

// Handlers contains all HTTP handlers
type Handlers struct {
	AuthHandler *AuthHandler
	UserHandler *UserHandler
	TaskHandler *TaskHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services) *Handlers {
	return &Handlers{
		AuthHandler: NewAuthHandler(services.AuthService, services.RateLimiter),
		UserHandler: NewUserHandler(services.UserService),
		TaskHandler: NewTaskHandler(services.TaskService),
	}
}
