package handlers

import (
	"github.com/gofiber/fiber/v2"

	"polytask/domain/dto"
	"polytask/domain/services"
	"polytask/interfaces/api/middleware"
	"polytask/pkg/apperr"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

type AuthHandler struct {
	authService services.AuthService
	rateLimiter *middleware.RateLimiter
}

func NewAuthHandler(authService services.AuthService, rateLimiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errors)
		return utils.ValidationErrorResponse(c, errors)
	}

	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		if appErr := apperr.From(err); appErr != nil {
			return utils.AppErrorResponse(c, appErr)
		}
		logger.ErrorContext(ctx, "Registration failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.CreatedResponse(c, resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		if appErr := apperr.From(err); appErr != nil {
			return utils.AppErrorResponse(c, appErr)
		}
		logger.ErrorContext(ctx, "Login failed", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	// Login สำเร็จ — ล้าง rate-limit counter ของ caller นี้
	if h.rateLimiter != nil {
		h.rateLimiter.Clear(c)
	}

	return utils.SuccessResponse(c, resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	resp, err := h.authService.Refresh(ctx, user.ID, user.TokenID)
	if err != nil {
		if appErr := apperr.From(err); appErr != nil {
			return utils.AppErrorResponse(c, appErr)
		}
		logger.ErrorContext(ctx, "Token refresh failed", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	if err := h.authService.Logout(ctx, user.TokenID); err != nil {
		logger.ErrorContext(ctx, "Logout failed", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, dto.LogoutResponse{Message: "logged out"})
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	revoked, err := h.authService.LogoutAll(ctx, user.ID)
	if err != nil {
		logger.ErrorContext(ctx, "Logout all failed", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"message": "all sessions revoked",
		"revoked": revoked,
	})
}
