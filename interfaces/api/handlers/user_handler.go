package handlers

import (
	"github.com/gofiber/fiber/v2"

	"polytask/domain/dto"
	"polytask/domain/services"
	"polytask/pkg/apperr"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	profile, err := h.userService.GetProfile(ctx, user.ID)
	if err != nil {
		if appErr := apperr.From(err); appErr != nil {
			return utils.AppErrorResponse(c, appErr)
		}
		logger.ErrorContext(ctx, "Failed to get profile", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, profile)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := utils.ValidateStruct(&req); err != nil {
		errors := utils.GetValidationErrors(err)
		return utils.ValidationErrorResponse(c, errors)
	}

	profile, err := h.userService.UpdateProfile(ctx, user.ID, &req)
	if err != nil {
		if appErr := apperr.From(err); appErr != nil {
			return utils.AppErrorResponse(c, appErr)
		}
		logger.ErrorContext(ctx, "Failed to update profile", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, profile)
}
