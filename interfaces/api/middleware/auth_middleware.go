package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"polytask/domain/repositories"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

// Protected validates the bearer JWT and checks that its token row still
// exists — ลบ row = revoke ทันที ไม่ต้องรอ JWT หมดอายุ
func Protected(jwtSecret string, tokenRepo repositories.TokenRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		userCtx, err := utils.ValidateToken(token, jwtSecret)
		if err != nil {
			switch err {
			case utils.ErrExpiredToken:
				return utils.UnauthorizedResponse(c, "Token has expired")
			case utils.ErrMissingToken:
				return utils.UnauthorizedResponse(c, "Missing token")
			default:
				return utils.UnauthorizedResponse(c, "Invalid token")
			}
		}

		// Revocation check: jti ต้องชี้ไปที่ row ที่ยังอยู่และไม่หมดอายุ
		row, err := tokenRepo.GetByID(c.UserContext(), userCtx.TokenID)
		if err != nil || row.UserID != userCtx.ID {
			return utils.UnauthorizedResponse(c, "Token has been revoked")
		}
		if row.IsExpired() {
			return utils.UnauthorizedResponse(c, "Token has expired")
		}

		now := time.Now()
		if err := tokenRepo.TouchLastUsed(c.UserContext(), row.ID, now); err != nil {
			logger.WarnContext(c.UserContext(), "Failed to touch token last_used_at", "token_id", row.ID, "error", err)
		}

		c.Locals("user", userCtx)

		return c.Next()
	}
}
