package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"polytask/domain/services"
	"polytask/pkg/i18n"
	"polytask/pkg/utils"
)

// LocaleMiddleware resolves the request locale and stores it in the request
// context. ต้องวางหลัง auth middleware ถึงจะเห็น user preference
func LocaleMiddleware(resolver services.LocaleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := &services.LocaleRequest{
			HeaderLocale:   c.Get("X-Locale"),
			QueryLocale:    c.Query("locale"),
			AcceptLanguage: c.Get(fiber.HeaderAcceptLanguage),
			CookieLocale:   c.Cookies("locale"),
			UserID:         uuid.Nil,
		}
		if user, err := utils.GetUserFromContext(c); err == nil {
			req.UserID = user.ID
		}

		locale := resolver.Resolve(c.UserContext(), req)

		c.Locals("locale", locale)
		c.SetUserContext(i18n.WithLocale(c.UserContext(), locale))

		return c.Next()
	}
}

// GetLocale ดึง locale ที่ resolve แล้วจาก fiber context
func GetLocale(c *fiber.Ctx) string {
	if locale, ok := c.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	return i18n.FallbackLocale
}
