package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CorsMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "http://localhost:5173,http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin,Content-Type,Accept,Accept-Language,Authorization,X-Requested-With,X-Locale,X-Request-ID",
		ExposeHeaders:    "Content-Length,Retry-After,X-Request-ID",
		AllowCredentials: true, // เปิด credentials สำหรับ locale cookie
	})
}
