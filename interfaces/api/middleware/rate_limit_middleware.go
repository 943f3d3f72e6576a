package middleware

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"polytask/infrastructure/redis"
	"polytask/pkg/apperr"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

const rateLimitKeyLocal = "ratelimit_key"

// Per-route budgets (requests per window)
const (
	LoginLimit    = 5
	RegisterLimit = 10
	RefreshLimit  = 30

	RateLimitWindow = time.Minute
)

// RateLimiter คือ fixed-window limiter บน Redis คีย์ต่อ route+ip+email
// Redis ล่ม = fail open (ปล่อยผ่าน) — availability สำคัญกว่า limit
type RateLimiter struct {
	cache *redis.Client
}

func NewRateLimiter(cache *redis.Client) *RateLimiter {
	return &RateLimiter{cache: cache}
}

// Limit คืน middleware ที่นับ request ใน window ปัจจุบันและตอบ 429 เมื่อเกิน
func (rl *RateLimiter) Limit(route string, max int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.cache == nil {
			return c.Next()
		}

		key := rateLimitKey(route, c.IP(), emailFromBody(c))

		count, remaining, err := rl.cache.IncrWindow(c.UserContext(), key, RateLimitWindow)
		if err != nil {
			logger.WarnContext(c.UserContext(), "Rate limit check failed", "key", key, "error", err)
			return c.Next()
		}

		if count > max {
			retryAfter := int(remaining.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.WarnContext(c.UserContext(), "Rate limit exceeded",
				"route", route, "ip", c.IP(), "count", count)
			return utils.AppErrorResponse(c, apperr.RateLimited(retryAfter))
		}

		c.Locals(rateLimitKeyLocal, key)
		return c.Next()
	}
}

// Clear ล้าง counter ของ request นี้ — เรียกหลัง login สำเร็จ
// เพื่อไม่ให้ความพยายามที่ผิดก่อนหน้าค้างลงโทษ user ที่จำรหัสได้แล้ว
func (rl *RateLimiter) Clear(c *fiber.Ctx) {
	if rl.cache == nil {
		return
	}
	key, ok := c.Locals(rateLimitKeyLocal).(string)
	if !ok || key == "" {
		return
	}
	if err := rl.cache.Del(c.UserContext(), key); err != nil {
		logger.WarnContext(c.UserContext(), "Failed to clear rate limit key", "key", key, "error", err)
	}
}

func rateLimitKey(route, ip, email string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", route, ip, email)
}

// emailFromBody อ่าน email จาก JSON body เพื่อผูก counter กับ account ด้วย
// ไม่ใช่แค่ IP (กัน attacker คนเดียวเวียนหลาย account หลัง NAT เดียวกัน)
func emailFromBody(c *fiber.Ctx) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return "-"
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return "-"
	}
	return email
}
