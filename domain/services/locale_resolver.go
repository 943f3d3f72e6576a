package services

import (
	"context"

	"github.com/google/uuid"
)

// LocaleRequest - สัญญาณทั้งหมดจาก request ที่ใช้ตัดสิน locale
// UserID เป็น uuid.Nil เมื่อไม่ได้ authenticate
type LocaleRequest struct {
	HeaderLocale   string // X-Locale
	QueryLocale    string // ?locale=
	AcceptLanguage string
	CookieLocale   string
	UserID         uuid.UUID
}

// LocaleResolver เลือก locale ตามลำดับความสำคัญ:
// header > user preference > query > Accept-Language > cookie > fallback
type LocaleResolver interface {
	Resolve(ctx context.Context, req *LocaleRequest) string

	// InvalidateUser ล้าง cached preference หลัง profile update
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}
