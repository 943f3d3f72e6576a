package services

import (
	"context"

	"github.com/google/uuid"

	"polytask/domain/dto"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)

	// Refresh ออก token ใหม่ด้วย expiry เดิม แล้ว revoke token เก่า
	Refresh(ctx context.Context, userID, tokenID uuid.UUID) (*dto.AuthResponse, error)

	// Logout revoke เฉพาะ token ปัจจุบัน
	Logout(ctx context.Context, tokenID uuid.UUID) error

	// LogoutAll revoke ทุก session ของ user คืนจำนวนที่ลบ
	LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
}
