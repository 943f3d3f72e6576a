package serviceimpl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/pkg/apperr"
	"polytask/pkg/config"
	"polytask/pkg/logger"
	"polytask/pkg/utils"
)

type AuthServiceImpl struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.TokenRepository
	authCfg   config.AuthConfig
}

func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, authCfg config.AuthConfig) services.AuthService {
	return &AuthServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		authCfg:   authCfg,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		logger.WarnContext(ctx, "Registration rejected - email already exists", "email", req.Email)
		return nil, apperr.Conflict(apperr.CodeEmailTaken, "email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to hash password", "error", err)
		return nil, err
	}

	preferredLanguage := req.PreferredLanguage
	if preferredLanguage == "" {
		preferredLanguage = "en"
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	user := &models.User{
		ID:                uuid.New(),
		Name:              req.Name,
		Email:             req.Email,
		Password:          string(hashedPassword),
		PreferredLanguage: preferredLanguage,
		Timezone:          timezone,
		NotificationPrefs: models.DefaultNotificationPrefs(),
		State:             models.UserStateActive,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// register ชนกันเอง: pre-check ไม่เห็น row ที่เพิ่ง insert แต่ unique index เห็น
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.WarnContext(ctx, "Registration rejected - email already exists", "email", req.Email)
			return nil, apperr.Conflict(apperr.CodeEmailTaken, "email already registered")
		}
		logger.ErrorContext(ctx, "Failed to create user", "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID, "email", user.Email)

	resp, _, err := s.issueToken(ctx, user, s.authCfg.TokenTTL)
	return resp, err
}

func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// email ไม่พบกับ password ผิดต้องแยกไม่ออกจาก response
		logger.WarnContext(ctx, "Login failed - email not found", "email", req.Email)
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.WarnContext(ctx, "Login failed - invalid password", "user_id", user.ID)
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "invalid email or password")
	}

	// เช็คหลัง verify password — คนที่ไม่รู้ password ห้ามรู้ว่า account ถูกปิด
	if user.IsDeleted() {
		logger.WarnContext(ctx, "Login failed - account deactivated", "user_id", user.ID)
		return nil, apperr.Deactivated()
	}

	ttl := s.authCfg.TokenTTL
	if req.Remember {
		ttl = s.authCfg.RememberTTL
	}

	resp, tokenID, err := s.issueToken(ctx, user, ttl)
	if err != nil {
		return nil, err
	}

	if !req.Remember {
		// Login ปกติถือเป็น session เดียว — เคลียร์ session ค้างเก่าทิ้ง
		if _, err := s.tokenRepo.DeleteByUserID(ctx, user.ID, &tokenID); err != nil {
			logger.WarnContext(ctx, "Failed to revoke stale sessions", "user_id", user.ID, "error", err)
		}
	}

	logger.InfoContext(ctx, "User logged in", "user_id", user.ID, "remember", req.Remember)
	return resp, nil
}

// issueToken สร้าง token row แล้วออก JWT ที่ jti ชี้กลับมาที่ row นั้น
func (s *AuthServiceImpl) issueToken(ctx context.Context, user *models.User, ttl time.Duration) (*dto.AuthResponse, uuid.UUID, error) {
	token := &models.AuthToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      "api",
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		logger.ErrorContext(ctx, "Failed to create auth token", "user_id", user.ID, "error", err)
		return nil, uuid.Nil, err
	}

	signed, err := utils.GenerateToken(user.ID, user.Email, token.ID, token.ExpiresAt, s.authCfg.JWTSecret)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to sign JWT", "user_id", user.ID, "error", err)
		return nil, uuid.Nil, err
	}

	return &dto.AuthResponse{
		Token:     signed,
		ExpiresAt: token.ExpiresAt,
		User:      *dto.UserToUserResponse(user),
	}, token.ID, nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, userID, tokenID uuid.UUID) (*dto.AuthResponse, error) {
	current, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil || current.UserID != userID {
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "invalid token")
	}
	if current.IsExpired() {
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "token has expired")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "invalid token")
	}
	if user.IsDeleted() {
		return nil, apperr.Deactivated()
	}

	// Token ใหม่สืบทอด expiry เดิม — refresh ไม่ใช่การต่ออายุ session
	fresh := &models.AuthToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      current.Name,
		ExpiresAt: current.ExpiresAt,
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Rotate(ctx, current.ID, fresh); err != nil {
		logger.ErrorContext(ctx, "Failed to rotate auth token", "user_id", userID, "error", err)
		return nil, err
	}

	signed, err := utils.GenerateToken(user.ID, user.Email, fresh.ID, fresh.ExpiresAt, s.authCfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Token refreshed", "user_id", user.ID)

	return &dto.AuthResponse{
		Token:     signed,
		ExpiresAt: fresh.ExpiresAt,
		User:      *dto.UserToUserResponse(user),
	}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		logger.ErrorContext(ctx, "Failed to delete auth token", "token_id", tokenID, "error", err)
		return err
	}
	return nil
}

func (s *AuthServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	revoked, err := s.tokenRepo.DeleteByUserID(ctx, userID, nil)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to revoke user tokens", "user_id", userID, "error", err)
		return 0, err
	}
	logger.InfoContext(ctx, "All sessions revoked", "user_id", userID, "count", revoked)
	return revoked, nil
}
