package serviceimpl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"polytask/domain/dto"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/pkg/apperr"
	"polytask/pkg/logger"
)

type UserServiceImpl struct {
	userRepo repositories.UserRepository
	locales  services.LocaleResolver
}

func NewUserService(userRepo repositories.UserRepository, locales services.LocaleResolver) services.UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		locales:  locales,
	}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	return dto.UserToUserResponse(user), nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	languageChanged := false

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.PreferredLanguage != "" && req.PreferredLanguage != user.PreferredLanguage {
		user.PreferredLanguage = req.PreferredLanguage
		languageChanged = true
	}
	if req.Timezone != "" {
		user.Timezone = req.Timezone
	}
	if req.NotificationPrefs != nil {
		// merge ทับของเดิม ไม่แทนที่ทั้งก้อน — client ส่งเฉพาะ key ที่เปลี่ยน
		merged := user.MergedNotificationPrefs()
		for k, v := range req.NotificationPrefs {
			merged[k] = v
		}
		user.NotificationPrefs = merged
	}

	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, userID, user); err != nil {
		logger.ErrorContext(ctx, "Failed to update profile", "user_id", userID, "error", err)
		return nil, err
	}

	if languageChanged {
		// cached locale preference ค้างค่าเก่า ต้องล้างทันที
		s.locales.InvalidateUser(ctx, userID)
	}

	logger.InfoContext(ctx, "Profile updated", "user_id", userID)

	return dto.UserToUserResponse(user), nil
}
