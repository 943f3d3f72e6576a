package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"polytask/domain/models"
	"polytask/domain/repositories"
)

type TokenRepositoryImpl struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) repositories.TokenRepository {
	return &TokenRepositoryImpl{db: db}
}

func (r *TokenRepositoryImpl) Create(ctx context.Context, token *models.AuthToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *TokenRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.AuthToken, error) {
	var token models.AuthToken
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *TokenRepositoryImpl) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.AuthToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *TokenRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AuthToken{}).Error
}

func (r *TokenRepositoryImpl) DeleteByUserID(ctx context.Context, userID uuid.UUID, exceptID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if exceptID != nil {
		query = query.Where("id <> ?", *exceptID)
	}
	result := query.Delete(&models.AuthToken{})
	return result.RowsAffected, result.Error
}

// Rotate สร้าง token ใหม่และลบตัวเก่าแบบ atomic — ถ้า insert fail token เก่ายังใช้ได้
func (r *TokenRepositoryImpl) Rotate(ctx context.Context, oldID uuid.UUID, fresh *models.AuthToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fresh).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", oldID).Delete(&models.AuthToken{}).Error
	})
}

func (r *TokenRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.AuthToken{})
	return result.RowsAffected, result.Error
}
