package serviceimpl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/infrastructure/redis"
	"polytask/pkg/i18n"
	"polytask/pkg/logger"
)

const (
	localeCacheKeyPrefix = "locale:user:"
	localeCacheTTL       = time.Hour
)

// LocaleResolverImpl เลือก locale จากสัญญาณใน request ตามลำดับ:
// X-Locale header > user preference (cached) > ?locale= > Accept-Language > cookie > fallback
type LocaleResolverImpl struct {
	userRepo repositories.UserRepository
	cache    *redis.Client
}

func NewLocaleResolver(userRepo repositories.UserRepository, cache *redis.Client) services.LocaleResolver {
	return &LocaleResolverImpl{
		userRepo: userRepo,
		cache:    cache,
	}
}

func (r *LocaleResolverImpl) Resolve(ctx context.Context, req *services.LocaleRequest) string {
	if code, ok := i18n.Normalize(req.HeaderLocale); ok {
		return code
	}

	if req.UserID != uuid.Nil {
		if code, ok := r.userLocale(ctx, req.UserID); ok {
			return code
		}
	}

	if code, ok := i18n.Normalize(req.QueryLocale); ok {
		return code
	}

	if candidates := i18n.ParseAcceptLanguage(req.AcceptLanguage); len(candidates) > 0 {
		return candidates[0]
	}

	if code, ok := i18n.Normalize(req.CookieLocale); ok {
		return code
	}

	return i18n.FallbackLocale
}

// userLocale อ่าน preference จาก cache, miss ค่อยไปที่ DB แล้ว warm cache
// cache พังไม่ทำให้ request fail — ตกไป DB เฉยๆ
func (r *LocaleResolverImpl) userLocale(ctx context.Context, userID uuid.UUID) (string, bool) {
	key := localeCacheKeyPrefix + userID.String()

	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key); err == nil {
			if code, ok := i18n.Normalize(cached); ok {
				return code, true
			}
		}
	}

	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", false
	}

	// preference ที่เลิกรองรับแล้วถือว่าไม่มี — ให้สัญญาณถัดไปตัดสิน
	code, ok := i18n.Normalize(user.PreferredLanguage)
	if !ok {
		return "", false
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, key, code, localeCacheTTL); err != nil {
			logger.WarnContext(ctx, "Failed to cache user locale", "user_id", userID, "error", err)
		}
	}
	return code, true
}

func (r *LocaleResolverImpl) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, localeCacheKeyPrefix+userID.String()); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate locale cache", "user_id", userID, "error", err)
	}
}
