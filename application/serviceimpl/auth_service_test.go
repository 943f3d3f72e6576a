package serviceimpl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/infrastructure/postgres"
	"polytask/pkg/apperr"
	"polytask/pkg/config"
	"polytask/pkg/utils"
)

const testJWTSecret = "auth-test-secret"

var testAuthConfig = config.AuthConfig{
	JWTSecret:   testJWTSecret,
	TokenTTL:    24 * time.Hour,
	RememberTTL: 30 * 24 * time.Hour,
}

// in-memory sqlite ต่อ test แยกกันด้วยชื่อ DSN เพื่อไม่ให้ state รั่วข้าม test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuthToken{}, &models.Task{}))
	return db
}

type authFixture struct {
	svc       services.AuthService
	userRepo  repositories.UserRepository
	tokenRepo repositories.TokenRepository
	db        *gorm.DB
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := newTestDB(t)
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	return &authFixture{
		svc:       NewAuthService(userRepo, tokenRepo, testAuthConfig),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		db:        db,
	}
}

func (f *authFixture) register(t *testing.T, email string) *dto.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Tester",
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return resp
}

func (f *authFixture) tokenCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.AuthToken{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestRegisterIssuesValidToken(t *testing.T) {
	f := newAuthFixture(t)

	resp := f.register(t, "new@example.com")
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, "en", resp.User.PreferredLanguage)

	// JWT ต้อง verify ได้และ jti ชี้ไปที่ token row จริง
	userCtx, err := utils.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userCtx.ID)

	row, err := f.tokenRepo.GetByID(context.Background(), userCtx.TokenID)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, row.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "dup@example.com")

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name:     "Again",
		Email:    "dup@example.com",
		Password: "another password",
	})

	require.Error(t, err)
	appErr := apperr.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, apperr.CodeEmailTaken, appErr.Code)
}

// จำลอง register ที่แข่งกัน: pre-check มองไม่เห็น row ที่อีก request เพิ่ง insert
type racingUserRepo struct {
	repositories.UserRepository
}

func (r *racingUserRepo) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestRegisterConcurrentDuplicateMapsToConflict(t *testing.T) {
	db := newTestDB(t)
	userRepo := postgres.NewUserRepository(db)
	svc := NewAuthService(&racingUserRepo{userRepo}, postgres.NewTokenRepository(db), testAuthConfig)
	ctx := context.Background()

	_, err := svc.Register(ctx, &dto.RegisterRequest{
		Name: "First", Email: "race@example.com", Password: "correct horse battery",
	})
	require.NoError(t, err)

	// ชน unique index ตรงๆ — ต้องออกมาเป็น conflict ไม่ใช่ internal error
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Name: "Second", Email: "race@example.com", Password: "another password",
	})
	require.Error(t, err)
	appErr := apperr.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Equal(t, apperr.CodeEmailTaken, appErr.Code)
}

func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "known@example.com")

	ctx := context.Background()
	_, errUnknown := f.svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	_, errBadPass := f.svc.Login(ctx, &dto.LoginRequest{Email: "known@example.com", Password: "wrong password"})

	for _, err := range []error{errUnknown, errBadPass} {
		appErr := apperr.From(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
		assert.Equal(t, apperr.CodeInvalidCredentials, appErr.Code)
		assert.Equal(t, "invalid email or password", appErr.Message)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "gone@example.com")

	now := time.Now()
	require.NoError(t, f.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Updates(map[string]interface{}{"state": models.UserStateDeleted, "deleted_at": now}).Error)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "gone@example.com",
		Password: "correct horse battery",
	})

	appErr := apperr.From(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.KindForbidden, appErr.Kind)
	assert.Equal(t, apperr.CodeDeactivated, appErr.Code)

	// password ผิดต้องไม่เผยว่า account ถูกปิด
	t.Run("wrong password stays indistinguishable", func(t *testing.T) {
		_, err := f.svc.Login(context.Background(), &dto.LoginRequest{
			Email:    "gone@example.com",
			Password: "wrong password",
		})
		appErr := apperr.From(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
		assert.Equal(t, apperr.CodeInvalidCredentials, appErr.Code)
	})
}

func TestLoginRememberKeepsOtherSessions(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "multi@example.com")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &dto.LoginRequest{
		Email:    "multi@example.com",
		Password: "correct horse battery",
		Remember: true,
	})
	require.NoError(t, err)

	// remember=true ไม่แตะ session เดิม
	assert.Equal(t, int64(2), f.tokenCount(t, resp.User.ID))

	// remember token อายุยาวกว่า default
	assert.True(t, login.ExpiresAt.After(time.Now().Add(testAuthConfig.TokenTTL)))
}

func TestLoginWithoutRememberRevokesOtherSessions(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "single@example.com")
	ctx := context.Background()

	login, err := f.svc.Login(ctx, &dto.LoginRequest{
		Email:    "single@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	require.Equal(t, int64(1), f.tokenCount(t, resp.User.ID))

	// token ที่เหลือต้องเป็นของ login ล่าสุด
	userCtx, err := utils.ValidateToken(login.Token, testJWTSecret)
	require.NoError(t, err)
	_, err = f.tokenRepo.GetByID(ctx, userCtx.TokenID)
	assert.NoError(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "rotate@example.com")
	ctx := context.Background()

	userCtx, err := utils.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, userCtx.ID, userCtx.TokenID)
	require.NoError(t, err)

	// refresh ไม่ต่ออายุ — expiry เดิมถูกสืบทอด
	assert.WithinDuration(t, resp.ExpiresAt, refreshed.ExpiresAt, time.Second)

	// token เก่าถูก revoke แล้ว
	_, err = f.tokenRepo.GetByID(ctx, userCtx.TokenID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// token ใหม่ใช้งานได้
	freshCtx, err := utils.ValidateToken(refreshed.Token, testJWTSecret)
	require.NoError(t, err)
	assert.NotEqual(t, userCtx.TokenID, freshCtx.TokenID)
	_, err = f.tokenRepo.GetByID(ctx, freshCtx.TokenID)
	assert.NoError(t, err)

	// refresh ด้วย token ที่ revoke ไปแล้วต้องโดนปฏิเสธ
	_, err = f.svc.Refresh(ctx, userCtx.ID, userCtx.TokenID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestRefreshForeignTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	bobCtx, err := utils.ValidateToken(bob.Token, testJWTSecret)
	require.NoError(t, err)

	aliceCtx, err := utils.ValidateToken(alice.Token, testJWTSecret)
	require.NoError(t, err)

	// bob ใช้ jti ของ alice ไม่ได้
	_, err = f.svc.Refresh(context.Background(), bobCtx.ID, aliceCtx.TokenID)
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "bye@example.com")
	ctx := context.Background()

	userCtx, err := utils.ValidateToken(resp.Token, testJWTSecret)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, userCtx.TokenID))
	assert.Equal(t, int64(0), f.tokenCount(t, resp.User.ID))
}

func TestLogoutAllCountsSessions(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "everywhere@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, &dto.LoginRequest{
			Email:    "everywhere@example.com",
			Password: "correct horse battery",
			Remember: true,
		})
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), f.tokenCount(t, resp.User.ID))

	revoked, err := f.svc.LogoutAll(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), revoked)
	assert.Equal(t, int64(0), f.tokenCount(t, resp.User.ID))
}

func TestPurgeExpiredTokens(t *testing.T) {
	f := newAuthFixture(t)
	resp := f.register(t, "stale@example.com")
	ctx := context.Background()

	// ปลอม token หมดอายุไปแล้ว
	expired := &models.AuthToken{
		ID:        uuid.New(),
		UserID:    resp.User.ID,
		Name:      "api",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, f.tokenRepo.Create(ctx, expired))

	maintenance := NewMaintenanceService(postgres.NewTaskRepository(f.db), f.tokenRepo, f.userRepo, nil)
	purged, err := maintenance.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// token ที่ยังไม่หมดอายุต้องอยู่ครบ
	assert.Equal(t, int64(1), f.tokenCount(t, resp.User.ID))
}
