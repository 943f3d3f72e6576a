package serviceimpl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polytask/domain/dto"
	"polytask/domain/models"
	"polytask/domain/services"
	"polytask/pkg/apperr"
)

type spyLocaleResolver struct {
	invalidated []uuid.UUID
}

func (s *spyLocaleResolver) Resolve(_ context.Context, _ *services.LocaleRequest) string {
	return "en"
}

func (s *spyLocaleResolver) InvalidateUser(_ context.Context, userID uuid.UUID) {
	s.invalidated = append(s.invalidated, userID)
}

func newUserServiceFixture(user *models.User) (services.UserService, *spyLocaleResolver) {
	spy := &spyLocaleResolver{}
	return NewUserService(newFakeUserRepo(user), spy), spy
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _ := newUserServiceFixture(&models.User{ID: uuid.New()})

	_, err := svc.GetProfile(context.Background(), uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateProfilePartial(t *testing.T) {
	user := &models.User{
		ID:                uuid.New(),
		Name:              "Old Name",
		Email:             "old@example.com",
		PreferredLanguage: "en",
		Timezone:          "UTC",
		State:             models.UserStateActive,
	}
	svc, spy := newUserServiceFixture(user)

	resp, err := svc.UpdateProfile(context.Background(), user.ID, &dto.UpdateProfileRequest{
		Name: "New Name",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", resp.Name)
	// field ที่ไม่ได้ส่งต้องไม่เปลี่ยน
	assert.Equal(t, "en", resp.PreferredLanguage)
	assert.Equal(t, "UTC", resp.Timezone)
	assert.Empty(t, spy.invalidated)
}

func TestUpdateProfileLanguageChangeInvalidatesCache(t *testing.T) {
	user := &models.User{
		ID:                uuid.New(),
		Name:              "Heidi",
		Email:             "heidi@example.com",
		PreferredLanguage: "en",
		State:             models.UserStateActive,
	}
	svc, spy := newUserServiceFixture(user)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{PreferredLanguage: "de"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{user.ID}, spy.invalidated)

	// ส่งค่าเดิมซ้ำไม่นับเป็นการเปลี่ยน
	_, err = svc.UpdateProfile(ctx, user.ID, &dto.UpdateProfileRequest{PreferredLanguage: "de"})
	require.NoError(t, err)
	assert.Len(t, spy.invalidated, 1)
}

func TestUpdateProfileMergesNotificationPrefs(t *testing.T) {
	user := &models.User{
		ID:                uuid.New(),
		Name:              "Nadia",
		Email:             "nadia@example.com",
		PreferredLanguage: "en",
		NotificationPrefs: models.NotificationPrefs{models.NotifyTaskDeleted: false},
		State:             models.UserStateActive,
	}
	svc, _ := newUserServiceFixture(user)

	resp, err := svc.UpdateProfile(context.Background(), user.ID, &dto.UpdateProfileRequest{
		NotificationPrefs: models.NotificationPrefs{models.NotifyTaskCreated: false},
	})
	require.NoError(t, err)

	// opt-out เดิมคงอยู่ ค่าใหม่ทับเฉพาะ key ที่ส่งมา ที่เหลือเป็น default
	assert.False(t, resp.NotificationPrefs[models.NotifyTaskCreated])
	assert.False(t, resp.NotificationPrefs[models.NotifyTaskDeleted])
	assert.True(t, resp.NotificationPrefs[models.NotifyTaskUpdated])
	assert.True(t, resp.NotificationPrefs[models.NotifyTaskDueSoon])
}
