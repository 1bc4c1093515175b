package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/database/testutil"
	"github.com/aufildessentiers/backend/internal/models"
)

func newAdminFixture(t *testing.T) (*AdminService, *gorm.DB, *models.User) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAdminService(db)
	require.NoError(t, err)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)
	return svc, db, admin
}

func TestDashboardStats(t *testing.T) {
	svc, db, admin := newAdminFixture(t)
	ctx := context.Background()

	pending := seedUser(t, db, "pending@example.com", models.RoleUser)
	require.NoError(t, db.Model(pending).Update("status", models.StatusPending).Error)
	seedUser(t, db, "active@example.com", models.RoleUser)

	event := &models.Event{
		Title: "Sortie", Date: time.Now(), Location: "Ici",
		Status: models.EventStatusOpen, IsActive: true, CreatedBy: admin.ID,
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, db.Create(&models.EventRegistration{
		UserID: pending.ID, EventID: event.ID, Status: models.RegistrationPending,
	}).Error)
	require.NoError(t, db.Create(&models.Contact{
		Name: "V", Email: "v@example.com", Message: "Bonjour",
	}).Error)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Users[models.StatusActive])
	require.EqualValues(t, 1, stats.Users[models.StatusPending])
	require.EqualValues(t, 1, stats.Events[models.EventStatusOpen])
	require.EqualValues(t, 1, stats.Registrations[models.RegistrationPending])
	require.EqualValues(t, 1, stats.UnreadContacts)
}

func TestListUsersFilter(t *testing.T) {
	svc, db, _ := newAdminFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u := seedUser(t, db, fmt.Sprintf("u%d@example.com", i), models.RoleUser)
		if i == 0 {
			require.NoError(t, db.Model(u).Update("status", models.StatusBanned).Error)
		}
	}

	users, total, err := svc.ListUsers(ctx, ListUsersOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 4, total)
	require.Len(t, users, 4)

	banned, total, err := svc.ListUsers(ctx, ListUsersOptions{Status: models.StatusBanned})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "u0@example.com", banned[0].Email)

	_, total, err = svc.ListUsers(ctx, ListUsersOptions{Status: models.StatusActive, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}

func TestSetUserStatus(t *testing.T) {
	svc, db, admin := newAdminFixture(t)
	ctx := context.Background()

	user := seedUser(t, db, "user@example.com", models.RoleUser)

	banned, err := svc.SetUserStatus(ctx, user.ID, models.StatusBanned)
	require.NoError(t, err)
	require.Equal(t, models.StatusBanned, banned.Status)

	_, err = svc.SetUserStatus(ctx, user.ID, "suspended")
	require.Error(t, err)

	_, err = svc.SetUserStatus(ctx, 9999, models.StatusActive)
	require.ErrorIs(t, err, ErrUserNotFound)

	// The only active admin cannot ban themself.
	_, err = svc.SetUserStatus(ctx, admin.ID, models.StatusBanned)
	require.ErrorIs(t, err, ErrLastAdmin)

	seedUser(t, db, "admin2@example.com", models.RoleAdmin)
	_, err = svc.SetUserStatus(ctx, admin.ID, models.StatusBanned)
	require.NoError(t, err)
}

func TestDeleteUserCascades(t *testing.T) {
	svc, db, admin := newAdminFixture(t)
	ctx := context.Background()

	user := seedUser(t, db, "leaving@example.com", models.RoleUser)
	event := &models.Event{
		Title: "Sortie", Date: time.Now(), Location: "Ici",
		Status: models.EventStatusOpen, IsActive: true, CreatedBy: admin.ID,
	}
	require.NoError(t, db.Create(event).Error)
	require.NoError(t, db.Create(&models.EventRegistration{
		UserID: user.ID, EventID: event.ID, Status: models.RegistrationApproved,
	}).Error)
	require.NoError(t, db.Create(&models.RefreshToken{
		UserID: user.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, svc.DeleteUser(ctx, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.EventRegistration{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.DeleteUser(ctx, user.ID), ErrUserNotFound)
	require.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), ErrLastAdmin)
}
