package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/database/testutil"
	"github.com/aufildessentiers/backend/internal/models"
)

func newSessionFixture(t *testing.T, clock func() time.Time) (*SessionService, *JWTService, *gorm.DB, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Clock:      clock,
	})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, SessionConfig{Clock: clock})
	require.NoError(t, err)

	user := &models.User{
		Email:    "hiker@example.com",
		Password: "irrelevant-hash",
		Name:     "Hiker",
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	require.NoError(t, db.Create(user).Error)

	return svc, jwtSvc, db, user
}

func TestCreatePersistsRefreshToken(t *testing.T) {
	svc, jwtSvc, db, user := newSessionFixture(t, time.Now)

	pair, err := svc.Create(context.Background(), user, SessionMetadata{IPAddress: "10.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := jwtSvc.Verify(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	var record models.RefreshToken
	require.NoError(t, db.Where("token = ?", pair.RefreshToken).Take(&record).Error)
	require.Equal(t, user.ID, record.UserID)
	require.Equal(t, "10.0.0.1", record.IPAddress)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	svc, jwtSvc, _, user := newSessionFixture(t, time.Now)

	pair, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	access, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	claims, err := jwtSvc.Verify(access)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, user.Email, claims.Email)
}

func TestRefreshUnknownTokenIsRevoked(t *testing.T) {
	svc, jwtSvc, _, user := newSessionFixture(t, time.Now)

	// A structurally valid token that was never recorded must read as revoked.
	stray, err := jwtSvc.Issue(user, TokenRefresh)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), stray)
	require.ErrorIs(t, err, ErrSessionRevoked)

	_, err = svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionInvalidToken)
}

func TestLogoutThenRefreshFails(t *testing.T) {
	svc, _, _, user := newSessionFixture(t, time.Now)

	pair, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), pair.RefreshToken))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)

	// Revoking again is a no-op.
	require.NoError(t, svc.Revoke(context.Background(), pair.RefreshToken))
}

func TestRefreshExpiredToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	svc, _, _, user := newSessionFixture(t, clock)

	pair, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(8 * 24 * time.Hour)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)

	// The dead record was removed, so a retry reads as revoked.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRefreshInactiveUser(t *testing.T) {
	svc, _, db, user := newSessionFixture(t, time.Now)

	pair, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("status", models.StatusBanned).Error)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRevokeUserRemovesAllTokens(t *testing.T) {
	svc, _, db, user := newSessionFixture(t, time.Now)

	first, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeUser(context.Background(), user.ID))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
	_, err = svc.Refresh(context.Background(), second.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestCleanupExpiredSessions(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	svc, _, db, user := newSessionFixture(t, clock)

	_, err := svc.Create(context.Background(), user, SessionMetadata{})
	require.NoError(t, err)

	current = current.Add(8 * 24 * time.Hour)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&count).Error)
	require.Zero(t, count)
}
