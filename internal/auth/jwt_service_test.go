package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aufildessentiers/backend/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:     42,
		Email:  "hiker@example.com",
		Role:   models.RoleUser,
		Status: models.StatusActive,
	}
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:    "super-secret",
		Issuer:    "aufildessentiers",
		AccessTTL: 15 * time.Minute,
		Clock:     now,
	})
	require.NoError(t, err)

	token, err := svc.Issue(testUser(), TokenAccess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.EqualValues(t, 42, claims.UserID)
	require.Equal(t, "hiker@example.com", claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)
	require.False(t, claims.IsReset())
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(15*time.Minute)))
}

func TestVerifyExpiredToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:    "super-secret",
		AccessTTL: 15 * time.Minute,
		Clock:     func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Issue(testUser(), TokenAccess)
	require.NoError(t, err)

	late, err := NewJWTService(JWTConfig{
		Secret: "super-secret",
		Clock:  func() time.Time { return current.Add(16 * time.Minute) },
	})
	require.NoError(t, err)

	_, err = late.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "issuer-secret"})
	require.NoError(t, err)

	token, err := svc.Issue(testUser(), TokenAccess)
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "other-secret"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.Verify("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:     "super-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Clock:      func() time.Time { return current },
	})
	require.NoError(t, err)

	refresh, err := svc.Issue(testUser(), TokenRefresh)
	require.NoError(t, err)

	later, err := NewJWTService(JWTConfig{
		Secret: "super-secret",
		Clock:  func() time.Time { return current.Add(24 * time.Hour) },
	})
	require.NoError(t, err)

	_, err = later.Verify(refresh)
	require.NoError(t, err)

	muchLater, err := NewJWTService(JWTConfig{
		Secret: "super-secret",
		Clock:  func() time.Time { return current.Add(8 * 24 * time.Hour) },
	})
	require.NoError(t, err)

	_, err = muchLater.Verify(refresh)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestIssueResetToken(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "super-secret", ResetTTL: time.Hour})
	require.NoError(t, err)

	token, err := svc.IssueResetToken(testUser())
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.True(t, claims.IsReset())
	require.EqualValues(t, 42, claims.UserID)
}

func TestIssueUnknownKind(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "super-secret"})
	require.NoError(t, err)

	_, err = svc.Issue(testUser(), TokenKind("session"))
	require.Error(t, err)

	_, err = svc.Issue(nil, TokenAccess)
	require.Error(t, err)
}
