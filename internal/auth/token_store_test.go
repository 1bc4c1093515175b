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

func newTokenStoreFixture(t *testing.T, clock func() time.Time) (*TokenStore, *gorm.DB, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := NewJWTService(JWTConfig{
		Secret:   "test-secret",
		ResetTTL: time.Hour,
		Clock:    clock,
	})
	require.NoError(t, err)

	store, err := NewTokenStore(db, jwtSvc, TokenStoreConfig{
		VerificationTTL: 24 * time.Hour,
		Clock:           clock,
	})
	require.NoError(t, err)

	user := &models.User{
		Email:    "pending@example.com",
		Password: "irrelevant-hash",
		Name:     "Pending",
		Role:     models.RoleUser,
		Status:   models.StatusPending,
	}
	require.NoError(t, db.Create(user).Error)

	return store, db, user
}

func TestIssueVerificationReplacesPrevious(t *testing.T) {
	store, db, user := newTokenStoreFixture(t, time.Now)
	ctx := context.Background()

	first, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)
	second, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).
		Where("user_id = ? AND type = ?", user.ID, models.TokenTypeVerification).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	// The replaced token is gone.
	_, err = store.Consume(ctx, first.Token)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeIsSingleUse(t *testing.T) {
	store, _, user := newTokenStoreFixture(t, time.Now)
	ctx := context.Background()

	issued, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)

	token, err := store.Consume(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, models.TokenTypeVerification, token.Type)
	require.NotNil(t, token.User)
	require.Equal(t, user.ID, token.User.ID)

	_, err = store.Consume(ctx, issued.Token)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeExpiredToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store, _, user := newTokenStoreFixture(t, clock)
	ctx := context.Background()

	issued, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)

	_, err = store.Consume(ctx, issued.Token)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestIssueResetRateLimited(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store, _, user := newTokenStoreFixture(t, clock)
	ctx := context.Background()

	first, err := store.IssueReset(ctx, user)
	require.NoError(t, err)
	require.Equal(t, models.TokenTypePasswordReset, first.Type)

	_, err = store.IssueReset(ctx, user)
	require.ErrorIs(t, err, ErrResetRateLimited)

	// Once the token expires a new request goes through.
	current = current.Add(2 * time.Hour)
	_, err = store.IssueReset(ctx, user)
	require.NoError(t, err)
}

func TestIssueResetSeesCompetingLiveToken(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store, db, user := newTokenStoreFixture(t, clock)
	ctx := context.Background()

	// A row committed by another request between the handler's user lookup
	// and the issuance must still be counted.
	require.NoError(t, db.Create(&models.VerificationToken{
		UserID:    user.ID,
		Token:     "competing-reset-token",
		Type:      models.TokenTypePasswordReset,
		ExpiresAt: current.Add(30 * time.Minute),
	}).Error)

	_, err := store.IssueReset(ctx, user)
	require.ErrorIs(t, err, ErrResetRateLimited)

	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).
		Where("user_id = ? AND type = ?", user.ID, models.TokenTypePasswordReset).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestIssueResetAfterConsume(t *testing.T) {
	store, _, user := newTokenStoreFixture(t, time.Now)
	ctx := context.Background()

	issued, err := store.IssueReset(ctx, user)
	require.NoError(t, err)

	_, err = store.Consume(ctx, issued.Token)
	require.NoError(t, err)

	_, err = store.IssueReset(ctx, user)
	require.NoError(t, err)
}

func TestLookupReset(t *testing.T) {
	store, _, user := newTokenStoreFixture(t, time.Now)
	ctx := context.Background()

	issued, err := store.IssueReset(ctx, user)
	require.NoError(t, err)

	owner, err := store.LookupReset(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, owner.ID)
	require.Equal(t, user.Email, owner.Email)

	// A verification token is not a reset token.
	verification, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)
	_, err = store.LookupReset(ctx, verification.Token)
	require.ErrorIs(t, err, ErrTokenNotFound)

	_, err = store.LookupReset(ctx, "garbage")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConsumeDeletesAllTokensForOwner(t *testing.T) {
	store, db, user := newTokenStoreFixture(t, time.Now)
	ctx := context.Background()

	verification, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)
	_, err = store.IssueReset(ctx, user)
	require.NoError(t, err)

	_, err = store.Consume(ctx, verification.Token)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).
		Where("user_id = ?", user.ID).
		Count(&count).Error)
	require.Zero(t, count)
}

func TestTokenCleanupExpired(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }

	store, db, user := newTokenStoreFixture(t, clock)
	ctx := context.Background()

	_, err := store.IssueVerification(ctx, user)
	require.NoError(t, err)
	_, err = store.IssueReset(ctx, user)
	require.NoError(t, err)

	current = current.Add(25 * time.Hour)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var count int64
	require.NoError(t, db.Model(&models.VerificationToken{}).Count(&count).Error)
	require.Zero(t, count)
}
