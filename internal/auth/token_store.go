package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
)

// DefaultVerificationTTL is the fallback lifetime for email-verification tokens.
const DefaultVerificationTTL = 24 * time.Hour

var (
	// ErrTokenNotFound covers unknown, expired, and already-consumed tokens.
	ErrTokenNotFound = errors.New("token store: invalid or expired token")
	// ErrResetRateLimited is returned while a live reset token is outstanding.
	ErrResetRateLimited = errors.New("token store: a reset token was already issued")
)

// TokenStoreConfig describes tunable behaviour for the TokenStore.
type TokenStoreConfig struct {
	VerificationTTL time.Duration
	Clock           func() time.Time
}

// TokenStore manages the single-use email-verification and password-reset
// tokens shared in the verification_tokens table.
type TokenStore struct {
	db              *gorm.DB
	jwt             *JWTService
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

// NewTokenStore constructs a TokenStore backed by the provided database and JWT service.
func NewTokenStore(db *gorm.DB, jwtService *JWTService, cfg TokenStoreConfig) (*TokenStore, error) {
	if db == nil {
		return nil, errors.New("token store: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("token store: jwt service is required")
	}

	ttl := cfg.VerificationTTL
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &TokenStore{
		db:              db,
		jwt:             jwtService,
		verificationTTL: ttl,
		resetTTL:        jwtService.resetTTL,
		now:             clock,
	}, nil
}

// IssueVerification replaces any outstanding verification token for the user
// with a fresh one. Delete and insert run in one transaction so the user
// always holds exactly one token afterwards.
func (s *TokenStore) IssueVerification(ctx context.Context, user *models.User) (*models.VerificationToken, error) {
	if user == nil || user.ID == 0 {
		return nil, errors.New("token store: user is required")
	}

	token := &models.VerificationToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		Type:      models.TokenTypeVerification,
		ExpiresAt: s.now().Add(s.verificationTTL),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND type = ?", user.ID, models.TokenTypeVerification).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, fmt.Errorf("token store: issue verification token: %w", err)
	}

	return token, nil
}

// IssueReset mints a signed reset token unless a live one is already
// outstanding for the user.
func (s *TokenStore) IssueReset(ctx context.Context, user *models.User) (*models.VerificationToken, error) {
	if user == nil || user.ID == 0 {
		return nil, errors.New("token store: user is required")
	}

	now := s.now()

	signed, err := s.jwt.IssueResetToken(user)
	if err != nil {
		return nil, fmt.Errorf("token store: sign reset token: %w", err)
	}

	token := &models.VerificationToken{
		UserID:    user.ID,
		Token:     signed,
		Type:      models.TokenTypePasswordReset,
		ExpiresAt: now.Add(s.resetTTL),
	}

	// The live-token check runs inside the same transaction as the insert so
	// two concurrent requests cannot both slip past it.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND type = ? AND expires_at <= ?", user.ID, models.TokenTypePasswordReset, now).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return err
		}

		var live int64
		if err := tx.
			Model(&models.VerificationToken{}).
			Where("user_id = ? AND type = ? AND expires_at > ?", user.ID, models.TokenTypePasswordReset, now).
			Count(&live).Error; err != nil {
			return err
		}
		if live > 0 {
			return ErrResetRateLimited
		}

		return tx.Create(token).Error
	})
	if err != nil {
		if errors.Is(err, ErrResetRateLimited) {
			return nil, ErrResetRateLimited
		}
		return nil, fmt.Errorf("token store: issue reset token: %w", err)
	}

	return token, nil
}

// Consume redeems a token by exact value. On success every outstanding token
// belonging to the owner is deleted, closing replay windows across purposes,
// and the owner is returned. Reuse after consumption fails with
// ErrTokenNotFound.
func (s *TokenStore) Consume(ctx context.Context, value string) (*models.VerificationToken, error) {
	if value == "" {
		return nil, ErrTokenNotFound
	}

	var token models.VerificationToken
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token = ? AND expires_at > ?", value, s.now()).
		Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token store: find token: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Where("user_id = ?", token.UserID).
		Delete(&models.VerificationToken{}).Error; err != nil {
		return nil, fmt.Errorf("token store: consume token: %w", err)
	}

	return &token, nil
}

// LookupReset validates a reset token without consuming it: the signature
// must verify, the "type" claim must match, and the row must still exist
// unexpired. Returns the owner.
func (s *TokenStore) LookupReset(ctx context.Context, value string) (*models.User, error) {
	claims, err := s.jwt.Verify(value)
	if err != nil || !claims.IsReset() {
		return nil, ErrTokenNotFound
	}

	var token models.VerificationToken
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("token = ? AND type = ? AND expires_at > ?", value, models.TokenTypePasswordReset, s.now()).
		Take(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("token store: find reset token: %w", err)
	}
	if token.User == nil {
		return nil, ErrTokenNotFound
	}

	return token.User, nil
}

// CleanupExpired removes tokens past their expiry.
func (s *TokenStore) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.VerificationToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("token store: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
