package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	"github.com/aufildessentiers/backend/pkg/metrics"
)

var (
	// ErrSessionRevoked marks a refresh token whose record has been removed
	// by logout, admin action, or because it was never issued.
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals a refresh token past its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned for malformed refresh tokens.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	Clock func() time.Time
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionService issues token pairs and tracks refresh tokens in the
// database so revocation survives restarts.
type SessionService struct {
	db  *gorm.DB
	jwt *JWTService
	now func() time.Time
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:  db,
		jwt: jwtService,
		now: clock,
	}, nil
}

// Create issues a fresh token pair and records the refresh token.
func (s *SessionService) Create(ctx context.Context, user *models.User, meta SessionMetadata) (TokenPair, error) {
	if user == nil || user.ID == 0 {
		return TokenPair{}, errors.New("session service: user is required")
	}

	accessToken, err := s.jwt.Issue(user, TokenAccess)
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: issue access token: %w", err)
	}

	refreshToken, err := s.jwt.Issue(user, TokenRefresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: issue refresh token: %w", err)
	}

	now := s.now()
	record := &models.RefreshToken{
		UserID:     user.ID,
		Token:      refreshToken,
		IPAddress:  strings.TrimSpace(meta.IPAddress),
		UserAgent:  strings.TrimSpace(meta.UserAgent),
		ExpiresAt:  now.Add(s.jwt.RefreshTTL()),
		LastUsedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return TokenPair{}, fmt.Errorf("session service: store refresh token: %w", err)
	}

	metrics.ActiveRefreshTokens.Inc()

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ErrSessionInvalidToken
	}

	var record models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", refreshToken).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSessionRevoked
	}
	if err != nil {
		return "", fmt.Errorf("session service: find refresh token: %w", err)
	}

	claims, err := s.jwt.Verify(refreshToken)
	if err != nil {
		// The signed token no longer verifies, so the record is useless.
		_ = s.db.WithContext(ctx).Delete(&record).Error
		metrics.ActiveRefreshTokens.Dec()
		if errors.Is(err, ErrTokenExpired) {
			return "", ErrSessionExpired
		}
		return "", ErrSessionInvalidToken
	}
	if claims.IsReset() {
		return "", ErrSessionInvalidToken
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, record.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSessionRevoked
		}
		return "", fmt.Errorf("session service: load user: %w", err)
	}
	if user.Status != models.StatusActive {
		return "", ErrSessionRevoked
	}

	accessToken, err := s.jwt.Issue(&user, TokenAccess)
	if err != nil {
		return "", fmt.Errorf("session service: issue access token: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&record).Update("last_used_at", s.now()).Error; err != nil {
		return "", fmt.Errorf("session service: touch refresh token: %w", err)
	}

	return accessToken, nil
}

// Revoke deletes the refresh-token record. Unknown tokens are ignored so
// logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	result := s.db.WithContext(ctx).Where("token = ?", refreshToken).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("session service: revoke: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveRefreshTokens.Sub(float64(result.RowsAffected))
	}
	return nil
}

// RevokeUser removes every refresh token belonging to a user.
func (s *SessionService) RevokeUser(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return fmt.Errorf("session service: revoke user: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveRefreshTokens.Sub(float64(result.RowsAffected))
	}
	return nil
}

// CleanupExpired removes refresh-token records past their expiry.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", s.now()).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveRefreshTokens.Sub(float64(result.RowsAffected))
	}

	return result.RowsAffected, nil
}
