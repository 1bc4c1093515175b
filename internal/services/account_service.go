package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/auth"
	"github.com/aufildessentiers/backend/internal/models"
	"github.com/aufildessentiers/backend/pkg/crypto"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/logger"
	"github.com/aufildessentiers/backend/pkg/mail"
	"github.com/aufildessentiers/backend/pkg/metrics"
)

const minPasswordLength = 8

var (
	// ErrEmailTaken indicates a registration attempt with an existing email.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "An account with this email already exists", http.StatusBadRequest)
	// ErrAlreadyVerified indicates a resend request for an active account.
	ErrAlreadyVerified = apperrors.New("ALREADY_VERIFIED", "This account is already verified", http.StatusBadRequest)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrWrongPassword indicates the supplied current password does not verify.
	ErrWrongPassword = apperrors.New("WRONG_PASSWORD", "Current password is incorrect", http.StatusBadRequest)
)

// RegisterInput describes the fields accepted at registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput confirms a password reset.
type ResetPasswordInput struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ChangePasswordInput carries an authenticated password change.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// AccountConfig describes tunable behaviour for the AccountService.
type AccountConfig struct {
	BcryptCost int
	// BaseURL is the public site address used in emailed links.
	BaseURL string
	Clock   func() time.Time
}

// AccountService drives the account lifecycle: registration, email
// verification, login, and password management.
type AccountService struct {
	db         *gorm.DB
	sessions   *auth.SessionService
	tokens     *auth.TokenStore
	mailer     mail.Mailer
	bcryptCost int
	baseURL    string
	now        func() time.Time
	log        *zap.Logger
}

// NewAccountService constructs an AccountService with the provided collaborators.
func NewAccountService(db *gorm.DB, sessions *auth.SessionService, tokens *auth.TokenStore, mailer mail.Mailer, cfg AccountConfig) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if sessions == nil {
		return nil, errors.New("account service: session service is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token store is required")
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &AccountService{
		db:         db,
		sessions:   sessions,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: cfg.BcryptCost,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		now:        clock,
		log:        logger.WithModule("account"),
	}, nil
}

// Register creates a pending user and emails a verification link. The
// account is created even when email delivery fails.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("account service: check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	// Role and status are never taken from the caller.
	user := &models.User{
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(input.Name),
		Role:     models.RoleUser,
		Status:   models.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("account service: create user: %w", err)
	}

	token, err := s.tokens.IssueVerification(ctx, user)
	if err != nil {
		return nil, err
	}
	s.sendVerificationEmail(ctx, user, token.Token)

	return user, nil
}

// Login verifies credentials and issues a session token pair. Pending
// accounts are reported distinctly so the client can offer a resend; banned
// accounts fall into the generic credentials error.
func (s *AccountService) Login(ctx context.Context, input LoginInput, meta auth.SessionMetadata) (*models.User, auth.TokenPair, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, auth.TokenPair{}, fmt.Errorf("account service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	switch user.Status {
	case models.StatusActive:
	case models.StatusPending:
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrAccountNotVerified
	default:
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, auth.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.sessions.Create(ctx, &user, meta)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, pair, nil
}

// VerifyEmail consumes a verification token and activates its owner.
func (s *AccountService) VerifyEmail(ctx context.Context, tokenValue string) (*models.User, error) {
	ctx = ensureContext(ctx)

	token, err := s.tokens.Consume(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if token.Type != models.TokenTypeVerification || token.User == nil {
		return nil, auth.ErrTokenNotFound
	}

	now := s.now()
	updates := map[string]any{
		"status":            models.StatusActive,
		"email_verified_at": now,
	}
	if err := s.db.WithContext(ctx).Model(token.User).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("account service: activate user: %w", err)
	}

	token.User.Status = models.StatusActive
	token.User.EmailVerifiedAt = &now
	return token.User, nil
}

// ResendVerification replaces the outstanding verification token and mails a
// fresh link. IP-level throttling happens in the route layer.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Status == models.StatusActive {
		return ErrAlreadyVerified
	}

	token, err := s.tokens.IssueVerification(ctx, user)
	if err != nil {
		return err
	}
	s.sendVerificationEmail(ctx, user, token.Token)
	return nil
}

// RequestPasswordReset issues and mails a reset token. Unknown emails are
// swallowed so the endpoint cannot be used to enumerate accounts; an
// outstanding live token surfaces as a rate-limit error.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := s.tokens.IssueReset(ctx, user)
	if err != nil {
		if errors.Is(err, auth.ErrResetRateLimited) {
			return apperrors.ErrRateLimit
		}
		return err
	}

	s.sendResetEmail(ctx, user, token.Token)
	return nil
}

// VerifyResetToken checks a reset token without consuming it and returns its owner.
func (s *AccountService) VerifyResetToken(ctx context.Context, tokenValue string) (*models.User, error) {
	return s.tokens.LookupReset(ensureContext(ctx), tokenValue)
}

// ResetPassword consumes a reset token and replaces the owner's password.
// Validation runs before any state is touched. All of the user's refresh
// tokens are revoked so stolen sessions die with the old password.
func (s *AccountService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	ctx = ensureContext(ctx)

	if input.NewPassword != input.ConfirmPassword {
		return apperrors.NewBadRequest("passwords do not match")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	user, err := s.tokens.LookupReset(ctx, input.Token)
	if err != nil {
		return err
	}

	if _, err := s.tokens.Consume(ctx, input.Token); err != nil {
		return err
	}

	hashed, err := crypto.HashPassword(input.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("account service: update password: %w", err)
	}

	return s.sessions.RevokeUser(ctx, user.ID)
}

// ChangePassword replaces the password of an authenticated user after
// verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, input ChangePasswordInput) error {
	ctx = ensureContext(ctx)

	if input.NewPassword != input.ConfirmPassword {
		return apperrors.NewBadRequest("passwords do not match")
	}
	if err := validatePassword(input.NewPassword); err != nil {
		return err
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("account service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, input.CurrentPassword) {
		return ErrWrongPassword
	}

	hashed, err := crypto.HashPassword(input.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	return s.db.WithContext(ctx).Model(&user).Update("password", hashed).Error
}

// Profile loads the user behind a set of claims.
func (s *AccountService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	return &user, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: find user: %w", err)
	}
	return &user, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *AccountService) sendVerificationEmail(ctx context.Context, user *models.User, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Bonjour %s,</p><p>Bienvenue sur Au Fil des Sentiers ! Cliquez sur le lien pour activer votre compte :</p><p><a href=%q>Activer mon compte</a></p><p>Ce lien expire dans 24 heures.</p>",
		user.Name, link,
	)
	s.sendEmail(ctx, "verification", user.Email, "Activez votre compte", body)
}

func (s *AccountService) sendResetEmail(ctx context.Context, user *models.User, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Bonjour %s,</p><p>Vous avez demandé la réinitialisation de votre mot de passe :</p><p><a href=%q>Réinitialiser mon mot de passe</a></p><p>Ce lien expire dans une heure. Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>",
		user.Name, link,
	)
	s.sendEmail(ctx, "password_reset", user.Email, "Réinitialisation du mot de passe", body)
}

func (s *AccountService) sendEmail(ctx context.Context, kind, to, subject, body string) {
	if s.mailer == nil {
		return
	}

	err := s.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
		HTML:    true,
	})
	switch {
	case err == nil:
		metrics.EmailsSent.WithLabelValues(kind, "success").Inc()
	case errors.Is(err, mail.ErrSMTPDisabled):
	default:
		metrics.EmailsSent.WithLabelValues(kind, "failure").Inc()
		s.log.Warn("email delivery failed", zap.String("kind", kind), zap.Error(err))
	}
}
