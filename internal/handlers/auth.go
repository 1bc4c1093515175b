package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/auth"
	"github.com/aufildessentiers/backend/internal/services"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/response"
)

// AuthHandler exposes registration, login, and the token lifecycle.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *auth.SessionService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService, sessions *auth.SessionService) (*AuthHandler, error) {
	if accounts == nil {
		return nil, errors.New("auth handler: account service is required")
	}
	if sessions == nil {
		return nil, errors.New("auth handler: session service is required")
	}
	return &AuthHandler{accounts: accounts, sessions: sessions}, nil
}

// sessionError maps refresh-token failures onto API errors. Every variant is
// a 401 so clients fall back to a fresh login.
func sessionError(err error) error {
	switch {
	case errors.Is(err, auth.ErrSessionRevoked):
		return apperrors.New("SESSION_REVOKED", "Session revoked, please log in again", http.StatusUnauthorized).WithInternal(err)
	case errors.Is(err, auth.ErrSessionExpired):
		return apperrors.New("SESSION_EXPIRED", "Session expired, please log in again", http.StatusUnauthorized).WithInternal(err)
	case errors.Is(err, auth.ErrSessionInvalidToken):
		return apperrors.New("SESSION_INVALID", "Invalid session token", http.StatusUnauthorized).WithInternal(err)
	default:
		return err
	}
}

// tokenError maps verification and reset token failures onto a 400.
func tokenError(err error) error {
	if errors.Is(err, auth.ErrTokenNotFound) {
		return apperrors.New("TOKEN_INVALID", "Invalid or expired token", http.StatusBadRequest).WithInternal(err)
	}
	return err
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// Register creates a pending account and emails a verification link.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":    user,
		"message": "Compte créé. Vérifiez votre email pour activer votre compte.",
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates credentials and issues an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	meta := auth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}

	user, pair, err := h.accounts.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, meta)
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotVerified) {
			response.ErrorWithDetails(c, err, gin.H{"needs_verification": true})
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail activates the account matching a verification token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, tokenError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerification issues a fresh verification token for a pending account.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Email de vérification envoyé.",
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh exchanges a live refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	accessToken, err := h.sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, sessionError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"accessToken": accessToken})
}

// Logout revokes the supplied refresh token. Unknown tokens succeed, so a
// client can always log out.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Déconnexion réussie."})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ForgotPassword starts a password reset. The response never reveals whether
// the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Si un compte existe pour cet email, un lien de réinitialisation a été envoyé.",
	})
}

// VerifyResetToken checks a reset token and returns the owner's email so the
// reset form can display it.
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	user, err := h.accounts.VerifyResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, tokenError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"email": user.Email})
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ResetPassword sets a new password from a reset token and revokes every
// session of the account.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.accounts.ResetPassword(c.Request.Context(), services.ResetPasswordInput{
		Token:           req.Token,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		response.Error(c, tokenError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Mot de passe réinitialisé."})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ChangePassword updates the password of the authenticated user.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), userID, services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Mot de passe modifié."})
}
