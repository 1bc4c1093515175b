package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/middleware"
	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/response"
)

// currentUserID returns the authenticated user's id. It writes a 401 and
// returns false when the request carries no verified claims.
func currentUserID(c *gin.Context) (uint, bool) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return 0, false
	}
	return claims.UserID, true
}

// currentActor rebuilds a lightweight user from the token claims, enough for
// ownership and role checks without a database round trip.
func currentActor(c *gin.Context) (*models.User, bool) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	return &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}, true
}
