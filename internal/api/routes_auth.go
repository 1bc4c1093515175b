package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerAuthRoutes(g *gin.RouterGroup, h *handlers.AuthHandler, requireAuth, emailLimiter gin.HandlerFunc) {
	authGroup := g.Group("/auth")

	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/verify-email", h.VerifyEmail)
	authGroup.POST("/resend-verification", emailLimiter, h.ResendVerification)
	authGroup.POST("/refresh", h.Refresh)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/me", requireAuth, h.Me)
	authGroup.POST("/forgot-password", emailLimiter, h.ForgotPassword)
	authGroup.GET("/verify-reset-token/:token", h.VerifyResetToken)
	authGroup.POST("/reset-password", h.ResetPassword)
	authGroup.POST("/change-password", requireAuth, h.ChangePassword)
}
