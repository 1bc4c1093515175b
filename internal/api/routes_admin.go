package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerAdminRoutes(g *gin.RouterGroup, h *handlers.AdminHandler, requireAuth, requireAdmin gin.HandlerFunc) {
	admin := g.Group("/admin", requireAuth, requireAdmin)

	admin.GET("/stats", h.Stats)
	admin.GET("/users", h.ListUsers)
	admin.PUT("/users/:id/status", h.SetUserStatus)
	admin.DELETE("/users/:id", h.DeleteUser)
}
