package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerContactRoutes(g *gin.RouterGroup, h *handlers.ContactHandler, requireAuth, requireAdmin gin.HandlerFunc) {
	contacts := g.Group("/contacts")

	contacts.POST("", h.Submit)
	contacts.GET("", requireAuth, requireAdmin, h.List)
	contacts.PUT("/:id/read", requireAuth, requireAdmin, h.MarkRead)
}
