package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerEventRoutes(g *gin.RouterGroup, h *handlers.EventHandler, requireAuth gin.HandlerFunc) {
	events := g.Group("/events")

	events.GET("", h.List)
	events.GET("/:id", h.Get)
	events.POST("", requireAuth, h.Create)
	events.PUT("/:id", requireAuth, h.Update)
	events.DELETE("/:id", requireAuth, h.Delete)
}
