package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerRegistrationRoutes(g *gin.RouterGroup, h *handlers.RegistrationHandler, requireAuth, requireAdmin gin.HandlerFunc) {
	registrations := g.Group("/registrations", requireAuth)

	registrations.POST("/join/:eventId", h.Join)
	registrations.DELETE("/leave/:eventId", h.Leave)
	registrations.GET("/mine", h.ListMine)
	registrations.GET("/pending", requireAdmin, h.ListPending)
	registrations.GET("/event/:eventId", requireAdmin, h.ListForEvent)
	registrations.PUT("/:id/status", requireAdmin, h.SetStatus)
}
