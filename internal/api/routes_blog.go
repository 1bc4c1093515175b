package api

import (
	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/handlers"
)

func registerBlogRoutes(g *gin.RouterGroup, h *handlers.BlogHandler, requireAuth, requireAdmin gin.HandlerFunc) {
	blog := g.Group("/blog")

	blog.GET("", h.List)
	blog.GET("/:id", h.Get)
	blog.POST("", requireAuth, requireAdmin, h.Create)
}
