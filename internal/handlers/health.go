package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/pkg/response"
)

// HealthHandler reports service liveness, including database reachability.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check pings the database and reports overall status.
func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := "ok"
	status := http.StatusOK

	if h.db == nil {
		dbStatus = "unconfigured"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error"
		status = http.StatusServiceUnavailable
	}

	payload := gin.H{
		"status":   "ok",
		"database": dbStatus,
	}
	if status != http.StatusOK {
		payload["status"] = "degraded"
	}

	response.Success(c, status, payload)
}
