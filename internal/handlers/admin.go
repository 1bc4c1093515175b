package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/services"
	"github.com/aufildessentiers/backend/pkg/response"
)

// AdminHandler backs the admin dashboard.
type AdminHandler struct {
	admin *services.AdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(admin *services.AdminService) (*AdminHandler, error) {
	if admin == nil {
		return nil, errors.New("admin handler: admin service is required")
	}
	return &AdminHandler{admin: admin}, nil
}

// Stats serves aggregate platform counts for the dashboard.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// ListUsers serves the user list with an optional status filter.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	opts := services.ListUsersOptions{
		Status:   c.Query("status"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "limit", 20),
	}

	users, total, err := h.admin.ListUsers(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, gin.H{"users": users}, paginationMeta(opts.Page, opts.PageSize, total))
}

type userStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active banned"`
}

// SetUserStatus updates a user's lifecycle status.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req userStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.admin.SetUserStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes a user and everything attached to them.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Utilisateur supprimé."})
}
