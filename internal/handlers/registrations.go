package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/services"
	"github.com/aufildessentiers/backend/pkg/response"
)

// RegistrationHandler exposes event sign-ups and their admin review.
type RegistrationHandler struct {
	registrations *services.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registrations *services.RegistrationService) (*RegistrationHandler, error) {
	if registrations == nil {
		return nil, errors.New("registration handler: registration service is required")
	}
	return &RegistrationHandler{registrations: registrations}, nil
}

// Join signs the authenticated user up for an event, pending admin approval.
func (h *RegistrationHandler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := uintParam(c, "eventId")
	if !ok {
		return
	}

	registration, err := h.registrations.Join(c.Request.Context(), userID, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"registration": registration})
}

// Leave withdraws the authenticated user from an event.
func (h *RegistrationHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eventID, ok := uintParam(c, "eventId")
	if !ok {
		return
	}

	if err := h.registrations.Leave(c.Request.Context(), userID, eventID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Inscription annulée."})
}

// ListMine serves the authenticated user's registrations with their events.
func (h *RegistrationHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	registrations, err := h.registrations.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registrations": registrations})
}

// ListForEvent serves every registration of an event plus aggregate counts.
func (h *RegistrationHandler) ListForEvent(c *gin.Context) {
	eventID, ok := uintParam(c, "eventId")
	if !ok {
		return
	}

	registrations, stats, err := h.registrations.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"registrations": registrations,
		"stats":         stats,
	})
}

// ListPending serves the moderation queue of pending registrations across
// all events.
func (h *RegistrationHandler) ListPending(c *gin.Context) {
	registrations, err := h.registrations.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registrations": registrations})
}

type registrationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// SetStatus approves or rejects a pending registration.
func (h *RegistrationHandler) SetStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req registrationStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}

	registration, err := h.registrations.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"registration": registration})
}
