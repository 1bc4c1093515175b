package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/services"
	"github.com/aufildessentiers/backend/pkg/response"
)

// ContactHandler exposes the public contact form and its admin inbox.
type ContactHandler struct {
	contacts *services.ContactService
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(contacts *services.ContactService) (*ContactHandler, error) {
	if contacts == nil {
		return nil, errors.New("contact handler: contact service is required")
	}
	return &ContactHandler{contacts: contacts}, nil
}

type submitContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

// Submit records a contact-form message.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req submitContactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.contacts.Submit(c.Request.Context(), services.SubmitContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"contact": contact,
		"message": "Message envoyé. Nous vous répondrons rapidement.",
	})
}

// List serves the admin inbox, unread messages first.
func (h *ContactHandler) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "limit", 20)

	contacts, total, err := h.contacts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, gin.H{"contacts": contacts}, paginationMeta(page, pageSize, total))
}

// MarkRead flags a message as handled.
func (h *ContactHandler) MarkRead(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	contact, err := h.contacts.MarkRead(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"contact": contact})
}
