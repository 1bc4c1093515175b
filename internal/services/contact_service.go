package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
)

// ErrContactNotFound indicates the requested contact message does not exist.
var ErrContactNotFound = apperrors.New("CONTACT_NOT_FOUND", "Contact message not found", http.StatusNotFound)

// SubmitContactInput describes a public contact-form submission.
type SubmitContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactService stores contact-form submissions for admin review.
type ContactService struct {
	db *gorm.DB
}

// NewContactService constructs a ContactService instance.
func NewContactService(db *gorm.DB) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db}, nil
}

// Submit persists a contact message.
func (s *ContactService) Submit(ctx context.Context, input SubmitContactInput) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	message := strings.TrimSpace(input.Message)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if message == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}

	contact := &models.Contact{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Message: message,
	}
	if err := s.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, fmt.Errorf("contact service: create contact: %w", err)
	}
	return contact, nil
}

// List returns contact messages, unread first, newest within each group.
func (s *ContactService) List(ctx context.Context, page, pageSize int) ([]models.Contact, int64, error) {
	ctx = ensureContext(ctx)
	page, pageSize = normalisePage(page, pageSize)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: count contacts: %w", err)
	}

	var contacts []models.Contact
	err := s.db.WithContext(ctx).
		Order("is_read ASC, created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&contacts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("contact service: list contacts: %w", err)
	}

	return contacts, total, nil
}

// MarkRead flags a message as handled.
func (s *ContactService) MarkRead(ctx context.Context, id uint) (*models.Contact, error) {
	ctx = ensureContext(ctx)

	var contact models.Contact
	err := s.db.WithContext(ctx).First(&contact, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contact service: load contact: %w", err)
	}

	if !contact.IsRead {
		if err := s.db.WithContext(ctx).Model(&contact).Update("is_read", true).Error; err != nil {
			return nil, fmt.Errorf("contact service: mark read: %w", err)
		}
		contact.IsRead = true
	}
	return &contact, nil
}
