package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/metrics"
)

var (
	// ErrAlreadyRegistered rejects duplicate registrations for the same event.
	ErrAlreadyRegistered = apperrors.New("ALREADY_REGISTERED", "You are already registered for this event", http.StatusBadRequest)
	// ErrEventFull rejects registrations once the participant limit is reached.
	ErrEventFull = apperrors.New("EVENT_FULL", "This event is full", http.StatusBadRequest)
	// ErrEventClosed rejects registrations for events no longer open.
	ErrEventClosed = apperrors.New("EVENT_CLOSED", "Registrations are closed for this event", http.StatusBadRequest)
	// ErrRegistrationNotFound indicates the registration does not exist.
	ErrRegistrationNotFound = apperrors.New("REGISTRATION_NOT_FOUND", "Registration not found", http.StatusNotFound)
)

// RegistrationStats aggregates per-event registration counts.
type RegistrationStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// RegistrationService handles event sign-ups and their admin review.
type RegistrationService struct {
	db *gorm.DB
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(db *gorm.DB) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	return &RegistrationService{db: db}, nil
}

// Join registers the user for an event. The registration starts pending and
// only counts against capacity once approved.
func (s *RegistrationService) Join(ctx context.Context, userID, eventID uint) (*models.EventRegistration, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&event, eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registration service: load event: %w", err)
	}

	switch event.Status {
	case models.EventStatusOpen:
	case models.EventStatusFull:
		return nil, ErrEventFull
	default:
		return nil, ErrEventClosed
	}
	if !event.HasCapacity() {
		return nil, ErrEventFull
	}

	registration := &models.EventRegistration{
		UserID:  userID,
		EventID: eventID,
		Status:  models.RegistrationPending,
	}
	if err := s.db.WithContext(ctx).Create(registration).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("registration service: create registration: %w", err)
	}

	metrics.EventRegistrations.WithLabelValues(models.RegistrationPending).Inc()
	return registration, nil
}

// Leave removes the user's registration. An approved registration frees a slot.
func (s *RegistrationService) Leave(ctx context.Context, userID, eventID uint) error {
	ctx = ensureContext(ctx)

	var registration models.EventRegistration
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Take(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRegistrationNotFound
	}
	if err != nil {
		return fmt.Errorf("registration service: find registration: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&registration).Error; err != nil {
			return err
		}
		if registration.Status == models.RegistrationApproved {
			return releaseSlot(tx, registration.EventID)
		}
		return nil
	})
}

// ListMine returns the user's registrations with their events.
func (s *RegistrationService) ListMine(ctx context.Context, userID uint) ([]models.EventRegistration, error) {
	ctx = ensureContext(ctx)

	var registrations []models.EventRegistration
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("registration service: list registrations: %w", err)
	}
	return registrations, nil
}

// ListForEvent returns all registrations of an event plus aggregate stats.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID uint) ([]models.EventRegistration, RegistrationStats, error) {
	ctx = ensureContext(ctx)

	var registrations []models.EventRegistration
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, RegistrationStats{}, fmt.Errorf("registration service: list registrations: %w", err)
	}

	var stats RegistrationStats
	stats.Total = int64(len(registrations))
	for _, r := range registrations {
		switch r.Status {
		case models.RegistrationPending:
			stats.Pending++
		case models.RegistrationApproved:
			stats.Approved++
		case models.RegistrationRejected:
			stats.Rejected++
		}
	}

	return registrations, stats, nil
}

// ListPending returns the pending registrations across every event, oldest
// first, for the moderation queue on the admin dashboard.
func (s *RegistrationService) ListPending(ctx context.Context) ([]models.EventRegistration, error) {
	ctx = ensureContext(ctx)

	var registrations []models.EventRegistration
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Event").
		Where("status = ?", models.RegistrationPending).
		Order("created_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, fmt.Errorf("registration service: list pending registrations: %w", err)
	}
	return registrations, nil
}

// SetStatus approves or rejects a registration, keeping the event's
// participant counter in step.
func (s *RegistrationService) SetStatus(ctx context.Context, registrationID uint, status string) (*models.EventRegistration, error) {
	ctx = ensureContext(ctx)

	if status != models.RegistrationApproved && status != models.RegistrationRejected {
		return nil, apperrors.NewBadRequest("status must be approved or rejected")
	}

	var registration models.EventRegistration
	err := s.db.WithContext(ctx).Preload("Event").First(&registration, registrationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registration service: find registration: %w", err)
	}

	if registration.Status == status {
		return &registration, nil
	}

	wasApproved := registration.Status == models.RegistrationApproved

	if status == models.RegistrationApproved && registration.Event != nil && !registration.Event.HasCapacity() {
		return nil, ErrEventFull
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&registration).Update("status", status).Error; err != nil {
			return err
		}
		switch {
		case status == models.RegistrationApproved:
			return claimSlot(tx, registration.EventID)
		case wasApproved:
			return releaseSlot(tx, registration.EventID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registration service: update status: %w", err)
	}

	metrics.EventRegistrations.WithLabelValues(status).Inc()
	registration.Status = status
	return &registration, nil
}

func claimSlot(tx *gorm.DB, eventID uint) error {
	if err := tx.Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("current_participants", gorm.Expr("current_participants + 1")).Error; err != nil {
		return err
	}
	return refreshFullFlag(tx, eventID)
}

func releaseSlot(tx *gorm.DB, eventID uint) error {
	if err := tx.Model(&models.Event{}).
		Where("id = ? AND current_participants > 0", eventID).
		UpdateColumn("current_participants", gorm.Expr("current_participants - 1")).Error; err != nil {
		return err
	}
	return refreshFullFlag(tx, eventID)
}

// refreshFullFlag flips the event between open and full as the counter moves
// across the limit. Other statuses are left alone.
func refreshFullFlag(tx *gorm.DB, eventID uint) error {
	var event models.Event
	if err := tx.First(&event, eventID).Error; err != nil {
		return err
	}

	switch {
	case event.Status == models.EventStatusOpen && !event.HasCapacity():
		return tx.Model(&event).Update("status", models.EventStatusFull).Error
	case event.Status == models.EventStatusFull && event.HasCapacity():
		return tx.Model(&event).Update("status", models.EventStatusOpen).Error
	}
	return nil
}
