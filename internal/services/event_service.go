package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aufildessentiers/backend/internal/models"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
)

const earthRadiusKm = 6371.0

var (
	// ErrEventNotFound indicates the requested event does not exist or is inactive.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrNotEventOwner rejects edits by users who neither created the event nor hold the admin role.
	ErrNotEventOwner = apperrors.New("NOT_EVENT_OWNER", "Only the creator or an admin can modify this event", http.StatusForbidden)
)

// CreateEventInput describes the fields accepted when creating an event.
type CreateEventInput struct {
	Title           string
	Description     string
	Date            time.Time
	Location        string
	Latitude        float64
	Longitude       float64
	ImageURL        string
	MaxParticipants int
}

// UpdateEventInput enumerates mutable event attributes.
type UpdateEventInput struct {
	Title           *string
	Description     *string
	Date            *time.Time
	Location        *string
	Latitude        *float64
	Longitude       *float64
	ImageURL        *string
	MaxParticipants *int
	Status          *string
}

// ListEventsOptions controls pagination for the public event listing.
type ListEventsOptions struct {
	Limit  int
	Offset int
}

// NearbyOptions describes a geographic search.
type NearbyOptions struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// EventService manages the event catalogue and its map search.
type EventService struct {
	db *gorm.DB
}

// NewEventService constructs an EventService instance.
func NewEventService(db *gorm.DB) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{db: db}, nil
}

// Create inserts an event owned by the given user.
func (s *EventService) Create(ctx context.Context, creatorID uint, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, apperrors.NewBadRequest("location is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.NewBadRequest("date is required")
	}

	event := &models.Event{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Date:            input.Date,
		Location:        strings.TrimSpace(input.Location),
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		ImageURL:        strings.TrimSpace(input.ImageURL),
		MaxParticipants: input.MaxParticipants,
		Status:          models.EventStatusOpen,
		IsActive:        true,
		CreatedBy:       creatorID,
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("event service: create event: %w", err)
	}
	return event, nil
}

// Get loads a single active event with its creator and participant list.
func (s *EventService) Get(ctx context.Context, id uint) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Registrations").
		Preload("Registrations.User").
		Where("is_active = ?", true).
		First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}
	return &event, nil
}

// List returns active events ordered by date, with the total for pagination.
func (s *EventService) List(ctx context.Context, opts ListEventsOptions) ([]models.Event, int64, error) {
	ctx = ensureContext(ctx)

	limit := opts.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).Model(&models.Event{}).Where("is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: count events: %w", err)
	}

	var events []models.Event
	err := query.
		Order("date ASC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("event service: list events: %w", err)
	}

	return events, total, nil
}

// Nearby returns active events within the given radius, closest first. A
// bounding box narrows the candidates in SQL before the exact distance check.
func (s *EventService) Nearby(ctx context.Context, opts NearbyOptions) ([]models.Event, error) {
	ctx = ensureContext(ctx)

	if opts.RadiusKm <= 0 {
		return nil, apperrors.NewBadRequest("radius must be positive")
	}
	if opts.Latitude < -90 || opts.Latitude > 90 || opts.Longitude < -180 || opts.Longitude > 180 {
		return nil, apperrors.NewBadRequest("invalid coordinates")
	}

	latDelta := opts.RadiusKm / 111.0
	lngDelta := latDelta
	if cosLat := math.Cos(opts.Latitude * math.Pi / 180); cosLat > 0.01 {
		lngDelta = latDelta / cosLat
	}

	var candidates []models.Event
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("latitude BETWEEN ? AND ?", opts.Latitude-latDelta, opts.Latitude+latDelta).
		Where("longitude BETWEEN ? AND ?", opts.Longitude-lngDelta, opts.Longitude+lngDelta).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("event service: nearby search: %w", err)
	}

	type scored struct {
		event    models.Event
		distance float64
	}
	within := make([]scored, 0, len(candidates))
	for _, event := range candidates {
		d := haversineKm(opts.Latitude, opts.Longitude, event.Latitude, event.Longitude)
		if d <= opts.RadiusKm {
			within = append(within, scored{event: event, distance: d})
		}
	}

	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })

	events := make([]models.Event, len(within))
	for i, s := range within {
		events[i] = s.event
	}
	return events, nil
}

// Update applies a partial update. Only the creator or an admin may edit.
func (s *EventService) Update(ctx context.Context, actor *models.User, id uint, input UpdateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	event, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil {
		updates["date"] = *input.Date
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Latitude != nil {
		updates["latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		updates["longitude"] = *input.Longitude
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.MaxParticipants != nil {
		updates["max_participants"] = *input.MaxParticipants
	}
	if input.Status != nil {
		switch *input.Status {
		case models.EventStatusOpen, models.EventStatusClosed, models.EventStatusFull, models.EventStatusCancelled:
			updates["status"] = *input.Status
		default:
			return nil, apperrors.NewBadRequest("unknown event status")
		}
	}

	if len(updates) == 0 {
		return event, nil
	}

	if err := s.db.WithContext(ctx).Model(event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("event service: update event: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-disables an event. Only the creator or an admin may delete.
func (s *EventService) Delete(ctx context.Context, actor *models.User, id uint) error {
	ctx = ensureContext(ctx)

	event, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(event).Update("is_active", false).Error
}

func (s *EventService) loadOwned(ctx context.Context, actor *models.User, id uint) (*models.Event, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	var event models.Event
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}

	if event.CreatedBy != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotEventOwner
	}
	return &event, nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
