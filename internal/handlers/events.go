package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aufildessentiers/backend/internal/services"
	apperrors "github.com/aufildessentiers/backend/pkg/errors"
	"github.com/aufildessentiers/backend/pkg/response"
)

// EventHandler exposes the event catalogue and the map search.
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *services.EventService) (*EventHandler, error) {
	if events == nil {
		return nil, errors.New("event handler: event service is required")
	}
	return &EventHandler{events: events}, nil
}

// List serves the public event listing. When lat, lng, and radius are all
// present it switches to the nearby search.
func (h *EventHandler) List(c *gin.Context) {
	lat, hasLat := floatQuery(c, "lat")
	lng, hasLng := floatQuery(c, "lng")
	radius, hasRadius := floatQuery(c, "radius")

	if hasLat || hasLng || hasRadius {
		if !hasLat || !hasLng || !hasRadius {
			response.Error(c, apperrors.NewBadRequest("lat, lng and radius are all required for a nearby search"))
			return
		}

		events, err := h.events.Nearby(c.Request.Context(), services.NearbyOptions{
			Latitude:  lat,
			Longitude: lng,
			RadiusKm:  radius,
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Success(c, http.StatusOK, gin.H{"events": events})
		return
	}

	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	events, total, err := h.events.List(c.Request.Context(), services.ListEventsOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, gin.H{"events": events}, &response.Meta{
		PerPage: limit,
		Total:   int(total),
	})
}

// Get serves a single event including its participant list.
func (h *EventHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event": event})
}

type createEventRequest struct {
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date" validate:"required"`
	Location        string    `json:"location" validate:"required"`
	Latitude        float64   `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64   `json:"longitude" validate:"min=-180,max=180"`
	ImageURL        string    `json:"image_url"`
	MaxParticipants int       `json:"max_participants" validate:"min=0"`
}

// Create records a new event owned by the authenticated user.
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Create(c.Request.Context(), userID, services.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ImageURL:        req.ImageURL,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"event": event})
}

type updateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
	Location        *string    `json:"location"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	ImageURL        *string    `json:"image_url"`
	MaxParticipants *int       `json:"max_participants"`
	Status          *string    `json:"status"`
}

// Update applies a partial edit. Only the creator or an admin may edit.
func (h *EventHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req updateEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Update(c.Request.Context(), actor, id, services.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		ImageURL:        req.ImageURL,
		MaxParticipants: req.MaxParticipants,
		Status:          req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event": event})
}

// Delete soft-deletes an event. Only the creator or an admin may delete.
func (h *EventHandler) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.events.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Événement supprimé."})
}
