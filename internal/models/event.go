package models

import (
	"time"

	"gorm.io/gorm"
)

// Event statuses.
const (
	EventStatusOpen      = "open"
	EventStatusClosed    = "closed"
	EventStatusFull      = "full"
	EventStatusCancelled = "cancelled"
)

// Event is a community outing with a location suitable for map browsing.
type Event struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Date      time.Time `gorm:"not null;index" json:"date"`
	Location  string    `gorm:"not null" json:"location"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	ImageURL  string    `json:"image_url"`

	MaxParticipants     int `gorm:"default:0" json:"max_participants"`
	CurrentParticipants int `gorm:"default:0" json:"current_participants"`

	Status   string `gorm:"default:open;not null;index" json:"status"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedBy uint  `gorm:"not null;index" json:"created_by"`
	Creator   *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`

	Registrations []EventRegistration `gorm:"foreignKey:EventID" json:"registrations,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasCapacity reports whether another participant fits within the limit.
// A zero limit means unlimited.
func (e *Event) HasCapacity() bool {
	return e.MaxParticipants == 0 || e.CurrentParticipants < e.MaxParticipants
}
