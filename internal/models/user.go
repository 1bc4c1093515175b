package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Lifecycle statuses. Only active users may log in.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusBanned  = "banned"
)

// User describes a platform account. Email is the login key and is always
// stored lowercase.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `gorm:"not null" json:"name"`

	Role   string `gorm:"default:user;not null" json:"role"`
	Status string `gorm:"default:pending;not null;index" json:"status"`

	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	Registrations []EventRegistration `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave normalises the email so lookups never depend on the store's
// collation.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
