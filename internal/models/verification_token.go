package models

import "time"

// Token purposes stored in the shared verification_tokens table.
const (
	TokenTypeVerification  = "verification"
	TokenTypePasswordReset = "password_reset"
)

// VerificationToken holds single-use tokens for email verification and
// password resets. Verification values are opaque UUIDs; reset values are
// signed JWTs. A token is deleted as soon as it is consumed.
type VerificationToken struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Token  string `gorm:"uniqueIndex;not null" json:"-"`
	Type   string `gorm:"not null;index" json:"type"`

	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
