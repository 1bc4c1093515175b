package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BlogArticle is a published post. Tags are stored as a JSON array.
type BlogArticle struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Slug    string `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt string `json:"excerpt"`
	Content string `gorm:"type:text" json:"content"`

	ImageURL string         `json:"image_url"`
	Tags     datatypes.JSON `json:"tags"`

	AuthorID uint  `gorm:"not null;index" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	PublishedAt *time.Time `gorm:"index" json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
