package models

import (
	"time"

	"gorm.io/gorm"
)

// SourceFeed is an RSS or Atom feed whose newest entry is imported as a draft article.
type SourceFeed struct {
	gorm.Model
	Name        string     `gorm:"not null" json:"name"`
	URL         string     `gorm:"uniqueIndex;not null" json:"url"`
	Category    Category   `gorm:"type:varchar(16)" json:"category"`
	Active      bool       `gorm:"default:true" json:"active"`
	LastFetched *time.Time `json:"last_fetched,omitempty"`
}
