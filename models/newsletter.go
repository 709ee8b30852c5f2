package models

import (
	"time"

	"gorm.io/gorm"
)

type NewsletterSubscription struct {
	gorm.Model
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Active       bool      `gorm:"default:true" json:"active"`
	UserID       *uint     `gorm:"index" json:"user_id,omitempty"`
	SubscribedAt time.Time `json:"subscribed_at"`
}
