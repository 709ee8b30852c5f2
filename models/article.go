package models

import (
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrArticleNotFound = errors.New("article not found")

type Category string

const (
	CategoryTech    Category = "tech"
	CategoryCyber   Category = "cyber"
	CategoryGeneral Category = "general"
)

// ParseCategory maps editor and API spellings onto the three categories.
// Unknown values fall back to general.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tech", "technology":
		return CategoryTech
	case "cyber", "cybersecurity", "security":
		return CategoryCyber
	default:
		return CategoryGeneral
	}
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ParsePriority accepts the four known priorities; "" is a valid "no priority".
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "", PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p, true
	}
	return "", false
}

// Rank orders priorities for sorting: critical=4 down to low=1, anything else 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Article struct {
	gorm.Model
	Title           string         `gorm:"not null" json:"title"`
	Excerpt         string         `gorm:"type:text" json:"excerpt"`
	Content         string         `gorm:"type:text" json:"content,omitempty"`
	AuthorName      string         `json:"author_name"`
	Category        Category       `gorm:"type:varchar(16);index" json:"category"`
	Tags            pq.StringArray `gorm:"type:text[]" json:"tags"`
	Priority        Priority       `gorm:"type:varchar(16)" json:"priority,omitempty"`
	ImageURL        string         `gorm:"type:text" json:"image_url,omitempty"`
	Featured        bool           `json:"featured"`
	Published       bool           `gorm:"index" json:"published"`
	PublishedAt     *time.Time     `gorm:"index" json:"published_at,omitempty"`
	Slug            string         `gorm:"uniqueIndex" json:"slug,omitempty"`
	MetaDescription string         `json:"meta_description,omitempty"`
	Keywords        string         `json:"keywords,omitempty"`
	SourceURL       string         `json:"url,omitempty"`

	ReadTime string `gorm:"-" json:"read_time,omitempty"`
	Views    int64  `gorm:"-" json:"views,omitempty"`
}

// Timestamp is the moment used for date ordering: published_at, else created_at.
func (a *Article) Timestamp() time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

// MarkPublished stamps published_at the first time an article goes live.
// It reports whether this call did the stamping.
func (a *Article) MarkPublished(now time.Time) bool {
	if !a.Published || a.PublishedAt != nil {
		return false
	}
	a.PublishedAt = &now
	return true
}
