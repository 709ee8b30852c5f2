package models

import "gorm.io/gorm"

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	FullName string `json:"full_name"`
}

type UserRole struct {
	gorm.Model
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Role   string `gorm:"type:varchar(16);not null" json:"role"`
}
