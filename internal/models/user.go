package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity record: a display name and a username, nothing
// more. Logins are passwordless; the username is matched
// case-insensitively but stored with its original case.
type User struct {
	Username string `json:"username" gorm:"primaryKey;size:20" validate:"required,min=3,max=20"`
	Name     string `json:"name" gorm:"not null;size:50" validate:"required,min=1,max=50"`

	TotalAttempts int `json:"total_attempts" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
