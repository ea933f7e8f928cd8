package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"size:255" json:"full_name"`
	Username string `gorm:"uniqueIndex;size:150" json:"username"`
	Password string `gorm:"size:255" json:"-"` // store hashed password, never return in JSON
	Phone    string `gorm:"size:32" json:"phone,omitempty"`
	Role     string `gorm:"size:64" json:"role"`

	IsAccountLocked bool `gorm:"default:false" json:"-"`

	SessionToken   *string    `gorm:"size:128;index" json:"-"`
	SessionExpires *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
