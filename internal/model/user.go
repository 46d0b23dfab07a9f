package model

import (
	"time"
)

// User represents a platform account. An empty PasswordHash means the
// account was created by an invite and cannot log in yet.
type User struct {
	ID           string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"type:varchar(100)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255)"`
	IsSuperAdmin bool      `json:"is_super_admin" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the user can authenticate
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
