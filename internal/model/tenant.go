package model

import (
	"time"
)

// Tenant represents a licensed customer organization
type Tenant struct {
	ID              string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name            string     `json:"name" gorm:"type:varchar(100);not null"`
	Code            string     `json:"code" gorm:"type:varchar(24);uniqueIndex;not null"`
	Active          bool       `json:"is_active" gorm:"not null"`
	SeatLimit       int        `json:"seat_limit" gorm:"not null;default:1"`
	LicenseStartsAt *time.Time `json:"license_starts_at"`
	LicenseEndsAt   *time.Time `json:"license_ends_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
