package model

import (
	"time"
)

// Industry groups modules in the navigation tree
type Industry struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:100"`
	Active    bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Module is a unit of product functionality that can be licensed on its own
type Module struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	IndustryID  string    `json:"industry_id" gorm:"type:varchar(36);index;not null"`
	Code        string    `json:"code" gorm:"type:varchar(50);not null"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:text"`
	RoutePath   string    `json:"route_path" gorm:"type:varchar(255)"`
	SortOrder   int       `json:"sort_order" gorm:"not null;default:0"`
	IsAddon     bool      `json:"is_addon" gorm:"not null"`
	Active      bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Industry *Industry `json:"industry,omitempty" gorm:"foreignKey:IndustryID"`
}

// Visible reports whether the module can ever appear in navigation
func (m *Module) Visible() bool {
	if m == nil || !m.Active || m.RoutePath == "" {
		return false
	}
	return m.Industry == nil || m.Industry.Active
}
