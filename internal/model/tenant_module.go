package model

import (
	"time"
)

// GrantStatus is the stored status of a module grant
type GrantStatus string

const (
	GrantActive   GrantStatus = "ACTIVE"
	GrantDisabled GrantStatus = "DISABLED"
)

// Valid reports whether s is a known grant status
func (s GrantStatus) Valid() bool {
	return s == GrantActive || s == GrantDisabled
}

// TenantModule is a tenant's license to one module, bounded by an optional window.
// The stored Status alone does not make a grant usable; see EffectiveStatus.
type TenantModule struct {
	ID        string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID  string      `json:"tenant_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_tenant_module"`
	ModuleID  string      `json:"module_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_tenant_module"`
	Status    GrantStatus `json:"status" gorm:"type:varchar(20);not null;default:'DISABLED'"`
	SeatLimit int         `json:"seat_limit" gorm:"not null;default:1"`
	StartsAt  *time.Time  `json:"starts_at"`
	EndsAt    *time.Time  `json:"ends_at"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relations
	Module *Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

// EffectiveStatus derives the usable status of the grant at now
func (g *TenantModule) EffectiveStatus(now time.Time) GrantStatus {
	if g.Status != GrantActive {
		return GrantDisabled
	}
	if g.StartsAt != nil && g.StartsAt.After(now) {
		return GrantDisabled
	}
	if g.EndsAt != nil && g.EndsAt.Before(now) {
		return GrantDisabled
	}
	return GrantActive
}

// EffectivelyActive is shorthand for EffectiveStatus(now) == GrantActive
func (g *TenantModule) EffectivelyActive(now time.Time) bool {
	return g.EffectiveStatus(now) == GrantActive
}
