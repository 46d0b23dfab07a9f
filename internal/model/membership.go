package model

import (
	"time"
)

// Role within a tenant
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// ParseRole validates a role label
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return r, true
	}
	return "", false
}

// IsAdmin reports whether the role can administer the tenant
func (r Role) IsAdmin() bool {
	return r == RoleOwner || r == RoleAdmin
}

// MembershipStatus is the lifecycle state of a membership
type MembershipStatus string

const (
	MembershipInvited  MembershipStatus = "INVITED"
	MembershipActive   MembershipStatus = "ACTIVE"
	MembershipDisabled MembershipStatus = "DISABLED"
)

// Membership represents a user's role and access window within a tenant.
// The access window is captured when the invite is issued.
type Membership struct {
	ID              string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID        string           `json:"tenant_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_tenant_user"`
	UserID          string           `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_membership_tenant_user;index"`
	Role            Role             `json:"role" gorm:"type:varchar(20);not null;default:'VIEWER'"`
	Status          MembershipStatus `json:"status" gorm:"type:varchar(20);not null;default:'INVITED'"`
	AccessStartsAt  *time.Time       `json:"access_starts_at"`
	AccessEndsAt    *time.Time       `json:"access_ends_at"`
	CreatedByUserID string           `json:"created_by_user_id" gorm:"type:varchar(36)"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Relations
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
