package model

import (
	"time"
)

// InviteState is the derived lifecycle state of an invite
type InviteState string

const (
	InviteCreated  InviteState = "CREATED"
	InviteAccepted InviteState = "ACCEPTED"
	InviteExpired  InviteState = "EXPIRED"
)

// Invite is a single-use token that bootstraps a membership.
// Only the SHA-256 digest of the token is stored.
type Invite struct {
	ID         string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID   string     `json:"tenant_id" gorm:"type:varchar(36);index;not null"`
	Email      string     `json:"email" gorm:"type:varchar(255);index;not null"`
	Role       Role       `json:"role" gorm:"type:varchar(20);not null"`
	TokenHash  string     `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"not null"`
	AcceptedAt *time.Time `json:"accepted_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// State derives the lifecycle state at now. Acceptance wins over expiry.
func (i *Invite) State(now time.Time) InviteState {
	if i.AcceptedAt != nil {
		return InviteAccepted
	}
	if !i.ExpiresAt.After(now) {
		return InviteExpired
	}
	return InviteCreated
}
