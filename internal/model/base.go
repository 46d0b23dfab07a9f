package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.NewString()
}

// ensureID fills an empty primary key before insert
func ensureID(id *string) {
	if *id == "" {
		*id = NewID()
	}
}

// BeforeCreate hooks below assign ids the same way for every table

func (t *Tenant) BeforeCreate(tx *gorm.DB) error       { ensureID(&t.ID); return nil }
func (i *Industry) BeforeCreate(tx *gorm.DB) error     { ensureID(&i.ID); return nil }
func (m *Module) BeforeCreate(tx *gorm.DB) error       { ensureID(&m.ID); return nil }
func (g *TenantModule) BeforeCreate(tx *gorm.DB) error { ensureID(&g.ID); return nil }
func (m *Membership) BeforeCreate(tx *gorm.DB) error   { ensureID(&m.ID); return nil }
func (i *Invite) BeforeCreate(tx *gorm.DB) error       { ensureID(&i.ID); return nil }
func (u *User) BeforeCreate(tx *gorm.DB) error         { ensureID(&u.ID); return nil }

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tenant{},
		&Industry{},
		&Module{},
		&TenantModule{},
		&Membership{},
		&Invite{},
	}
}
