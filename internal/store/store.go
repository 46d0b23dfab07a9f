// Package store defines the record store consumed by the licensing engine.
// Two implementations exist: gormstore (PostgreSQL, SQLite in tests) and
// memstore (go-memdb, used for local runs and engine tests).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/boskojeremic/iflowx/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = errors.New("record conflicts with an existing one")
)

// Store is the full record store. Every method must be safe for concurrent use.
type Store interface {
	// Tx runs fn inside a transaction. fn receives a Store bound to that
	// transaction; returning an error rolls everything back.
	Tx(ctx context.Context, fn func(tx Store) error) error

	TenantStore
	CatalogStore
	GrantStore
	UserStore
	MembershipStore
	InviteStore
}

// TenantStore persists tenants
type TenantStore interface {
	CreateTenant(ctx context.Context, t *model.Tenant) error
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	// ListTenantsForUser returns tenants where the user holds an ACTIVE membership
	ListTenantsForUser(ctx context.Context, userID string) ([]model.Tenant, error)
	UpdateTenant(ctx context.Context, t *model.Tenant) error
	// DeleteTenant removes the tenant and every row scoped to it, in
	// TenantScopedTables order, inside one transaction.
	DeleteTenant(ctx context.Context, id string) error
}

// CatalogStore persists industries and modules
type CatalogStore interface {
	CreateIndustry(ctx context.Context, i *model.Industry) error
	GetIndustry(ctx context.Context, id string) (*model.Industry, error)
	ListIndustries(ctx context.Context) ([]model.Industry, error)
	UpdateIndustry(ctx context.Context, i *model.Industry) error
	DeleteIndustry(ctx context.Context, id string) error

	CreateModule(ctx context.Context, m *model.Module) error
	GetModule(ctx context.Context, id string) (*model.Module, error)
	// ListModules returns modules of one industry, or all when industryID is empty
	ListModules(ctx context.Context, industryID string) ([]model.Module, error)
	UpdateModule(ctx context.Context, m *model.Module) error
	DeleteModule(ctx context.Context, id string) error
}

// GrantStore persists tenant module grants
type GrantStore interface {
	// UpsertGrant inserts or replaces the grant identified by (TenantID, ModuleID)
	UpsertGrant(ctx context.Context, g *model.TenantModule) error
	GetGrant(ctx context.Context, tenantID, moduleID string) (*model.TenantModule, error)
	// ListTenantGrants returns every grant of the tenant with Module and
	// Module.Industry populated. Date filtering is left to the caller.
	ListTenantGrants(ctx context.Context, tenantID string) ([]model.TenantModule, error)
}

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// EnsureUser returns the user with email, inserting a passwordless row
	// when none exists. Concurrent calls for one email resolve to one user.
	EnsureUser(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	// DeleteUser removes the user's memberships and then the user
	DeleteUser(ctx context.Context, id string) error
	// SetPasswordIfUnset stores hash only when the user has no password yet.
	// It reports whether the row was updated.
	SetPasswordIfUnset(ctx context.Context, userID, hash string) (bool, error)
	// SetPassword overwrites the password hash unconditionally
	SetPassword(ctx context.Context, userID, hash string) error
}

// MembershipStore persists memberships
type MembershipStore interface {
	// UpsertMembership inserts the membership or, when (TenantID, UserID)
	// exists, overwrites role, status, access window and creator.
	UpsertMembership(ctx context.Context, m *model.Membership) error
	// ActivateMembership sets role and status ACTIVE for (tenantID, userID),
	// creating the row when missing. The stored access window is kept.
	ActivateMembership(ctx context.Context, tenantID, userID string, role model.Role) error
	GetMembership(ctx context.Context, tenantID, userID string) (*model.Membership, error)
	ListMemberships(ctx context.Context, tenantID string) ([]model.Membership, error)
	// LatestActiveMembership returns the most recently created ACTIVE membership of the user
	LatestActiveMembership(ctx context.Context, userID string) (*model.Membership, error)
	// CountTenantAdmins counts OWNER and ADMIN memberships that are not DISABLED
	CountTenantAdmins(ctx context.Context, tenantID string) (int64, error)
	SetMembershipStatus(ctx context.Context, tenantID, userID string, status model.MembershipStatus) error
	CountActiveMemberships(ctx context.Context) (int64, error)
}

// InviteStore persists invites
type InviteStore interface {
	CreateInvite(ctx context.Context, i *model.Invite) error
	GetInviteByTokenHash(ctx context.Context, tokenHash string) (*model.Invite, error)
	ListInvites(ctx context.Context, tenantID string) ([]model.Invite, error)
	// MarkInviteAccepted sets AcceptedAt only while it is still unset and
	// reports whether this call won.
	MarkInviteAccepted(ctx context.Context, inviteID string, at time.Time) (bool, error)
}

// TenantScopedTables lists, in deletion order, every table holding rows
// keyed by tenant_id. The tenant row itself is deleted last.
var TenantScopedTables = []string{
	"invites",
	"memberships",
	"tenant_modules",
}
