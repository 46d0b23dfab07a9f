// Package license derives license and access windows from module grants and
// evaluates a user's license status. Nothing here writes to the store.
package license

import (
	"context"
	"fmt"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/window"
)

// GrantReader is the slice of the store the resolver needs
type GrantReader interface {
	ListTenantGrants(ctx context.Context, tenantID string) ([]model.TenantModule, error)
}

// Resolver answers which grants of a tenant are usable right now
type Resolver struct {
	grants GrantReader
	now    func() time.Time
}

// NewResolver creates a resolver. A nil clock defaults to time.Now.
func NewResolver(grants GrantReader, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{grants: grants, now: now}
}

// ActiveGrants returns the tenant's effectively active grants
func (r *Resolver) ActiveGrants(ctx context.Context, tenantID string) ([]model.TenantModule, error) {
	return r.ActiveGrantsAt(ctx, tenantID, r.now())
}

// ActiveGrantsAt is ActiveGrants against an explicit instant
func (r *Resolver) ActiveGrantsAt(ctx context.Context, tenantID string, now time.Time) ([]model.TenantModule, error) {
	grants, err := r.grants.ListTenantGrants(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list grants of tenant %s: %w", tenantID, err)
	}
	active := make([]model.TenantModule, 0, len(grants))
	for _, g := range grants {
		if g.EffectivelyActive(now) {
			active = append(active, g)
		}
	}
	return active, nil
}

// ComputeAccessWindow derives the access window a new member of the tenant
// receives: the earliest start and latest end across active grants. Grants
// without an end do not extend the window; if none has an end the window is
// rejected with NO_END_DEFINED.
func (r *Resolver) ComputeAccessWindow(ctx context.Context, tenantID string) (window.Window, error) {
	now := r.now()
	active, err := r.ActiveGrantsAt(ctx, tenantID, now)
	if err != nil {
		return window.Window{}, err
	}
	if len(active) == 0 {
		return window.Window{}, apperr.New(apperr.CodeNoLicensedModules, "tenant has no active module grants")
	}

	spans := make([]window.Window, 0, len(active))
	for _, g := range active {
		spans = append(spans, window.Window{Start: g.StartsAt, End: g.EndsAt})
	}
	w := window.Union(spans)
	if w.End == nil {
		return window.Window{}, apperr.New(apperr.CodeNoEndDefined, "no active grant defines an end date")
	}
	if w.Start == nil {
		start := now
		w.Start = &start
	}
	return w, nil
}
