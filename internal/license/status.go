package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/internal/window"
	"go.uber.org/zap"
)

// State is the outcome of a license status evaluation
type State string

const (
	StateActive                State = "ACTIVE"
	StateTenantNoLicense       State = "TENANT_NO_LICENSE"
	StateTenantLicenseInactive State = "TENANT_LICENSE_INACTIVE"
	StateUserNoAccess          State = "USER_NO_ACCESS"
	StateUserAccessInactive    State = "USER_ACCESS_INACTIVE"
)

// Status is what a signed-in user sees about their license
type Status struct {
	State           State      `json:"state"`
	EffectiveEndsAt *time.Time `json:"effective_ends_at"`
	TenantID        string     `json:"tenant_id"`
	TenantName      string     `json:"tenant_name,omitempty"`
	TenantCode      string     `json:"tenant_code,omitempty"`
	Role            model.Role `json:"role"`
}

// StatusReader is the slice of the store the evaluator needs
type StatusReader interface {
	GrantReader
	LatestActiveMembership(ctx context.Context, userID string) (*model.Membership, error)
	GetTenant(ctx context.Context, id string) (*model.Tenant, error)
}

// Evaluator computes license status for users
type Evaluator struct {
	store StatusReader
	now   func() time.Time
	log   *zap.Logger
}

// NewEvaluator creates an evaluator. A nil clock defaults to time.Now.
func NewEvaluator(s StatusReader, now func() time.Time, log *zap.Logger) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{store: s, now: now, log: log}
}

// Evaluate reports the license status of the user's most recent ACTIVE membership
func (e *Evaluator) Evaluate(ctx context.Context, userID string) (Status, error) {
	m, err := e.store.LatestActiveMembership(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return Status{}, apperr.New(apperr.CodeNoActiveMembership, "user has no active membership")
	}
	if err != nil {
		return Status{}, fmt.Errorf("load membership: %w", err)
	}

	tenant := m.Tenant
	if tenant == nil {
		if tenant, err = e.store.GetTenant(ctx, m.TenantID); err != nil {
			return Status{}, fmt.Errorf("load tenant %s: %w", m.TenantID, err)
		}
	}

	tenantWindow, licensed, err := e.TenantWindow(ctx, tenant)
	if err != nil {
		return Status{}, err
	}
	memberWindow := window.Window{Start: m.AccessStartsAt, End: m.AccessEndsAt}

	st := EvaluateWindows(tenantWindow, licensed, memberWindow, e.now())
	st.TenantID = tenant.ID
	st.TenantName = tenant.Name
	st.TenantCode = tenant.Code
	st.Role = m.Role

	e.log.Debug("Evaluated license status",
		zap.String("user_id", userID),
		zap.String("tenant_id", tenant.ID),
		zap.String("state", string(st.State)),
	)
	return st, nil
}

// TenantWindow returns the tenant's license window and whether one exists.
// An explicitly configured window wins. Otherwise the window spans the
// tenant's ACTIVE-status grants, where a grant missing a bound leaves that
// side unbounded.
func (e *Evaluator) TenantWindow(ctx context.Context, t *model.Tenant) (window.Window, bool, error) {
	explicit := window.Window{Start: t.LicenseStartsAt, End: t.LicenseEndsAt}
	if explicit.Defined() {
		return explicit, true, nil
	}

	grants, err := e.store.ListTenantGrants(ctx, t.ID)
	if err != nil {
		return window.Window{}, false, fmt.Errorf("list grants of tenant %s: %w", t.ID, err)
	}
	var (
		spans              []window.Window
		openStart, openEnd bool
	)
	for _, g := range grants {
		if g.Status != model.GrantActive {
			continue
		}
		spans = append(spans, window.Window{Start: g.StartsAt, End: g.EndsAt})
		openStart = openStart || g.StartsAt == nil
		openEnd = openEnd || g.EndsAt == nil
	}
	if len(spans) == 0 {
		return window.Window{}, false, nil
	}
	w := window.Union(spans)
	if openStart {
		w.Start = nil
	}
	if openEnd {
		w.End = nil
	}
	return w, true, nil
}

// EvaluateWindows applies the status rules in order; the first match wins.
// A membership window with neither bound set counts as no access.
func EvaluateWindows(tenant window.Window, licensed bool, member window.Window, now time.Time) Status {
	switch {
	case !licensed:
		return Status{State: StateTenantNoLicense}
	case !tenant.Contains(now):
		return Status{State: StateTenantLicenseInactive}
	case !member.Defined():
		return Status{State: StateUserNoAccess}
	case !member.Contains(now):
		return Status{State: StateUserAccessInactive}
	}
	return Status{
		State:           StateActive,
		EffectiveEndsAt: window.EarliestEnd(tenant.End, member.End),
	}
}
