package admin

import (
	"cmp"
	"context"
	"slices"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/window"
)

// Dashboard summarizes platform licensing
type Dashboard struct {
	TotalTenants      int            `json:"total_tenants"`
	TotalSeats        int            `json:"total_seats"`
	ActiveMemberships int64          `json:"active_memberships"`
	ActiveTenants     []model.Tenant `json:"active_tenants"`
	ExpiringTenants   []model.Tenant `json:"expiring_tenants"`
	ExpiringSoonDays  int            `json:"expiring_soon_days"`
}

// Dashboard computes totals, tenants whose explicit license window is
// current, and tenants whose license ends within ExpiringSoonDays from now
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.store.CountActiveMemberships(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	horizon := window.AddDays(now, s.cfg.ExpiringSoonDays)
	d := &Dashboard{
		TotalTenants:      len(tenants),
		ActiveMemberships: members,
		ActiveTenants:     []model.Tenant{},
		ExpiringTenants:   []model.Tenant{},
		ExpiringSoonDays:  s.cfg.ExpiringSoonDays,
	}
	for _, t := range tenants {
		d.TotalSeats += t.SeatLimit
		if t.LicenseStartsAt != nil && t.LicenseEndsAt != nil &&
			window.IsNowWithin(t.LicenseStartsAt, t.LicenseEndsAt, now) {
			d.ActiveTenants = append(d.ActiveTenants, t)
		}
		if t.LicenseEndsAt != nil && !t.LicenseEndsAt.Before(now) && !t.LicenseEndsAt.After(horizon) {
			d.ExpiringTenants = append(d.ExpiringTenants, t)
		}
	}
	slices.SortStableFunc(d.ExpiringTenants, func(a, b model.Tenant) int {
		return cmp.Compare(a.LicenseEndsAt.UnixNano(), b.LicenseEndsAt.UnixNano())
	})
	return d, nil
}
