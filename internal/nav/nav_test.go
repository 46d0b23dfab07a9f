package nav

import (
	"context"
	"testing"
	"time"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tp(t time.Time) *time.Time { return &t }

type catalog struct {
	t *testing.T
	s *memstore.Store
}

func (c catalog) industry(code, name string, sort int, active bool) *model.Industry {
	i := &model.Industry{Code: code, Name: name, SortOrder: sort, Active: active}
	require.NoError(c.t, c.s.CreateIndustry(context.Background(), i))
	return i
}

func (c catalog) module(ind *model.Industry, code, name, route string, sort int, active bool) *model.Module {
	m := &model.Module{IndustryID: ind.ID, Code: code, Name: name, RoutePath: route, SortOrder: sort, Active: active}
	require.NoError(c.t, c.s.CreateModule(context.Background(), m))
	return m
}

func (c catalog) grant(tenantID string, m *model.Module, status model.GrantStatus, end *time.Time) {
	require.NoError(c.t, c.s.UpsertGrant(context.Background(), &model.TenantModule{
		TenantID: tenantID, ModuleID: m.ID, Status: status, SeatLimit: 1, EndsAt: end,
	}))
}

func setup(t *testing.T) (*memstore.Store, catalog) {
	s, err := memstore.New()
	require.NoError(t, err)
	return s, catalog{t: t, s: s}
}

func activeMember(t *testing.T, s *memstore.Store, tenantID, userID string, start, end *time.Time) {
	require.NoError(t, s.UpsertMembership(context.Background(), &model.Membership{
		TenantID: tenantID, UserID: userID, Role: model.RoleViewer, Status: model.MembershipActive,
		AccessStartsAt: start, AccessEndsAt: end,
	}))
}

func TestResolveFiltersAndOrders(t *testing.T) {
	s, c := setup(t)
	now := day(2025, 5, 1)

	oil := c.industry("OIL", "Oil and Gas", 2, true)
	power := c.industry("POWER", "Power", 1, true)
	retired := c.industry("OLD", "Retired", 0, false)

	c.grant("t1", c.module(oil, "GHG", "Emissions", "/oil/ghg", 10, true), model.GrantActive, nil)
	c.grant("t1", c.module(oil, "FLARE", "Flaring", "/oil/flare", 10, true), model.GrantActive, nil)
	c.grant("t1", c.module(oil, "LAB", "Laboratory", "/oil/lab", 1, true), model.GrantActive, tp(day(2025, 12, 31)))
	c.grant("t1", c.module(oil, "HIDDEN", "Hidden", "", 0, true), model.GrantActive, nil)
	c.grant("t1", c.module(oil, "OFF", "Switched off", "/oil/off", 0, false), model.GrantActive, nil)
	c.grant("t1", c.module(oil, "EXPIRED", "Expired", "/oil/expired", 0, true), model.GrantActive, tp(day(2025, 4, 30)))
	c.grant("t1", c.module(oil, "LAPSED", "Lapsed", "/oil/lapsed", 0, true), model.GrantActive, tp(now.Add(-time.Second)))
	c.grant("t1", c.module(oil, "LASTDAY", "Last day", "/oil/lastday", 5, true), model.GrantActive, tp(now))
	c.grant("t1", c.module(oil, "DISABLED", "Disabled", "/oil/disabled", 0, true), model.GrantDisabled, nil)
	c.grant("t1", c.module(power, "GRID", "Grid", "/power/grid", 0, true), model.GrantActive, nil)
	c.grant("t1", c.module(retired, "LEGACY", "Legacy", "/old/legacy", 0, true), model.GrantActive, nil)
	c.module(power, "UNGRANTED", "Ungranted", "/power/ungranted", 0, true)

	activeMember(t, s, "t1", "u1", tp(day(2025, 1, 1)), tp(day(2025, 12, 31)))

	groups, err := NewResolver(s, nil).Resolve(context.Background(), "u1", "t1", now)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "POWER", groups[0].IndustryCode)
	assert.Equal(t, []Module{{Code: "GRID", Name: "Grid", RoutePath: "/power/grid", SortOrder: 0}}, groups[0].Modules)

	assert.Equal(t, "OIL", groups[1].IndustryCode)
	var codes []string
	for _, m := range groups[1].Modules {
		codes = append(codes, m.Code)
	}
	assert.Equal(t, []string{"LAB", "LASTDAY", "GHG", "FLARE"}, codes, "sort order first, then name")

	again, err := NewResolver(s, nil).Resolve(context.Background(), "u1", "t1", now)
	require.NoError(t, err)
	assert.Equal(t, groups, again)
}

func TestResolveWithholdsWithoutUsableMembership(t *testing.T) {
	s, c := setup(t)
	now := day(2025, 7, 15)

	oil := c.industry("OIL", "Oil", 1, true)
	c.grant("t1", c.module(oil, "GHG", "Emissions", "/oil/ghg", 0, true), model.GrantActive, nil)
	r := NewResolver(s, nil)

	groups, err := r.Resolve(context.Background(), "nobody", "t1", now)
	require.NoError(t, err)
	assert.Empty(t, groups)

	activeMember(t, s, "t1", "expired", tp(day(2025, 1, 1)), tp(day(2025, 6, 30)))
	groups, err = r.Resolve(context.Background(), "expired", "t1", now)
	require.NoError(t, err)
	assert.Empty(t, groups)

	require.NoError(t, s.UpsertMembership(context.Background(), &model.Membership{
		TenantID: "t1", UserID: "invited", Role: model.RoleViewer, Status: model.MembershipInvited,
	}))
	groups, err = r.Resolve(context.Background(), "invited", "t1", now)
	require.NoError(t, err)
	assert.Empty(t, groups)

	activeMember(t, s, "t1", "boundary", tp(day(2025, 1, 1)), tp(now))
	groups, err = r.Resolve(context.Background(), "boundary", "t1", now)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}
