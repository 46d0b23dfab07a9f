package admin

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func tp(t time.Time) *time.Time { return &t }

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	s, err := memstore.New()
	require.NoError(t, err)
	return NewService(s, Config{}, func() time.Time { return now }, nil), s
}

func newUser(t *testing.T, s *memstore.Store, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestTenantCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "ACME_CORP"},
		{"  --hello, world!!  ", "HELLO_WORLD"},
		{"a.b.c", "A_B_C"},
		{"!!!", ""},
		{"abcdefghijklmnopqrstuvwxyz0123", "ABCDEFGHIJKLMNOPQRSTUVWX"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TenantCode(tt.in))
		})
	}
}

func TestRoutePath(t *testing.T) {
	assert.Equal(t, "/oil-gas/well-ops", RoutePath("OIL GAS", "WELL  OPS"))
	assert.Equal(t, "/mining/fleet", RoutePath(" Mining ", "FLEET"))
}

func TestCreateTenantMakesCreatorOwner(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	creator := newUser(t, s, "root@example.com")

	tenant, err := svc.CreateTenant(ctx, creator.ID, TenantInput{Name: "acme corp"})
	require.NoError(t, err)
	assert.Equal(t, "ACME CORP", tenant.Name)
	assert.Equal(t, "ACME_CORP", tenant.Code)
	assert.Equal(t, 1, tenant.SeatLimit)
	assert.True(t, tenant.Active)

	ms, err := s.GetMembership(ctx, tenant.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleOwner, ms.Role)
	assert.Equal(t, model.MembershipActive, ms.Status)

	_, err = svc.CreateTenant(ctx, creator.ID, TenantInput{Name: "Other", Code: "acme-corp"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	_, err = svc.CreateTenant(ctx, creator.ID, TenantInput{Name: "Other", Code: "???"})
	assert.True(t, apperr.HasCode(err, apperr.CodeCodeInvalid))

	_, err = svc.CreateTenant(ctx, creator.ID, TenantInput{Name: "  "})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestCreateTenantRejectsInvertedWindow(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateTenant(context.Background(), "", TenantInput{
		Name:            "Acme",
		LicenseStartsAt: tp(now),
		LicenseEndsAt:   tp(now.AddDate(0, 0, -1)),
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestUpdateTenantPatch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tenant, err := svc.CreateTenant(ctx, "", TenantInput{
		Name:            "Acme",
		SeatLimit:       5,
		LicenseStartsAt: tp(now.AddDate(0, -1, 0)),
		LicenseEndsAt:   tp(now.AddDate(0, 1, 0)),
	})
	require.NoError(t, err)

	var p TenantPatch
	require.NoError(t, json.Unmarshal([]byte(`{"is_active":false,"license_ends_at":null}`), &p))
	updated, err := svc.UpdateTenant(ctx, tenant.ID, p)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Nil(t, updated.LicenseEndsAt)
	require.NotNil(t, updated.LicenseStartsAt)
	assert.Equal(t, 5, updated.SeatLimit)
	assert.Equal(t, "ACME", updated.Name)

	p = TenantPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"license_ends_at":"2026-01-31","code":"new code"}`), &p))
	updated, err = svc.UpdateTenant(ctx, tenant.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "NEW_CODE", updated.Code)
	require.NotNil(t, updated.LicenseEndsAt)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *updated.LicenseEndsAt)

	_, err = svc.UpdateTenant(ctx, "missing", TenantPatch{})
	assert.True(t, apperr.HasCode(err, apperr.CodeTenantNotFound))
}

func TestListTenantsVisibility(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	alice := newUser(t, s, "alice@example.com")
	bob := newUser(t, s, "bob@example.com")

	a, err := svc.CreateTenant(ctx, alice.ID, TenantInput{Name: "Alpha"})
	require.NoError(t, err)
	_, err = svc.CreateTenant(ctx, bob.ID, TenantInput{Name: "Beta"})
	require.NoError(t, err)

	all, err := svc.ListTenants(ctx, invite.Actor{UserID: alice.ID, IsSuperAdmin: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListTenants(ctx, invite.Actor{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)
}

func TestDeleteTenantCascades(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	tenant, err := svc.CreateTenant(ctx, owner.ID, TenantInput{Name: "Gone"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTenant(ctx, tenant.ID))
	_, err = s.GetMembership(ctx, tenant.ID, owner.ID)
	assert.Error(t, err)
	assert.True(t, apperr.HasCode(svc.DeleteTenant(ctx, tenant.ID), apperr.CodeTenantNotFound))
}

func TestIndustryLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ind, err := svc.CreateIndustry(ctx, IndustryInput{Code: "oil gas", Name: "Oil and gas"})
	require.NoError(t, err)
	assert.Equal(t, "OIL GAS", ind.Code)
	assert.Equal(t, "OIL AND GAS", ind.Name)
	assert.Equal(t, 100, ind.SortOrder)
	assert.True(t, ind.Active)

	_, err = svc.CreateIndustry(ctx, IndustryInput{Code: "Oil Gas", Name: "Dup"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	mod, err := svc.CreateModule(ctx, ModuleInput{IndustryID: ind.ID, Code: "well ops", Name: "Well operations"})
	require.NoError(t, err)
	assert.Equal(t, "/oil-gas/well-ops", mod.RoutePath)
	assert.True(t, mod.IsAddon)
	assert.True(t, mod.Active)

	err = svc.DeleteIndustry(ctx, ind.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	code := "upstream"
	_, err = svc.UpdateIndustry(ctx, ind.ID, IndustryPatch{Code: &code})
	require.NoError(t, err)
	mods, err := svc.ListModules(ctx, ind.ID)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "/upstream/well-ops", mods[0].RoutePath)

	require.NoError(t, svc.DeleteModule(ctx, mod.ID))
	require.NoError(t, svc.DeleteIndustry(ctx, ind.ID))
	assert.True(t, apperr.HasCode(svc.DeleteIndustry(ctx, ind.ID), apperr.CodeIndustryNotFound))
}

func TestUpdateModuleReroutes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	mining, err := svc.CreateIndustry(ctx, IndustryInput{Code: "MINING", Name: "Mining"})
	require.NoError(t, err)
	energy, err := svc.CreateIndustry(ctx, IndustryInput{Code: "ENERGY", Name: "Energy"})
	require.NoError(t, err)
	mod, err := svc.CreateModule(ctx, ModuleInput{IndustryID: mining.ID, Code: "FLEET", Name: "Fleet"})
	require.NoError(t, err)

	desc := "Haul trucks"
	updated, err := svc.UpdateModule(ctx, mod.ID, ModulePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "/mining/fleet", updated.RoutePath)
	assert.Equal(t, "Haul trucks", updated.Description)

	updated, err = svc.UpdateModule(ctx, mod.ID, ModulePatch{IndustryID: &energy.ID})
	require.NoError(t, err)
	assert.Equal(t, "/energy/fleet", updated.RoutePath)

	missing := "nope"
	_, err = svc.UpdateModule(ctx, mod.ID, ModulePatch{IndustryID: &missing})
	assert.True(t, apperr.HasCode(err, apperr.CodeIndustryNotFound))

	_, err = svc.CreateModule(ctx, ModuleInput{IndustryID: "nope", Code: "X", Name: "X"})
	assert.True(t, apperr.HasCode(err, apperr.CodeIndustryNotFound))
}

func TestRegistryListsActiveOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	off := false
	on, err := svc.CreateIndustry(ctx, IndustryInput{Code: "ON", Name: "On"})
	require.NoError(t, err)
	_, err = svc.CreateIndustry(ctx, IndustryInput{Code: "OFF", Name: "Off", Active: &off})
	require.NoError(t, err)
	_, err = svc.CreateModule(ctx, ModuleInput{IndustryID: on.ID, Code: "A", Name: "A"})
	require.NoError(t, err)
	_, err = svc.CreateModule(ctx, ModuleInput{IndustryID: on.ID, Code: "B", Name: "B", Active: &off})
	require.NoError(t, err)

	reg, err := svc.Registry(ctx)
	require.NoError(t, err)
	require.Len(t, reg, 1)
	assert.Equal(t, "ON", reg[0].Code)
	require.Len(t, reg[0].Modules, 1)
	assert.Equal(t, "A", reg[0].Modules[0].Code)
}

func TestUpsertGrant(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tenant, err := svc.CreateTenant(ctx, "", TenantInput{Name: "Acme"})
	require.NoError(t, err)
	ind, err := svc.CreateIndustry(ctx, IndustryInput{Code: "MINING", Name: "Mining"})
	require.NoError(t, err)
	other, err := svc.CreateIndustry(ctx, IndustryInput{Code: "ENERGY", Name: "Energy"})
	require.NoError(t, err)
	mod, err := svc.CreateModule(ctx, ModuleInput{IndustryID: ind.ID, Code: "FLEET", Name: "Fleet"})
	require.NoError(t, err)
	grid, err := svc.CreateModule(ctx, ModuleInput{IndustryID: other.ID, Code: "GRID", Name: "Grid"})
	require.NoError(t, err)

	g, err := svc.UpsertGrant(ctx, tenant.ID, mod.ID, GrantPatch{})
	require.NoError(t, err)
	assert.Equal(t, model.GrantDisabled, g.Status)
	assert.Equal(t, 1, g.SeatLimit)
	firstID := g.ID

	var p GrantPatch
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ACTIVE","starts_at":"2025-06-01","ends_at":"2025-12-31"}`), &p))
	g, err = svc.UpsertGrant(ctx, tenant.ID, mod.ID, p)
	require.NoError(t, err)
	assert.Equal(t, firstID, g.ID)
	assert.Equal(t, model.GrantActive, g.Status)
	require.NotNil(t, g.EndsAt)

	seats := 4
	g, err = svc.UpsertGrant(ctx, tenant.ID, mod.ID, GrantPatch{SeatLimit: &seats})
	require.NoError(t, err)
	assert.Equal(t, 4, g.SeatLimit)
	assert.Equal(t, model.GrantActive, g.Status)
	assert.NotNil(t, g.StartsAt)

	zero := 0
	_, err = svc.UpsertGrant(ctx, tenant.ID, mod.ID, GrantPatch{SeatLimit: &zero})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	bad := model.GrantStatus("PAUSED")
	_, err = svc.UpsertGrant(ctx, tenant.ID, mod.ID, GrantPatch{Status: &bad})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = svc.UpsertGrant(ctx, tenant.ID, "nope", GrantPatch{})
	assert.True(t, apperr.HasCode(err, apperr.CodeModuleNotFound))

	_, err = svc.UpsertGrant(ctx, tenant.ID, grid.ID, GrantPatch{})
	require.NoError(t, err)

	views, err := svc.ListGrants(ctx, tenant.ID, "")
	require.NoError(t, err)
	assert.Len(t, views, 2)

	views, err = svc.ListGrants(ctx, tenant.ID, ind.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, mod.ID, views[0].ModuleID)
	assert.Equal(t, model.GrantActive, views[0].EffectiveStatus)
}

func TestUsers(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, UserInput{Email: "  Jane.Doe@Example.COM ", Name: " Jane "})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", u.Email)
	assert.Equal(t, "Jane", u.Name)
	assert.False(t, u.HasPassword())

	_, err = svc.CreateUser(ctx, UserInput{Email: "JANE.DOE@example.com"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	_, err = svc.CreateUser(ctx, UserInput{Email: "not-an-email"})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	renamed, err := svc.RenameUser(ctx, u.ID, "Jane D.")
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", renamed.Name)

	assert.True(t, apperr.HasCode(svc.DeleteUser(ctx, u.ID, u.ID), apperr.CodeCannotDeleteSelf))

	admin := newUser(t, s, "admin@example.com")
	require.NoError(t, svc.DeleteUser(ctx, admin.ID, u.ID))
	assert.True(t, apperr.HasCode(svc.DeleteUser(ctx, admin.ID, u.ID), apperr.CodeUserNotFound))
}

func TestRevokeMembershipAndListInvites(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	viewer := newUser(t, s, "viewer@example.com")

	tenant, err := svc.CreateTenant(ctx, owner.ID, TenantInput{Name: "Acme"})
	require.NoError(t, err)
	require.NoError(t, s.ActivateMembership(ctx, tenant.ID, viewer.ID, model.RoleViewer))

	require.NoError(t, s.CreateInvite(ctx, &model.Invite{
		TenantID:  tenant.ID,
		Email:     "new@example.com",
		Role:      model.RoleEditor,
		TokenHash: "token-hash-secret",
		ExpiresAt: now.Add(-time.Hour),
	}))

	ownerActor := invite.Actor{UserID: owner.ID}
	viewerActor := invite.Actor{UserID: viewer.ID}

	_, err = svc.ListInvites(ctx, viewerActor, tenant.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	invites, err := svc.ListInvites(ctx, ownerActor, tenant.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, model.InviteExpired, invites[0].State)

	raw, err := json.Marshal(invites[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "token-hash-secret")

	assert.True(t, apperr.HasCode(svc.RevokeMembership(ctx, viewerActor, tenant.ID, owner.ID), apperr.CodeForbidden))
	require.NoError(t, svc.RevokeMembership(ctx, ownerActor, tenant.ID, viewer.ID))

	ms, err := s.GetMembership(ctx, tenant.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipDisabled, ms.Status)

	members, err := svc.ListMembers(ctx, ownerActor, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	err = svc.RevokeMembership(ctx, ownerActor, tenant.ID, "stranger")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = svc.ListMembers(ctx, invite.Actor{IsSuperAdmin: true}, "missing")
	assert.True(t, apperr.HasCode(err, apperr.CodeTenantNotFound))
}

func TestDashboard(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")

	mk := func(name string, seats int, start, end *time.Time) {
		_, err := svc.CreateTenant(ctx, owner.ID, TenantInput{
			Name: name, SeatLimit: seats, LicenseStartsAt: start, LicenseEndsAt: end,
		})
		require.NoError(t, err)
	}
	mk("Current", 3, tp(now.AddDate(0, -1, 0)), tp(now.AddDate(0, 6, 0)))
	mk("Soon", 2, tp(now.AddDate(0, -1, 0)), tp(now.AddDate(0, 0, 10)))
	mk("Sooner", 1, nil, tp(now.AddDate(0, 0, 3)))
	mk("Expired", 4, tp(now.AddDate(-1, 0, 0)), tp(now.AddDate(0, 0, -1)))
	mk("Open", 5, nil, nil)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, d.TotalTenants)
	assert.Equal(t, 15, d.TotalSeats)
	assert.EqualValues(t, 5, d.ActiveMemberships)
	assert.Equal(t, 14, d.ExpiringSoonDays)

	var active []string
	for _, tn := range d.ActiveTenants {
		active = append(active, tn.Name)
	}
	assert.ElementsMatch(t, []string{"CURRENT", "SOON"}, active)

	require.Len(t, d.ExpiringTenants, 2)
	assert.Equal(t, "SOONER", d.ExpiringTenants[0].Name)
	assert.Equal(t, "SOON", d.ExpiringTenants[1].Name)
}
