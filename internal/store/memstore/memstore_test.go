package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestUniqueIndexesRejectDuplicates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTenant(ctx, &model.Tenant{Name: "ACME", Code: "ACME"}))
	assert.ErrorIs(t, s.CreateTenant(ctx, &model.Tenant{Name: "ACME 2", Code: "ACME"}), store.ErrConflict)

	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "a@acme.test"}))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Email: "A@acme.test"}), store.ErrConflict)

	u, err := s.GetUserByEmail(ctx, "A@ACME.TEST")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.test", u.Email)
}

func TestEnsureUserConcurrently(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ids := make([]string, 8)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.EnsureUser(ctx, "same@acme.test")
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tenant := &model.Tenant{Name: "ACME", Code: "ACME"}
	require.NoError(t, s.CreateTenant(ctx, tenant))
	tenant.Name = "MUTATED"

	got, err := s.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Name)
	got.Name = "AGAIN"

	again, err := s.GetTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME", again.Name)
}

func TestTxAbortDiscardsWrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.Tx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.CreateTenant(ctx, &model.Tenant{Name: "ACME", Code: "ACME"}))
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	tenants, err := s.ListTenants(ctx)
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestMarkInviteAcceptedConcurrently(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	inv := &model.Invite{TenantID: "t1", Email: "a@acme.test", Role: model.RoleViewer,
		TokenHash: "hash", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateInvite(ctx, inv))

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.MarkInviteAccepted(ctx, inv.ID, time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestUpsertsKeepIdentity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ind := &model.Industry{Code: "OIL", Name: "OIL", Active: true}
	require.NoError(t, s.CreateIndustry(ctx, ind))
	mod := &model.Module{IndustryID: ind.ID, Code: "GHG", Name: "Emissions", RoutePath: "/oil/ghg", Active: true}
	require.NoError(t, s.CreateModule(ctx, mod))

	g1 := &model.TenantModule{TenantID: "t1", ModuleID: mod.ID, Status: model.GrantDisabled, SeatLimit: 1}
	require.NoError(t, s.UpsertGrant(ctx, g1))
	g2 := &model.TenantModule{TenantID: "t1", ModuleID: mod.ID, Status: model.GrantActive, SeatLimit: 2}
	require.NoError(t, s.UpsertGrant(ctx, g2))
	assert.Equal(t, g1.ID, g2.ID)
	require.NotNil(t, g2.Module)
	require.NotNil(t, g2.Module.Industry)

	grants, err := s.ListTenantGrants(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, model.GrantActive, grants[0].Status)

	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertMembership(ctx, &model.Membership{TenantID: "t1", UserID: "u1",
		Role: model.RoleEditor, Status: model.MembershipInvited, AccessEndsAt: &end}))
	require.NoError(t, s.ActivateMembership(ctx, "t1", "u1", model.RoleAdmin))

	m, err := s.GetMembership(ctx, "t1", "u1")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipActive, m.Status)
	assert.Equal(t, model.RoleAdmin, m.Role)
	require.NotNil(t, m.AccessEndsAt)
	assert.True(t, end.Equal(*m.AccessEndsAt))
}

func TestDeleteTenantCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tenant := &model.Tenant{Name: "ACME", Code: "ACME"}
	require.NoError(t, s.CreateTenant(ctx, tenant))
	require.NoError(t, s.UpsertGrant(ctx, &model.TenantModule{TenantID: tenant.ID, ModuleID: "m1", Status: model.GrantActive}))
	require.NoError(t, s.ActivateMembership(ctx, tenant.ID, "u1", model.RoleOwner))
	require.NoError(t, s.CreateInvite(ctx, &model.Invite{TenantID: tenant.ID, Email: "x@acme.test", TokenHash: "h"}))

	require.NoError(t, s.DeleteTenant(ctx, tenant.ID))

	grants, _ := s.ListTenantGrants(ctx, tenant.ID)
	members, _ := s.ListMemberships(ctx, tenant.ID)
	invites, _ := s.ListInvites(ctx, tenant.ID)
	assert.Empty(t, grants)
	assert.Empty(t, members)
	assert.Empty(t, invites)
	assert.ErrorIs(t, s.DeleteTenant(ctx, tenant.ID), store.ErrNotFound)
}

func TestLatestActiveMembershipPicksNewest(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	older := &model.Tenant{Name: "OLD", Code: "OLD"}
	newer := &model.Tenant{Name: "NEW", Code: "NEW"}
	require.NoError(t, s.CreateTenant(ctx, older))
	require.NoError(t, s.CreateTenant(ctx, newer))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertMembership(ctx, &model.Membership{TenantID: older.ID, UserID: "u1",
		Status: model.MembershipActive, CreatedAt: base}))
	require.NoError(t, s.UpsertMembership(ctx, &model.Membership{TenantID: newer.ID, UserID: "u1",
		Status: model.MembershipActive, CreatedAt: base.Add(time.Hour)}))

	m, err := s.LatestActiveMembership(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, m.TenantID)
	require.NotNil(t, m.Tenant)
	assert.Equal(t, "NEW", m.Tenant.Code)

	_, err = s.LatestActiveMembership(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
