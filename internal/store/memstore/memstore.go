// Package memstore implements store.Store on go-memdb. It backs local runs
// without PostgreSQL and the engine tests. Write transactions are serialized
// by memdb, so conditional updates inside one are atomic.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/hashicorp/go-memdb"
)

// Store is an in-memory record store
type Store struct {
	db  *memdb.MemDB
	txn *memdb.Txn // set when bound to a write transaction
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Tx runs fn in a single memdb write transaction. Nested calls reuse it.
func (s *Store) Tx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.txn != nil {
		return fn(s)
	}
	txn := s.db.Txn(true)
	if err := fn(&Store{db: s.db, txn: txn, now: s.now}); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) write(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(true)
	if err := fn(txn); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

func (s *Store) read(fn func(txn *memdb.Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	return fn(txn)
}

func first[T any](txn *memdb.Txn, table, index string, args ...interface{}) (*T, error) {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	v := *raw.(*T)
	return &v, nil
}

func all[T any](txn *memdb.Txn, table, index string, args ...interface{}) ([]T, error) {
	iter, err := txn.Get(table, index, args...)
	if err != nil {
		return nil, err
	}
	var list []T
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		list = append(list, *raw.(*T))
	}
	return list, nil
}

// unique fails with ErrConflict when index already maps args to a different id
func unique(txn *memdb.Txn, table, index, id string, args ...interface{}) error {
	raw, err := txn.First(table, index, args...)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if idOf(raw) != id {
		return fmt.Errorf("%w: %s.%s", store.ErrConflict, table, index)
	}
	return nil
}

func idOf(raw interface{}) string {
	switch v := raw.(type) {
	case *model.Tenant:
		return v.ID
	case *model.Industry:
		return v.ID
	case *model.Module:
		return v.ID
	case *model.TenantModule:
		return v.ID
	case *model.User:
		return v.ID
	case *model.Membership:
		return v.ID
	case *model.Invite:
		return v.ID
	}
	return ""
}

func exists(txn *memdb.Txn, table, id string) error {
	raw, err := txn.First(table, pk, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return store.ErrNotFound
	}
	return nil
}

func deleteWhere(txn *memdb.Txn, table, index, value string) error {
	if _, err := txn.DeleteAll(table, index, value); err != nil {
		return fmt.Errorf("delete %s by %s: %w", table, index, err)
	}
	return nil
}

func (s *Store) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = model.NewID()
	}
	now := s.now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

// Tenants

func (s *Store) CreateTenant(ctx context.Context, t *model.Tenant) error {
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err := unique(txn, tenantTable, pk, t.ID, t.ID); err != nil {
			return err
		}
		if err := unique(txn, tenantTable, "code", t.ID, t.Code); err != nil {
			return err
		}
		v := *t
		return txn.Insert(tenantTable, &v)
	})
}

func (s *Store) GetTenant(ctx context.Context, id string) (t *model.Tenant, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		t, err = first[model.Tenant](txn, tenantTable, pk, id)
		return err
	})
	return t, err
}

func (s *Store) ListTenants(ctx context.Context) (tenants []model.Tenant, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		tenants, err = all[model.Tenant](txn, tenantTable, pk)
		return err
	})
	slices.SortStableFunc(tenants, func(a, b model.Tenant) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return tenants, err
}

func (s *Store) ListTenantsForUser(ctx context.Context, userID string) (tenants []model.Tenant, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		memberships, err := all[model.Membership](txn, membershipTable, "user_id", userID)
		if err != nil {
			return err
		}
		for _, m := range memberships {
			if m.Status != model.MembershipActive {
				continue
			}
			t, err := first[model.Tenant](txn, tenantTable, pk, m.TenantID)
			if err != nil {
				return err
			}
			tenants = append(tenants, *t)
		}
		return nil
	})
	slices.SortStableFunc(tenants, func(a, b model.Tenant) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return tenants, err
}

func (s *Store) UpdateTenant(ctx context.Context, t *model.Tenant) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, tenantTable, t.ID); err != nil {
			return err
		}
		if err := unique(txn, tenantTable, "code", t.ID, t.Code); err != nil {
			return err
		}
		s.stamp(&t.ID, nil, &t.UpdatedAt)
		v := *t
		return txn.Insert(tenantTable, &v)
	})
}

// DeleteTenant removes tenant-scoped rows table by table, then the tenant
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, tenantTable, id); err != nil {
			return err
		}
		for _, table := range store.TenantScopedTables {
			if err := deleteWhere(txn, table, "tenant_id", id); err != nil {
				return err
			}
		}
		_, err := txn.DeleteAll(tenantTable, pk, id)
		return err
	})
}

// Catalog

func (s *Store) CreateIndustry(ctx context.Context, i *model.Industry) error {
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
		if err := unique(txn, industryTable, "code", i.ID, i.Code); err != nil {
			return err
		}
		v := *i
		return txn.Insert(industryTable, &v)
	})
}

func (s *Store) GetIndustry(ctx context.Context, id string) (i *model.Industry, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		i, err = first[model.Industry](txn, industryTable, pk, id)
		return err
	})
	return i, err
}

func (s *Store) ListIndustries(ctx context.Context) (industries []model.Industry, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		industries, err = all[model.Industry](txn, industryTable, pk)
		return err
	})
	slices.SortStableFunc(industries, func(a, b model.Industry) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.Name, b.Name))
	})
	return industries, err
}

func (s *Store) UpdateIndustry(ctx context.Context, i *model.Industry) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, industryTable, i.ID); err != nil {
			return err
		}
		if err := unique(txn, industryTable, "code", i.ID, i.Code); err != nil {
			return err
		}
		s.stamp(&i.ID, nil, &i.UpdatedAt)
		v := *i
		return txn.Insert(industryTable, &v)
	})
}

func (s *Store) DeleteIndustry(ctx context.Context, id string) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, industryTable, id); err != nil {
			return err
		}
		_, err := txn.DeleteAll(industryTable, pk, id)
		return err
	})
}

func (s *Store) CreateModule(ctx context.Context, m *model.Module) error {
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		v := *m
		v.Industry = nil
		return txn.Insert(moduleTable, &v)
	})
}

func (s *Store) withIndustry(txn *memdb.Txn, m *model.Module) error {
	ind, err := first[model.Industry](txn, industryTable, pk, m.IndustryID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m.Industry = nil
	case err != nil:
		return err
	default:
		m.Industry = ind
	}
	return nil
}

func (s *Store) GetModule(ctx context.Context, id string) (m *model.Module, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		if m, err = first[model.Module](txn, moduleTable, pk, id); err != nil {
			return err
		}
		return s.withIndustry(txn, m)
	})
	return m, err
}

func (s *Store) ListModules(ctx context.Context, industryID string) (modules []model.Module, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		if industryID != "" {
			modules, err = all[model.Module](txn, moduleTable, "industry_id", industryID)
		} else {
			modules, err = all[model.Module](txn, moduleTable, pk)
		}
		if err != nil {
			return err
		}
		for i := range modules {
			if err := s.withIndustry(txn, &modules[i]); err != nil {
				return err
			}
		}
		return nil
	})
	slices.SortStableFunc(modules, func(a, b model.Module) int {
		return cmp.Or(cmp.Compare(a.SortOrder, b.SortOrder), strings.Compare(a.Name, b.Name))
	})
	return modules, err
}

func (s *Store) UpdateModule(ctx context.Context, m *model.Module) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, moduleTable, m.ID); err != nil {
			return err
		}
		s.stamp(&m.ID, nil, &m.UpdatedAt)
		v := *m
		v.Industry = nil
		return txn.Insert(moduleTable, &v)
	})
}

func (s *Store) DeleteModule(ctx context.Context, id string) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, moduleTable, id); err != nil {
			return err
		}
		if err := deleteWhere(txn, grantTable, "module_id", id); err != nil {
			return err
		}
		_, err := txn.DeleteAll(moduleTable, pk, id)
		return err
	})
}

// Grants

func (s *Store) UpsertGrant(ctx context.Context, g *model.TenantModule) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := first[model.TenantModule](txn, grantTable, "tenant_module", g.TenantID, g.ModuleID)
		switch {
		case err == nil:
			g.ID = existing.ID
			g.CreatedAt = existing.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		s.stamp(&g.ID, &g.CreatedAt, &g.UpdatedAt)
		v := *g
		v.Module = nil
		if err := txn.Insert(grantTable, &v); err != nil {
			return err
		}
		return s.withModule(txn, g)
	})
}

func (s *Store) withModule(txn *memdb.Txn, g *model.TenantModule) error {
	m, err := first[model.Module](txn, moduleTable, pk, g.ModuleID)
	if errors.Is(err, store.ErrNotFound) {
		g.Module = nil
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.withIndustry(txn, m); err != nil {
		return err
	}
	g.Module = m
	return nil
}

func (s *Store) GetGrant(ctx context.Context, tenantID, moduleID string) (g *model.TenantModule, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		if g, err = first[model.TenantModule](txn, grantTable, "tenant_module", tenantID, moduleID); err != nil {
			return err
		}
		return s.withModule(txn, g)
	})
	return g, err
}

func (s *Store) ListTenantGrants(ctx context.Context, tenantID string) (grants []model.TenantModule, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		if grants, err = all[model.TenantModule](txn, grantTable, "tenant_id", tenantID); err != nil {
			return err
		}
		for i := range grants {
			if err := s.withModule(txn, &grants[i]); err != nil {
				return err
			}
		}
		return nil
	})
	slices.SortStableFunc(grants, func(a, b model.TenantModule) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return grants, err
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		if err := unique(txn, userTable, "email", u.ID, u.Email); err != nil {
			return err
		}
		v := *u
		return txn.Insert(userTable, &v)
	})
}

func (s *Store) GetUser(ctx context.Context, id string) (u *model.User, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		u, err = first[model.User](txn, userTable, pk, id)
		return err
	})
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (u *model.User, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		u, err = first[model.User](txn, userTable, "email", email)
		return err
	})
	return u, err
}

func (s *Store) EnsureUser(ctx context.Context, email string) (u *model.User, err error) {
	err = s.write(func(txn *memdb.Txn) error {
		u, err = first[model.User](txn, userTable, "email", email)
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		u = &model.User{Email: email}
		s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
		v := *u
		return txn.Insert(userTable, &v)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) (users []model.User, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		users, err = all[model.User](txn, userTable, pk)
		return err
	})
	slices.SortStableFunc(users, func(a, b model.User) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return users, err
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, userTable, u.ID); err != nil {
			return err
		}
		if err := unique(txn, userTable, "email", u.ID, u.Email); err != nil {
			return err
		}
		s.stamp(&u.ID, nil, &u.UpdatedAt)
		v := *u
		return txn.Insert(userTable, &v)
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.write(func(txn *memdb.Txn) error {
		if err := exists(txn, userTable, id); err != nil {
			return err
		}
		if err := deleteWhere(txn, membershipTable, "user_id", id); err != nil {
			return err
		}
		_, err := txn.DeleteAll(userTable, pk, id)
		return err
	})
}

func (s *Store) SetPasswordIfUnset(ctx context.Context, userID, hash string) (updated bool, err error) {
	err = s.write(func(txn *memdb.Txn) error {
		u, err := first[model.User](txn, userTable, pk, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if u.HasPassword() {
			return nil
		}
		u.PasswordHash = hash
		u.UpdatedAt = s.now()
		updated = true
		return txn.Insert(userTable, u)
	})
	return updated, err
}

func (s *Store) SetPassword(ctx context.Context, userID, hash string) error {
	return s.write(func(txn *memdb.Txn) error {
		u, err := first[model.User](txn, userTable, pk, userID)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.UpdatedAt = s.now()
		return txn.Insert(userTable, u)
	})
}

// Memberships

func (s *Store) UpsertMembership(ctx context.Context, m *model.Membership) error {
	return s.write(func(txn *memdb.Txn) error {
		existing, err := first[model.Membership](txn, membershipTable, "tenant_user", m.TenantID, m.UserID)
		switch {
		case err == nil:
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if m.Role == "" {
			m.Role = model.RoleViewer
		}
		if m.Status == "" {
			m.Status = model.MembershipInvited
		}
		s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		v := *m
		v.Tenant, v.User = nil, nil
		return txn.Insert(membershipTable, &v)
	})
}

func (s *Store) ActivateMembership(ctx context.Context, tenantID, userID string, role model.Role) error {
	return s.write(func(txn *memdb.Txn) error {
		m, err := first[model.Membership](txn, membershipTable, "tenant_user", tenantID, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			m = &model.Membership{TenantID: tenantID, UserID: userID}
		case err != nil:
			return err
		}
		m.Role = role
		m.Status = model.MembershipActive
		s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		return txn.Insert(membershipTable, m)
	})
}

func (s *Store) GetMembership(ctx context.Context, tenantID, userID string) (m *model.Membership, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		m, err = first[model.Membership](txn, membershipTable, "tenant_user", tenantID, userID)
		return err
	})
	return m, err
}

func (s *Store) ListMemberships(ctx context.Context, tenantID string) (memberships []model.Membership, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		if memberships, err = all[model.Membership](txn, membershipTable, "tenant_id", tenantID); err != nil {
			return err
		}
		for i := range memberships {
			u, err := first[model.User](txn, userTable, pk, memberships[i].UserID)
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			memberships[i].User = u
		}
		return nil
	})
	slices.SortStableFunc(memberships, func(a, b model.Membership) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return memberships, err
}

func (s *Store) LatestActiveMembership(ctx context.Context, userID string) (latest *model.Membership, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		memberships, err := all[model.Membership](txn, membershipTable, "user_id", userID)
		if err != nil {
			return err
		}
		for i := range memberships {
			m := memberships[i]
			if m.Status != model.MembershipActive {
				continue
			}
			if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
				latest = &m
			}
		}
		if latest == nil {
			return store.ErrNotFound
		}
		t, err := first[model.Tenant](txn, tenantTable, pk, latest.TenantID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		latest.Tenant = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return latest, nil
}

func (s *Store) CountTenantAdmins(ctx context.Context, tenantID string) (n int64, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		memberships, err := all[model.Membership](txn, membershipTable, "tenant_id", tenantID)
		for _, m := range memberships {
			if m.Role.IsAdmin() && m.Status != model.MembershipDisabled {
				n++
			}
		}
		return err
	})
	return n, err
}

func (s *Store) SetMembershipStatus(ctx context.Context, tenantID, userID string, status model.MembershipStatus) error {
	return s.write(func(txn *memdb.Txn) error {
		m, err := first[model.Membership](txn, membershipTable, "tenant_user", tenantID, userID)
		if err != nil {
			return err
		}
		m.Status = status
		m.UpdatedAt = s.now()
		return txn.Insert(membershipTable, m)
	})
}

func (s *Store) CountActiveMemberships(ctx context.Context) (n int64, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		memberships, err := all[model.Membership](txn, membershipTable, pk)
		for _, m := range memberships {
			if m.Status == model.MembershipActive {
				n++
			}
		}
		return err
	})
	return n, err
}

// Invites

func (s *Store) CreateInvite(ctx context.Context, i *model.Invite) error {
	return s.write(func(txn *memdb.Txn) error {
		s.stamp(&i.ID, &i.CreatedAt, nil)
		if err := unique(txn, inviteTable, "token_hash", i.ID, i.TokenHash); err != nil {
			return err
		}
		v := *i
		return txn.Insert(inviteTable, &v)
	})
}

func (s *Store) GetInviteByTokenHash(ctx context.Context, tokenHash string) (i *model.Invite, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		i, err = first[model.Invite](txn, inviteTable, "token_hash", tokenHash)
		return err
	})
	return i, err
}

func (s *Store) ListInvites(ctx context.Context, tenantID string) (invites []model.Invite, err error) {
	err = s.read(func(txn *memdb.Txn) error {
		invites, err = all[model.Invite](txn, inviteTable, "tenant_id", tenantID)
		return err
	})
	slices.SortStableFunc(invites, func(a, b model.Invite) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return invites, err
}

func (s *Store) MarkInviteAccepted(ctx context.Context, inviteID string, at time.Time) (updated bool, err error) {
	err = s.write(func(txn *memdb.Txn) error {
		i, err := first[model.Invite](txn, inviteTable, pk, inviteID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if i.AcceptedAt != nil {
			return nil
		}
		i.AcceptedAt = &at
		updated = true
		return txn.Insert(inviteTable, i)
	})
	return updated, err
}
