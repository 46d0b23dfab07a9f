// Package gormstore implements store.Store on gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a gorm-backed record store
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm connection. The connection should be opened with
// TranslateError enabled so unique violations surface as store.ErrConflict.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every table
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

// Tx runs fn in a gorm transaction
func (s *Store) Tx(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps gorm errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	default:
		return err
	}
}

func track(operation string) func(time.Time) {
	return prometheus.TrackDBOperation(operation)
}

// Tenants

func (s *Store) CreateTenant(ctx context.Context, t *model.Tenant) error {
	defer track("insert")(time.Now())
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *Store) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	defer track("query")(time.Now())
	var t model.Tenant
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	defer track("query")(time.Now())
	var tenants []model.Tenant
	if err := s.conn(ctx).Order("created_at desc").Find(&tenants).Error; err != nil {
		return nil, translate(err)
	}
	return tenants, nil
}

func (s *Store) ListTenantsForUser(ctx context.Context, userID string) ([]model.Tenant, error) {
	defer track("query")(time.Now())
	var tenants []model.Tenant
	err := s.conn(ctx).
		Joins("JOIN memberships ON memberships.tenant_id = tenants.id").
		Where("memberships.user_id = ? AND memberships.status = ?", userID, model.MembershipActive).
		Order("tenants.created_at desc").
		Find(&tenants).Error
	if err != nil {
		return nil, translate(err)
	}
	return tenants, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *model.Tenant) error {
	defer track("update")(time.Now())
	return translate(s.conn(ctx).Save(t).Error)
}

// DeleteTenant removes tenant-scoped rows table by table, then the tenant
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	defer track("delete")(time.Now())
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Tenant
		if err := tx.Select("id").First(&t, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		for _, table := range store.TenantScopedTables {
			if err := tx.Exec("DELETE FROM ? WHERE tenant_id = ?", clause.Table{Name: table}, id).Error; err != nil {
				return fmt.Errorf("delete %s for tenant: %w", table, err)
			}
		}
		return tx.Delete(&model.Tenant{}, "id = ?", id).Error
	})
}

// Catalog

func (s *Store) CreateIndustry(ctx context.Context, i *model.Industry) error {
	defer track("insert")(time.Now())
	return translate(s.conn(ctx).Create(i).Error)
}

func (s *Store) GetIndustry(ctx context.Context, id string) (*model.Industry, error) {
	defer track("query")(time.Now())
	var i model.Industry
	if err := s.conn(ctx).First(&i, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (s *Store) ListIndustries(ctx context.Context) ([]model.Industry, error) {
	defer track("query")(time.Now())
	var industries []model.Industry
	if err := s.conn(ctx).Order("sort_order asc").Order("name asc").Find(&industries).Error; err != nil {
		return nil, translate(err)
	}
	return industries, nil
}

func (s *Store) UpdateIndustry(ctx context.Context, i *model.Industry) error {
	defer track("update")(time.Now())
	return translate(s.conn(ctx).Save(i).Error)
}

func (s *Store) DeleteIndustry(ctx context.Context, id string) error {
	defer track("delete")(time.Now())
	res := s.conn(ctx).Delete(&model.Industry{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateModule(ctx context.Context, m *model.Module) error {
	defer track("insert")(time.Now())
	return translate(s.conn(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *Store) GetModule(ctx context.Context, id string) (*model.Module, error) {
	defer track("query")(time.Now())
	var m model.Module
	if err := s.conn(ctx).Preload("Industry").First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) ListModules(ctx context.Context, industryID string) ([]model.Module, error) {
	defer track("query")(time.Now())
	q := s.conn(ctx).Preload("Industry").Order("sort_order asc").Order("name asc")
	if industryID != "" {
		q = q.Where("industry_id = ?", industryID)
	}
	var modules []model.Module
	if err := q.Find(&modules).Error; err != nil {
		return nil, translate(err)
	}
	return modules, nil
}

func (s *Store) UpdateModule(ctx context.Context, m *model.Module) error {
	defer track("update")(time.Now())
	return translate(s.conn(ctx).Omit(clause.Associations).Save(m).Error)
}

func (s *Store) DeleteModule(ctx context.Context, id string) error {
	defer track("delete")(time.Now())
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", id).Delete(&model.TenantModule{}).Error; err != nil {
			return fmt.Errorf("delete grants of module: %w", err)
		}
		res := tx.Delete(&model.Module{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

// Grants

func (s *Store) UpsertGrant(ctx context.Context, g *model.TenantModule) error {
	defer track("upsert")(time.Now())
	err := s.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "seat_limit", "starts_at", "ends_at", "updated_at"}),
	}).Create(g).Error
	if err != nil {
		return translate(err)
	}
	stored, err := s.GetGrant(ctx, g.TenantID, g.ModuleID)
	if err != nil {
		return err
	}
	*g = *stored
	return nil
}

func (s *Store) GetGrant(ctx context.Context, tenantID, moduleID string) (*model.TenantModule, error) {
	defer track("query")(time.Now())
	var g model.TenantModule
	err := s.conn(ctx).Preload("Module.Industry").
		First(&g, "tenant_id = ? AND module_id = ?", tenantID, moduleID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *Store) ListTenantGrants(ctx context.Context, tenantID string) ([]model.TenantModule, error) {
	defer track("query")(time.Now())
	var grants []model.TenantModule
	err := s.conn(ctx).Preload("Module.Industry").
		Where("tenant_id = ?", tenantID).
		Order("created_at asc").
		Find(&grants).Error
	if err != nil {
		return nil, translate(err)
	}
	return grants, nil
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer track("insert")(time.Now())
	return translate(s.conn(ctx).Create(u).Error)
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	defer track("query")(time.Now())
	var u model.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer track("query")(time.Now())
	var u model.User
	if err := s.conn(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) EnsureUser(ctx context.Context, email string) (*model.User, error) {
	defer track("upsert")(time.Now())
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&model.User{Email: email}).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.GetUserByEmail(ctx, email)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	defer track("query")(time.Now())
	var users []model.User
	if err := s.conn(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	defer track("update")(time.Now())
	return translate(s.conn(ctx).Save(u).Error)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	defer track("delete")(time.Now())
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Membership{}).Error; err != nil {
			return fmt.Errorf("delete memberships of user: %w", err)
		}
		res := tx.Delete(&model.User{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *Store) SetPasswordIfUnset(ctx context.Context, userID, hash string) (bool, error) {
	defer track("update")(time.Now())
	res := s.conn(ctx).Model(&model.User{}).
		Where("id = ? AND (password_hash IS NULL OR password_hash = '')", userID).
		Update("password_hash", hash)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) SetPassword(ctx context.Context, userID, hash string) error {
	defer track("update")(time.Now())
	res := s.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Memberships

func (s *Store) UpsertMembership(ctx context.Context, m *model.Membership) error {
	defer track("upsert")(time.Now())
	err := s.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"role", "status", "access_starts_at", "access_ends_at", "created_by_user_id", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return translate(err)
	}
	stored, err := s.GetMembership(ctx, m.TenantID, m.UserID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

func (s *Store) ActivateMembership(ctx context.Context, tenantID, userID string, role model.Role) error {
	defer track("upsert")(time.Now())
	m := model.Membership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		Status:   model.MembershipActive,
	}
	err := s.conn(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "status", "updated_at"}),
	}).Create(&m).Error
	return translate(err)
}

func (s *Store) GetMembership(ctx context.Context, tenantID, userID string) (*model.Membership, error) {
	defer track("query")(time.Now())
	var m model.Membership
	if err := s.conn(ctx).First(&m, "tenant_id = ? AND user_id = ?", tenantID, userID).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) ListMemberships(ctx context.Context, tenantID string) ([]model.Membership, error) {
	defer track("query")(time.Now())
	var memberships []model.Membership
	err := s.conn(ctx).Preload("User").
		Where("tenant_id = ?", tenantID).
		Order("created_at asc").
		Find(&memberships).Error
	if err != nil {
		return nil, translate(err)
	}
	return memberships, nil
}

func (s *Store) LatestActiveMembership(ctx context.Context, userID string) (*model.Membership, error) {
	defer track("query")(time.Now())
	var m model.Membership
	err := s.conn(ctx).Preload("Tenant").
		Where("user_id = ? AND status = ?", userID, model.MembershipActive).
		Order("created_at desc").
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) CountTenantAdmins(ctx context.Context, tenantID string) (int64, error) {
	defer track("query")(time.Now())
	var n int64
	err := s.conn(ctx).Model(&model.Membership{}).
		Where("tenant_id = ? AND role IN ? AND status <> ?",
			tenantID, []model.Role{model.RoleOwner, model.RoleAdmin}, model.MembershipDisabled).
		Count(&n).Error
	return n, translate(err)
}

func (s *Store) SetMembershipStatus(ctx context.Context, tenantID, userID string, status model.MembershipStatus) error {
	defer track("update")(time.Now())
	res := s.conn(ctx).Model(&model.Membership{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Update("status", status)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountActiveMemberships(ctx context.Context) (int64, error) {
	defer track("query")(time.Now())
	var n int64
	err := s.conn(ctx).Model(&model.Membership{}).Where("status = ?", model.MembershipActive).Count(&n).Error
	return n, translate(err)
}

// Invites

func (s *Store) CreateInvite(ctx context.Context, i *model.Invite) error {
	defer track("insert")(time.Now())
	return translate(s.conn(ctx).Create(i).Error)
}

func (s *Store) GetInviteByTokenHash(ctx context.Context, tokenHash string) (*model.Invite, error) {
	defer track("query")(time.Now())
	var i model.Invite
	if err := s.conn(ctx).First(&i, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, translate(err)
	}
	return &i, nil
}

func (s *Store) ListInvites(ctx context.Context, tenantID string) ([]model.Invite, error) {
	defer track("query")(time.Now())
	var invites []model.Invite
	if err := s.conn(ctx).Where("tenant_id = ?", tenantID).Order("created_at desc").Find(&invites).Error; err != nil {
		return nil, translate(err)
	}
	return invites, nil
}

// MarkInviteAccepted is a conditional update: concurrent callers race on the
// row lock and only the first sees RowsAffected == 1.
func (s *Store) MarkInviteAccepted(ctx context.Context, inviteID string, at time.Time) (bool, error) {
	defer track("update")(time.Now())
	res := s.conn(ctx).Model(&model.Invite{}).
		Where("id = ? AND accepted_at IS NULL", inviteID).
		Update("accepted_at", at)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
