package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"go.uber.org/zap"
)

// TenantInput creates a tenant. Code defaults to the name.
type TenantInput struct {
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	SeatLimit       int        `json:"seat_limit"`
	LicenseStartsAt *time.Time `json:"license_starts_at"`
	LicenseEndsAt   *time.Time `json:"license_ends_at"`
}

// TenantPatch updates the fields that are present
type TenantPatch struct {
	Name            *string      `json:"name"`
	Code            *string      `json:"code"`
	Active          *bool        `json:"is_active"`
	SeatLimit       *int         `json:"seat_limit"`
	LicenseStartsAt OptionalTime `json:"license_starts_at"`
	LicenseEndsAt   OptionalTime `json:"license_ends_at"`
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.New(apperr.CodeValidation, "license end is before its start")
	}
	return nil
}

// CreateTenant creates a tenant and makes the creator its ACTIVE OWNER
func (s *Service) CreateTenant(ctx context.Context, creatorID string, in TenantInput) (*model.Tenant, error) {
	name := strings.ToUpper(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, apperr.New(apperr.CodeValidation, "name is required")
	}
	codeSource := in.Code
	if strings.TrimSpace(codeSource) == "" {
		codeSource = name
	}
	code := TenantCode(codeSource)
	if code == "" {
		return nil, apperr.New(apperr.CodeCodeInvalid, "code has no usable characters")
	}
	if in.SeatLimit < 1 {
		in.SeatLimit = 1
	}
	if err := checkWindow(in.LicenseStartsAt, in.LicenseEndsAt); err != nil {
		return nil, err
	}

	t := &model.Tenant{
		Name:            name,
		Code:            code,
		Active:          true,
		SeatLimit:       in.SeatLimit,
		LicenseStartsAt: in.LicenseStartsAt,
		LicenseEndsAt:   in.LicenseEndsAt,
	}
	err := s.store.Tx(ctx, func(tx store.Store) error {
		if err := tx.CreateTenant(ctx, t); err != nil {
			return storeErr(err, apperr.CodeTenantNotFound, "tenant")
		}
		if creatorID == "" {
			return nil
		}
		if err := tx.ActivateMembership(ctx, t.ID, creatorID, model.RoleOwner); err != nil {
			return fmt.Errorf("make creator owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tenant created",
		zap.String("tenant_id", t.ID),
		zap.String("code", t.Code),
		zap.String("created_by", creatorID),
	)
	return t, nil
}

// ListTenants returns every tenant to super admins and the caller's
// ACTIVE tenants to everyone else
func (s *Service) ListTenants(ctx context.Context, actor invite.Actor) ([]model.Tenant, error) {
	if actor.IsSuperAdmin {
		return s.store.ListTenants(ctx)
	}
	return s.store.ListTenantsForUser(ctx, actor.UserID)
}

// GetTenant loads one tenant
func (s *Service) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperr.CodeTenantNotFound, "tenant")
	}
	return t, nil
}

// UpdateTenant applies a partial update
func (s *Service) UpdateTenant(ctx context.Context, id string, p TenantPatch) (*model.Tenant, error) {
	t, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.ToUpper(strings.TrimSpace(*p.Name))
		if name == "" {
			return nil, apperr.New(apperr.CodeValidation, "name cannot be empty")
		}
		t.Name = name
	}
	if p.Code != nil {
		code := TenantCode(*p.Code)
		if code == "" {
			return nil, apperr.New(apperr.CodeCodeInvalid, "code has no usable characters")
		}
		t.Code = code
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	if p.SeatLimit != nil {
		t.SeatLimit = max(1, *p.SeatLimit)
	}
	p.LicenseStartsAt.apply(&t.LicenseStartsAt)
	p.LicenseEndsAt.apply(&t.LicenseEndsAt)
	if err := checkWindow(t.LicenseStartsAt, t.LicenseEndsAt); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, storeErr(err, apperr.CodeTenantNotFound, "tenant")
	}
	s.log.Info("Tenant updated", zap.String("tenant_id", t.ID))
	return t, nil
}

// DeleteTenant removes the tenant and everything scoped to it
func (s *Service) DeleteTenant(ctx context.Context, id string) error {
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		return storeErr(err, apperr.CodeTenantNotFound, "tenant")
	}
	s.log.Info("Tenant deleted", zap.String("tenant_id", id))
	return nil
}
