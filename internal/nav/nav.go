// Package nav builds the module navigation tree a tenant member may open.
package nav

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/boskojeremic/iflowx/internal/license"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/internal/window"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Module is one navigable entry
type Module struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	RoutePath string `json:"route_path"`
	SortOrder int    `json:"sort_order"`
}

// IndustryGroup is a group of modules under one industry
type IndustryGroup struct {
	IndustryCode string   `json:"industry_code"`
	IndustryName string   `json:"industry_name"`
	SortOrder    int      `json:"sort_order"`
	Modules      []Module `json:"modules"`
}

// Reader is the slice of the store the resolver needs
type Reader interface {
	license.GrantReader
	GetMembership(ctx context.Context, tenantID, userID string) (*model.Membership, error)
}

// Resolver resolves navigation trees
type Resolver struct {
	store  Reader
	grants *license.Resolver
	log    *zap.Logger
}

// NewResolver creates a navigation resolver
func NewResolver(s Reader, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: s, grants: license.NewResolver(s, nil), log: log}
}

// Resolve returns the industries and modules the user may open in the tenant
// at now. A user without an ACTIVE membership whose access window covers now
// gets an empty tree. Ordering is by sort order then name at both levels.
func (r *Resolver) Resolve(ctx context.Context, userID, tenantID string, now time.Time) ([]IndustryGroup, error) {
	m, err := r.store.GetMembership(ctx, tenantID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []IndustryGroup{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if m.Status != model.MembershipActive || !window.IsNowWithin(m.AccessStartsAt, m.AccessEndsAt, now) {
		r.log.Debug("Navigation withheld",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.String("status", string(m.Status)),
		)
		return []IndustryGroup{}, nil
	}

	grants, err := r.grants.ActiveGrantsAt(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	return group(grants), nil
}

func group(grants []model.TenantModule) []IndustryGroup {
	byIndustry := make(map[string]*IndustryGroup)
	for _, g := range grants {
		mod := g.Module
		if !mod.Visible() || mod.Industry == nil {
			continue
		}
		ind := mod.Industry
		grp, ok := byIndustry[ind.ID]
		if !ok {
			grp = &IndustryGroup{
				IndustryCode: ind.Code,
				IndustryName: ind.Name,
				SortOrder:    ind.SortOrder,
			}
			byIndustry[ind.ID] = grp
		}
		grp.Modules = append(grp.Modules, Module{
			Code:      mod.Code,
			Name:      mod.Name,
			RoutePath: mod.RoutePath,
			SortOrder: mod.SortOrder,
		})
	}

	names := collate.New(language.English)
	groups := make([]IndustryGroup, 0, len(byIndustry))
	for _, grp := range byIndustry {
		slices.SortFunc(grp.Modules, func(a, b Module) int {
			return cmp.Or(
				cmp.Compare(a.SortOrder, b.SortOrder),
				names.CompareString(a.Name, b.Name),
				cmp.Compare(a.Code, b.Code),
			)
		})
		groups = append(groups, *grp)
	}
	slices.SortFunc(groups, func(a, b IndustryGroup) int {
		return cmp.Or(
			cmp.Compare(a.SortOrder, b.SortOrder),
			names.CompareString(a.IndustryName, b.IndustryName),
			cmp.Compare(a.IndustryCode, b.IndustryCode),
		)
	})
	return groups
}
