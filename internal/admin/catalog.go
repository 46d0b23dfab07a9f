package admin

import (
	"context"
	"strings"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"go.uber.org/zap"
)

const defaultIndustrySortOrder = 100

// IndustryInput creates an industry
type IndustryInput struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder *int   `json:"sort_order"`
	Active    *bool  `json:"is_active"`
}

// IndustryPatch updates the fields that are present
type IndustryPatch struct {
	Code      *string `json:"code"`
	Name      *string `json:"name"`
	SortOrder *int    `json:"sort_order"`
	Active    *bool   `json:"is_active"`
}

// ModuleInput creates a module
type ModuleInput struct {
	IndustryID  string `json:"industry_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsAddon     *bool  `json:"is_addon"`
	Active      *bool  `json:"is_active"`
}

// ModulePatch updates the fields that are present
type ModulePatch struct {
	IndustryID  *string `json:"industry_id"`
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	IsAddon     *bool   `json:"is_addon"`
	Active      *bool   `json:"is_active"`
}

// RegistryIndustry is an active industry with its active modules
type RegistryIndustry struct {
	model.Industry
	Modules []model.Module `json:"modules"`
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// CreateIndustry adds an industry. Code and name are uppercased.
func (s *Service) CreateIndustry(ctx context.Context, in IndustryInput) (*model.Industry, error) {
	ind := &model.Industry{
		Code:      upper(in.Code),
		Name:      upper(in.Name),
		SortOrder: defaultIndustrySortOrder,
		Active:    boolOr(in.Active, true),
	}
	if ind.Code == "" || ind.Name == "" {
		return nil, apperr.New(apperr.CodeValidation, "code and name are required")
	}
	if in.SortOrder != nil {
		ind.SortOrder = *in.SortOrder
	}
	if err := s.store.CreateIndustry(ctx, ind); err != nil {
		return nil, storeErr(err, apperr.CodeIndustryNotFound, "industry")
	}
	s.log.Info("Industry created", zap.String("industry_id", ind.ID), zap.String("code", ind.Code))
	return ind, nil
}

// ListIndustries returns every industry
func (s *Service) ListIndustries(ctx context.Context) ([]model.Industry, error) {
	return s.store.ListIndustries(ctx)
}

// UpdateIndustry applies a partial update. A code change regenerates the
// route of every module in the industry.
func (s *Service) UpdateIndustry(ctx context.Context, id string, p IndustryPatch) (*model.Industry, error) {
	ind, err := s.store.GetIndustry(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperr.CodeIndustryNotFound, "industry")
	}
	codeChanged := false
	if p.Code != nil {
		code := upper(*p.Code)
		if code == "" {
			return nil, apperr.New(apperr.CodeValidation, "code cannot be empty")
		}
		codeChanged = code != ind.Code
		ind.Code = code
	}
	if p.Name != nil {
		name := upper(*p.Name)
		if name == "" {
			return nil, apperr.New(apperr.CodeValidation, "name cannot be empty")
		}
		ind.Name = name
	}
	if p.SortOrder != nil {
		ind.SortOrder = *p.SortOrder
	}
	if p.Active != nil {
		ind.Active = *p.Active
	}

	err = s.store.Tx(ctx, func(tx store.Store) error {
		if err := tx.UpdateIndustry(ctx, ind); err != nil {
			return storeErr(err, apperr.CodeIndustryNotFound, "industry")
		}
		if !codeChanged {
			return nil
		}
		modules, err := tx.ListModules(ctx, ind.ID)
		if err != nil {
			return err
		}
		for i := range modules {
			m := &modules[i]
			m.RoutePath = RoutePath(ind.Code, m.Code)
			if err := tx.UpdateModule(ctx, m); err != nil {
				return storeErr(err, apperr.CodeModuleNotFound, "module")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ind, nil
}

// DeleteIndustry removes an industry that has no modules
func (s *Service) DeleteIndustry(ctx context.Context, id string) error {
	if _, err := s.store.GetIndustry(ctx, id); err != nil {
		return storeErr(err, apperr.CodeIndustryNotFound, "industry")
	}
	modules, err := s.store.ListModules(ctx, id)
	if err != nil {
		return err
	}
	if len(modules) > 0 {
		return apperr.New(apperr.CodeConflict, "industry still has modules")
	}
	if err := s.store.DeleteIndustry(ctx, id); err != nil {
		return storeErr(err, apperr.CodeIndustryNotFound, "industry")
	}
	s.log.Info("Industry deleted", zap.String("industry_id", id))
	return nil
}

// CreateModule adds a module and derives its route from the codes
func (s *Service) CreateModule(ctx context.Context, in ModuleInput) (*model.Module, error) {
	code := upper(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperr.New(apperr.CodeValidation, "code and name are required")
	}
	ind, err := s.store.GetIndustry(ctx, in.IndustryID)
	if err != nil {
		return nil, storeErr(err, apperr.CodeIndustryNotFound, "industry")
	}
	m := &model.Module{
		IndustryID:  ind.ID,
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		RoutePath:   RoutePath(ind.Code, code),
		SortOrder:   in.SortOrder,
		IsAddon:     boolOr(in.IsAddon, true),
		Active:      boolOr(in.Active, true),
	}
	if err := s.store.CreateModule(ctx, m); err != nil {
		return nil, storeErr(err, apperr.CodeModuleNotFound, "module")
	}
	m.Industry = ind
	s.log.Info("Module created",
		zap.String("module_id", m.ID),
		zap.String("route_path", m.RoutePath),
	)
	return m, nil
}

// ListModules returns modules of one industry, or all when industryID is empty
func (s *Service) ListModules(ctx context.Context, industryID string) ([]model.Module, error) {
	return s.store.ListModules(ctx, industryID)
}

// UpdateModule applies a partial update and regenerates the route when
// the code or industry changes
func (s *Service) UpdateModule(ctx context.Context, id string, p ModulePatch) (*model.Module, error) {
	m, err := s.store.GetModule(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperr.CodeModuleNotFound, "module")
	}
	reroute := false
	if p.IndustryID != nil && *p.IndustryID != m.IndustryID {
		m.IndustryID = *p.IndustryID
		reroute = true
	}
	if p.Code != nil {
		code := upper(*p.Code)
		if code == "" {
			return nil, apperr.New(apperr.CodeValidation, "code cannot be empty")
		}
		reroute = reroute || code != m.Code
		m.Code = code
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.New(apperr.CodeValidation, "name cannot be empty")
		}
		m.Name = name
	}
	if p.Description != nil {
		m.Description = strings.TrimSpace(*p.Description)
	}
	if p.SortOrder != nil {
		m.SortOrder = *p.SortOrder
	}
	if p.IsAddon != nil {
		m.IsAddon = *p.IsAddon
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
	if reroute {
		ind, err := s.store.GetIndustry(ctx, m.IndustryID)
		if err != nil {
			return nil, storeErr(err, apperr.CodeIndustryNotFound, "industry")
		}
		m.Industry = ind
		m.RoutePath = RoutePath(ind.Code, m.Code)
	}

	if err := s.store.UpdateModule(ctx, m); err != nil {
		return nil, storeErr(err, apperr.CodeModuleNotFound, "module")
	}
	return m, nil
}

// DeleteModule removes a module together with its grants
func (s *Service) DeleteModule(ctx context.Context, id string) error {
	if err := s.store.DeleteModule(ctx, id); err != nil {
		return storeErr(err, apperr.CodeModuleNotFound, "module")
	}
	s.log.Info("Module deleted", zap.String("module_id", id))
	return nil
}

// Registry returns active industries, each with its active modules, in
// navigation order
func (s *Service) Registry(ctx context.Context) ([]RegistryIndustry, error) {
	industries, err := s.store.ListIndustries(ctx)
	if err != nil {
		return nil, err
	}
	modules, err := s.store.ListModules(ctx, "")
	if err != nil {
		return nil, err
	}
	byIndustry := make(map[string][]model.Module)
	for _, m := range modules {
		if m.Active {
			m.Industry = nil
			byIndustry[m.IndustryID] = append(byIndustry[m.IndustryID], m)
		}
	}

	out := make([]RegistryIndustry, 0, len(industries))
	for _, ind := range industries {
		if !ind.Active {
			continue
		}
		mods := byIndustry[ind.ID]
		if mods == nil {
			mods = []model.Module{}
		}
		out = append(out, RegistryIndustry{Industry: ind, Modules: mods})
	}
	return out, nil
}
