package handler

import (
	"net/http"

	"github.com/boskojeremic/iflowx/internal/admin"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
)

// Dashboard summarizes platform licensing
func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.console.Dashboard(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	prometheus.UpdateActiveTenants(len(d.ActiveTenants))
	return ok(c, http.StatusOK, echo.Map{"dashboard": d})
}

// Registry lists active industries with their active modules
func (h *Handler) Registry(c echo.Context) error {
	reg, err := h.console.Registry(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"industries": reg})
}

// Tenants

func (h *Handler) CreateTenant(c echo.Context) error {
	var req admin.TenantInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.console.CreateTenant(c.Request().Context(), actor(c).UserID, req)
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordTenantOperation("create")
	return ok(c, http.StatusCreated, echo.Map{"tenant": t})
}

func (h *Handler) GetTenant(c echo.Context) error {
	t, err := h.console.GetTenant(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"tenant": t})
}

func (h *Handler) UpdateTenant(c echo.Context) error {
	var req admin.TenantPatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	t, err := h.console.UpdateTenant(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordTenantOperation("update")
	return ok(c, http.StatusOK, echo.Map{"tenant": t})
}

func (h *Handler) DeleteTenant(c echo.Context) error {
	if err := h.console.DeleteTenant(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	prometheus.RecordTenantOperation("delete")
	return ok(c, http.StatusOK, nil)
}

// Grants

func (h *Handler) ListGrants(c echo.Context) error {
	grants, err := h.console.ListGrants(c.Request().Context(), c.Param("id"), c.QueryParam("industry_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"modules": grants})
}

func (h *Handler) UpsertGrant(c echo.Context) error {
	var req admin.GrantPatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	g, err := h.console.UpsertGrant(c.Request().Context(), c.Param("id"), c.Param("module_id"), req)
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordTenantOperation("grant")
	return ok(c, http.StatusOK, echo.Map{"grant": g})
}

// Industries

func (h *Handler) ListIndustries(c echo.Context) error {
	industries, err := h.console.ListIndustries(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"industries": industries})
}

func (h *Handler) CreateIndustry(c echo.Context) error {
	var req admin.IndustryInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ind, err := h.console.CreateIndustry(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"industry": ind})
}

func (h *Handler) UpdateIndustry(c echo.Context) error {
	var req admin.IndustryPatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ind, err := h.console.UpdateIndustry(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"industry": ind})
}

func (h *Handler) DeleteIndustry(c echo.Context) error {
	if err := h.console.DeleteIndustry(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Modules

func (h *Handler) ListModules(c echo.Context) error {
	modules, err := h.console.ListModules(c.Request().Context(), c.QueryParam("industry_id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"modules": modules})
}

func (h *Handler) CreateModule(c echo.Context) error {
	var req admin.ModuleInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	m, err := h.console.CreateModule(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"module": m})
}

func (h *Handler) UpdateModule(c echo.Context) error {
	var req admin.ModulePatch
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	m, err := h.console.UpdateModule(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"module": m})
}

func (h *Handler) DeleteModule(c echo.Context) error {
	if err := h.console.DeleteModule(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Users

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.console.ListUsers(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"users": users})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req admin.UserInput
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	u, err := h.console.CreateUser(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"user": u})
}

func (h *Handler) RenameUser(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	u, err := h.console.RenameUser(c.Request().Context(), c.Param("id"), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": u})
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.console.DeleteUser(c.Request().Context(), actor(c).UserID, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}
