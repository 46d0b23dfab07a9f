package handler

import (
	"net/http"

	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
)

func authorize(c echo.Context, members invite.MembershipGetter, tenantID string) error {
	return invite.Authorize(c.Request().Context(), members, actor(c), tenantID)
}

// ListTenants lists every tenant for super admins and the caller's
// ACTIVE tenants for everyone else
func (h *Handler) ListTenants(c echo.Context) error {
	tenants, err := h.console.ListTenants(c.Request().Context(), actor(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"tenants": tenants})
}

// ListMembers lists the tenant's memberships
func (h *Handler) ListMembers(c echo.Context) error {
	members, err := h.console.ListMembers(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"members": members})
}

// RevokeMembership disables a member of the tenant
func (h *Handler) RevokeMembership(c echo.Context) error {
	err := h.console.RevokeMembership(c.Request().Context(), actor(c), c.Param("id"), c.Param("user_id"))
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordTenantOperation("revoke")
	return ok(c, http.StatusOK, nil)
}
