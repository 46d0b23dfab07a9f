package handler

import (
	"errors"
	"net/http"

	"github.com/boskojeremic/iflowx/internal/nav"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
)

// LicenseStatus reports the caller's license state
func (h *Handler) LicenseStatus(c echo.Context) error {
	status, err := h.evaluator.Evaluate(c.Request().Context(), actor(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordLicenseStatus(string(status.State))
	return ok(c, http.StatusOK, echo.Map{"license": status})
}

// Nav returns the caller's navigation tree for ?tenant_id=, defaulting to
// the tenant of their most recent ACTIVE membership
func (h *Handler) Nav(c echo.Context) error {
	ctx := c.Request().Context()
	userID := actor(c).UserID

	tenantID := c.QueryParam("tenant_id")
	if tenantID == "" {
		m, err := h.store.LatestActiveMembership(ctx, userID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			prometheus.RecordNavResolve(0)
			return ok(c, http.StatusOK, echo.Map{"industries": []nav.IndustryGroup{}})
		case err != nil:
			return fail(c, err)
		}
		tenantID = m.TenantID
	}

	groups, err := h.nav.Resolve(ctx, userID, tenantID, h.now())
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordNavResolve(len(groups))
	return ok(c, http.StatusOK, echo.Map{"tenant_id": tenantID, "industries": groups})
}

// AccessWindow previews the access window an invite into the tenant would get
func (h *Handler) AccessWindow(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := c.Param("id")
	if _, err := h.console.GetTenant(ctx, tenantID); err != nil {
		return fail(c, err)
	}
	if err := authorize(c, h.store, tenantID); err != nil {
		return fail(c, err)
	}
	w, err := h.licenses.ComputeAccessWindow(ctx, tenantID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"access_window": w})
}
