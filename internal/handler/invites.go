package handler

import (
	"net/http"

	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/window"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
)

type createInviteRequest struct {
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	Validity window.Validity `json:"validity"`
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// CreateInvite issues an invite into the tenant
func (h *Handler) CreateInvite(c echo.Context) error {
	var req createInviteRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	res, err := h.invites.Create(c.Request().Context(), actor(c), invite.CreateInput{
		TenantID: c.Param("id"),
		Email:    req.Email,
		Role:     req.Role,
		Validity: req.Validity,
	})
	if err != nil {
		return fail(c, err)
	}

	prometheus.RecordInviteEvent("created")
	if !res.EmailSent {
		prometheus.RecordInviteEvent("email_failed")
	}
	return ok(c, http.StatusCreated, echo.Map{"invite": res})
}

// ListInvites lists the tenant's invites
func (h *Handler) ListInvites(c echo.Context) error {
	invites, err := h.console.ListInvites(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"invites": invites})
}

// VerifyInvite shows a pending invite to its recipient
func (h *Handler) VerifyInvite(c echo.Context) error {
	details, err := h.invites.Verify(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordInviteEvent("verified")
	return ok(c, http.StatusOK, echo.Map{"invite": details})
}

// AcceptInvite redeems an invite and sets the recipient's password
func (h *Handler) AcceptInvite(c echo.Context) error {
	var req acceptInviteRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	res, err := h.invites.Accept(c.Request().Context(), req.Token, req.Password, req.Name)
	if err != nil {
		return fail(c, err)
	}
	prometheus.RecordInviteEvent("accepted")
	return ok(c, http.StatusOK, echo.Map{"membership": res})
}
