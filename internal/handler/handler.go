// Package handler exposes the licensing engine and console over HTTP
package handler

import (
	"net/http"
	"time"

	"github.com/boskojeremic/iflowx/internal/admin"
	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/license"
	"github.com/boskojeremic/iflowx/internal/middleware"
	"github.com/boskojeremic/iflowx/internal/nav"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/pkg/jwtutil"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Config collects the settings of the services behind the handlers
type Config struct {
	Invites invite.Config
	Console admin.Config
}

// Handler serves every HTTP route
type Handler struct {
	store     store.Store
	invites   *invite.Manager
	licenses  *license.Resolver
	evaluator *license.Evaluator
	nav       *nav.Resolver
	console   *admin.Service
	tokens    *jwtutil.JWTUtil
	now       func() time.Time
}

// New wires the engine services onto s. A nil clock defaults to time.Now.
func New(s store.Store, notifier invite.Notifier, tokens *jwtutil.JWTUtil, cfg Config, now func() time.Time, log *zap.Logger) *Handler {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:     s,
		invites:   invite.NewManager(s, notifier, cfg.Invites, now, log.Named("invite")),
		licenses:  license.NewResolver(s, now),
		evaluator: license.NewEvaluator(s, now, log.Named("license")),
		nav:       nav.NewResolver(s, log.Named("nav")),
		console:   admin.NewService(s, cfg.Console, now, log.Named("admin")),
		tokens:    tokens,
		now:       now,
	}
}

// Register mounts the routes on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	auth := e.Group("/auth")
	auth.POST("/login", h.Login)

	// Invitees are not signed in yet
	invites := e.Group("/invites")
	invites.GET("/verify", h.VerifyInvite)
	invites.POST("/accept", h.AcceptInvite)

	api := e.Group("/api")
	api.Use(middleware.JWTAuth(h.tokens))

	api.GET("/me/license-status", h.LicenseStatus)
	api.GET("/me/nav", h.Nav)

	tenants := api.Group("/tenants")
	tenants.GET("", h.ListTenants)
	tenants.GET("/:id/access-window", h.AccessWindow)
	tenants.GET("/:id/members", h.ListMembers)
	tenants.DELETE("/:id/memberships/:user_id", h.RevokeMembership)
	tenants.POST("/:id/invites", h.CreateInvite)
	tenants.GET("/:id/invites", h.ListInvites)

	console := api.Group("/admin")
	console.Use(middleware.RequireSuperAdmin)

	console.GET("/dashboard", h.Dashboard)
	console.GET("/registry", h.Registry)

	console.GET("/tenants", h.ListTenants)
	console.POST("/tenants", h.CreateTenant)
	console.GET("/tenants/:id", h.GetTenant)
	console.PATCH("/tenants/:id", h.UpdateTenant)
	console.DELETE("/tenants/:id", h.DeleteTenant)
	console.GET("/tenants/:id/modules", h.ListGrants)
	console.PUT("/tenants/:id/modules/:module_id", h.UpsertGrant)

	console.GET("/industries", h.ListIndustries)
	console.POST("/industries", h.CreateIndustry)
	console.PATCH("/industries/:id", h.UpdateIndustry)
	console.DELETE("/industries/:id", h.DeleteIndustry)

	console.GET("/modules", h.ListModules)
	console.POST("/modules", h.CreateModule)
	console.PATCH("/modules/:id", h.UpdateModule)
	console.DELETE("/modules/:id", h.DeleteModule)

	console.GET("/users", h.ListUsers)
	console.POST("/users", h.CreateUser)
	console.PATCH("/users/:id", h.RenameUser)
	console.DELETE("/users/:id", h.DeleteUser)
}

// Health reports liveness
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "iflowx",
	})
}

// actor is the authenticated caller
func actor(c echo.Context) invite.Actor {
	claims := middleware.Claims(c)
	if claims == nil {
		return invite.Actor{}
	}
	return invite.Actor{UserID: claims.UserID, IsSuperAdmin: claims.IsSuperAdmin}
}

// fail writes {"ok": false, "error": CODE}. Uncoded errors are logged and
// answered with a 500.
func fail(c echo.Context, err error) error {
	log := logger.FromEcho(c)
	code := apperr.CodeOf(err)
	if apperr.Terminal(err) {
		log.Info("Request rejected", zap.String("code", string(code)), zap.Error(err))
	} else {
		log.Error("Request failed", zap.Error(err))
	}
	prometheus.RecordEngineError(string(code))
	return c.JSON(code.HTTPStatus(), echo.Map{"ok": false, "error": code})
}

// bind decodes the request body, reporting malformed input as a validation error
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "malformed request body", err)
	}
	return nil
}

func ok(c echo.Context, status int, body echo.Map) error {
	if body == nil {
		body = echo.Map{}
	}
	body["ok"] = true
	return c.JSON(status, body)
}
