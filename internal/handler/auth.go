package handler

import (
	"errors"
	"net/http"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a JWT. Accounts created by an
// invite have no password until the invite is accepted and cannot log in.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)

	var req loginRequest
	if err := bind(c, &req); err != nil {
		prometheus.RecordLogin("invalid_request")
		return fail(c, err)
	}
	denied := apperr.New(apperr.CodeUnauthorized, "invalid credentials")

	email, err := invite.NormalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		prometheus.RecordLogin("invalid_request")
		return fail(c, denied)
	}

	user, err := h.store.GetUserByEmail(c.Request().Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		prometheus.RecordLogin("user_not_found")
		return fail(c, denied)
	}
	if err != nil {
		return fail(c, err)
	}
	if !user.HasPassword() {
		log.Info("Login refused for account without password", zap.String("user_id", user.ID))
		prometheus.RecordLogin("no_password")
		return fail(c, denied)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		prometheus.RecordLogin("invalid_password")
		return fail(c, denied)
	}

	token, expires, err := h.tokens.GenerateToken(user.ID, user.Email, user.IsSuperAdmin)
	if err != nil {
		return fail(c, err)
	}

	prometheus.RecordLogin("success")
	log.Info("User logged in", zap.String("user_id", user.ID))
	return ok(c, http.StatusOK, echo.Map{
		"token":      token,
		"expires_at": expires,
		"user":       user,
	})
}
