// Package middleware holds the echo middleware guarding the API
package middleware

import (
	"net/http"
	"strings"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/pkg/jwtutil"
	"github.com/boskojeremic/iflowx/pkg/logger"
	"github.com/boskojeremic/iflowx/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsKey = "claims"

func reject(c echo.Context, status int, code apperr.Code) error {
	return c.JSON(status, echo.Map{"ok": false, "error": code})
}

// JWTAuth validates the Bearer token and stores the caller's claims
func JWTAuth(tokens *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				prometheus.RecordAuthError("missing_token")
				return reject(c, http.StatusUnauthorized, apperr.CodeUnauthorized)
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return reject(c, http.StatusUnauthorized, apperr.CodeUnauthorized)
			}

			claims, err := tokens.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return reject(c, http.StatusUnauthorized, apperr.CodeUnauthorized)
			}

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			return next(c)
		}
	}
}

// RequireSuperAdmin rejects callers without the platform super admin flag.
// It must run after JWTAuth.
func RequireSuperAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := Claims(c)
		if claims == nil {
			return reject(c, http.StatusUnauthorized, apperr.CodeUnauthorized)
		}
		if !claims.IsSuperAdmin {
			logger.FromEcho(c).Warn("Console access denied", zap.String("user_id", claims.UserID))
			prometheus.RecordAuthError("not_super_admin")
			return reject(c, http.StatusForbidden, apperr.CodeForbidden)
		}
		return next(c)
	}
}

// Claims returns the authenticated caller, or nil outside JWTAuth
func Claims(c echo.Context) *jwtutil.UserClaims {
	claims, _ := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims
}
