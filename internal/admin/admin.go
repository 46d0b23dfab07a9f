// Package admin implements the super-administrator licensing console:
// tenants, the industry and module catalog, module grants, platform users
// and the licensing dashboard.
package admin

import (
	"errors"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/store"
	"go.uber.org/zap"
)

// Config holds console settings
type Config struct {
	// ExpiringSoonDays bounds the dashboard's expiring list; 14 when unset
	ExpiringSoonDays int
}

// Service runs console operations
type Service struct {
	store store.Store
	cfg   Config
	now   func() time.Time
	log   *zap.Logger
}

// NewService creates a console service. A nil clock defaults to time.Now.
func NewService(s store.Store, cfg Config, now func() time.Time, log *zap.Logger) *Service {
	if cfg.ExpiringSoonDays <= 0 {
		cfg.ExpiringSoonDays = 14
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, cfg: cfg, now: now, log: log}
}

// storeErr converts store sentinels into coded errors
func storeErr(err error, notFound apperr.Code, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.Wrap(notFound, what+" not found", err)
	case errors.Is(err, store.ErrConflict):
		return apperr.Wrap(apperr.CodeConflict, what+" conflicts with an existing one", err)
	default:
		return err
	}
}
