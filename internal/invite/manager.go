// Package invite issues, verifies and redeems invite tokens. Accepting an
// invite is what turns an INVITED membership into an ACTIVE one.
package invite

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/license"
	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store"
	"github.com/boskojeremic/iflowx/internal/window"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest password Accept takes
	MinPasswordLength = 8
	// MaxPasswordLength is the longest password bcrypt can hash
	MaxPasswordLength = 72
)

// Email is the content of an invite notification
type Email struct {
	To             string
	InviteURL      string
	TenantName     string
	Role           model.Role
	AccessStartsAt *time.Time
	AccessEndsAt   *time.Time
	ExpiresAt      time.Time
}

// Notifier delivers invite emails
type Notifier interface {
	SendInviteEmail(ctx context.Context, email Email) error
}

// Actor is the authenticated caller issuing an invite
type Actor struct {
	UserID       string
	IsSuperAdmin bool
}

// CreateInput describes an invite to issue
type CreateInput struct {
	TenantID string          `json:"tenant_id"`
	Email    string          `json:"email"`
	Role     string          `json:"role"`
	Validity window.Validity `json:"validity"`
}

// CreateResult is returned to the inviter. InviteURL carries the raw token
// and is the only place it ever appears.
type CreateResult struct {
	InviteID     string        `json:"invite_id"`
	InviteURL    string        `json:"invite_url"`
	ExpiresAt    time.Time     `json:"expires_at"`
	AccessWindow window.Window `json:"access_window"`
	EmailSent    bool          `json:"email_sent"`
	EmailError   string        `json:"email_error,omitempty"`
}

// Details describe a pending invite to the invitee
type Details struct {
	TenantID   string     `json:"tenant_id"`
	TenantName string     `json:"tenant_name"`
	TenantCode string     `json:"tenant_code"`
	Email      string     `json:"email"`
	Name       string     `json:"name,omitempty"`
	Role       model.Role `json:"role"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// AcceptResult identifies the membership an accepted invite activated
type AcceptResult struct {
	TenantID string     `json:"tenant_id"`
	UserID   string     `json:"user_id"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

// Config holds manager settings
type Config struct {
	// BaseURL is the public origin invite links point at
	BaseURL string
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
	// DefaultValidity applies when the caller picks none; seven days when unset
	DefaultValidity window.Validity
}

// Manager runs the invite lifecycle
type Manager struct {
	store    store.Store
	licenses *license.Resolver
	notifier Notifier
	cfg      Config
	now      func() time.Time
	log      *zap.Logger
}

// NewManager creates an invite manager. A nil clock defaults to time.Now.
func NewManager(s store.Store, notifier Notifier, cfg Config, now func() time.Time, log *zap.Logger) *Manager {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.DefaultValidity.Amount == 0 {
		cfg.DefaultValidity = window.DefaultValidity
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Manager{
		store:    s,
		licenses: license.NewResolver(s, now),
		notifier: notifier,
		cfg:      cfg,
		now:      now,
		log:      log,
	}
}

// NormalizeEmail validates an address and returns it trimmed and lowercased
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.New(apperr.CodeValidation, "invalid email address")
	}
	return email, nil
}

// Create issues an invite for email into the tenant
func (m *Manager) Create(ctx context.Context, actor Actor, in CreateInput) (*CreateResult, error) {
	if in.TenantID == "" {
		return nil, apperr.New(apperr.CodeValidation, "tenant_id is required")
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := model.RoleViewer
	if in.Role != "" {
		var ok bool
		if role, ok = model.ParseRole(strings.ToUpper(in.Role)); !ok {
			return nil, apperr.New(apperr.CodeValidation, "unknown role")
		}
	}
	validity := in.Validity
	if validity.Amount == 0 && validity.Unit == "" {
		validity = m.cfg.DefaultValidity
	}
	if validity.Unit, err = window.ParseUnit(string(validity.Unit)); err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "invalid validity unit", err)
	}

	tenant, err := m.store.GetTenant(ctx, in.TenantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeTenantNotFound, "tenant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if err := Authorize(ctx, m.store, actor, tenant.ID); err != nil {
		return nil, err
	}
	if err := m.bootstrapGuard(ctx, tenant.ID); err != nil {
		return nil, err
	}

	access, err := m.licenses.ComputeAccessWindow(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	now := m.now()
	inv := &model.Invite{
		TenantID:  tenant.ID,
		Email:     email,
		Role:      role,
		TokenHash: HashToken(token),
		ExpiresAt: validity.ExpiresAt(now),
		CreatedAt: now,
	}

	err = m.store.Tx(ctx, func(tx store.Store) error {
		user, err := tx.EnsureUser(ctx, email)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if err := tx.UpsertMembership(ctx, &model.Membership{
			TenantID:        tenant.ID,
			UserID:          user.ID,
			Role:            role,
			Status:          model.MembershipInvited,
			AccessStartsAt:  access.Start,
			AccessEndsAt:    access.End,
			CreatedByUserID: actor.UserID,
		}); err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}
		if err := tx.CreateInvite(ctx, inv); err != nil {
			return fmt.Errorf("persist invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &CreateResult{
		InviteID:     inv.ID,
		InviteURL:    m.cfg.BaseURL + "/invite/" + token,
		ExpiresAt:    inv.ExpiresAt,
		AccessWindow: access,
	}
	log := m.log.With(
		zap.String("tenant_id", tenant.ID),
		zap.String("invite_id", inv.ID),
		zap.String("email", email),
		zap.String("role", string(role)),
	)
	log.Info("Invite created", zap.Time("expires_at", inv.ExpiresAt))

	if m.notifier != nil {
		err := m.notifier.SendInviteEmail(ctx, Email{
			To:             email,
			InviteURL:      res.InviteURL,
			TenantName:     tenant.Name,
			Role:           role,
			AccessStartsAt: access.Start,
			AccessEndsAt:   access.End,
			ExpiresAt:      inv.ExpiresAt,
		})
		if err != nil {
			log.Warn("Failed to send invite email", zap.Error(err))
			res.EmailError = err.Error()
		} else {
			res.EmailSent = true
		}
	}
	return res, nil
}

// MembershipGetter loads a single membership
type MembershipGetter interface {
	GetMembership(ctx context.Context, tenantID, userID string) (*model.Membership, error)
}

// Authorize lets super admins and ACTIVE tenant owners or admins manage the tenant
func Authorize(ctx context.Context, members MembershipGetter, actor Actor, tenantID string) error {
	if actor.IsSuperAdmin {
		return nil
	}
	if actor.UserID == "" {
		return apperr.New(apperr.CodeUnauthorized, "no authenticated caller")
	}
	ms, err := members.GetMembership(ctx, tenantID, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.CodeForbidden, "caller is not a member of the tenant")
	}
	if err != nil {
		return fmt.Errorf("load caller membership: %w", err)
	}
	if ms.Status != model.MembershipActive || !ms.Role.IsAdmin() {
		return apperr.New(apperr.CodeForbidden, "caller cannot administer the tenant")
	}
	return nil
}

// bootstrapGuard rejects inviting into a tenant that has neither an
// administrator nor a usable license
func (m *Manager) bootstrapGuard(ctx context.Context, tenantID string) error {
	admins, err := m.store.CountTenantAdmins(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("count tenant admins: %w", err)
	}
	if admins > 0 {
		return nil
	}
	active, err := m.licenses.ActiveGrants(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		return apperr.New(apperr.CodeTenantHasNoLicensedModules, "tenant has no administrator and no licensed modules")
	}
	return nil
}

// lookup resolves a raw token to a still-pending invite
func (m *Manager) lookup(ctx context.Context, token string) (*model.Invite, error) {
	if token == "" {
		return nil, apperr.New(apperr.CodeMissingToken, "token is required")
	}
	inv, err := m.store.GetInviteByTokenHash(ctx, HashToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeInvalidToken, "invite token not recognized")
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}
	switch inv.State(m.now()) {
	case model.InviteAccepted:
		return nil, apperr.New(apperr.CodeInviteAlreadyUsed, "invite was already accepted")
	case model.InviteExpired:
		return nil, apperr.New(apperr.CodeInviteExpired, "invite has expired")
	}
	return inv, nil
}

// Verify reports what a pending invite grants. It never mutates state.
func (m *Manager) Verify(ctx context.Context, token string) (*Details, error) {
	inv, err := m.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	tenant, err := m.store.GetTenant(ctx, inv.TenantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeTenantNotFound, "tenant of invite no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	d := &Details{
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		TenantCode: tenant.Code,
		Email:      inv.Email,
		Role:       inv.Role,
		ExpiresAt:  inv.ExpiresAt,
	}
	if user, err := m.store.GetUserByEmail(ctx, inv.Email); err == nil {
		d.Name = user.Name
	}
	return d, nil
}

// Accept redeems the invite: it sets the invitee's password and activates
// the membership. Of two concurrent calls with the same token exactly one
// succeeds; the other fails with INVITE_ALREADY_USED.
func (m *Manager) Accept(ctx context.Context, token, password, name string) (*AcceptResult, error) {
	inv, err := m.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.New(apperr.CodePasswordTooShort, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, apperr.New(apperr.CodePasswordTooLong, fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	user, err := m.store.GetUserByEmail(ctx, inv.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.CodeUserNotFound, "invited user no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.HasPassword() {
		// a concurrent accept of this very invite may have set it
		if cur, err := m.store.GetInviteByTokenHash(ctx, inv.TokenHash); err == nil && cur.AcceptedAt != nil {
			return nil, apperr.New(apperr.CodeInviteAlreadyUsed, "invite was already accepted")
		}
		return nil, apperr.New(apperr.CodePasswordAlreadySet, "user already has a password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	name = strings.TrimSpace(name)

	err = m.store.Tx(ctx, func(tx store.Store) error {
		won, err := tx.MarkInviteAccepted(ctx, inv.ID, m.now())
		if err != nil {
			return fmt.Errorf("mark invite accepted: %w", err)
		}
		if !won {
			return apperr.New(apperr.CodeInviteAlreadyUsed, "invite was already accepted")
		}
		set, err := tx.SetPasswordIfUnset(ctx, user.ID, string(hash))
		if err != nil {
			return fmt.Errorf("set password: %w", err)
		}
		if !set {
			return apperr.New(apperr.CodePasswordAlreadySet, "user already has a password")
		}
		if name != "" {
			u, err := tx.GetUser(ctx, user.ID)
			if err != nil {
				return fmt.Errorf("reload user: %w", err)
			}
			u.Name = name
			if err := tx.UpdateUser(ctx, u); err != nil {
				return fmt.Errorf("update user name: %w", err)
			}
		}
		if err := tx.ActivateMembership(ctx, inv.TenantID, user.ID, inv.Role); err != nil {
			return fmt.Errorf("activate membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("Invite accepted",
		zap.String("tenant_id", inv.TenantID),
		zap.String("invite_id", inv.ID),
		zap.String("user_id", user.ID),
		zap.String("role", string(inv.Role)),
	)
	return &AcceptResult{
		TenantID: inv.TenantID,
		UserID:   user.ID,
		Email:    user.Email,
		Role:     inv.Role,
	}, nil
}
