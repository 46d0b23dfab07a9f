package admin

import (
	"context"
	"time"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/model"
	"go.uber.org/zap"
)

// InviteView is an invite as shown to tenant administrators
type InviteView struct {
	ID         string            `json:"id"`
	Email      string            `json:"email"`
	Role       model.Role        `json:"role"`
	State      model.InviteState `json:"state"`
	ExpiresAt  time.Time         `json:"expires_at"`
	AcceptedAt *time.Time        `json:"accepted_at"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (s *Service) authorizeTenant(ctx context.Context, actor invite.Actor, tenantID string) error {
	if _, err := s.store.GetTenant(ctx, tenantID); err != nil {
		return storeErr(err, apperr.CodeTenantNotFound, "tenant")
	}
	return invite.Authorize(ctx, s.store, actor, tenantID)
}

// ListMembers returns the tenant's memberships with users populated
func (s *Service) ListMembers(ctx context.Context, actor invite.Actor, tenantID string) ([]model.Membership, error) {
	if err := s.authorizeTenant(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	return s.store.ListMemberships(ctx, tenantID)
}

// RevokeMembership disables a user's membership in the tenant
func (s *Service) RevokeMembership(ctx context.Context, actor invite.Actor, tenantID, userID string) error {
	if err := s.authorizeTenant(ctx, actor, tenantID); err != nil {
		return err
	}
	if err := s.store.SetMembershipStatus(ctx, tenantID, userID, model.MembershipDisabled); err != nil {
		return storeErr(err, apperr.CodeNotFound, "membership")
	}
	s.log.Info("Membership revoked",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
		zap.String("revoked_by", actor.UserID),
	)
	return nil
}

// ListInvites returns the tenant's invites with their derived state
func (s *Service) ListInvites(ctx context.Context, actor invite.Actor, tenantID string) ([]InviteView, error) {
	if err := s.authorizeTenant(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	invites, err := s.store.ListInvites(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		out = append(out, InviteView{
			ID:         inv.ID,
			Email:      inv.Email,
			Role:       inv.Role,
			State:      inv.State(now),
			ExpiresAt:  inv.ExpiresAt,
			AcceptedAt: inv.AcceptedAt,
			CreatedAt:  inv.CreatedAt,
		})
	}
	return out, nil
}
