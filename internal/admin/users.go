package admin

import (
	"context"
	"strings"

	"github.com/boskojeremic/iflowx/internal/apperr"
	"github.com/boskojeremic/iflowx/internal/invite"
	"github.com/boskojeremic/iflowx/internal/model"
	"go.uber.org/zap"
)

// UserInput creates a platform user without a password
type UserInput struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateUser registers a user. The account cannot log in until a password is set.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	email, err := invite.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	u := &model.User{Email: email, Name: strings.TrimSpace(in.Name)}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeErr(err, apperr.CodeUserNotFound, "user")
	}
	s.log.Info("User created", zap.String("user_id", u.ID))
	return u, nil
}

// ListUsers returns every user
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// RenameUser changes a user's display name
func (s *Service) RenameUser(ctx context.Context, id, name string) (*model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperr.CodeUserNotFound, "user")
	}
	u.Name = strings.TrimSpace(name)
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(err, apperr.CodeUserNotFound, "user")
	}
	return u, nil
}

// DeleteUser removes a user and their memberships. Callers cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return apperr.New(apperr.CodeCannotDeleteSelf, "cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storeErr(err, apperr.CodeUserNotFound, "user")
	}
	s.log.Info("User deleted", zap.String("user_id", id), zap.String("deleted_by", actorID))
	return nil
}
