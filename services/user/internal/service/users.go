package service

import (
	"context"

	"github.com/google/uuid"

	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
)

func (s *SessionService) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.Repo.UserByID(ctx, id)
}

type UpdateUserParams struct {
	Name     *string
	Password *string
}

func (s *SessionService) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.update_user", "user_id", id)

	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Password != nil {
		pwHash, err := pkg_hash.HashPassword(*params.Password)
		if err != nil {
			l.Error("update_failed", "status", 500, "reason", "cannot hash the password", "error", err)
			return nil, err
		}
		user.PasswordHash = pwHash
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	l.Info("update_successful")
	return user, nil
}
