package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/user/internal/domain"
	"github.com/Skotchmaster/marketplace/services/user/internal/events"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
)

// DeactivationService flips a user's active flag and propagates deactivation
// to that user's catalog listings. The remote call is decoupled through a
// durable outbox written in the same transaction as the flag, so a catalog
// outage never fails the request and the cascade is delivered at least once.
type DeactivationService struct {
	Repo   *repo.GormRepo
	Events *events.Producer
}

func (s *DeactivationService) SetActive(ctx context.Context, callerClaim string, active bool) error {
	l := logging.FromContext(ctx).With("svc", "users.set_active", "active", active)

	if callerClaim == "" {
		l.Warn("set_active_failed", "status", 401, "reason", "missing identity claim")
		return domain.ErrUnauthorized
	}
	userID, err := uuid.Parse(callerClaim)
	if err != nil {
		l.Warn("set_active_failed", "status", 401, "reason", "unparsable identity claim", "error", err)
		return domain.ErrUnauthorized
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return err
	}

	msg, err := s.Repo.SetUserActive(ctx, user, active)
	if err != nil {
		l.Error("set_active_failed", "status", 500, "error", err)
		return err
	}

	event := map[string]any{
		"type":    events.EventReactivated,
		"user_id": user.ID,
	}
	if !active {
		event["type"] = events.EventDeactivated
		event["outbox_id"] = msg.ID
	}
	if err := s.Events.PublishEvent(ctx, user.ID.String(), event); err != nil {
		l.Error("event_publish_failed", "error", err)
	}

	l.Info("set_active_successful", "user_id", user.ID)
	return nil
}
