package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/Skotchmaster/marketplace/services/user/internal/domain"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
)

type SessionService struct {
	Repo  *repo.GormRepo
	Codec *tokens.Codec
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// issuePair mints a fresh access/refresh pair and overwrites the user's
// credential row in one step, so the old refresh token dies with rotation.
func (s *SessionService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, accessExp, err := s.Codec.IssueAccessToken(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := s.Codec.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpsertCredential(ctx, user.ID, refresh, refreshExp); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *SessionService) Register(ctx context.Context, name, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.register", "email", email)

	if _, err := s.Repo.UserByEmail(ctx, email); err == nil {
		l.Warn("register_failed", "status", 400, "reason", "email already registered")
		return nil, nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	l.Info("register_successful", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies the password strictly before touching any state, so a failed
// attempt cannot rotate away the user's live session.
func (s *SessionService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.login", "email", email)

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Warn("login_failed", "status", 404, "reason", "unknown email")
		}
		return nil, err
	}

	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid password")
		return nil, domain.ErrUnauthorized
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates a valid refresh token. The stored credential is
// authoritative: a revoked flag or a past stored expiry rejects the token
// even when its own embedded expiry has not elapsed.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	verified, ok := s.Codec.Validate(refreshToken)
	if !ok {
		l.Warn("refresh_failed", "status", 401, "reason", "token validation failed")
		return nil, domain.ErrInvalidToken
	}

	userID, err := verified.IdentityID()
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cred, err := s.Repo.CredentialByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	if cred.Revoked || cred.ExpiresAt.Before(time.Now().UTC()) {
		l.Warn("refresh_failed", "status", 401, "reason", "credential revoked or expired", "user_id", userID)
		return nil, domain.ErrInvalidToken
	}
	// Rotation is destructive: only the token currently on record may refresh.
	if cred.Token != refreshToken {
		l.Warn("refresh_failed", "status", 401, "reason", "token superseded by rotation", "user_id", userID)
		return nil, domain.ErrInvalidToken
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	l.Info("refresh_successful", "user_id", userID)
	return pair, nil
}

// Revoke marks the user's credential revoked. Idempotent: an absent or
// already-revoked credential is not an error.
func (s *SessionService) Revoke(ctx context.Context, userID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "session.revoke", "user_id", userID)

	if _, err := s.Repo.UserByID(ctx, userID); err != nil {
		return err
	}

	if err := s.Repo.RevokeCredential(ctx, userID); err != nil {
		l.Error("revoke_failed", "status", 500, "error", err)
		return err
	}

	l.Info("revoke_successful")
	return nil
}

// LogoutByToken looks the credential up by its literal token value and
// revokes it. An unknown token is a no-op so logout never fails the client.
func (s *SessionService) LogoutByToken(ctx context.Context, refreshToken string) error {
	cred, err := s.Repo.CredentialByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.Repo.RevokeCredential(ctx, cred.UserID)
}
