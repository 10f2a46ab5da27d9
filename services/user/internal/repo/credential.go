package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/services/user/internal/domain"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
)

func (r *GormRepo) CredentialByToken(ctx context.Context, token string) (*models.Credential, error) {
	var cred models.Credential
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func (r *GormRepo) CredentialByUser(ctx context.Context, userID uuid.UUID) (*models.Credential, error) {
	var cred models.Credential
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// UpsertCredential overwrites the user's single credential row in place,
// resetting the revoked flag. The overwrite is guarded by an optimistic
// version check: a concurrent rotation loses with ErrConflict instead of
// silently clobbering the winner's token.
func (r *GormRepo) UpsertCredential(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	existing, err := r.CredentialByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		cred := models.Credential{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     token,
			CreatedAt: time.Now().UTC(),
			ExpiresAt: expiresAt,
			Revoked:   false,
		}
		return r.DB.WithContext(ctx).Create(&cred).Error
	}
	if err != nil {
		return err
	}

	res := r.DB.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ? AND version = ?", userID, existing.Version).
		Updates(map[string]any{
			"token":      token,
			"created_at": time.Now().UTC(),
			"expires_at": expiresAt,
			"revoked":    false,
			"version":    existing.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// RevokeCredential flips the revoked flag without touching token or expiry.
// Revoking an absent credential is not an error.
func (r *GormRepo) RevokeCredential(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.Credential{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error
}
