package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/marketplace/services/user/internal/models"
)

func (r *GormRepo) DueOutboxMessages(ctx context.Context, now time.Time, limit int) ([]models.OutboxMessage, error) {
	var msgs []models.OutboxMessage
	err := r.DB.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.OutboxPending, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *GormRepo) MarkOutboxDelivered(ctx context.Context, msg *models.OutboxMessage) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", msg.ID).
		Updates(map[string]any{
			"status":       models.OutboxDelivered,
			"delivered_at": now,
		}).Error
}

func (r *GormRepo) RescheduleOutbox(ctx context.Context, msg *models.OutboxMessage, nextAttempt time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", msg.ID).
		Updates(map[string]any{
			"attempts":        msg.Attempts + 1,
			"next_attempt_at": nextAttempt,
		}).Error
}
