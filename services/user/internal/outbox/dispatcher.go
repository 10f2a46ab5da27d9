package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
)

// Notifier is the outbound catalog call the dispatcher retries.
type Notifier interface {
	MarkUserProductsUnavailable(ctx context.Context, userID uuid.UUID, idempotencyKey string) error
}

const (
	defaultInterval  = 5 * time.Second
	defaultBatchSize = 50
	baseBackoff      = 5 * time.Second
	maxBackoff       = 5 * time.Minute
)

// Dispatcher drains pending outbox messages with at-least-once delivery.
// Failures push the message back with doubled backoff; the message id rides
// along as the idempotency key so redelivery is safe.
type Dispatcher struct {
	Repo     *repo.GormRepo
	Notifier Notifier

	Interval  time.Duration
	BatchSize int
}

func (d *Dispatcher) interval() time.Duration {
	if d.Interval > 0 {
		return d.Interval
	}
	return defaultInterval
}

func (d *Dispatcher) batchSize() int {
	if d.BatchSize > 0 {
		return d.BatchSize
	}
	return defaultBatchSize
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchDue(ctx)
		}
	}
}

// DispatchDue processes one batch of due messages. Exposed so tests and the
// coordinator can drive delivery without the ticker.
func (d *Dispatcher) DispatchDue(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "outbox.dispatcher")

	msgs, err := d.Repo.DueOutboxMessages(ctx, time.Now().UTC(), d.batchSize())
	if err != nil {
		l.Error("outbox_fetch_failed", "error", err)
		return
	}

	for i := range msgs {
		msg := &msgs[i]
		if err := d.deliver(ctx, msg); err != nil {
			next := time.Now().UTC().Add(backoff(msg.Attempts))
			l.Warn("outbox_delivery_failed", "outbox_id", msg.ID, "attempts", msg.Attempts+1, "next_attempt_at", next, "error", err)
			if rErr := d.Repo.RescheduleOutbox(ctx, msg, next); rErr != nil {
				l.Error("outbox_reschedule_failed", "outbox_id", msg.ID, "error", rErr)
			}
			continue
		}

		if err := d.Repo.MarkOutboxDelivered(ctx, msg); err != nil {
			l.Error("outbox_mark_delivered_failed", "outbox_id", msg.ID, "error", err)
			continue
		}
		l.Info("outbox_delivered", "outbox_id", msg.ID, "user_id", msg.UserID, "kind", msg.Kind)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *models.OutboxMessage) error {
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return d.Notifier.MarkUserProductsUnavailable(callCtx, msg.UserID, msg.ID.String())
}

func backoff(attempts int) time.Duration {
	b := baseBackoff
	for i := 0; i < attempts; i++ {
		b *= 2
		if b >= maxBackoff {
			return maxBackoff
		}
	}
	return b
}
