package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null"                 json:"role"`
	IsActive     bool      `gorm:"not null;default:true"    json:"is_active"`
}

// Credential is the single refresh-token record per user. Rotation overwrites
// the row in place; version guards against concurrent writers.
type Credential struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Token     string    `gorm:"not null"                  json:"token"`
	CreatedAt time.Time `gorm:"not null"                  json:"created_at"`
	ExpiresAt time.Time `gorm:"not null"                  json:"expires_at"`
	Revoked   bool      `gorm:"default:false"             json:"revoked"`
	Version   int64     `gorm:"not null;default:0"        json:"-"`
}

const (
	OutboxPending   = "pending"
	OutboxDelivered = "delivered"

	OutboxKindDeactivation = "user.deactivated"
)

// OutboxMessage is a durable record of a remote cascade awaiting delivery.
// The row id doubles as the remote idempotency key.
type OutboxMessage struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"   json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Kind          string     `gorm:"not null"               json:"kind"`
	Status        string     `gorm:"index;not null"         json:"status"`
	Attempts      int        `gorm:"not null;default:0"     json:"attempts"`
	NextAttemptAt time.Time  `gorm:"index;not null"         json:"next_attempt_at"`
	CreatedAt     time.Time  `gorm:"not null"               json:"created_at"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
}
