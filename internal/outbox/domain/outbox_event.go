// Package domain defines the core outbox domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	// OutboxEventStatusPending marks an event waiting to be forwarded to the broker.
	OutboxEventStatusPending OutboxEventStatus = "pending"
	// OutboxEventStatusSent marks an event the broker has confirmed. Sent rows
	// are retained for audit and replay, never deleted synchronously.
	OutboxEventStatusSent OutboxEventStatus = "sent"
	// OutboxEventStatusFailed marks an event that exhausted its publish retries.
	OutboxEventStatusFailed OutboxEventStatus = "failed"
)

// OutboxEvent represents an event in the transactional outbox pattern.
// An event row is only ever inserted in the same transaction as the business
// mutation it describes; after commit, the publisher worker owns getting it
// to the broker.
type OutboxEvent struct {
	ID        uuid.UUID
	EventType string
	Payload   string
	Status    OutboxEventStatus
	Retries   int
	LastError *string
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
