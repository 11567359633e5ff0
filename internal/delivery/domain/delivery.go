// Package domain defines the core delivery domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/delivery/internal/errors"
)

// DeliveryStatus represents a delivery lifecycle state.
type DeliveryStatus string

const (
	DeliveryStatusPreparing DeliveryStatus = "PREPARING"
	DeliveryStatusEnRoute   DeliveryStatus = "EN_ROUTE"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
)

// statusRank orders the lifecycle. A transition is legal only when the target
// ranks strictly after the current status, so backward and same-state moves
// are rejected and DELIVERED is terminal.
var statusRank = map[DeliveryStatus]int{
	DeliveryStatusPreparing: 0,
	DeliveryStatusEnRoute:   1,
	DeliveryStatusDelivered: 2,
}

// ParseDeliveryStatus converts a raw string to a DeliveryStatus.
// Returns ErrInvalidTransition for values outside the known set, so an
// unrecognized status can never reach storage.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	status := DeliveryStatus(s)
	if _, ok := statusRank[status]; !ok {
		return "", errors.Wrap(errors.ErrInvalidTransition, "unknown status "+s)
	}
	return status, nil
}

// IsValid reports whether the status belongs to the known set.
func (s DeliveryStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no further transitions are permitted.
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryStatusDelivered
}

// CanTransitionTo reports whether moving from s to target is a legal
// forward transition.
func (s DeliveryStatus) CanTransitionTo(target DeliveryStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// Delivery is the aggregate root tracking a physical delivery for an order.
// OrderID and DeliveryAddress are immutable after creation: the address is a
// snapshot captured at order time, so later address edits never change an
// in-flight delivery.
type Delivery struct {
	ID              uuid.UUID
	OrderID         int64
	DeliveryAddress json.RawMessage
	Status          DeliveryStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeliveryLog is one row of the append-only audit trail. A log is written per
// status transition and is only ever removed by cascading deletion of its
// parent delivery.
type DeliveryLog struct {
	ID          uuid.UUID
	DeliveryID  uuid.UUID
	Description string
	Status      DeliveryStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Domain-specific errors for delivery operations.
var (
	// ErrDeliveryNotFound indicates the requested delivery does not exist.
	ErrDeliveryNotFound = errors.Wrap(errors.ErrNotFound, "delivery not found")

	// ErrDeliveryExists indicates an active delivery already exists for the order.
	// Consumers treat this as a no-op success so redelivered order requests
	// never create a second delivery.
	ErrDeliveryExists = errors.Wrap(errors.ErrConflict, "delivery already exists for order")
)
