package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event types written to the outbox and routing keys on the events exchange.
const (
	EventTypeDeliveryCreated = "orders.delivery_created"
	EventTypeDeliverySuccess = "orders.delivery_success"
)

// OrderRequestEvent is the inbound payload of a delivery.order_request message
// published by the order management service.
type OrderRequestEvent struct {
	DeliveryAddress json.RawMessage `json:"delivery_address"`
	OrderID         int64           `json:"order_id"`
}

// DeliveryCreatedEvent announces that a delivery entered the PREPARING state.
type DeliveryCreatedEvent struct {
	OrderID    int64     `json:"order_id"`
	DeliveryID uuid.UUID `json:"delivery_id"`
}

// DeliverySuccessEvent announces that a delivery reached the DELIVERED state.
type DeliverySuccessEvent struct {
	OrderID int64 `json:"order_id"`
}
