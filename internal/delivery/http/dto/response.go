// Package dto provides data transfer objects for the delivery HTTP layer.
package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DeliveryResponse represents the API response for a delivery
type DeliveryResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         int64           `json:"order_id"`
	DeliveryAddress json.RawMessage `json:"delivery_address"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DeliveryLogResponse represents the API response for one audit log entry
type DeliveryLogResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DeliveryDetailResponse represents the API response for a delivery with its
// audit trail, newest entries first.
type DeliveryDetailResponse struct {
	DeliveryResponse
	Logs []DeliveryLogResponse `json:"logs"`
}

// DeliveryListResponse represents the API response for a delivery listing
type DeliveryListResponse struct {
	Deliveries []DeliveryResponse `json:"deliveries"`
}
