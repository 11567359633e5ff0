// Package domain defines the delivery address entities.
package domain

import (
	"time"

	"github.com/allisson/delivery/internal/errors"
)

// DeliveryAddress represents a patient's saved delivery address
type DeliveryAddress struct {
	ID            int64
	PatientID     int64
	RecipientName string
	PhoneNumber   string
	StreetAddress string
	City          string
	State         string
	PostalCode    string
	Country       string
	IsDefault     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Domain-specific errors for delivery address operations.
var (
	// ErrAddressNotFound indicates the requested address does not exist or
	// belongs to another patient.
	ErrAddressNotFound = errors.Wrap(errors.ErrNotFound, "delivery address not found")
)
