// Package dto provides data transfer objects for the delivery address HTTP layer.
package dto

import (
	"time"
)

// DeliveryAddressResponse represents the API response for a delivery address
type DeliveryAddressResponse struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	RecipientName string    `json:"recipient_name"`
	PhoneNumber   string    `json:"phone_number"`
	StreetAddress string    `json:"street_address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeliveryAddressListResponse represents the API response for an address listing
type DeliveryAddressListResponse struct {
	DeliveryAddresses []DeliveryAddressResponse `json:"delivery_addresses"`
}
