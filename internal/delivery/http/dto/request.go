// Package dto provides data transfer objects for the delivery HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/delivery/internal/validation"
)

// UpdateDeliveryStatusRequest represents the API request for a status transition
type UpdateDeliveryStatusRequest struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Validate validates the UpdateDeliveryStatusRequest
func (r *UpdateDeliveryStatusRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Status,
			validation.Required.Error("status is required"),
			appValidation.NotBlank,
		),
		validation.Field(&r.Description,
			validation.Length(0, 1024).Error("description must be at most 1024 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}
