// Package dto provides data transfer objects for the delivery address HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/delivery/internal/validation"
)

// CreateDeliveryAddressRequest represents the API request for address creation
type CreateDeliveryAddressRequest struct {
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"is_default"`
}

// Validate validates the CreateDeliveryAddressRequest
func (r *CreateDeliveryAddressRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.RecipientName,
			validation.Required.Error("recipient_name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("recipient_name must be between 1 and 255 characters"),
		),
		validation.Field(&r.PhoneNumber,
			validation.Required.Error("phone_number is required"),
			appValidation.Phone,
		),
		validation.Field(&r.StreetAddress,
			validation.Required.Error("street_address is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("street_address must be between 1 and 255 characters"),
		),
		validation.Field(&r.City,
			validation.Required.Error("city is required"),
			appValidation.NotBlank,
			validation.Length(1, 128).Error("city must be between 1 and 128 characters"),
		),
		validation.Field(&r.State,
			validation.Required.Error("state is required"),
			appValidation.NotBlank,
			validation.Length(1, 64).Error("state must be between 1 and 64 characters"),
		),
		validation.Field(&r.PostalCode,
			validation.Required.Error("postal_code is required"),
			appValidation.NotBlank,
			validation.Length(1, 32).Error("postal_code must be between 1 and 32 characters"),
		),
		validation.Field(&r.Country,
			validation.Required.Error("country is required"),
			appValidation.NotBlank,
			validation.Length(2, 64).Error("country must be between 2 and 64 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// UpdateDeliveryAddressRequest represents the API request for a partial
// address update. Absent fields keep their current value.
type UpdateDeliveryAddressRequest struct {
	RecipientName *string `json:"recipient_name"`
	PhoneNumber   *string `json:"phone_number"`
	StreetAddress *string `json:"street_address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	PostalCode    *string `json:"postal_code"`
	Country       *string `json:"country"`
	IsDefault     *bool   `json:"is_default"`
}

// Validate validates the UpdateDeliveryAddressRequest, checking only the
// fields that were provided.
func (r *UpdateDeliveryAddressRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.RecipientName,
			validation.NilOrNotEmpty.Error("recipient_name cannot be blank"),
			validation.Length(1, 255).Error("recipient_name must be between 1 and 255 characters"),
		),
		validation.Field(&r.PhoneNumber,
			validation.When(r.PhoneNumber != nil, appValidation.Phone),
		),
		validation.Field(&r.StreetAddress,
			validation.NilOrNotEmpty.Error("street_address cannot be blank"),
			validation.Length(1, 255).Error("street_address must be between 1 and 255 characters"),
		),
		validation.Field(&r.City,
			validation.NilOrNotEmpty.Error("city cannot be blank"),
			validation.Length(1, 128).Error("city must be between 1 and 128 characters"),
		),
		validation.Field(&r.State,
			validation.NilOrNotEmpty.Error("state cannot be blank"),
			validation.Length(1, 64).Error("state must be between 1 and 64 characters"),
		),
		validation.Field(&r.PostalCode,
			validation.NilOrNotEmpty.Error("postal_code cannot be blank"),
			validation.Length(1, 32).Error("postal_code must be between 1 and 32 characters"),
		),
		validation.Field(&r.Country,
			validation.NilOrNotEmpty.Error("country cannot be blank"),
			validation.Length(2, 64).Error("country must be between 2 and 64 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}
