// Package dto provides data transfer objects for the delivery address HTTP layer.
package dto

import (
	"github.com/allisson/delivery/internal/address/domain"
	"github.com/allisson/delivery/internal/address/usecase"
)

// ToCreateAddressInput converts a CreateDeliveryAddressRequest to a use case input
func ToCreateAddressInput(req CreateDeliveryAddressRequest) usecase.CreateAddressInput {
	return usecase.CreateAddressInput{
		RecipientName: req.RecipientName,
		PhoneNumber:   req.PhoneNumber,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
}

// ToUpdateAddressInput converts an UpdateDeliveryAddressRequest to a use case input
func ToUpdateAddressInput(req UpdateDeliveryAddressRequest) usecase.UpdateAddressInput {
	return usecase.UpdateAddressInput{
		RecipientName: req.RecipientName,
		PhoneNumber:   req.PhoneNumber,
		StreetAddress: req.StreetAddress,
		City:          req.City,
		State:         req.State,
		PostalCode:    req.PostalCode,
		Country:       req.Country,
		IsDefault:     req.IsDefault,
	}
}

// ToDeliveryAddressResponse converts a domain DeliveryAddress to a response DTO
func ToDeliveryAddressResponse(address *domain.DeliveryAddress) DeliveryAddressResponse {
	return DeliveryAddressResponse{
		ID:            address.ID,
		PatientID:     address.PatientID,
		RecipientName: address.RecipientName,
		PhoneNumber:   address.PhoneNumber,
		StreetAddress: address.StreetAddress,
		City:          address.City,
		State:         address.State,
		PostalCode:    address.PostalCode,
		Country:       address.Country,
		IsDefault:     address.IsDefault,
		CreatedAt:     address.CreatedAt,
		UpdatedAt:     address.UpdatedAt,
	}
}

// ToDeliveryAddressListResponse converts domain addresses to a list response DTO
func ToDeliveryAddressListResponse(addresses []*domain.DeliveryAddress) DeliveryAddressListResponse {
	items := make([]DeliveryAddressResponse, 0, len(addresses))
	for _, address := range addresses {
		items = append(items, ToDeliveryAddressResponse(address))
	}
	return DeliveryAddressListResponse{DeliveryAddresses: items}
}
