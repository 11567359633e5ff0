// Package usecase implements the delivery address business logic.
package usecase

import (
	"context"

	"github.com/allisson/delivery/internal/address/domain"
	"github.com/allisson/delivery/internal/database"
)

// CreateAddressInput contains the input data for address creation
type CreateAddressInput struct {
	RecipientName string
	PhoneNumber   string
	StreetAddress string
	City          string
	State         string
	PostalCode    string
	Country       string
	IsDefault     bool
}

// UpdateAddressInput contains the partial input data for an address update.
// Nil fields keep their current value.
type UpdateAddressInput struct {
	RecipientName *string
	PhoneNumber   *string
	StreetAddress *string
	City          *string
	State         *string
	PostalCode    *string
	Country       *string
	IsDefault     *bool
}

// UseCase defines the interface for delivery address business logic operations
type UseCase interface {
	Create(ctx context.Context, patientID int64, input CreateAddressInput) (*domain.DeliveryAddress, error)
	Get(ctx context.Context, id int64) (*domain.DeliveryAddress, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*domain.DeliveryAddress, error)
	Update(ctx context.Context, id, patientID int64, input UpdateAddressInput) (*domain.DeliveryAddress, error)
	Delete(ctx context.Context, id, patientID int64) error
}

// AddressRepository interface defines address repository operations
type AddressRepository interface {
	Create(ctx context.Context, address *domain.DeliveryAddress) error
	GetByID(ctx context.Context, id int64) (*domain.DeliveryAddress, error)
	GetByIDForPatient(ctx context.Context, id, patientID int64) (*domain.DeliveryAddress, error)
	ListByPatientID(ctx context.Context, patientID int64) ([]*domain.DeliveryAddress, error)
	Update(ctx context.Context, address *domain.DeliveryAddress) error
	Delete(ctx context.Context, id, patientID int64) error
	ClearDefault(ctx context.Context, patientID int64) error
}

// AddressUseCase handles delivery address business logic
type AddressUseCase struct {
	txManager   database.TxManager
	addressRepo AddressRepository
}

// NewAddressUseCase creates a new AddressUseCase
func NewAddressUseCase(txManager database.TxManager, addressRepo AddressRepository) *AddressUseCase {
	return &AddressUseCase{
		txManager:   txManager,
		addressRepo: addressRepo,
	}
}

// Create stores a new address for the patient. Marking it default unsets the
// previous default in the same transaction.
func (uc *AddressUseCase) Create(
	ctx context.Context,
	patientID int64,
	input CreateAddressInput,
) (*domain.DeliveryAddress, error) {
	address := &domain.DeliveryAddress{
		PatientID:     patientID,
		RecipientName: input.RecipientName,
		PhoneNumber:   input.PhoneNumber,
		StreetAddress: input.StreetAddress,
		City:          input.City,
		State:         input.State,
		PostalCode:    input.PostalCode,
		Country:       input.Country,
		IsDefault:     input.IsDefault,
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if address.IsDefault {
			if err := uc.addressRepo.ClearDefault(ctx, patientID); err != nil {
				return err
			}
		}
		return uc.addressRepo.Create(ctx, address)
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

// Get retrieves an address by ID without owner scoping
func (uc *AddressUseCase) Get(ctx context.Context, id int64) (*domain.DeliveryAddress, error) {
	return uc.addressRepo.GetByID(ctx, id)
}

// ListByPatient retrieves the patient's addresses
func (uc *AddressUseCase) ListByPatient(
	ctx context.Context,
	patientID int64,
) ([]*domain.DeliveryAddress, error) {
	return uc.addressRepo.ListByPatientID(ctx, patientID)
}

// Update applies a partial update to one of the patient's addresses
func (uc *AddressUseCase) Update(
	ctx context.Context,
	id, patientID int64,
	input UpdateAddressInput,
) (*domain.DeliveryAddress, error) {
	var updated *domain.DeliveryAddress

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		address, err := uc.addressRepo.GetByIDForPatient(ctx, id, patientID)
		if err != nil {
			return err
		}

		applyUpdate(address, input)

		if input.IsDefault != nil && *input.IsDefault {
			if err := uc.addressRepo.ClearDefault(ctx, patientID); err != nil {
				return err
			}
		}

		if err := uc.addressRepo.Update(ctx, address); err != nil {
			return err
		}

		updated = address
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes one of the patient's addresses
func (uc *AddressUseCase) Delete(ctx context.Context, id, patientID int64) error {
	return uc.addressRepo.Delete(ctx, id, patientID)
}

func applyUpdate(address *domain.DeliveryAddress, input UpdateAddressInput) {
	if input.RecipientName != nil {
		address.RecipientName = *input.RecipientName
	}
	if input.PhoneNumber != nil {
		address.PhoneNumber = *input.PhoneNumber
	}
	if input.StreetAddress != nil {
		address.StreetAddress = *input.StreetAddress
	}
	if input.City != nil {
		address.City = *input.City
	}
	if input.State != nil {
		address.State = *input.State
	}
	if input.PostalCode != nil {
		address.PostalCode = *input.PostalCode
	}
	if input.Country != nil {
		address.Country = *input.Country
	}
	if input.IsDefault != nil {
		address.IsDefault = *input.IsDefault
	}
}
