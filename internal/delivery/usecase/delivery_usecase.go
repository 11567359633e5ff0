// Package usecase implements the delivery business logic: the status
// lifecycle and the transactional writes that keep state changes and
// outbox events atomic.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/delivery/internal/database"
	"github.com/allisson/delivery/internal/delivery/domain"
	apperrors "github.com/allisson/delivery/internal/errors"
	outboxDomain "github.com/allisson/delivery/internal/outbox/domain"
	appValidation "github.com/allisson/delivery/internal/validation"
)

// CreateDeliveryInput contains the input data for delivery creation
type CreateDeliveryInput struct {
	OrderID         int64           `json:"order_id"`
	DeliveryAddress json.RawMessage `json:"delivery_address"`
}

// UpdateStatusInput contains the input data for a status transition
type UpdateStatusInput struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

// UseCase defines the interface for delivery business logic operations
type UseCase interface {
	Create(ctx context.Context, input CreateDeliveryInput) (*domain.Delivery, error)
	UpdateStatus(
		ctx context.Context,
		id uuid.UUID,
		input UpdateStatusInput,
	) (*domain.Delivery, *domain.DeliveryLog, error)
	GetWithLogs(ctx context.Context, id uuid.UUID) (*domain.Delivery, []*domain.DeliveryLog, error)
	List(ctx context.Context) ([]*domain.Delivery, error)
}

// DeliveryRepository interface defines delivery repository operations
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *domain.Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Delivery, error)
	List(ctx context.Context) ([]*domain.Delivery, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DeliveryStatus) (*domain.Delivery, error)
	CreateLog(ctx context.Context, log *domain.DeliveryLog) error
	ListLogsByDeliveryID(ctx context.Context, deliveryID uuid.UUID) ([]*domain.DeliveryLog, error)
}

// OutboxEventRepository interface defines the outbox operation used by this module
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// DeliveryUseCase handles delivery-related business logic
type DeliveryUseCase struct {
	txManager    database.TxManager
	deliveryRepo DeliveryRepository
	outboxRepo   OutboxEventRepository
}

// NewDeliveryUseCase creates a new DeliveryUseCase
func NewDeliveryUseCase(
	txManager database.TxManager,
	deliveryRepo DeliveryRepository,
	outboxRepo OutboxEventRepository,
) *DeliveryUseCase {
	return &DeliveryUseCase{
		txManager:    txManager,
		deliveryRepo: deliveryRepo,
		outboxRepo:   outboxRepo,
	}
}

// validateCreateDeliveryInput validates the creation input
func (uc *DeliveryUseCase) validateCreateDeliveryInput(input CreateDeliveryInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.OrderID,
			validation.Required.Error("order_id is required"),
			validation.Min(int64(1)).Error("order_id must be positive"),
		),
		validation.Field(&input.DeliveryAddress,
			validation.Required.Error("delivery_address is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create creates a delivery in PREPARING and, in the same transaction, an
// orders.delivery_created outbox event. Either both rows commit or neither
// does.
func (uc *DeliveryUseCase) Create(
	ctx context.Context,
	input CreateDeliveryInput,
) (*domain.Delivery, error) {
	if err := uc.validateCreateDeliveryInput(input); err != nil {
		return nil, err
	}

	delivery := &domain.Delivery{
		ID:              uuid.Must(uuid.NewV7()),
		OrderID:         input.OrderID,
		DeliveryAddress: input.DeliveryAddress,
		Status:          domain.DeliveryStatusPreparing,
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.deliveryRepo.Create(ctx, delivery); err != nil {
			return err
		}

		return uc.publishEvent(ctx, domain.EventTypeDeliveryCreated, domain.DeliveryCreatedEvent{
			OrderID:    delivery.OrderID,
			DeliveryID: delivery.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return delivery, nil
}

// UpdateStatus applies a status transition. Within one transaction it updates
// the delivery row, appends one audit log and, if and only if the new status
// is DELIVERED, writes an orders.delivery_success outbox event. Any failure
// rolls all of it back.
func (uc *DeliveryUseCase) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	input UpdateStatusInput,
) (*domain.Delivery, *domain.DeliveryLog, error) {
	targetStatus, err := domain.ParseDeliveryStatus(input.Status)
	if err != nil {
		return nil, nil, err
	}

	var updated *domain.Delivery
	var log *domain.DeliveryLog

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		// Row lock: concurrent transitions on the same delivery serialize
		// here, so the status the check sees still holds when the update
		// runs. Without it two racing DELIVERED requests could both pass
		// the check and each write a log and a success event.
		current, err := uc.deliveryRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !current.Status.CanTransitionTo(targetStatus) {
			return apperrors.Wrap(
				apperrors.ErrInvalidTransition,
				fmt.Sprintf("cannot move %s to %s", current.Status, targetStatus),
			)
		}

		updated, err = uc.deliveryRepo.UpdateStatus(ctx, id, targetStatus)
		if err != nil {
			return err
		}

		log = &domain.DeliveryLog{
			ID:          uuid.Must(uuid.NewV7()),
			DeliveryID:  updated.ID,
			Description: input.Description,
			Status:      updated.Status,
		}
		if err := uc.deliveryRepo.CreateLog(ctx, log); err != nil {
			return err
		}

		if updated.Status.IsTerminal() {
			return uc.publishEvent(ctx, domain.EventTypeDeliverySuccess, domain.DeliverySuccessEvent{
				OrderID: updated.OrderID,
			})
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, log, nil
}

// GetWithLogs retrieves a delivery and its audit trail, logs newest first
func (uc *DeliveryUseCase) GetWithLogs(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Delivery, []*domain.DeliveryLog, error) {
	delivery, err := uc.deliveryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	logs, err := uc.deliveryRepo.ListLogsByDeliveryID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return delivery, logs, nil
}

// List retrieves all deliveries
func (uc *DeliveryUseCase) List(ctx context.Context) ([]*domain.Delivery, error) {
	return uc.deliveryRepo.List(ctx)
}

// publishEvent serializes the payload and writes one pending outbox event
// inside the caller's transaction.
func (uc *DeliveryUseCase) publishEvent(ctx context.Context, eventType string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event payload")
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(payloadJSON),
		Status:    outboxDomain.OutboxEventStatusPending,
	}

	if err := uc.outboxRepo.Create(ctx, outboxEvent); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}

	return nil
}
