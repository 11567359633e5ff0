// Package consumer wires incoming broker messages into the delivery module.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/delivery/internal/delivery/domain"
	"github.com/allisson/delivery/internal/delivery/usecase"
	apperrors "github.com/allisson/delivery/internal/errors"
	"github.com/allisson/delivery/internal/metrics"
)

// OrderRequestHandler consumes delivery.order_request messages and creates the
// corresponding delivery.
type OrderRequestHandler struct {
	useCase         usecase.UseCase
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
}

// NewOrderRequestHandler creates a new OrderRequestHandler
func NewOrderRequestHandler(
	useCase usecase.UseCase,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *OrderRequestHandler {
	return &OrderRequestHandler{
		useCase:         useCase,
		businessMetrics: businessMetrics,
		logger:          logger,
	}
}

// Handle decodes one order request and creates its delivery. A duplicate
// order is treated as already processed and acknowledged; a payload that
// cannot be decoded or validated is rejected as unprocessable.
func (h *OrderRequestHandler) Handle(ctx context.Context, body []byte) error {
	start := time.Now()

	var event domain.OrderRequestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to decode order request", slog.String("error", err.Error()))
		h.record(ctx, start, "error")
		return apperrors.Wrap(apperrors.ErrInvalidInput, "malformed order request payload")
	}

	delivery, err := h.useCase.Create(ctx, usecase.CreateDeliveryInput{
		OrderID:         event.OrderID,
		DeliveryAddress: event.DeliveryAddress,
	})
	if err != nil {
		if apperrors.Is(err, domain.ErrDeliveryExists) {
			// Redelivered message, the delivery is already in place.
			h.logger.Info("order request already processed",
				slog.Int64("order_id", event.OrderID),
			)
			h.record(ctx, start, "duplicate")
			return nil
		}
		h.logger.Error("failed to create delivery from order request",
			slog.Int64("order_id", event.OrderID),
			slog.String("error", err.Error()),
		)
		h.record(ctx, start, "error")
		return err
	}

	h.logger.Info("delivery created from order request",
		slog.Int64("order_id", delivery.OrderID),
		slog.String("delivery_id", delivery.ID.String()),
	)
	h.record(ctx, start, "success")
	return nil
}

func (h *OrderRequestHandler) record(ctx context.Context, start time.Time, status string) {
	h.businessMetrics.RecordOperation(ctx, "delivery", "order_request_consume", status)
	h.businessMetrics.RecordDuration(ctx, "delivery", "order_request_consume", time.Since(start), status)
}
