// Package http provides HTTP handlers for delivery operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/delivery/internal/delivery/http/dto"
	"github.com/allisson/delivery/internal/delivery/usecase"
	"github.com/allisson/delivery/internal/httputil"
	"github.com/allisson/delivery/internal/metrics"
)

// DeliveryHandler handles delivery-related HTTP requests
type DeliveryHandler struct {
	deliveryUseCase usecase.UseCase
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(
	deliveryUseCase usecase.UseCase,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryUseCase: deliveryUseCase,
		businessMetrics: businessMetrics,
		logger:          logger,
	}
}

// ListHandler lists deliveries, newest first.
// GET /v1/deliveries
func (h *DeliveryHandler) ListHandler(c *gin.Context) {
	deliveries, err := h.deliveryUseCase.List(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeliveryListResponse(deliveries))
}

// GetHandler retrieves a delivery with its audit trail.
// GET /v1/deliveries/:id
func (h *DeliveryHandler) GetHandler(c *gin.Context) {
	id, err := parseDeliveryID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	delivery, logs, err := h.deliveryUseCase.GetWithLogs(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeliveryDetailResponse(delivery, logs))
}

// UpdateStatusHandler applies a status transition to a delivery.
// PATCH /v1/deliveries/:id/status
func (h *DeliveryHandler) UpdateStatusHandler(c *gin.Context) {
	start := time.Now()

	id, err := parseDeliveryID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.UpdateDeliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	delivery, _, err := h.deliveryUseCase.UpdateStatus(c.Request.Context(), id, usecase.UpdateStatusInput{
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		h.recordUpdateStatus(c, start, "error")
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.recordUpdateStatus(c, start, "success")
	c.JSON(http.StatusOK, dto.ToDeliveryResponse(delivery))
}

func (h *DeliveryHandler) recordUpdateStatus(c *gin.Context, start time.Time, status string) {
	ctx := c.Request.Context()
	h.businessMetrics.RecordOperation(ctx, "delivery", "update_status", status)
	h.businessMetrics.RecordDuration(ctx, "delivery", "update_status", time.Since(start), status)
}

func parseDeliveryID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid delivery id")
	}
	return id, nil
}
