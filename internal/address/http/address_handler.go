// Package http provides HTTP handlers for delivery address operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/allisson/delivery/internal/address/http/dto"
	"github.com/allisson/delivery/internal/address/usecase"
	apperrors "github.com/allisson/delivery/internal/errors"
	"github.com/allisson/delivery/internal/httputil"
)

// PatientIDHeader carries the patient identity placed by the upstream gateway.
const PatientIDHeader = "X-Patient-Id"

// AddressHandler handles HTTP requests for delivery address operations
type AddressHandler struct {
	addressUseCase usecase.UseCase
	logger         *slog.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressUseCase usecase.UseCase, logger *slog.Logger) *AddressHandler {
	return &AddressHandler{
		addressUseCase: addressUseCase,
		logger:         logger,
	}
}

// GetHandler retrieves a delivery address by ID without owner scoping.
// GET /v1/delivery-addresses/:id
func (h *AddressHandler) GetHandler(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	address, err := h.addressUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeliveryAddressResponse(address))
}

// ListMyHandler lists the calling patient's delivery addresses.
// GET /v1/patients/delivery-addresses/my-delivery-addresses
func (h *AddressHandler) ListMyHandler(c *gin.Context) {
	patientID, err := patientID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	addresses, err := h.addressUseCase.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeliveryAddressListResponse(addresses))
}

// CreateHandler creates a delivery address for the calling patient.
// POST /v1/patients/delivery-addresses
func (h *AddressHandler) CreateHandler(c *gin.Context) {
	patientID, err := patientID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	var req dto.CreateDeliveryAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	address, err := h.addressUseCase.Create(c.Request.Context(), patientID, dto.ToCreateAddressInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDeliveryAddressResponse(address))
}

// UpdateHandler applies a partial update to one of the calling patient's
// addresses.
// PATCH /v1/patients/delivery-addresses/:id
func (h *AddressHandler) UpdateHandler(c *gin.Context) {
	patientID, err := patientID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.UpdateDeliveryAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	address, err := h.addressUseCase.Update(c.Request.Context(), id, patientID, dto.ToUpdateAddressInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeliveryAddressResponse(address))
}

// DeleteHandler removes one of the calling patient's addresses.
// DELETE /v1/patients/delivery-addresses/:id
func (h *AddressHandler) DeleteHandler(c *gin.Context) {
	patientID, err := patientID(c)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	id, err := parseIDParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.addressUseCase.Delete(c.Request.Context(), id, patientID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// patientID extracts the patient identity from the gateway header
func patientID(c *gin.Context) (int64, error) {
	raw := c.GetHeader(PatientIDHeader)
	if raw == "" {
		return 0, apperrors.Wrap(apperrors.ErrUnauthorized, "missing patient identity")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid patient identity")
	}
	return id, nil
}

func parseIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid address id")
	}
	return id, nil
}
