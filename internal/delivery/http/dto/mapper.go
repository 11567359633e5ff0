// Package dto provides data transfer objects for the delivery HTTP layer.
package dto

import (
	"github.com/allisson/delivery/internal/delivery/domain"
)

// ToDeliveryResponse converts a domain Delivery to a response DTO
func ToDeliveryResponse(delivery *domain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:              delivery.ID,
		OrderID:         delivery.OrderID,
		DeliveryAddress: delivery.DeliveryAddress,
		Status:          string(delivery.Status),
		CreatedAt:       delivery.CreatedAt,
		UpdatedAt:       delivery.UpdatedAt,
	}
}

// ToDeliveryLogResponse converts a domain DeliveryLog to a response DTO
func ToDeliveryLogResponse(log *domain.DeliveryLog) DeliveryLogResponse {
	return DeliveryLogResponse{
		ID:          log.ID,
		Description: log.Description,
		Status:      string(log.Status),
		CreatedAt:   log.CreatedAt,
		UpdatedAt:   log.UpdatedAt,
	}
}

// ToDeliveryDetailResponse converts a delivery and its logs to a detail response DTO
func ToDeliveryDetailResponse(delivery *domain.Delivery, logs []*domain.DeliveryLog) DeliveryDetailResponse {
	logItems := make([]DeliveryLogResponse, 0, len(logs))
	for _, log := range logs {
		logItems = append(logItems, ToDeliveryLogResponse(log))
	}
	return DeliveryDetailResponse{
		DeliveryResponse: ToDeliveryResponse(delivery),
		Logs:             logItems,
	}
}

// ToDeliveryListResponse converts domain deliveries to a list response DTO
func ToDeliveryListResponse(deliveries []*domain.Delivery) DeliveryListResponse {
	items := make([]DeliveryResponse, 0, len(deliveries))
	for _, delivery := range deliveries {
		items = append(items, ToDeliveryResponse(delivery))
	}
	return DeliveryListResponse{Deliveries: items}
}
