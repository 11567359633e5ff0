package usecase

import (
	"context"

	"github.com/allisson/delivery/internal/metrics"
	"github.com/allisson/delivery/internal/outbox/domain"
)

// Publisher interface defines the broker publish operation
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// BrokerEventProcessor publishes outbox events to the message broker using
// the event type as the routing key.
type BrokerEventProcessor struct {
	publisher        Publisher
	messagingMetrics metrics.MessagingMetrics
}

// NewBrokerEventProcessor creates a new BrokerEventProcessor
func NewBrokerEventProcessor(
	publisher Publisher,
	messagingMetrics metrics.MessagingMetrics,
) *BrokerEventProcessor {
	return &BrokerEventProcessor{
		publisher:        publisher,
		messagingMetrics: messagingMetrics,
	}
}

// Process publishes the event payload and returns only after the broker
// confirms it.
func (p *BrokerEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	if err := p.publisher.Publish(ctx, event.EventType, []byte(event.Payload)); err != nil {
		p.messagingMetrics.RecordPublished(ctx, event.EventType, "error")
		return err
	}
	p.messagingMetrics.RecordPublished(ctx, event.EventType, "success")
	return nil
}
