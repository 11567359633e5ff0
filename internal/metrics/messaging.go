package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessagingMetrics defines the interface for recording broker publish
// metrics from the outbox relay.
type MessagingMetrics interface {
	// RecordPublished records one publish attempt for an event type.
	// Status examples: "success", "error"
	RecordPublished(ctx context.Context, eventType, status string)
}

type messagingMetrics struct {
	publishedCounter metric.Int64Counter
}

// NewMessagingMetrics creates a MessagingMetrics implementation backed by
// the provided meter provider.
func NewMessagingMetrics(meterProvider metric.MeterProvider, namespace string) (MessagingMetrics, error) {
	meter := meterProvider.Meter(namespace)

	publishedCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_events_published_total", namespace),
		metric.WithDescription("Total number of outbox events published to the broker"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create published counter: %w", err)
	}

	return &messagingMetrics{publishedCounter: publishedCounter}, nil
}

func (m *messagingMetrics) RecordPublished(ctx context.Context, eventType, status string) {
	m.publishedCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event_type", eventType),
			attribute.String("status", status),
		),
	)
}

// NoOpMessagingMetrics is a no-op implementation of MessagingMetrics.
type NoOpMessagingMetrics struct{}

// NewNoOpMessagingMetrics creates a no-op MessagingMetrics implementation.
func NewNoOpMessagingMetrics() MessagingMetrics {
	return &NoOpMessagingMetrics{}
}

// RecordPublished does nothing when metrics are disabled.
func (n *NoOpMessagingMetrics) RecordPublished(ctx context.Context, eventType, status string) {
	// No-op
}
