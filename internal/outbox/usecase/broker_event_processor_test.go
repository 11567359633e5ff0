package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/delivery/internal/metrics"
)

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func TestBrokerEventProcessor_Process(t *testing.T) {
	t.Run("routes by event type", func(t *testing.T) {
		publisher := &MockPublisher{}
		processor := NewBrokerEventProcessor(publisher, metrics.NewNoOpMessagingMetrics())

		ctx := context.Background()
		event := pendingEvent("orders.delivery_created")

		publisher.On("Publish", ctx, "orders.delivery_created", []byte(event.Payload)).Return(nil)

		err := processor.Process(ctx, event)
		assert.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("propagates publish errors", func(t *testing.T) {
		publisher := &MockPublisher{}
		processor := NewBrokerEventProcessor(publisher, metrics.NewNoOpMessagingMetrics())

		ctx := context.Background()
		event := pendingEvent("orders.delivery_success")
		publishErr := errors.New("channel closed")

		publisher.On("Publish", ctx, "orders.delivery_success", []byte(event.Payload)).
			Return(publishErr)

		err := processor.Process(ctx, event)
		assert.ErrorIs(t, err, publishErr)
	})
}
