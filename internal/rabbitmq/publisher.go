package rabbitmq

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	apperrors "github.com/allisson/delivery/internal/errors"
)

// DefaultConfirmTimeout bounds the wait for a broker confirmation per message.
const DefaultConfirmTimeout = 5 * time.Second

// Publisher publishes messages to the event exchange in confirm mode. Publish
// returns nil only after the broker acknowledged the message, which is what
// allows the outbox worker to mark an entry sent without risking loss.
type Publisher struct {
	channel        *amqp.Channel
	exchange       string
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// NewPublisher puts the connection's channel into confirm mode and returns a
// Publisher bound to the configured exchange.
func NewPublisher(conn *Connection, logger *slog.Logger) (*Publisher, error) {
	channel := conn.Channel()

	if err := channel.Confirm(false); err != nil {
		return nil, apperrors.Wrap(err, "failed to enable confirm mode")
	}

	return &Publisher{
		channel:        channel,
		exchange:       conn.config.Exchange,
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logger,
	}, nil
}

// Publish sends a persistent message with the given routing key and waits for
// the broker confirmation. A nack or a confirmation timeout returns ErrPublish.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.Must(uuid.NewV7()).String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPublish, err.Error())
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPublish, err.Error())
	}
	if !acked {
		return apperrors.Wrap(apperrors.ErrPublish, "message nacked by broker")
	}

	if p.logger != nil {
		p.logger.Debug("published message",
			slog.String("exchange", p.exchange),
			slog.String("routing_key", routingKey),
		)
	}

	return nil
}
