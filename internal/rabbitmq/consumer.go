package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/allisson/delivery/internal/errors"
)

// Handler processes the body of one inbound message. Returning nil means the
// message had its full business effect (the handler's transaction committed,
// or the message was a recognized duplicate) and may be acknowledged.
type Handler func(ctx context.Context, body []byte) error

// Consumer consumes one queue with manual acknowledgments. Each message gets
// exactly one terminal outcome:
//
//   - handler returns nil            -> ack
//   - permanent error (bad payload,
//     missing aggregate)             -> nack without requeue (dead-letter)
//   - any other error or a panic     -> nack with requeue (broker redelivers)
//
// The ack is sent strictly after the handler returns, so a crash between the
// handler's commit and the ack can only cause a redelivery, never data loss.
type Consumer struct {
	conn        *Connection
	queue       string
	concurrency int
	handler     Handler
	logger      *slog.Logger
}

// NewConsumer creates a consumer for the given queue. concurrency bounds how
// many messages are handled in parallel; values below 1 are treated as 1.
func NewConsumer(conn *Connection, queue string, concurrency int, handler Handler, logger *slog.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		queue:       queue,
		concurrency: concurrency,
		handler:     handler,
		logger:      logger,
	}
}

// Start consumes the queue until ctx is cancelled or the delivery channel
// closes. It blocks and returns ctx.Err() on cancellation.
func (c *Consumer) Start(ctx context.Context) error {
	channel := c.conn.Channel()

	if err := channel.Qos(c.conn.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := channel.ConsumeWithContext(
		ctx,
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", c.queue, err)
	}

	if c.logger != nil {
		c.logger.Info("starting consumer",
			slog.String("queue", c.queue),
			slog.Int("concurrency", c.concurrency),
		)
	}

	group := &errgroup.Group{}
	group.SetLimit(c.concurrency)

	for {
		select {
		case <-ctx.Done():
			if c.logger != nil {
				c.logger.Info("stopping consumer", slog.String("queue", c.queue))
			}
			_ = group.Wait()
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				_ = group.Wait()
				return fmt.Errorf("delivery channel closed for queue %s", c.queue)
			}
			group.Go(func() error {
				c.handle(ctx, delivery)
				return nil
			})
		}
	}
}

// handle runs the handler for one delivery and settles it with the broker.
func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			if c.logger != nil {
				c.logger.Error("panic in message handler",
					slog.String("queue", c.queue),
					slog.Any("panic", r),
				)
			}
			c.settle(delivery, func() error { return delivery.Nack(false, true) }, "nack-requeue")
		}
	}()

	err := c.handler(ctx, delivery.Body)

	switch {
	case err == nil:
		c.settle(delivery, func() error { return delivery.Ack(false) }, "ack")

	case apperrors.Is(err, apperrors.ErrInvalidInput), apperrors.Is(err, apperrors.ErrNotFound):
		// A malformed or unprocessable message never becomes valid through
		// retry; route it to the dead-letter queue.
		if c.logger != nil {
			c.logger.Warn("rejecting unprocessable message",
				slog.String("queue", c.queue),
				slog.Any("error", err),
			)
		}
		c.settle(delivery, func() error { return delivery.Nack(false, false) }, "nack-dead-letter")

	default:
		if c.logger != nil {
			c.logger.Error("failed to handle message, requeueing",
				slog.String("queue", c.queue),
				slog.Any("error", err),
			)
		}
		c.settle(delivery, func() error { return delivery.Nack(false, true) }, "nack-requeue")
	}
}

// settle applies one terminal broker outcome and logs settlement failures
// (a lost channel means the broker will redeliver anyway).
func (c *Consumer) settle(delivery amqp.Delivery, outcome func() error, name string) {
	if err := outcome(); err != nil && c.logger != nil {
		c.logger.Error("failed to settle message",
			slog.String("queue", c.queue),
			slog.String("outcome", name),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
			slog.Any("error", err),
		)
	}
}
