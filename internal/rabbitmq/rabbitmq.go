// Package rabbitmq provides the AMQP connection, publisher and consumer used
// to exchange domain events with other services.
package rabbitmq

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config holds message broker configuration settings.
type Config struct {
	URL           string
	Exchange      string
	PrefetchCount int
}

// Connection wraps an AMQP connection and channel with the topology this
// service relies on: one durable topic exchange for domain events plus a
// dead-letter exchange for messages rejected as permanently unprocessable.
type Connection struct {
	config  Config
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// Connect dials the broker, opens a channel and declares the event exchange
// and its dead-letter counterpart.
func Connect(cfg Config, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Connection{
		config:  cfg,
		conn:    conn,
		channel: channel,
		logger:  logger,
	}

	if err := c.declareExchanges(); err != nil {
		_ = c.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("connected to rabbitmq", slog.String("exchange", cfg.Exchange))
	}

	return c, nil
}

// declareExchanges declares the durable topic exchange for domain events and
// the dead-letter exchange rejected messages are routed to.
func (c *Connection) declareExchanges() error {
	if err := c.channel.ExchangeDeclare(
		c.config.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", c.config.Exchange, err)
	}

	if err := c.channel.ExchangeDeclare(
		c.deadLetterExchange(),
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}

	return nil
}

// DeclareQueue declares a durable queue bound to the event exchange with the
// given routing keys, plus its dead-letter queue. Rejected messages
// (nack without requeue) end up in "<queue>.dlq".
func (c *Connection) DeclareQueue(queue string, routingKeys ...string) error {
	dlq := queue + ".dlq"

	if _, err := c.channel.QueueDeclare(
		dlq,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead letter queue %s: %w", dlq, err)
	}

	if err := c.channel.QueueBind(dlq, queue, c.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue %s: %w", dlq, err)
	}

	if _, err := c.channel.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    c.deadLetterExchange(),
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	for _, key := range routingKeys {
		if err := c.channel.QueueBind(queue, key, c.config.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", queue, key, err)
		}
	}

	return nil
}

// Channel returns the underlying AMQP channel.
func (c *Connection) Channel() *amqp.Channel {
	return c.channel
}

// Close closes the channel and the connection.
func (c *Connection) Close() error {
	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			return fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}

func (c *Connection) deadLetterExchange() string {
	return c.config.Exchange + ".dlx"
}
