package rabbitmq

//go:generate go run go.uber.org/mock/mockgen -source=./rabbitmq.go -destination=./mocks/rabbitmq_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"rental/config"
	"rental/shared/constant"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const exchangeKind = "topic"

// Handler processes one delivery. A nil return acks it, an error requeues it once.
type Handler func(ctx context.Context, delivery amqp.Delivery) error

type Client interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
	Consume(ctx context.Context, routingKey string, handler Handler) error
	Close() error
}

type client struct {
	config *config.Config

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New returns a client that dials lazily, so a service configured for another broker
// never opens a connection.
func New(config *config.Config) Client {
	return &client{config: config}
}

func (c *client) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.config.RabbitMQ.URL)
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}

		c.conn = conn
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err = ch.ExchangeDeclare(c.config.RabbitMQ.Exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()

		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", c.config.RabbitMQ.Exchange).Msg("RabbitMQ channel opened")

	c.ch = ch

	return ch, nil
}

func (c *client) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, c.config.RabbitMQ.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  constant.ContentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         body,
	})
	if err != nil {
		log.Error().Err(err).Str("routing_key", routingKey).Msg("Failed to publish message to RabbitMQ.")

		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	return nil
}

// Consume binds the configured queue to routingKey and blocks until ctx is cancelled
// or the delivery channel closes.
func (c *client) Consume(ctx context.Context, routingKey string, handler Handler) error {
	ch, err := c.channel()
	if err != nil {
		return err
	}

	queue, err := ch.QueueDeclare(c.config.RabbitMQ.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err = ch.QueueBind(queue.Name, routingKey, c.config.RabbitMQ.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", routingKey, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue.Name, err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("queue", queue.Name).Msg("Consumer context done.")

			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}

			if err = handler(ctx, delivery); err != nil {
				log.Error().Err(err).Str("routing_key", delivery.RoutingKey).Msg("Failed to handle RabbitMQ message.")

				_ = delivery.Nack(false, !delivery.Redelivered)

				continue
			}

			_ = delivery.Ack(false)
		}
	}
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil

		if err != nil && !errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("close rabbitmq: %w", err)
		}
	}

	return nil
}
