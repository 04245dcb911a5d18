package event

import (
	"context"
	"encoding/json"
	"fmt"
	"rental/infras/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

type rabbitMQBus struct {
	client rabbitmq.Client
}

// NewRabbitMQBus publishes each topic as a routing key on the configured topic exchange.
func NewRabbitMQBus(client rabbitmq.Client) Bus {
	return &rabbitMQBus{client: client}
}

func (b *rabbitMQBus) Publish(ctx context.Context, topic string, messages ...Message) error {
	for _, msg := range messages {
		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", msg.Type, err)
		}

		if err = b.client.Publish(ctx, topic, msg.ID, body); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

func (b *rabbitMQBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.client.Consume(ctx, topic, func(ctx context.Context, delivery amqp.Delivery) error { //nolint:wrapcheck
		msg, err := decode(delivery.Body)
		if err != nil {
			return err
		}

		return handler(ctx, msg)
	})
}
