package event

import (
	"context"
	"encoding/json"
	"fmt"
	"rental/infras/kafka"

	kafkaGo "github.com/segmentio/kafka-go"
)

const headerEventType = "event-type"

type kafkaBus struct {
	client kafka.Client
	group  string
}

func NewKafkaBus(client kafka.Client, consumerGroup string) Bus {
	return &kafkaBus{client: client, group: consumerGroup}
}

func (b *kafkaBus) Publish(ctx context.Context, topic string, messages ...Message) error {
	records := make([]kafkaGo.Message, 0, len(messages))

	for _, msg := range messages {
		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", msg.Type, err)
		}

		records = append(records, kafkaGo.Message{
			Key:     []byte(msg.Key),
			Value:   body,
			Headers: []kafkaGo.Header{{Key: headerEventType, Value: []byte(msg.Type)}},
		})
	}

	return b.client.SendMessages(ctx, topic, records...) //nolint:wrapcheck
}

func (b *kafkaBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.client.Consume(ctx, b.group, topic, func(ctx context.Context, record kafkaGo.Message) error { //nolint:wrapcheck
		msg, err := decode(record.Value)
		if err != nil {
			return err
		}

		return handler(ctx, msg)
	})
}
