// Package event carries domain notifications over the configured broker.
package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=./mocks/event_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"rental/config"
	"rental/infras/kafka"
	"rental/infras/rabbitmq"
	"rental/shared/timezone"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Message is the envelope written to every broker.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

func NewMessage(eventType, key string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	return Message{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: timezone.Now(),
		Payload:    raw,
	}, nil
}

func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Type, err)
	}

	return nil
}

func decode(body []byte) (Message, error) {
	var msg Message

	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	return msg, nil
}

type Handler func(ctx context.Context, msg Message) error

type Bus interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
	// Subscribe blocks until ctx is cancelled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// New picks the bus for cfg.Event.Broker. An empty or unknown broker yields a bus that
// drops publications and never delivers.
func New(cfg *config.Config, kafkaClient kafka.Client, rabbitClient rabbitmq.Client) Bus {
	switch cfg.Event.Broker {
	case BrokerKafka:
		return NewKafkaBus(kafkaClient, cfg.Kafka.ConsumerGroup)
	case BrokerRabbitMQ:
		return NewRabbitMQBus(rabbitClient)
	default:
		log.Warn().Str("broker", cfg.Event.Broker).Msg("no event broker configured, events are discarded")

		return NewNoopBus()
	}
}
