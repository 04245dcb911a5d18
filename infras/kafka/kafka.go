package kafka

//go:generate go run go.uber.org/mock/mockgen -source=./kafka.go -destination=./mocks/kafka_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"rental/config"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const (
	writeBatchTimeout = 50 * time.Millisecond
	retryFetchBackoff = time.Second
)

// Handler processes one record. A nil return commits the offset.
type Handler func(ctx context.Context, message kafkaGo.Message) error

type Client interface {
	SendMessages(ctx context.Context, topic string, messages ...kafkaGo.Message) (err error)
	Consume(ctx context.Context, consumerGroup, topic string, handler Handler) error
	Close() error
}

type kafkaClientImpl struct {
	config    *config.Config
	dialer    *kafkaGo.Dialer
	transport *kafkaGo.Transport

	mu      sync.Mutex
	writers map[string]*kafkaGo.Writer
}

func New(config *config.Config) Client {
	dialer := &kafkaGo.Dialer{DualStack: true}
	transport := &kafkaGo.Transport{}

	if config.Kafka.SASL.Username != "" {
		mechanism := plain.Mechanism{
			Username: config.Kafka.SASL.Username,
			Password: config.Kafka.SASL.Password,
		}

		dialer.SASLMechanism = mechanism
		transport.SASL = mechanism
	}

	log.Info().Strs("brokers", config.Kafka.Brokers).Msg("Kafka client initialized")

	return &kafkaClientImpl{
		config:    config,
		dialer:    dialer,
		transport: transport,
		writers:   map[string]*kafkaGo.Writer{},
	}
}

func (k *kafkaClientImpl) writer(topic string) *kafkaGo.Writer {
	k.mu.Lock()
	defer k.mu.Unlock()

	if writer, ok := k.writers[topic]; ok {
		return writer
	}

	writer := &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(k.config.Kafka.Brokers...),
		Topic:                  topic,
		Transport:              k.transport,
		Balancer:               &kafkaGo.Hash{},
		BatchTimeout:           writeBatchTimeout,
		RequiredAcks:           kafkaGo.RequireAll,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = writer

	return writer
}

func (k *kafkaClientImpl) SendMessages(ctx context.Context, topic string, messages ...kafkaGo.Message) error {
	if len(messages) == 0 {
		return nil
	}

	if err := k.writer(topic).WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to send message to Kafka.")

		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	log.Debug().Str("topic", topic).Int("count", len(messages)).Msg("Sent message successfully.")

	return nil
}

// Consume blocks until ctx is cancelled. Messages whose handler fails stay uncommitted
// and are redelivered after a rebalance or restart.
func (k *kafkaClientImpl) Consume(ctx context.Context, consumerGroup, topic string, handler Handler) error {
	if topic == "" {
		return errors.New("topic name cannot be empty")
	}

	groupID := k.config.Kafka.ConsumerGroup
	if consumerGroup != "" {
		groupID = consumerGroup
	}

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     k.config.Kafka.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		Dialer:      k.dialer,
		StartOffset: kafkaGo.FirstOffset,
	})

	defer func() {
		if err := reader.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka reader.")
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Str("topic", topic).Msg("Consumer context done.")

				return nil
			}

			log.Error().Err(err).Str("topic", topic).Msg("Failed to read message from Kafka.")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryFetchBackoff):
			}

			continue
		}

		if err = handler(ctx, msg); err != nil {
			log.Error().Err(err).Str("topic", topic).Str("key", string(msg.Key)).Msg("Failed to handle Kafka message.")

			continue
		}

		if err = reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Failed to commit Kafka message.")
		}
	}
}

func (k *kafkaClientImpl) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var errs []error

	for topic, writer := range k.writers {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}

	k.writers = map[string]*kafkaGo.Writer{}

	return errors.Join(errs...)
}
