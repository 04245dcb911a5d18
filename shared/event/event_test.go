package event_test

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rental/config"
	"rental/infras/kafka"
	kafkaMocks "rental/infras/kafka/mocks"
	"rental/infras/rabbitmq"
	rabbitMocks "rental/infras/rabbitmq/mocks"
	"rental/shared/event"
)

type statusChanged struct {
	BookingID string `json:"booking_id"`
	To        string `json:"to"`
}

func TestMessage_Decode(t *testing.T) {
	msg, err := event.NewMessage("booking.status_changed", "bk-1", statusChanged{BookingID: "bk-1", To: "approved"})
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "bk-1", msg.Key)
	assert.False(t, msg.OccurredAt.IsZero())

	var payload statusChanged

	require.NoError(t, msg.Decode(&payload))
	assert.Equal(t, statusChanged{BookingID: "bk-1", To: "approved"}, payload)
}

func TestNew_NoBrokerDiscards(t *testing.T) {
	bus := event.New(&config.Config{}, nil, nil)

	msg, err := event.NewMessage("booking.status_changed", "bk-1", statusChanged{})
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), "booking.status_changed", msg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, bus.Subscribe(ctx, "payment.status_changed", func(context.Context, event.Message) error {
		t.Fatal("no message expected")

		return nil
	}))
}

func TestKafkaBus(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := kafkaMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Event.Broker = event.BrokerKafka
	cfg.Kafka.ConsumerGroup = "rental-scheduler"

	bus := event.New(cfg, client, nil)

	msg, err := event.NewMessage("booking.status_changed", "bk-1", statusChanged{BookingID: "bk-1", To: "approved"})
	require.NoError(t, err)

	client.EXPECT().
		SendMessages(gomock.Any(), "booking.status_changed", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, records ...kafkaGo.Message) error {
			require.Len(t, records, 1)
			assert.Equal(t, []byte("bk-1"), records[0].Key)
			assert.Equal(t, "booking.status_changed", string(records[0].Headers[0].Value))

			return nil
		})

	require.NoError(t, bus.Publish(context.Background(), "booking.status_changed", msg))

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	client.EXPECT().
		Consume(gomock.Any(), "rental-scheduler", "payment.status_changed", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, handler kafka.Handler) error {
			return handler(ctx, kafkaGo.Message{Value: body})
		})

	var received event.Message

	err = bus.Subscribe(context.Background(), "payment.status_changed", func(_ context.Context, got event.Message) error {
		received = got

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, msg.ID, received.ID)
	assert.JSONEq(t, string(msg.Payload), string(received.Payload))
}

func TestRabbitMQBus(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := rabbitMocks.NewMockClient(ctrl)

	cfg := &config.Config{}
	cfg.Event.Broker = event.BrokerRabbitMQ

	bus := event.New(cfg, nil, client)

	msg, err := event.NewMessage("booking.status_changed", "bk-1", statusChanged{BookingID: "bk-1"})
	require.NoError(t, err)

	client.EXPECT().Publish(gomock.Any(), "booking.status_changed", msg.ID, gomock.Any()).Return(nil)

	require.NoError(t, bus.Publish(context.Background(), "booking.status_changed", msg))

	client.EXPECT().
		Consume(gomock.Any(), "payment.status_changed", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, handler rabbitmq.Handler) error {
			return handler(ctx, amqp.Delivery{Body: []byte("not json")})
		})

	err = bus.Subscribe(context.Background(), "payment.status_changed", func(context.Context, event.Message) error {
		t.Fatal("malformed deliveries must not reach the handler")

		return nil
	})

	assert.Error(t, err)
}
