package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"rental/config"
	otelMocks "rental/infras/otel/mocks"
	"rental/internal/consumers/payment"
	"rental/internal/domains/payment/model/dto"
	"rental/internal/domains/payment/service/mocks"
	"rental/shared/event"
	eventMocks "rental/shared/event/mocks"
	"rental/shared/failure"
)

func TestConsumer_Handle(t *testing.T) {
	tests := []struct {
		name      string
		payload   any
		setupMock func(m *mocks.MockPayment)
		wantErr   bool
	}{
		{
			name:      "invalid status is dropped",
			payload:   dto.StatusChangedEvent{TransactionID: "trx-1", Status: "refunded"},
			setupMock: func(*mocks.MockPayment) {},
		},
		{
			name:      "missing transaction is dropped",
			payload:   map[string]string{"status": "paid"},
			setupMock: func(*mocks.MockPayment) {},
		},
		{
			name:    "unknown transaction is dropped",
			payload: dto.StatusChangedEvent{TransactionID: "trx-1", Status: "paid"},
			setupMock: func(m *mocks.MockPayment) {
				m.EXPECT().UpdateStatus(gomock.Any(), "trx-1", dto.UpdateStatusRequest{Status: "paid"}).
					Return(dto.TransactionResponse{}, failure.NotFound("payment not found"))
			},
		},
		{
			name:    "infrastructure failure is redelivered",
			payload: dto.StatusChangedEvent{TransactionID: "trx-1", Status: "paid"},
			setupMock: func(m *mocks.MockPayment) {
				m.EXPECT().UpdateStatus(gomock.Any(), "trx-1", gomock.Any()).Return(dto.TransactionResponse{}, errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name:    "status applied",
			payload: dto.StatusChangedEvent{TransactionID: "trx-1", Status: "unpaid"},
			setupMock: func(m *mocks.MockPayment) {
				m.EXPECT().UpdateStatus(gomock.Any(), "trx-1", dto.UpdateStatusRequest{Status: "unpaid"}).
					Return(dto.TransactionResponse{ID: "trx-1", Status: "unpaid"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockPayment(ctrl)
			tt.setupMock(svc)

			consumer := payment.New(eventMocks.NewMockBus(ctrl), svc, &config.Config{}, otelMocks.NewOtel())

			msg, err := event.NewMessage("payment.status_changed", "trx-1", tt.payload)
			assert.NoError(t, err)

			err = consumer.Handle(context.Background(), msg)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestConsumer_RunSubscribesToPaymentTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus := eventMocks.NewMockBus(ctrl)

	cfg := &config.Config{}
	cfg.Event.Topics.PaymentStatus = "payment.status_changed"

	bus.EXPECT().Subscribe(gomock.Any(), "payment.status_changed", gomock.Any()).Return(nil)

	consumer := payment.New(bus, mocks.NewMockPayment(ctrl), cfg, otelMocks.NewOtel())
	assert.NoError(t, consumer.Run(context.Background()))
}
