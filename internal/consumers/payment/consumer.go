// Package payment applies payment status changes announced by the payment gateway.
package payment

import (
	"context"
	"net/http"
	"rental/config"
	"rental/infras/otel"
	"rental/internal/domains/payment/model/dto"
	"rental/internal/domains/payment/service"
	"rental/shared/constant"
	"rental/shared/event"
	"rental/shared/failure"
	"rental/shared/validator"

	"github.com/rs/zerolog/log"
)

type Consumer struct {
	bus     event.Bus
	service service.Payment
	cfg     *config.Config
	otel    otel.Otel
}

func New(bus event.Bus, service service.Payment, cfg *config.Config, otel otel.Otel) Consumer {
	return Consumer{
		bus:     bus,
		service: service,
		cfg:     cfg,
		otel:    otel,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	topic := c.cfg.Event.Topics.PaymentStatus

	log.Info().Str("topic", topic).Msg("Starting payment status consumer.")

	return c.bus.Subscribe(ctx, topic, c.Handle) //nolint:wrapcheck
}

// Handle applies one message. Malformed messages and rejected transitions are dropped; only
// infrastructure failures are returned so the broker redelivers them.
func (c *Consumer) Handle(ctx context.Context, msg event.Message) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelConsumerScopeName, constant.OtelConsumerScopeName+".PaymentStatusChanged")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	req := dto.StatusChangedEvent{}

	if err := msg.Decode(&req); err != nil {
		log.Warn().Err(err).Str("eventID", msg.ID).Msg("dropping malformed payment event")

		return nil
	}

	if err := validator.ValidateStruct(&req); err != nil {
		log.Warn().Err(err).Str("eventID", msg.ID).Msg("dropping invalid payment event")

		return nil
	}

	_, err = c.service.UpdateStatus(ctx, req.TransactionID, dto.UpdateStatusRequest{Status: req.Status})
	if err != nil {
		if failure.GetCode(err) < http.StatusInternalServerError {
			log.Warn().Err(err).Str("transactionID", req.TransactionID).Msg("payment event rejected")

			return nil
		}

		log.Error().Err(err).Str("transactionID", req.TransactionID).Msg("failed to apply payment event")

		return err //nolint:wrapcheck
	}

	log.Info().Str("transactionID", req.TransactionID).Str("status", req.Status).Msg("payment event applied")

	return nil
}
