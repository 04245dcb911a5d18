package di

import (
	"context"
	"errors"
	"rental/infras/kafka"
	"rental/infras/postgres"
	"rental/infras/rabbitmq"
	paymentConsumer "rental/internal/consumers/payment"
	"rental/transport/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// App is everything the long-running process serves: the HTTP API and the event consumers.
type App struct {
	HTTP            *http.HTTP
	PaymentConsumer paymentConsumer.Consumer
	Kafka           kafka.Client
	RabbitMQ        rabbitmq.Client
	DB              *postgres.Connection
}

// Run serves until ctx is cancelled or one of the components fails.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.HTTP.Serve(ctx)
	})

	group.Go(func() error {
		if err := a.PaymentConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err //nolint:wrapcheck
		}

		return nil
	})

	return group.Wait() //nolint:wrapcheck
}

func (a *App) close() {
	if err := a.Kafka.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka client")
	}

	if err := a.RabbitMQ.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close rabbitmq client")
	}

	if err := a.DB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database connections")
	}
}
