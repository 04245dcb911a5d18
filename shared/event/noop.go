package event

import (
	"context"

	"github.com/rs/zerolog/log"
)

type noopBus struct{}

func NewNoopBus() Bus {
	return noopBus{}
}

func (noopBus) Publish(_ context.Context, topic string, messages ...Message) error {
	for _, msg := range messages {
		log.Debug().Str("topic", topic).Str("type", msg.Type).Str("key", msg.Key).Msg("event discarded")
	}

	return nil
}

func (noopBus) Subscribe(ctx context.Context, _ string, _ Handler) error {
	<-ctx.Done()

	return nil
}
