package service

import (
	"context"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/shared/event"

	"github.com/rs/zerolog/log"
)

const EventStatusChanged = "booking.status_changed"

// publishStatusChanged announces a committed status change. Delivery failures are logged only.
func (s *serviceImpl) publishStatusChanged(ctx context.Context, booking model.Booking, from model.Status) {
	msg, err := event.NewMessage(EventStatusChanged, booking.ID, dto.StatusChangedEvent{
		BookingID: booking.ID,
		UnitID:    booking.UnitID,
		Kind:      string(booking.Kind),
		From:      string(from),
		To:        string(booking.Status),
		Note:      booking.StatusNote,
		At:        booking.StatusUpdatedAt,
	})
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to build booking status event")

		return
	}

	if err = s.bus.Publish(ctx, s.cfg.Event.Topics.BookingStatus, msg); err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to publish booking status event")
	}
}
