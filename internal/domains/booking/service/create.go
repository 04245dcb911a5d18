package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/repository"
	paymentModel "rental/internal/domains/payment/model"
	"rental/shared/constant"
	"rental/shared/daterange"
	"rental/shared/failure"
	"rental/shared/lock"
	gModel "rental/shared/model"
	gRepo "rental/shared/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	noteAwaitingPayment = "awaiting payment verification"

	msgUnitUnavailable = "vehicle unit is not available for the selected dates"
	msgUnitBusy        = "vehicle unit is being booked by another request, please retry"
)

// reservation is one check-then-insert pass over a unit's calendar.
type reservation struct {
	unitID        int64
	period        daterange.Range
	requesterID   string
	kind          model.Kind
	status        model.Status
	note          string
	paymentStatus paymentModel.Status
	amount        int64
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	period, err := daterange.Parse(req.StartDate, req.EndDate)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if err = period.Validate(s.maxRangeDays()); err != nil {
		return res, err //nolint:wrapcheck
	}

	if period.Start.Before(daterange.StartOfDay(s.now())) {
		return res, failure.BadRequestFromString("start date must not be in the past") // nolint:wrapcheck
	}

	unit, err := s.unitService.GetUnit(ctx, req.UnitID)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.reserve(ctx, reservation{
		unitID:        unit.ID,
		period:        period,
		requesterID:   actor(ctx),
		kind:          model.KindCustomer,
		status:        model.StatusPending,
		note:          noteAwaitingPayment,
		paymentStatus: paymentModel.StatusPending,
		amount:        paymentModel.CalculateAmount(unit.PricePerDay, period.TotalDays()),
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

// CreateBlock reserves a unit for administrative use. Past windows are allowed and the
// booking starts approved with a settled zero-amount payment.
func (s *serviceImpl) CreateBlock(ctx context.Context, unitID int64, period daterange.Range, note string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateBlock")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = period.Validate(s.maxRangeDays()); err != nil {
		return res, err //nolint:wrapcheck
	}

	unit, err := s.unitService.GetUnit(ctx, unitID)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.reserve(ctx, reservation{
		unitID:        unit.ID,
		period:        period,
		requesterID:   actor(ctx),
		kind:          model.KindAdminBlock,
		status:        model.StatusApproved,
		note:          model.BlockNote(note),
		paymentStatus: paymentModel.StatusPaid,
		amount:        0,
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) FindConflicts(ctx context.Context, unitID int64, period daterange.Range, excludeID string) (res []model.Booking, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".FindConflicts")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !period.Start.Before(period.End) {
		return nil, failure.BadRequestFromString("end date must not be before start date") // nolint:wrapcheck
	}

	candidates, err := s.repo.FindOverlapping(ctx, repository.OverlapCriteria{
		UnitID:    unitID,
		Start:     period.Start,
		End:       period.End,
		Statuses:  model.ActiveStatuses,
		ExcludeID: excludeID,
	})
	if err != nil {
		log.Error().Err(err).Int64("unitID", unitID).Msg("failed to find overlapping bookings")

		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}

	res = make([]model.Booking, 0, len(candidates))

	for _, booking := range candidates {
		if booking.ID == excludeID || !booking.Status.IsActive() || !booking.Overlaps(period.Start, period.End) {
			continue
		}

		res = append(res, booking)
	}

	return res, nil
}

// reserve holds the unit lock across the conflict check and both inserts. The payment is written
// first and deleted again when the booking insert fails.
func (s *serviceImpl) reserve(ctx context.Context, r reservation) (model.Booking, error) {
	unlock, err := s.lockUnit(ctx, r.unitID)
	if err != nil {
		return model.Booking{}, err
	}
	defer unlock()

	conflicts, err := s.FindConflicts(ctx, r.unitID, r.period, constant.Empty)
	if err != nil {
		return model.Booking{}, err
	}

	if len(conflicts) > 0 {
		return model.Booking{}, failure.ScheduleConflict(msgUnitUnavailable, dto.ConflictsFromModels(conflicts)) // nolint:wrapcheck
	}

	now := s.now()
	metadata := gModel.NewMetadata(r.requesterID, now)

	transaction := paymentModel.Transaction{
		ID:       uuid.NewString(),
		Method:   paymentModel.MethodQRIS,
		Amount:   r.amount,
		Status:   r.paymentStatus,
		Metadata: metadata,
	}

	if err = s.paymentRepo.Insert(ctx, transaction); err != nil {
		log.Error().Err(err).Int64("unitID", r.unitID).Msg("failed to create payment")

		return model.Booking{}, fmt.Errorf("failed to create payment: %w", err)
	}

	booking := model.Booking{
		ID:              uuid.NewString(),
		UnitID:          r.unitID,
		RequesterID:     r.requesterID,
		StartAt:         r.period.Start,
		EndAt:           r.period.End,
		Status:          r.status,
		Kind:            r.kind,
		StatusNote:      r.note,
		TransactionID:   sql.NullString{String: transaction.ID, Valid: true},
		StatusUpdatedAt: now,
		Metadata:        metadata,
	}

	if err = s.repo.Insert(ctx, booking); err != nil {
		s.deletePayment(ctx, transaction.ID, booking.ID)

		if errors.Is(err, gRepo.ErrExclusionViolation) {
			return model.Booking{}, s.conflictAfterRace(ctx, r)
		}

		log.Error().Err(err).Int64("unitID", r.unitID).Msg("failed to create booking")

		return model.Booking{}, fmt.Errorf("failed to create booking: %w", err)
	}

	log.Info().
		Str("bookingID", booking.ID).
		Int64("unitID", booking.UnitID).
		Str("kind", string(booking.Kind)).
		Str("period", r.period.String()).
		Msg("booking created")

	s.invalidate(ctx, booking.ID)

	return booking, nil
}

// conflictAfterRace reports a conflict the database caught after the in-process check passed.
func (s *serviceImpl) conflictAfterRace(ctx context.Context, r reservation) error {
	conflicts, err := s.FindConflicts(ctx, r.unitID, r.period, constant.Empty)
	if err != nil {
		conflicts = nil
	}

	return failure.ScheduleConflict(msgUnitUnavailable, dto.ConflictsFromModels(conflicts)) // nolint:wrapcheck
}

func (s *serviceImpl) lockUnit(ctx context.Context, unitID int64) (func(), error) {
	unlock, err := s.locker.Lock(ctx, lock.Key(lockResourceUnit, unitID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, failure.ScheduleConflict(msgUnitBusy, nil) // nolint:wrapcheck
		}

		log.Error().Err(err).Int64("unitID", unitID).Msg("failed to lock unit")

		return nil, fmt.Errorf("failed to lock unit: %w", err)
	}

	return unlock, nil
}
