package service

import (
	"context"
	"errors"
	"fmt"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	paymentModel "rental/internal/domains/payment/model"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	gRepo "rental/shared/repository"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	noteApproved       = "Booking approved"
	noteRejectedPrefix = "Booking rejected: "

	msgConcurrentChange = "booking was changed by another request, please reload"
)

// reschedulePatch lists the columns a reschedule may touch. An empty note is left alone.
type reschedulePatch struct {
	StartAt    time.Time `db:"start_at"`
	EndAt      time.Time `db:"end_at"`
	StatusNote string    `db:"status_note"`
}

// reprice is a payment amount change that follows a customer booking to its new window.
type reprice struct {
	transactionID string
	from          int64
	to            int64
}

var paymentStatusNotes = map[paymentModel.Status]string{
	paymentModel.StatusUnpaid:  "Payment marked unpaid, please upload a valid payment proof",
	paymentModel.StatusPending: "Payment proof is awaiting verification",
	paymentModel.StatusPaid:    "Payment verified, but the booking is still rejected",
}

func (s *serviceImpl) Approve(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.Status != model.StatusPending {
		return res, failure.InvalidState(fmt.Sprintf("only pending bookings can be approved, booking is %s", booking.Status)) // nolint:wrapcheck
	}

	updated, err := s.changeStatus(ctx, booking, model.StatusApproved, noteApproved)
	if err != nil {
		return res, err
	}

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Reject(ctx context.Context, id string, req dto.RejectBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	reason := strings.TrimSpace(req.Reason)
	if reason == constant.Empty {
		return res, failure.BadRequestFromString("rejection reason is required") // nolint:wrapcheck
	}

	if minLength := s.minRejectReasonLength(); utf8.RuneCountInString(reason) < minLength {
		return res, failure.BadRequestFromString(fmt.Sprintf("rejection reason must be at least %d characters", minLength)) // nolint:wrapcheck
	}

	var paymentStatus paymentModel.Status

	if req.PaymentStatus != constant.Empty {
		paymentStatus = paymentModel.Status(strings.ToLower(strings.TrimSpace(req.PaymentStatus)))
		if !paymentStatus.IsValid() {
			return res, failure.BadRequestFromString("invalid payment status") // nolint:wrapcheck
		}
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.Status != model.StatusPending {
		return res, failure.InvalidState(fmt.Sprintf("only pending bookings can be rejected, booking is %s", booking.Status)) // nolint:wrapcheck
	}

	note := noteRejectedPrefix + reason

	var transaction paymentModel.Transaction

	if paymentStatus != constant.Empty && booking.TransactionID.Valid {
		transaction, err = s.paymentRepo.Get(ctx, shared.FilterByID(booking.TransactionID.String, paymentModel.FieldID, paymentModel.TableName))
		if err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to get payment")

			return res, fmt.Errorf("failed to get payment: %w", err)
		}

		if transaction.ID != constant.Empty {
			if paymentStatus == paymentModel.StatusPaid && !transaction.HasProof() {
				return res, failure.BadRequestFromString("payment cannot be marked paid without a payment proof") // nolint:wrapcheck
			}

			note = fmt.Sprintf("%s. %s", note, paymentStatusNotes[paymentStatus])
		}
	}

	// Payment before booking. A failed booking write puts the previous payment status back.
	if transaction.ID != constant.Empty {
		if err = s.setPaymentStatus(ctx, transaction.ID, paymentStatus); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to update payment status")

			return res, err
		}
	}

	updated, err := s.changeStatus(ctx, booking, model.StatusRejected, note)
	if err != nil {
		if transaction.ID != constant.Empty {
			if restoreErr := s.setPaymentStatus(ctx, transaction.ID, transaction.Status); restoreErr != nil {
				log.Warn().
					Err(restoreErr).
					Str("bookingID", booking.ID).
					Str("transactionID", transaction.ID).
					Str("status", string(transaction.Status)).
					Msg("data integrity: payment status not restored after failed rejection")
			}
		}

		return res, err
	}

	res.FromModel(updated)

	return res, nil
}

func (s *serviceImpl) Start(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Start")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.advance(ctx, id, model.StatusOnGoing)
}

func (s *serviceImpl) MarkOvertime(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".MarkOvertime")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.advance(ctx, id, model.StatusOvertime)
}

func (s *serviceImpl) Finish(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Finish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.advance(ctx, id, model.StatusDone)
}

// Reschedule moves a booking to a new window on the same unit. The booking's own interval is
// ignored by the conflict check.
func (s *serviceImpl) Reschedule(ctx context.Context, id string, period daterange.Range, note string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reschedule")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = period.Validate(s.maxRangeDays()); err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if booking.Status.IsTerminal() {
		return res, failure.InvalidState(fmt.Sprintf("a %s booking cannot be rescheduled", booking.Status)) // nolint:wrapcheck
	}

	unlock, err := s.lockUnit(ctx, booking.UnitID)
	if err != nil {
		return res, err
	}
	defer unlock()

	conflicts, err := s.FindConflicts(ctx, booking.UnitID, period, booking.ID)
	if err != nil {
		return res, err
	}

	if len(conflicts) > 0 {
		return res, failure.ScheduleConflict(msgUnitUnavailable, dto.ConflictsFromModels(conflicts)) // nolint:wrapcheck
	}

	if note = strings.TrimSpace(note); note != constant.Empty {
		if booking.IsBlock() {
			note = model.BlockNote(note)
		}

		booking.StatusNote = note
	}

	change, err := s.repriceFor(ctx, booking, period)
	if err != nil {
		return res, err
	}

	if change.transactionID != constant.Empty {
		if err = s.setPaymentAmount(ctx, change.transactionID, change.to); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to reprice payment")

			return res, err
		}
	}

	now := s.now()
	fields := shared.TransformFields(reschedulePatch{StartAt: period.Start, EndAt: period.End, StatusNote: note}, actor(ctx), now)

	affected, err := s.repo.Update(ctx, fields, s.currentStatusFilter(booking))
	if err != nil || affected == 0 {
		s.restoreAmount(ctx, booking.ID, change)
	}

	if err != nil {
		if errors.Is(err, gRepo.ErrExclusionViolation) {
			return res, failure.ScheduleConflict(msgUnitUnavailable, nil) // nolint:wrapcheck
		}

		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to reschedule booking")

		return res, fmt.Errorf("failed to reschedule booking: %w", err)
	}

	if affected == 0 {
		return res, failure.InvalidState(msgConcurrentChange) // nolint:wrapcheck
	}

	booking.StartAt = period.Start
	booking.EndAt = period.End
	booking.ModifiedAt = now
	booking.ModifiedBy = actor(ctx)

	log.Info().Str("bookingID", booking.ID).Str("period", period.String()).Msg("booking rescheduled")

	s.invalidate(ctx, booking.ID)

	res.FromModel(booking)

	return res, nil
}

// repriceFor works out the amount an unsettled customer payment owes for the new window. The
// zero value means the payment is left as it is: blocks, settled payments and unchanged amounts.
func (s *serviceImpl) repriceFor(ctx context.Context, booking model.Booking, period daterange.Range) (reprice, error) {
	if booking.IsBlock() || !booking.TransactionID.Valid {
		return reprice{}, nil
	}

	transaction, err := s.paymentRepo.Get(ctx, shared.FilterByID(booking.TransactionID.String, paymentModel.FieldID, paymentModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to get payment")

		return reprice{}, fmt.Errorf("failed to get payment: %w", err)
	}

	if transaction.ID == constant.Empty || transaction.Status == paymentModel.StatusPaid {
		return reprice{}, nil
	}

	unit, err := s.unitService.GetUnit(ctx, booking.UnitID)
	if err != nil {
		return reprice{}, err //nolint:wrapcheck
	}

	amount := paymentModel.CalculateAmount(unit.PricePerDay, period.TotalDays())
	if amount == transaction.Amount {
		return reprice{}, nil
	}

	return reprice{transactionID: transaction.ID, from: transaction.Amount, to: amount}, nil
}

func (s *serviceImpl) setPaymentAmount(ctx context.Context, transactionID string, amount int64) error {
	fields := map[string]any{
		paymentModel.FieldAmount: amount,
		constant.FieldModifiedAt: s.now(),
		constant.FieldModifiedBy: actor(ctx),
	}

	if _, err := s.paymentRepo.Update(ctx, fields, shared.FilterByID(transactionID, paymentModel.FieldID, paymentModel.TableName)); err != nil {
		return fmt.Errorf("failed to update payment amount: %w", err)
	}

	return nil
}

func (s *serviceImpl) restoreAmount(ctx context.Context, bookingID string, change reprice) {
	if change.transactionID == constant.Empty {
		return
	}

	if err := s.setPaymentAmount(ctx, change.transactionID, change.from); err != nil {
		log.Warn().
			Err(err).
			Str("bookingID", bookingID).
			Str("transactionID", change.transactionID).
			Int64("amount", change.from).
			Msg("data integrity: payment amount not restored after failed reschedule")
	}
}

// advance applies a lifecycle step that is only checked against the transition table.
func (s *serviceImpl) advance(ctx context.Context, id string, to model.Status) (res dto.BookingResponse, err error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if !booking.Status.CanTransitionTo(to) {
		return res, failure.InvalidTransition(fmt.Sprintf("booking cannot move from %s to %s", booking.Status, to)) // nolint:wrapcheck
	}

	updated, err := s.changeStatus(ctx, booking, to, constant.Empty)
	if err != nil {
		return res, err
	}

	res.FromModel(updated)

	return res, nil
}

// changeStatus writes the new status only while the row still holds the status it was read with.
// An empty note keeps the current one.
func (s *serviceImpl) changeStatus(ctx context.Context, booking model.Booking, to model.Status, note string) (model.Booking, error) {
	now := s.now()
	user := actor(ctx)

	fields := map[string]any{
		model.FieldStatus:          string(to),
		model.FieldStatusUpdatedAt: now,
		constant.FieldModifiedAt:   now,
		constant.FieldModifiedBy:   user,
	}

	if note != constant.Empty {
		fields[model.FieldStatusNote] = note
	}

	affected, err := s.repo.Update(ctx, fields, s.currentStatusFilter(booking))
	if err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Str("to", string(to)).Msg("failed to update booking status")

		return booking, fmt.Errorf("failed to update booking status: %w", err)
	}

	if affected == 0 {
		return booking, failure.InvalidState(msgConcurrentChange) // nolint:wrapcheck
	}

	from := booking.Status

	booking.Status = to
	booking.StatusUpdatedAt = now
	booking.ModifiedAt = now
	booking.ModifiedBy = user

	if note != constant.Empty {
		booking.StatusNote = note
	}

	log.Info().Str("bookingID", booking.ID).Str("from", string(from)).Str("to", string(to)).Msg("booking status changed")

	s.invalidate(ctx, booking.ID)
	s.publishStatusChanged(ctx, booking, from)

	return booking, nil
}

func (s *serviceImpl) setPaymentStatus(ctx context.Context, transactionID string, status paymentModel.Status) error {
	fields := map[string]any{
		paymentModel.FieldStatus: string(status),
		constant.FieldModifiedAt: s.now(),
		constant.FieldModifiedBy: actor(ctx),
	}

	filter := shared.FilterByID(transactionID, paymentModel.FieldID, paymentModel.TableName)

	if _, err := s.paymentRepo.Update(ctx, fields, filter); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	return nil
}

// updateNote rewrites the status note without touching the status.
func (s *serviceImpl) updateNote(ctx context.Context, booking model.Booking, note string) error {
	fields := map[string]any{
		model.FieldStatusNote:    note,
		constant.FieldModifiedAt: s.now(),
		constant.FieldModifiedBy: actor(ctx),
	}

	if _, err := s.repo.Update(ctx, fields, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return fmt.Errorf("failed to update booking note: %w", err)
	}

	s.invalidate(ctx, booking.ID)

	return nil
}

func (s *serviceImpl) currentStatusFilter(booking model.Booking) gDto.FilterGroup {
	return gDto.And(
		gDto.Filter{Field: model.FieldID, Table: model.TableName, Value: booking.ID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Field: model.FieldStatus, Table: model.TableName, Value: string(booking.Status), Operator: gDto.FilterOperatorEq},
	)
}
