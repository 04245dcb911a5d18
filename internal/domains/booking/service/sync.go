package service

import (
	"context"
	"rental/internal/domains/booking/model"
	paymentModel "rental/internal/domains/payment/model"
	"rental/shared"
	"rental/shared/constant"

	"github.com/rs/zerolog/log"
)

const (
	noteSyncPaid          = "Payment verified, booking approved"
	noteSyncProofUploaded = "Payment proof uploaded, awaiting verification"
	noteSyncProofRejected = "Payment proof rejected, please upload a valid proof"
	noteSyncUnpaidWarning = "ATTENTION: payment changed to unpaid although the booking is already approved. Please contact admin."
)

func (s *serviceImpl) OnPaymentStatusChanged(ctx context.Context, transactionID string, status paymentModel.Status) {
	var err error

	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".OnPaymentStatusChanged")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute("transaction.id", transactionID)
	scope.SetAttribute("payment.status", string(status))

	logger := log.With().Str("transactionID", transactionID).Str("paymentStatus", string(status)).Logger()

	booking, err := s.repo.Get(ctx, shared.FilterByID(transactionID, model.FieldTransactionID, model.TableName))
	if err != nil {
		logger.Error().Err(err).Msg("failed to get booking for payment")

		return
	}

	if booking.ID == constant.Empty {
		logger.Warn().Msg("payment has no booking")

		return
	}

	if booking.IsBlock() || booking.Status.IsTerminal() {
		return
	}

	switch {
	case status == paymentModel.StatusPaid && booking.Status == model.StatusPending:
		_, err = s.changeStatus(ctx, booking, model.StatusApproved, noteSyncPaid)
	case status == paymentModel.StatusPending:
		err = s.updateNote(ctx, booking, noteSyncProofUploaded)
	case status == paymentModel.StatusUnpaid && booking.Status == model.StatusPending:
		err = s.updateNote(ctx, booking, noteSyncProofRejected)
	case status == paymentModel.StatusUnpaid && booking.Status == model.StatusApproved:
		err = s.updateNote(ctx, booking, noteSyncUnpaidWarning)
		logger.Warn().Str("bookingID", booking.ID).Msg("payment reverted to unpaid on an approved booking")
	default:
		return
	}

	if err != nil {
		logger.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to synchronize booking with payment")
	}
}
