package service

import (
	"context"
	"rental/internal/domains/block/model/dto"
	bookingDto "rental/internal/domains/booking/model/dto"
	"rental/shared/constant"
	"rental/shared/daterange"
	"rental/shared/failure"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Block reserves the window on every requested unit. Units are processed independently and a
// failed unit is reported in its result without stopping the others.
func (s *serviceImpl) Block(ctx context.Context, req dto.BlockRequest) (res dto.BlockResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Block")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	unitIDs := uniqueUnits(req.UnitIDs)
	if len(unitIDs) == 0 {
		return res, failure.BadRequestFromString("unit_ids must not be empty") // nolint:wrapcheck
	}

	period, err := daterange.Parse(req.StartDate, req.EndDate)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	if err = period.Validate(s.cfg.Scheduler.MaxRangeDays); err != nil {
		return res, err //nolint:wrapcheck
	}

	note := s.note(req.Note)
	results := make([]dto.UnitResult, len(unitIDs))

	var g errgroup.Group

	g.SetLimit(s.concurrency())

	for i, unitID := range unitIDs {
		g.Go(func() error {
			results[i] = s.blockUnit(ctx, unitID, period, note)

			return nil
		})
	}

	_ = g.Wait()

	for _, result := range results {
		if result.Status == dto.ResultSuccess {
			res.SuccessCount++
		} else {
			res.FailedCount++
		}
	}

	res.Results = results

	log.Info().
		Str("period", period.String()).
		Int("success", res.SuccessCount).
		Int("failed", res.FailedCount).
		Msg("units blocked")

	return res, nil
}

func (s *serviceImpl) blockUnit(ctx context.Context, unitID int64, period daterange.Range, note string) dto.UnitResult {
	result := dto.UnitResult{UnitID: unitID}

	booking, err := s.booking.CreateBlock(ctx, unitID, period, note)
	if err != nil {
		log.Warn().Err(err).Int64("unitID", unitID).Msg("failed to block unit")

		result.Status = dto.ResultFailed
		result.Message = err.Error()

		if failure.GetReason(err) == constant.Empty && failure.GetCode(err) >= 500 {
			result.Message = "failed to block unit"
		}

		if conflicts, ok := failure.GetDetails(err).([]bookingDto.ConflictResponse); ok {
			result.Conflicts = conflicts
		}

		return result
	}

	result.Status = dto.ResultSuccess
	result.Message = "unit blocked"
	result.BookingID = booking.ID
	result.BlockedPeriod = &bookingDto.PeriodResponse{StartDate: booking.StartDate, EndDate: booking.EndDate}

	return result
}

func uniqueUnits(unitIDs []int64) []int64 {
	out := make([]int64, 0, len(unitIDs))

	for _, id := range unitIDs {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}
