package service

import (
	"context"
	"fmt"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/repository"
	unitModel "rental/internal/domains/unit/model"
	unitDto "rental/internal/domains/unit/model/dto"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	"strings"

	"github.com/rs/zerolog/log"
)

// CheckAvailability answers whether a unit is free over a window. Omitted dates default to
// today and today plus the configured availability window.
func (s *serviceImpl) CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	code := strings.TrimSpace(req.UnitCode)
	if req.UnitID <= 0 && code == constant.Empty {
		return res, failure.BadRequestFromString("unit_id or unit_code is required") // nolint:wrapcheck
	}

	period, err := s.window(req.StartDate, req.EndDate)
	if err != nil {
		return res, err
	}

	var unit unitDto.UnitResponse

	if req.UnitID > 0 {
		unit, err = s.unitService.GetUnit(ctx, req.UnitID)
	} else {
		unit, err = s.unitService.GetUnitByCode(ctx, code)
	}

	if err != nil {
		return res, err //nolint:wrapcheck
	}

	conflicts, err := s.FindConflicts(ctx, unit.ID, period, constant.Empty)
	if err != nil {
		return res, err
	}

	occupying, err := s.repo.FindOverlapping(ctx, repository.OverlapCriteria{
		UnitID:   unit.ID,
		Start:    period.Start,
		End:      period.End,
		Statuses: model.OccupyingStatuses,
	})
	if err != nil {
		log.Error().Err(err).Int64("unitID", unit.ID).Msg("failed to get unavailable periods")

		return res, fmt.Errorf("failed to get unavailable periods: %w", err)
	}

	res.UnitID = unit.ID
	res.UnitCode = unit.Code
	res.Available = len(conflicts) == 0
	res.Period.FromRange(period)
	res.Conflicts = dto.ConflictsFromModels(conflicts)
	res.UnavailablePeriods = dto.ConflictsFromModels(occupying)

	return res, nil
}

// AvailableUnits lists every unit without an active booking anywhere in the window.
func (s *serviceImpl) AvailableUnits(ctx context.Context, req dto.AvailableUnitsRequest) (res dto.AvailableUnitsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".AvailableUnits")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	period, err := s.window(req.StartDate, req.EndDate)
	if err != nil {
		return res, err
	}

	units, err := s.unitService.GetAll(ctx, gDto.QueryParams{SortBy: unitModel.FieldCode, SortDir: gDto.SortDirAsc}, gDto.FilterGroup{})
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	busy, err := s.repo.FindOverlapping(ctx, repository.OverlapCriteria{
		Start:    period.Start,
		End:      period.End,
		Statuses: model.ActiveStatuses,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get booked units")

		return res, fmt.Errorf("failed to get booked units: %w", err)
	}

	booked := make(map[int64]struct{}, len(busy))

	for _, booking := range busy {
		if booking.Status.IsActive() && booking.Overlaps(period.Start, period.End) {
			booked[booking.UnitID] = struct{}{}
		}
	}

	res.Period.FromRange(period)
	res.Units = make([]unitDto.UnitResponse, 0, len(units.Units))

	for _, unit := range units.Units {
		if _, ok := booked[unit.ID]; !ok {
			res.Units = append(res.Units, unit)
		}
	}

	return res, nil
}

func (s *serviceImpl) window(startDate, endDate string) (daterange.Range, error) {
	period, err := daterange.Default(startDate, endDate, s.availabilityDays())
	if err != nil {
		return period, err //nolint:wrapcheck
	}

	if err = period.Validate(s.maxRangeDays()); err != nil {
		return period, err //nolint:wrapcheck
	}

	return period, nil
}
