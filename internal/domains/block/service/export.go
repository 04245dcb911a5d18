package service

import (
	"context"
	"fmt"
	"rental/internal/domains/block/model/dto"
	bookingModel "rental/internal/domains/booking/model"
	unitDto "rental/internal/domains/unit/model/dto"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Blocked Schedules"

var exportHeaders = []string{"Booking ID", "Unit Code", "Unit Name", "Start Date", "End Date", "Days", "Status", "Note", "Blocked By"}

// Export renders every live block inside the window as an XLSX workbook.
func (s *serviceImpl) Export(ctx context.Context, req dto.ExportRequest) (res dto.ExportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Export")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	window, err := s.window(req.StartDate, req.EndDate)
	if err != nil {
		return res, err
	}

	blocks, err := s.blocks(ctx, 0, window)
	if err != nil {
		return res, err
	}

	units, err := s.unitService.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{})
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	content, err := renderBlocks(blocks, indexUnits(units.Units))
	if err != nil {
		log.Error().Err(err).Msg("failed to render blocked schedules")

		return res, fmt.Errorf("failed to render blocked schedules: %w", err)
	}

	res.FileName = fmt.Sprintf("blocked-schedules-%s.xlsx", window.String())
	res.Content = content

	return res, nil
}

func renderBlocks(blocks []bookingModel.Booking, units map[int64]unitDto.UnitResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, block := range blocks {
		unit := units[block.UnitID]
		period := daterange.FromDates(block.StartAt, block.EndAt)

		row := []any{
			block.ID,
			unit.Code,
			unit.Name,
			daterange.Format(block.StartAt),
			daterange.Format(block.EndAt),
			len(period.Dates()),
			string(block.Status),
			bookingModel.StripBlockNote(block.StatusNote),
			block.CreatedBy,
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func indexUnits(units []unitDto.UnitResponse) map[int64]unitDto.UnitResponse {
	index := make(map[int64]unitDto.UnitResponse, len(units))
	for _, unit := range units {
		index[unit.ID] = unit
	}

	return index
}
