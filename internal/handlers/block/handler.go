package block

import (
	"net/http"
	"rental/infras/otel"
	"rental/internal/domains/block/model/dto"
	"rental/internal/domains/block/service"
	bookingModel "rental/internal/domains/booking/model"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/validator"
	"rental/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Block
	otel    otel.Otel
}

func New(service service.Block, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/blocks", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.BlockUnits)
		routerGroup.Get("/", handler.GetBlocks)
		routerGroup.Get("/dates", handler.GetBlockedDates)
		routerGroup.Get("/export", handler.ExportBlocks)
		routerGroup.Patch("/{id}", handler.RescheduleBlock)
		routerGroup.Delete("/{id}", handler.UnblockUnit)
	})
}

// BlockUnits reserves the same window on several units for administrative use.
// @Summary Block vehicle units
// @Description Each unit is processed independently; the response reports per-unit results.
// @Tags Block
// @Accept json
// @Produce json
// @Param request body dto.BlockRequest true "Block Request"
// @Success 200 {object} response.Data[dto.BlockResponse] "Per-unit results"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/blocks [post]
// @Security BearerAuth
func (handler *Handler) BlockUnits(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".BlockUnits")
	defer scope.End()

	req := dto.BlockRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Block(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to block units")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Units blocked by user " + user)

	response.WithJSON(w, http.StatusOK, res)
}

// GetBlocks lists admin blocks.
// @Summary List admin blocks
// @Tags Block
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param unit_id query int false "Filter by vehicle unit ID"
// @Param start_date query string false "Only blocks intersecting the window from this date (YYYYMMDD)"
// @Param end_date query string false "Only blocks intersecting the window up to this date (YYYYMMDD)"
// @Success 200 {object} response.Data[any] "List of blocks"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/blocks [get]
// @Security BearerAuth
func (handler *Handler) GetBlocks(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBlocks")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	query := r.URL.Query()
	filters := []any{}

	unitID, err := shared.ParseID(constant.RequestParamUnitID, query.Get(constant.RequestParamUnitID))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	if unitID > 0 {
		filters = append(filters, gDto.Filter{Field: bookingModel.FieldUnitID, Operator: gDto.FilterOperatorEq, Value: unitID, Table: bookingModel.TableName})
	}

	if start, end := query.Get(constant.RequestParamStartDate), query.Get(constant.RequestParamEndDate); start != "" && end != "" {
		period, err := daterange.Parse(start, end)
		if err != nil {
			scope.TraceError(err)
			response.WithError(w, err)

			return
		}

		filters = append(filters, gDto.Overlaps(bookingModel.TableName, bookingModel.FieldStartAt, bookingModel.FieldEndAt, period.Start, period.End))
	}

	blocks, err := handler.service.ListBlocks(ctx, queryParams, gDto.And(filters...))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list blocks")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, blocks)
}

// GetBlockedDates expands a unit's blocks into calendar days.
// @Summary Get blocked dates of a unit
// @Tags Block
// @Produce json
// @Param unit_id query int true "Vehicle unit ID"
// @Param start_date query string false "Start date (YYYYMMDD), defaults to today"
// @Param end_date query string false "End date (YYYYMMDD), defaults to start plus 30 days"
// @Success 200 {object} response.Data[dto.BlockedDatesResponse] "Blocked dates"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/blocks/dates [get]
// @Security BearerAuth
func (handler *Handler) GetBlockedDates(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBlockedDates")
	defer scope.End()

	query := r.URL.Query()

	unitID, err := shared.ParseID(constant.RequestParamUnitID, query.Get(constant.RequestParamUnitID))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	req := dto.BlockedDatesRequest{
		UnitID:    unitID,
		StartDate: query.Get(constant.RequestParamStartDate),
		EndDate:   query.Get(constant.RequestParamEndDate),
	}

	if err = validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	res, err := handler.service.BlockedDates(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get blocked dates")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// ExportBlocks downloads blocked schedules as a spreadsheet.
// @Summary Export admin blocks
// @Tags Block
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_date query string false "Start date (YYYYMMDD), defaults to today"
// @Param end_date query string false "End date (YYYYMMDD), defaults to start plus 30 days"
// @Success 200 {file} file "XLSX report"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/blocks/export [get]
// @Security BearerAuth
func (handler *Handler) ExportBlocks(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportBlocks")
	defer scope.End()

	req := dto.ExportRequest{
		StartDate: r.URL.Query().Get(constant.RequestParamStartDate),
		EndDate:   r.URL.Query().Get(constant.RequestParamEndDate),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	res, err := handler.service.Export(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export blocks")

		response.WithError(w, err)

		return
	}

	response.WithFile(w, res.FileName, constant.ContentTypeXLSX, res.Content)
}

// RescheduleBlock moves a block, or a customer booking when the caller is an administrator.
// @Summary Reschedule a block
// @Tags Block
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.RescheduleRequest true "Reschedule Request"
// @Success 200 {object} response.Data[any] "Rescheduled booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/blocks/{id} [patch]
// @Security BearerAuth
func (handler *Handler) RescheduleBlock(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RescheduleBlock")
	defer scope.End()

	req := dto.RescheduleRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Reschedule(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reschedule block")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// UnblockUnit removes an admin block.
// @Summary Remove an admin block
// @Tags Block
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Unit unblocked successfully"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Booking is not an admin block"
// @Failure 500 {object} response.Error
// @Router /v1/blocks/{id} [delete]
// @Security BearerAuth
func (handler *Handler) UnblockUnit(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UnblockUnit")
	defer scope.End()

	if err := handler.service.Unblock(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to unblock unit")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Unit unblocked by user " + user)

	response.WithMessage(w, http.StatusOK, "Unit unblocked successfully")
}
