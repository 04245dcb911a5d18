package availability

import (
	"net/http"
	"rental/infras/otel"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/service"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/validator"
	"rental/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/availability", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.CheckAvailability)
		routerGroup.Get("/units", handler.GetAvailableUnits)
	})
}

// CheckAvailability reports whether a unit is free over a window.
// @Summary Check unit availability
// @Description Missing start defaults to today and missing end to start plus 30 days.
// @Tags Availability
// @Produce json
// @Param unit_id query int false "Vehicle unit ID"
// @Param unit_code query string false "Vehicle unit code, used when unit_id is empty"
// @Param start_date query string false "Start date (YYYYMMDD)"
// @Param end_date query string false "End date (YYYYMMDD)"
// @Success 200 {object} response.Data[dto.AvailabilityResponse] "Availability"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/availability [get]
func (handler *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	query := r.URL.Query()

	unitID, err := shared.ParseID(constant.RequestParamUnitID, query.Get(constant.RequestParamUnitID))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	req := dto.AvailabilityRequest{
		UnitID:    unitID,
		UnitCode:  query.Get(constant.RequestParamUnitCode),
		StartDate: query.Get(constant.RequestParamStartDate),
		EndDate:   query.Get(constant.RequestParamEndDate),
	}

	if err = validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	res, err := handler.service.CheckAvailability(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// GetAvailableUnits lists units with no live booking in the window.
// @Summary List available units
// @Tags Availability
// @Produce json
// @Param start_date query string false "Start date (YYYYMMDD)"
// @Param end_date query string false "End date (YYYYMMDD)"
// @Success 200 {object} response.Data[dto.AvailableUnitsResponse] "Available units"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/availability/units [get]
func (handler *Handler) GetAvailableUnits(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAvailableUnits")
	defer scope.End()

	req := dto.AvailableUnitsRequest{
		StartDate: r.URL.Query().Get(constant.RequestParamStartDate),
		EndDate:   r.URL.Query().Get(constant.RequestParamEndDate),
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	res, err := handler.service.AvailableUnits(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list available units")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}
