package booking

import (
	"context"
	"net/http"
	"rental/infras/otel"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/service"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/failure"
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
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookings)
		routerGroup.Get("/mybookings", handler.GetMyBookings)
		routerGroup.Get("/conflicts", handler.GetConflicts)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
		routerGroup.Patch("/{id}/approve", handler.ApproveBooking)
		routerGroup.Patch("/{id}/reject", handler.RejectBooking)
		routerGroup.Patch("/{id}/start", handler.StartBooking)
		routerGroup.Patch("/{id}/overtime", handler.MarkBookingOvertime)
		routerGroup.Patch("/{id}/finish", handler.FinishBooking)
	})
}

// CreateBooking handles the creation of a new booking.
// @Summary Create a new booking
// @Description Reserve a vehicle unit for an inclusive date range. The booking starts pending with a pending payment.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Schedule conflict, details list the conflicting bookings"
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings retrieves all bookings based on query parameters.
// @Summary Get all bookings
// @Description Retrieve all bookings with optional filtering and pagination.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param unit_id query int false "Filter by vehicle unit ID"
// @Param status query string false "Filter by status (pending, approved, rejected, on_going, overtime, done)"
// @Param kind query string false "Filter by kind (customer, admin_block)"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup, err := filtersFromQuery(r)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetMyBookings retrieves all bookings for the currently authenticated user.
// @Summary Get my bookings
// @Description Retrieve the bookings requested by the authenticated user.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param unit_id query int false "Filter by vehicle unit ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of user's bookings"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/mybookings [get]
// @Security BearerAuth
func (handler *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyBookings")
	defer scope.End()

	userID, ok := ctx.Value(constant.ContextKeyUserID).(string)
	if !ok || userID == "" {
		err := failure.Unauthorized("unauthorized")
		scope.TraceError(err)
		log.Error().Msg("failed to get user ID from context")
		response.WithError(w, err)

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup, err := filtersFromQuery(r)
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	filterGroup = gDto.And(
		gDto.Filter{Field: model.FieldRequesterID, Operator: gDto.FilterOperatorEq, Value: userID, Table: model.TableName},
		filterGroup,
	)

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user bookings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User bookings retrieved successfully for user " + userID)

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetConflicts lists the live bookings that would block a window on a unit.
// @Summary Find schedule conflicts
// @Description List pending, approved and on-going bookings on a unit that intersect the inclusive window.
// @Tags Booking
// @Produce json
// @Param unit_id query int true "Vehicle unit ID"
// @Param start_date query string true "Start date (YYYYMMDD)"
// @Param end_date query string true "End date (YYYYMMDD)"
// @Param exclude_id query string false "Booking ID to ignore"
// @Success 200 {object} response.Data[dto.ConflictsResponse] "Conflicting bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/conflicts [get]
// @Security BearerAuth
func (handler *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetConflicts")
	defer scope.End()

	query := r.URL.Query()

	unitID, err := shared.ParseID(constant.RequestParamUnitID, query.Get(constant.RequestParamUnitID))
	if err == nil && unitID == 0 {
		err = failure.BadRequestFromString("unit_id is required")
	}

	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	period, err := daterange.Parse(query.Get(constant.RequestParamStartDate), query.Get(constant.RequestParamEndDate))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	conflicts, err := handler.service.FindConflicts(ctx, unitID, period, query.Get(constant.RequestParamExcludeID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to find conflicts")

		response.WithError(w, err)

		return
	}

	res := dto.ConflictsResponse{UnitID: unitID, Conflicts: dto.ConflictsFromModels(conflicts)}
	res.Period.FromRange(period)

	response.WithJSON(w, http.StatusOK, res)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Description Retrieve a booking by its unique identifier.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// DeleteBooking deletes a booking by its ID.
// @Summary Delete a booking by ID
// @Description Hard delete a booking and its payment.
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Booking deleted successfully")
}

// ApproveBooking approves a pending booking.
// @Summary Approve a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Approved booking"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Booking is not pending"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/approve [patch]
// @Security BearerAuth
func (handler *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	handler.transition(w, r, "ApproveBooking", handler.service.Approve)
}

// RejectBooking rejects a pending booking with a reason, optionally moving its payment.
// @Summary Reject a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.RejectBookingRequest true "Reject Booking Request"
// @Success 200 {object} response.Data[dto.BookingResponse] "Rejected booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Booking is not pending"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/reject [patch]
// @Security BearerAuth
func (handler *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.RejectBookingRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Reject(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reject booking")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, booking)
}

// StartBooking marks an approved booking as picked up.
// @Summary Start a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Started booking"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Transition not allowed"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/start [patch]
// @Security BearerAuth
func (handler *Handler) StartBooking(w http.ResponseWriter, r *http.Request) {
	handler.transition(w, r, "StartBooking", handler.service.Start)
}

// MarkBookingOvertime flags an on-going booking that passed its end date.
// @Summary Mark a booking overtime
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Overtime booking"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Transition not allowed"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/overtime [patch]
// @Security BearerAuth
func (handler *Handler) MarkBookingOvertime(w http.ResponseWriter, r *http.Request) {
	handler.transition(w, r, "MarkBookingOvertime", handler.service.MarkOvertime)
}

// FinishBooking closes an on-going or overtime booking.
// @Summary Finish a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Finished booking"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error "Transition not allowed"
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/finish [patch]
// @Security BearerAuth
func (handler *Handler) FinishBooking(w http.ResponseWriter, r *http.Request) {
	handler.transition(w, r, "FinishBooking", handler.service.Finish)
}

type transitionFunc func(ctx context.Context, id string) (dto.BookingResponse, error)

func (handler *Handler) transition(w http.ResponseWriter, r *http.Request, name string, apply transitionFunc) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+"."+name)
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := apply(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("bookingID", id).Msg("failed to change booking status")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking moved to " + booking.Status)

	response.WithJSON(w, http.StatusOK, booking)
}

func filtersFromQuery(r *http.Request) (gDto.FilterGroup, error) {
	query := r.URL.Query()
	filters := []any{}

	unitID, err := shared.ParseID(constant.RequestParamUnitID, query.Get(constant.RequestParamUnitID))
	if err != nil {
		return gDto.FilterGroup{}, err //nolint:wrapcheck
	}

	if unitID > 0 {
		filters = append(filters, gDto.Filter{Field: model.FieldUnitID, Operator: gDto.FilterOperatorEq, Value: unitID, Table: model.TableName})
	}

	if status := query.Get(constant.RequestParamStatus); status != "" {
		if !model.Status(status).IsValid() {
			return gDto.FilterGroup{}, failure.BadRequestFromString("invalid booking status") // nolint:wrapcheck
		}

		filters = append(filters, gDto.Filter{Field: model.FieldStatus, Operator: gDto.FilterOperatorEq, Value: status, Table: model.TableName})
	}

	if kind := query.Get(constant.RequestParamKind); kind != "" {
		if !model.Kind(kind).IsValid() {
			return gDto.FilterGroup{}, failure.BadRequestFromString("invalid booking kind") // nolint:wrapcheck
		}

		filters = append(filters, gDto.Filter{Field: model.FieldKind, Operator: gDto.FilterOperatorEq, Value: kind, Table: model.TableName})
	}

	return gDto.And(filters...), nil
}
