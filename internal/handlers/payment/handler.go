package payment

import (
	"net/http"
	"rental/infras/otel"
	"rental/internal/domains/payment/model"
	"rental/internal/domains/payment/model/dto"
	"rental/internal/domains/payment/service"
	"rental/shared/constant"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	"rental/shared/validator"
	"rental/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

const formFieldProof = "proof"

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetPayments)
		routerGroup.Get("/{id}", handler.GetPaymentByID)
		routerGroup.Patch("/{id}/status", handler.UpdatePaymentStatus)
		routerGroup.Post("/{id}/proof", handler.UploadPaymentProof)
		routerGroup.Post("/{id}/approve", handler.ApprovePayment)
		routerGroup.Post("/{id}/reject", handler.RejectPaymentProof)
	})
}

// GetPayments retrieves all payments based on query parameters.
// @Summary Get all payments
// @Tags Payment
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "Filter by status (unpaid, pending, paid)"
// @Success 200 {object} response.Data[dto.GetTransactionsResponse] "List of payments"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments [get]
// @Security BearerAuth
func (handler *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPayments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: []any{}}

	if status := r.URL.Query().Get(constant.RequestParamStatus); status != "" {
		if !model.Status(status).IsValid() {
			err := failure.BadRequestFromString("invalid payment status")
			scope.TraceError(err)
			response.WithError(w, err)

			return
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	payments, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payments")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payments)
}

// GetPaymentByID retrieves a payment by its ID.
// @Summary Get a payment by ID
// @Tags Payment
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Data[dto.TransactionResponse] "Payment details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetPaymentByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentByID")
	defer scope.End()

	payment, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payment)
}

// UpdatePaymentStatus sets a payment status and aligns the linked booking.
// @Summary Update payment status
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body dto.UpdateStatusRequest true "Update Status Request"
// @Success 200 {object} response.Data[dto.TransactionResponse] "Updated payment"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdatePaymentStatus")
	defer scope.End()

	req := dto.UpdateStatusRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	payment, err := handler.service.UpdateStatus(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update payment status")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payment)
}

// UploadPaymentProof stores a transfer receipt and puts the payment into verification.
// @Summary Upload payment proof
// @Tags Payment
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Payment ID"
// @Param proof formData file true "Payment proof image (png, jpg, jpeg, max 5 MB)"
// @Success 200 {object} response.Data[dto.TransactionResponse] "Payment awaiting verification"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id}/proof [post]
// @Security BearerAuth
func (handler *Handler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadPaymentProof")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		err = failure.BadRequest(err)
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, err)

		return
	}

	req := dto.UploadProofRequest{}

	file, fileHeader, err := r.FormFile(formFieldProof)
	if err == nil {
		req.Proof = fileHeader
		req.ProofFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	payment, err := handler.service.UploadProof(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload payment proof")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Payment proof uploaded by user " + user)

	response.WithJSON(w, http.StatusOK, payment)
}

// ApprovePayment verifies an uploaded proof and approves the booking.
// @Summary Approve a payment
// @Tags Payment
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Data[dto.TransactionResponse] "Paid payment"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApprovePayment")
	defer scope.End()

	payment, err := handler.service.ApprovePayment(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to approve payment")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payment)
}

// RejectPaymentProof sends a pending proof back to the customer.
// @Summary Reject a payment proof
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body dto.RejectProofRequest true "Reject Proof Request"
// @Success 200 {object} response.Data[dto.TransactionResponse] "Unpaid payment"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectPaymentProof(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectPaymentProof")
	defer scope.End()

	req := dto.RejectProofRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	payment, err := handler.service.RejectProof(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reject payment proof")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, payment)
}
