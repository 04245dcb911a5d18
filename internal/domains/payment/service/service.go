package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/infras/s3"
	bookingModel "rental/internal/domains/booking/model"
	bookingRepo "rental/internal/domains/booking/repository"
	"rental/internal/domains/payment/model"
	"rental/internal/domains/payment/model/dto"
	"rental/internal/domains/payment/repository"
	"rental/shared"
	"rental/shared/cache"
	"rental/shared/constant"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	"rental/shared/timezone"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetPayment    = "payment:get"
	cacheGetAllPayment = "payment:gets"
)

// Synchronizer receives every committed payment status change.
type Synchronizer interface {
	OnPaymentStatusChanged(ctx context.Context, transactionID string, status model.Status)
}

type Payment interface {
	Get(ctx context.Context, id string) (dto.TransactionResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetTransactionsResponse, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (dto.TransactionResponse, error)
	UploadProof(ctx context.Context, id string, req dto.UploadProofRequest) (dto.TransactionResponse, error)
	ApprovePayment(ctx context.Context, id string) (dto.TransactionResponse, error)
	RejectProof(ctx context.Context, id string, req dto.RejectProofRequest) (dto.TransactionResponse, error)
}

type serviceImpl struct {
	repo         repository.Transaction
	bookingRepo  bookingRepo.Booking
	storage      s3.S3
	synchronizer Synchronizer
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
	now          func() time.Time
}

func New(
	repo repository.Transaction,
	bookingRepo bookingRepo.Booking,
	storage s3.S3,
	synchronizer Synchronizer,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		repo:         repo,
		bookingRepo:  bookingRepo,
		storage:      storage,
		synchronizer: synchronizer,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
		now:          timezone.Now,
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetPayment, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for payment")

		return res, nil
	}

	transaction, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(transaction)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payment to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetTransactionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPayment, params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for payments")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count payments")

		return res, fmt.Errorf("failed to count payments: %w", err)
	}

	transactions, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments")

		return res, fmt.Errorf("failed to get payments: %w", err)
	}

	res.FromModels(transactions, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payments to cache")
		}
	}()

	return res, nil
}

// UpdateStatus sets any status an administrator or the payment topic asks for. The gateway may
// settle a payment that never had a proof uploaded.
func (s *serviceImpl) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	status := model.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.IsValid() {
		return res, failure.BadRequestFromString("invalid payment status") // nolint:wrapcheck
	}

	transaction, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	return s.apply(ctx, transaction, map[string]any{model.FieldStatus: string(status)})
}

// UploadProof stores a new proof image and puts the payment back into verification.
func (s *serviceImpl) UploadProof(ctx context.Context, id string, req dto.UploadProofRequest) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadProof")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	transaction, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(transaction.ID, bookingModel.FieldTransactionID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("transactionID", id).Msg("failed to get booking for payment")

		return res, fmt.Errorf("failed to get booking for payment: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking for payment not found") // nolint:wrapcheck
	}

	if !canActFor(ctx, booking.RequesterID) {
		return res, failure.ResourceRestrictedError
	}

	if booking.Status == bookingModel.StatusRejected {
		return res, failure.InvalidOperation("booking has been rejected, payment proof can no longer be uploaded") // nolint:wrapcheck
	}

	if transaction.Status == model.StatusPaid {
		return res, failure.InvalidState("payment has already been verified") // nolint:wrapcheck
	}

	fileName := fmt.Sprintf("%s-%d", transaction.ID, s.now().Unix())

	url, err := s.storage.UploadFile(ctx, s.cfg.Payment.ProofDirectory, req.ProofFile, req.Proof, fileName)
	if err != nil {
		log.Error().Err(err).Str("transactionID", id).Msg("failed to upload payment proof")

		return res, fmt.Errorf("failed to upload payment proof: %w", err)
	}

	res, err = s.apply(ctx, transaction, map[string]any{
		model.FieldStatus:   string(model.StatusPending),
		model.FieldProofURL: url,
	})
	if err != nil {
		s.removeProof(ctx, url)

		return res, err
	}

	if transaction.HasProof() {
		s.removeProof(ctx, transaction.ProofURL)
	}

	return res, nil
}

func (s *serviceImpl) ApprovePayment(ctx context.Context, id string) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ApprovePayment")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	transaction, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	switch {
	case transaction.Status == model.StatusPaid:
		return res, failure.InvalidState("payment has already been verified") // nolint:wrapcheck
	case transaction.Status == model.StatusUnpaid || !transaction.HasProof():
		return res, failure.InvalidState("payment has no proof awaiting verification") // nolint:wrapcheck
	}

	return s.apply(ctx, transaction, map[string]any{model.FieldStatus: string(model.StatusPaid)})
}

func (s *serviceImpl) RejectProof(ctx context.Context, id string, req dto.RejectProofRequest) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RejectProof")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	transaction, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if transaction.Status != model.StatusPending {
		return res, failure.InvalidState(fmt.Sprintf("only pending payments can be rejected, payment is %s", transaction.Status)) // nolint:wrapcheck
	}

	log.Info().Str("transactionID", id).Str("reason", req.Reason).Msg("payment proof rejected")

	return s.apply(ctx, transaction, map[string]any{model.FieldStatus: string(model.StatusUnpaid)})
}

// apply persists fields, refreshes caches and hands the resulting status to the synchronizer.
func (s *serviceImpl) apply(ctx context.Context, transaction model.Transaction, fields map[string]any) (res dto.TransactionResponse, err error) {
	now := s.now()
	user := actor(ctx)

	fields[constant.FieldModifiedAt] = now
	fields[constant.FieldModifiedBy] = user

	if _, err = s.repo.Update(ctx, fields, shared.FilterByID(transaction.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("transactionID", transaction.ID).Msg("failed to update payment")

		return res, fmt.Errorf("failed to update payment: %w", err)
	}

	if status, ok := fields[model.FieldStatus].(string); ok {
		transaction.Status = model.Status(status)
	}

	if proof, ok := fields[model.FieldProofURL].(string); ok {
		transaction.ProofURL = proof
	}

	transaction.ModifiedAt = now
	transaction.ModifiedBy = user

	log.Info().Str("transactionID", transaction.ID).Str("status", string(transaction.Status)).Msg("payment updated")

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetPayment, transaction.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete payment from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllPayment)
	}()

	s.synchronizer.OnPaymentStatusChanged(ctx, transaction.ID, transaction.Status)

	res.FromModel(transaction)

	return res, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Transaction, error) {
	transaction, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("transactionID", id).Msg("failed to get payment")

		return transaction, fmt.Errorf("failed to get payment: %w", err)
	}

	if transaction.ID == constant.Empty {
		return transaction, failure.NotFound("payment not found") // nolint:wrapcheck
	}

	return transaction, nil
}

func (s *serviceImpl) removeProof(ctx context.Context, url string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.storage.DeleteFile(c, url); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete payment proof")
		}
	}()
}

func actor(ctx context.Context) string {
	if user, ok := ctx.Value(constant.ContextKeyUserID).(string); ok && user != constant.Empty {
		return user
	}

	return constant.ContextSystem
}

// canActFor reports whether the caller owns the booking or holds an administrative role.
// Calls without a user (the payment consumer) are trusted.
func canActFor(ctx context.Context, requesterID string) bool {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		return true
	}

	switch role, _ := ctx.Value(constant.ContextKeyUserRole).(string); role {
	case constant.RoleAdmin, constant.RoleSuperAdmin:
		return true
	default:
		return user == requesterID
	}
}
