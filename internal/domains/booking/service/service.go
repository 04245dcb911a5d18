package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/repository"
	paymentModel "rental/internal/domains/payment/model"
	paymentRepo "rental/internal/domains/payment/repository"
	unitService "rental/internal/domains/unit/service"
	"rental/shared"
	"rental/shared/cache"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/event"
	"rental/shared/failure"
	"rental/shared/lock"
	"rental/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	lockResourceUnit = "unit"

	defaultMinRejectReasonLength = 3
	defaultAvailabilityDays      = 30
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	CreateBlock(ctx context.Context, unitID int64, period daterange.Range, note string) (dto.BookingResponse, error)
	FindConflicts(ctx context.Context, unitID int64, period daterange.Range, excludeID string) ([]model.Booking, error)

	Approve(ctx context.Context, id string) (dto.BookingResponse, error)
	Reject(ctx context.Context, id string, req dto.RejectBookingRequest) (dto.BookingResponse, error)
	Start(ctx context.Context, id string) (dto.BookingResponse, error)
	MarkOvertime(ctx context.Context, id string) (dto.BookingResponse, error)
	Finish(ctx context.Context, id string) (dto.BookingResponse, error)
	Reschedule(ctx context.Context, id string, period daterange.Range, note string) (dto.BookingResponse, error)
	Delete(ctx context.Context, id string) error

	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)

	CheckAvailability(ctx context.Context, req dto.AvailabilityRequest) (dto.AvailabilityResponse, error)
	AvailableUnits(ctx context.Context, req dto.AvailableUnitsRequest) (dto.AvailableUnitsResponse, error)

	// OnPaymentStatusChanged aligns the booking linked to a payment with the payment's new status.
	// Failures are logged and never returned to the payment flow.
	OnPaymentStatusChanged(ctx context.Context, transactionID string, status paymentModel.Status)
}

type serviceImpl struct {
	repo        repository.Booking
	paymentRepo paymentRepo.Transaction
	unitService unitService.Unit
	locker      lock.Locker
	bus         event.Bus
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
	now         func() time.Time
}

func New(
	repo repository.Booking,
	paymentRepo paymentRepo.Transaction,
	unitService unitService.Unit,
	locker lock.Locker,
	bus event.Bus,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:        repo,
		paymentRepo: paymentRepo,
		unitService: unitService,
		locker:      locker,
		bus:         bus,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
		now:         timezone.Now,
	}
}

func actor(ctx context.Context) string {
	if user, ok := ctx.Value(constant.ContextKeyUserID).(string); ok && user != "" {
		return user
	}

	return constant.ContextSystem
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		return res, nil
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, params, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, filter)
	if err != nil {
		return res, err
	}

	bookings, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, gDto.QueryParams{}, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Debug().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// Delete removes a booking and then its payment. A payment left behind is logged, not returned.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	if booking.TransactionID.Valid {
		s.deletePayment(ctx, booking.TransactionID.String, booking.ID)
	}

	log.Info().Str("bookingID", booking.ID).Str("kind", string(booking.Kind)).Msg("booking deleted")

	s.invalidate(ctx, booking.ID)

	return nil
}

// load returns the booking or a NotFound failure.
func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) deletePayment(ctx context.Context, transactionID, bookingID string) {
	err := s.paymentRepo.Delete(ctx, shared.FilterByID(transactionID, paymentModel.FieldID, paymentModel.TableName))
	if err != nil {
		log.Warn().
			Err(err).
			Str("transactionID", transactionID).
			Str("bookingID", bookingID).
			Msg("data integrity: payment left without a booking")
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

func (s *serviceImpl) maxRangeDays() int {
	return s.cfg.Scheduler.MaxRangeDays
}

func (s *serviceImpl) minRejectReasonLength() int {
	if s.cfg.Scheduler.MinRejectReasonLength > 0 {
		return s.cfg.Scheduler.MinRejectReasonLength
	}

	return defaultMinRejectReasonLength
}

func (s *serviceImpl) availabilityDays() int {
	if s.cfg.Scheduler.DefaultAvailabilityDays > 0 {
		return s.cfg.Scheduler.DefaultAvailabilityDays
	}

	return defaultAvailabilityDays
}
