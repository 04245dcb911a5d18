package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"rental/config"
	"rental/infras/otel"
	"rental/internal/domains/block/model/dto"
	bookingModel "rental/internal/domains/booking/model"
	bookingDto "rental/internal/domains/booking/model/dto"
	bookingRepo "rental/internal/domains/booking/repository"
	bookingService "rental/internal/domains/booking/service"
	unitService "rental/internal/domains/unit/service"
	"rental/shared"
	"rental/shared/constant"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	"rental/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBlockNote   = "vehicle under repair"
	defaultConcurrency = 4
	defaultWindowDays  = 30
)

type Block interface {
	Block(ctx context.Context, req dto.BlockRequest) (dto.BlockResponse, error)
	Unblock(ctx context.Context, bookingID string) error
	Reschedule(ctx context.Context, bookingID string, req dto.RescheduleRequest) (bookingDto.BookingResponse, error)
	ListBlocks(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (bookingDto.GetBookingsResponse, error)
	BlockedDates(ctx context.Context, req dto.BlockedDatesRequest) (dto.BlockedDatesResponse, error)
	Export(ctx context.Context, req dto.ExportRequest) (dto.ExportResponse, error)
}

type serviceImpl struct {
	booking     bookingService.Booking
	bookingRepo bookingRepo.Booking
	unitService unitService.Unit
	cfg         *config.Config
	otel        otel.Otel
	now         func() time.Time
}

func New(
	booking bookingService.Booking,
	bookingRepo bookingRepo.Booking,
	unitService unitService.Unit,
	cfg *config.Config,
	otel otel.Otel,
) Block {
	return &serviceImpl{
		booking:     booking,
		bookingRepo: bookingRepo,
		unitService: unitService,
		cfg:         cfg,
		otel:        otel,
		now:         timezone.Now,
	}
}

func (s *serviceImpl) Unblock(ctx context.Context, bookingID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Unblock")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return err
	}

	if !booking.IsBlock() {
		return failure.InvalidOperation("only admin blocks can be unblocked, use reject for customer bookings") // nolint:wrapcheck
	}

	if err = s.booking.Delete(ctx, booking.ID); err != nil {
		return err //nolint:wrapcheck
	}

	log.Info().Str("bookingID", booking.ID).Int64("unitID", booking.UnitID).Msg("unit unblocked")

	return nil
}

// Reschedule moves an admin block freely. Customer bookings may only be moved by administrators.
func (s *serviceImpl) Reschedule(ctx context.Context, bookingID string, req dto.RescheduleRequest) (res bookingDto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reschedule")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	period, err := daterange.Parse(req.StartDate, req.EndDate)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if !booking.IsBlock() && !isAdmin(ctx) {
		return res, failure.InvalidOperation("customer bookings can only be rescheduled by an administrator") // nolint:wrapcheck
	}

	return s.booking.Reschedule(ctx, booking.ID, period, req.Note) //nolint:wrapcheck
}

func (s *serviceImpl) ListBlocks(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res bookingDto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListBlocks")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	blocks := gDto.And(
		gDto.Filter{Field: bookingModel.FieldKind, Table: bookingModel.TableName, Value: string(bookingModel.KindAdminBlock), Operator: gDto.FilterOperatorEq},
		filter,
	)

	return s.booking.GetAll(ctx, params, blocks) //nolint:wrapcheck
}

// BlockedDates expands every block on the unit into the calendar days it covers inside the window.
func (s *serviceImpl) BlockedDates(ctx context.Context, req dto.BlockedDatesRequest) (res dto.BlockedDatesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".BlockedDates")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.UnitID <= 0 {
		return res, failure.BadRequestFromString("unit_id is required") // nolint:wrapcheck
	}

	window, err := s.window(req.StartDate, req.EndDate)
	if err != nil {
		return res, err
	}

	blocks, err := s.blocks(ctx, req.UnitID, window)
	if err != nil {
		return res, err
	}

	seen := map[string]struct{}{}
	dates := []string{}

	for _, block := range blocks {
		clipped, ok := daterange.FromDates(block.StartAt, block.EndAt).Clip(window)
		if !ok {
			continue
		}

		for _, date := range clipped.Dates() {
			if _, dup := seen[date]; dup {
				continue
			}

			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}

	res.UnitID = req.UnitID
	res.Period.FromRange(window)
	res.Dates = dates

	return res, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (bookingModel.Booking, error) {
	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(id, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	return booking, nil
}

// blocks returns live admin blocks intersecting window, sorted by start. A zero unitID spans every unit.
func (s *serviceImpl) blocks(ctx context.Context, unitID int64, window daterange.Range) ([]bookingModel.Booking, error) {
	blocks, err := s.bookingRepo.FindOverlapping(ctx, bookingRepo.OverlapCriteria{
		UnitID:   unitID,
		Start:    window.Start,
		End:      window.End,
		Statuses: bookingModel.OccupyingStatuses,
		Kind:     bookingModel.KindAdminBlock,
	})
	if err != nil {
		log.Error().Err(err).Int64("unitID", unitID).Msg("failed to get blocked schedules")

		return nil, fmt.Errorf("failed to get blocked schedules: %w", err)
	}

	return blocks, nil
}

func (s *serviceImpl) window(startDate, endDate string) (daterange.Range, error) {
	days := s.cfg.Scheduler.DefaultAvailabilityDays
	if days <= 0 {
		days = defaultWindowDays
	}

	window, err := daterange.Default(startDate, endDate, days)
	if err != nil {
		return window, err //nolint:wrapcheck
	}

	if err = window.Validate(s.cfg.Scheduler.MaxRangeDays); err != nil {
		return window, err //nolint:wrapcheck
	}

	return window, nil
}

func (s *serviceImpl) note(note string) string {
	if note != constant.Empty {
		return note
	}

	if s.cfg.Scheduler.DefaultBlockNote != constant.Empty {
		return s.cfg.Scheduler.DefaultBlockNote
	}

	return defaultBlockNote
}

func (s *serviceImpl) concurrency() int {
	if s.cfg.Scheduler.BlockConcurrency > 0 {
		return s.cfg.Scheduler.BlockConcurrency
	}

	return defaultConcurrency
}

func isAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	return role == constant.RoleAdmin || role == constant.RoleSuperAdmin
}
