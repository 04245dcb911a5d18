package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rental/config"
	otelMocks "rental/infras/otel/mocks"
	bookingMocks "rental/internal/domains/booking/mocks"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/model/dto"
	"rental/internal/domains/booking/repository"
	"rental/internal/domains/booking/service"
	paymentMocks "rental/internal/domains/payment/mocks"
	paymentModel "rental/internal/domains/payment/model"
	unitMocks "rental/internal/domains/unit/service/mocks"
	unitDto "rental/internal/domains/unit/model/dto"
	cacheMocks "rental/shared/cache/mocks"
	"rental/shared/daterange"
	gDto "rental/shared/dto"
	eventMocks "rental/shared/event/mocks"
	"rental/shared/failure"
	"rental/shared/lock"
	lockMocks "rental/shared/lock/mocks"
	gRepo "rental/shared/repository"
	"rental/shared/timezone"
)

type mockSet struct {
	repo        *bookingMocks.MockBooking
	paymentRepo *paymentMocks.MockTransaction
	unit        *unitMocks.MockUnit
	locker      *lockMocks.MockLocker
	bus         *eventMocks.MockBus
	cache       *cacheMocks.MockRedisCache
}

func newMockedService(t *testing.T) (service.Booking, mockSet) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mockSet{
		repo:        bookingMocks.NewMockBooking(ctrl),
		paymentRepo: paymentMocks.NewMockTransaction(ctrl),
		unit:        unitMocks.NewMockUnit(ctrl),
		locker:      lockMocks.NewMockLocker(ctrl),
		bus:         eventMocks.NewMockBus(ctrl),
		cache:       cacheMocks.NewMockRedisCache(ctrl),
	}

	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Scheduler.MaxRangeDays = 90
	cfg.Event.Topics.BookingStatus = "booking.status_changed"

	svc := service.New(m.repo, m.paymentRepo, m.unit, m.locker, m.bus, cfg, m.cache, otelMocks.NewOtel())
	service.SetNow(svc, func() time.Time {
		return time.Date(2024, 5, 20, 9, 0, 0, 0, timezone.GetLocation())
	})

	return svc, m
}

func TestBookingService_Create(t *testing.T) {
	unit := unitDto.UnitResponse{ID: 1, Code: "B 1 RNT", PricePerDay: 100000}
	valid := dto.CreateBookingRequest{UnitID: 1, StartDate: "20240606", EndDate: "20240608"}

	tests := []struct {
		name       string
		req        dto.CreateBookingRequest
		setupMock  func(m mockSet)
		wantReason string
		wantErr    bool
	}{
		{
			name:       "malformed date",
			req:        dto.CreateBookingRequest{UnitID: 1, StartDate: "2024-06-06", EndDate: "20240608"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "end before start",
			req:        dto.CreateBookingRequest{UnitID: 1, StartDate: "20240608", EndDate: "20240606"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "range longer than ninety days",
			req:        dto.CreateBookingRequest{UnitID: 1, StartDate: "20240601", EndDate: "20240915"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "start in the past",
			req:        dto.CreateBookingRequest{UnitID: 1, StartDate: "20240519", EndDate: "20240521"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name: "unit not found",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unitDto.UnitResponse{}, failure.NotFound("vehicle unit not found"))
			},
			wantReason: failure.ReasonNotFound,
			wantErr:    true,
		},
		{
			name: "unit lock busy",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unit, nil)
				m.locker.EXPECT().Lock(gomock.Any(), lock.Key("unit", int64(1))).Return(nil, fmt.Errorf("%w: lock:unit:1", lock.ErrNotAcquired))
			},
			wantReason: failure.ReasonScheduleConflict,
			wantErr:    true,
		},
		{
			name: "payment insert fails",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unit, nil)
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
			},
			wantErr: true,
		},
		{
			name: "booking insert fails and payment is compensated",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unit, nil)
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))
				m.paymentRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantErr: true,
		},
		{
			name: "exclusion constraint maps to conflict",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unit, nil)
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(fmt.Errorf("failed to insert data (booking): %w", gRepo.ErrExclusionViolation))
				m.paymentRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
			},
			wantReason: failure.ReasonScheduleConflict,
			wantErr:    true,
		},
		{
			name: "successful creation",
			req:  valid,
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unit, nil)
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, transaction paymentModel.Transaction) error {
						assert.Equal(t, int64(300000), transaction.Amount)
						assert.Equal(t, paymentModel.StatusPending, transaction.Status)

						return nil
					})
				m.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, model.StatusPending, booking.Status)
						assert.Equal(t, model.KindCustomer, booking.Kind)
						assert.True(t, booking.TransactionID.Valid)

						return nil
					})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			res, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantReason != "" {
					assert.Equal(t, tt.wantReason, failure.GetReason(err))
				}

				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, res.ID)
			assert.Equal(t, "system", res.RequesterID)
		})
	}
}

func TestBookingService_ApproveTwice(t *testing.T) {
	svc, m := newMockedService(t)

	approved := model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusApproved, Kind: model.KindCustomer}

	m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errCacheMiss).AnyTimes()
	m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(approved, nil).Times(2)

	for range 2 {
		_, err := svc.Approve(context.Background(), approved.ID)

		require.Error(t, err)
		assert.Equal(t, failure.ReasonInvalidState, failure.GetReason(err))
	}
}

func TestBookingService_Approve(t *testing.T) {
	pending := model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusPending, Kind: model.KindCustomer}

	tests := []struct {
		name       string
		setupMock  func(m mockSet)
		wantReason string
		wantErr    bool
	}{
		{
			name: "not found",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)
			},
			wantReason: failure.ReasonNotFound,
			wantErr:    true,
		},
		{
			name: "status changed concurrently",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)
			},
			wantReason: failure.ReasonInvalidState,
			wantErr:    true,
		},
		{
			name: "update error",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database error"))
			},
			wantErr: true,
		},
		{
			name: "approved and published",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
						assert.Equal(t, string(model.StatusApproved), fields[model.FieldStatus])
						assert.Contains(t, fields, model.FieldStatusUpdatedAt)

						where, args := filter.GetWhereClause()
						assert.Contains(t, where, "bookings.status = :status")
						assert.Equal(t, string(model.StatusPending), args["status"])

						return 1, nil
					})
				m.bus.EXPECT().Publish(gomock.Any(), "booking.status_changed", gomock.Any()).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			res, err := svc.Approve(context.Background(), pending.ID)

			if tt.wantErr {
				assert.Error(t, err)

				if tt.wantReason != "" {
					assert.Equal(t, tt.wantReason, failure.GetReason(err))
				}

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, string(model.StatusApproved), res.Status)
			assert.Equal(t, "Booking approved", res.StatusNote)
		})
	}
}

func TestBookingService_Reject(t *testing.T) {
	pending := model.Booking{
		ID:            "b-1",
		UnitID:        1,
		Status:        model.StatusPending,
		Kind:          model.KindCustomer,
		TransactionID: sql.NullString{String: "tx-1", Valid: true},
	}

	tests := []struct {
		name       string
		req        dto.RejectBookingRequest
		setupMock  func(m mockSet)
		wantNote   string
		wantReason string
		wantErr    bool
	}{
		{
			name:       "blank reason",
			req:        dto.RejectBookingRequest{Reason: "   "},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "reason too short",
			req:        dto.RejectBookingRequest{Reason: "no"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "unknown payment status",
			req:        dto.RejectBookingRequest{Reason: "invalid proof", PaymentStatus: "refunded"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name: "paid without proof",
			req:  dto.RejectBookingRequest{Reason: "unit unavailable", PaymentStatus: "paid"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPending}, nil)
			},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name: "rejected with payment marked unpaid",
			req:  dto.RejectBookingRequest{Reason: "blurry proof", PaymentStatus: "UNPAID"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPending}, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				m.bus.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
				m.paymentRepo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, string(paymentModel.StatusUnpaid), fields[paymentModel.FieldStatus])

						return 1, nil
					})
			},
			wantNote: "Booking rejected: blurry proof. Payment marked unpaid, please upload a valid payment proof",
		},
		{
			name: "payment write fails before the booking is touched",
			req:  dto.RejectBookingRequest{Reason: "blurry proof", PaymentStatus: "unpaid"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPending}, nil)
				m.paymentRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name: "payment status restored when the booking changed concurrently",
			req:  dto.RejectBookingRequest{Reason: "blurry proof", PaymentStatus: "unpaid"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPending}, nil)
				gomock.InOrder(
					m.paymentRepo.EXPECT().
						Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
							assert.Equal(t, string(paymentModel.StatusUnpaid), fields[paymentModel.FieldStatus])

							return 1, nil
						}),
					m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil),
					m.paymentRepo.EXPECT().
						Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
							assert.Equal(t, string(paymentModel.StatusPending), fields[paymentModel.FieldStatus])

							return 1, nil
						}),
				)
			},
			wantReason: failure.ReasonInvalidState,
			wantErr:    true,
		},
		{
			name: "rejected without payment change",
			req:  dto.RejectBookingRequest{Reason: "  out of service  "},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				m.bus.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			wantNote: "Booking rejected: out of service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			res, err := svc.Reject(context.Background(), pending.ID, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantReason, failure.GetReason(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, string(model.StatusRejected), res.Status)
			assert.Equal(t, tt.wantNote, res.StatusNote)
		})
	}
}

func TestBookingService_OnPaymentStatusChanged(t *testing.T) {
	booking := func(status model.Status, kind model.Kind) model.Booking {
		return model.Booking{
			ID:            "b-1",
			UnitID:        1,
			Status:        status,
			Kind:          kind,
			TransactionID: sql.NullString{String: "tx-1", Valid: true},
		}
	}

	tests := []struct {
		name      string
		status    paymentModel.Status
		setupMock func(m mockSet)
	}{
		{
			name:   "paid approves a pending booking",
			status: paymentModel.StatusPaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending, model.KindCustomer), nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, string(model.StatusApproved), fields[model.FieldStatus])
						assert.Equal(t, "Payment verified, booking approved", fields[model.FieldStatusNote])

						return 1, nil
					})
				m.bus.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:   "pending proof annotates a pending booking",
			status: paymentModel.StatusPending,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending, model.KindCustomer), nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.NotContains(t, fields, model.FieldStatus)
						assert.Equal(t, "Payment proof uploaded, awaiting verification", fields[model.FieldStatusNote])

						return 1, nil
					})
			},
		},
		{
			name:   "unpaid asks for a new proof",
			status: paymentModel.StatusUnpaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending, model.KindCustomer), nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, "Payment proof rejected, please upload a valid proof", fields[model.FieldStatusNote])

						return 1, nil
					})
			},
		},
		{
			name:   "unpaid on approved only warns",
			status: paymentModel.StatusUnpaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusApproved, model.KindCustomer), nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.NotContains(t, fields, model.FieldStatus)
						assert.Contains(t, fields[model.FieldStatusNote], "ATTENTION")

						return 1, nil
					})
			},
		},
		{
			name:   "pending proof annotates an on-going booking without changing it",
			status: paymentModel.StatusPending,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusOnGoing, model.KindCustomer), nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.NotContains(t, fields, model.FieldStatus)
						assert.Equal(t, "Payment proof uploaded, awaiting verification", fields[model.FieldStatusNote])

						return 1, nil
					})
			},
		},
		{
			name:   "terminal booking untouched",
			status: paymentModel.StatusPaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusRejected, model.KindCustomer), nil)
			},
		},
		{
			name:   "admin block untouched",
			status: paymentModel.StatusUnpaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusApproved, model.KindAdminBlock), nil)
			},
		},
		{
			name:   "no linked booking",
			status: paymentModel.StatusPaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)
			},
		},
		{
			name:   "errors are swallowed",
			status: paymentModel.StatusPaid,
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking(model.StatusPending, model.KindCustomer), nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("database error"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			assert.NotPanics(t, func() {
				svc.OnPaymentStatusChanged(context.Background(), "tx-1", tt.status)
			})
		})
	}
}

func TestBookingService_Reschedule(t *testing.T) {
	period, err := daterange.Parse("20240610", "20240612")
	require.NoError(t, err)

	customer := model.Booking{
		ID:            "b-1",
		UnitID:        1,
		Status:        model.StatusPending,
		Kind:          model.KindCustomer,
		TransactionID: sql.NullString{String: "tx-1", Valid: true},
	}
	unpaid := paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPending, Amount: 50000}

	tests := []struct {
		name       string
		current    model.Booking
		setupMock  func(m mockSet)
		wantReason string
		wantErr    bool
	}{
		{
			name:       "terminal booking",
			current:    model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusDone},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonInvalidState,
			wantErr:    true,
		},
		{
			name:    "conflict with another booking",
			current: model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusApproved, Kind: model.KindAdminBlock},
			setupMock: func(m mockSet) {
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().
					FindOverlapping(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, criteria repository.OverlapCriteria) ([]model.Booking, error) {
						assert.Equal(t, "b-1", criteria.ExcludeID)

						return []model.Booking{{
							ID:      "b-2",
							UnitID:  1,
							Status:  model.StatusPending,
							StartAt: period.Start,
							EndAt:   period.End,
						}}, nil
					})
			},
			wantReason: failure.ReasonScheduleConflict,
			wantErr:    true,
		},
		{
			name:    "block note keeps its marker",
			current: model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusApproved, Kind: model.KindAdminBlock},
			setupMock: func(m mockSet) {
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, "BLOCKED_BY_ADMIN: engine overhaul", fields[model.FieldStatusNote])
						assert.Equal(t, period.Start, fields[model.FieldStartAt])

						return 1, nil
					})
			},
		},
		{
			name:    "unsettled payment follows the new window",
			current: customer,
			setupMock: func(m mockSet) {
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaid, nil)
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unitDto.UnitResponse{ID: 1, PricePerDay: 25000}, nil)
				gomock.InOrder(
					m.paymentRepo.EXPECT().
						Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
							assert.Equal(t, int64(75000), fields[paymentModel.FieldAmount])

							return 1, nil
						}),
					m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil),
				)
			},
		},
		{
			name:    "amount restored when the booking changed concurrently",
			current: customer,
			setupMock: func(m mockSet) {
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaid, nil)
				m.unit.EXPECT().GetUnit(gomock.Any(), int64(1)).Return(unitDto.UnitResponse{ID: 1, PricePerDay: 25000}, nil)
				gomock.InOrder(
					m.paymentRepo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil),
					m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil),
					m.paymentRepo.EXPECT().
						Update(gomock.Any(), gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
							assert.Equal(t, int64(50000), fields[paymentModel.FieldAmount])

							return 1, nil
						}),
				)
			},
			wantReason: failure.ReasonInvalidState,
			wantErr:    true,
		},
		{
			name:    "settled payment keeps its amount",
			current: model.Booking{ID: "b-1", UnitID: 1, Status: model.StatusApproved, Kind: model.KindCustomer, TransactionID: sql.NullString{String: "tx-1", Valid: true}},
			setupMock: func(m mockSet) {
				m.locker.EXPECT().Lock(gomock.Any(), gomock.Any()).Return(func() {}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.paymentRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paymentModel.Transaction{ID: "tx-1", Status: paymentModel.StatusPaid, Amount: 50000}, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.current, nil)
			tt.setupMock(m)

			res, err := svc.Reschedule(context.Background(), tt.current.ID, period, "engine overhaul")

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantReason, failure.GetReason(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, "20240610", res.StartDate)
		})
	}
}

func TestBookingService_CheckAvailability(t *testing.T) {
	unit := unitDto.UnitResponse{ID: 3, Code: "B 3 RNT"}

	overtime := model.Booking{ID: "b-overtime", UnitID: 3, Status: model.StatusOvertime, Kind: model.KindCustomer}

	tests := []struct {
		name          string
		req           dto.AvailabilityRequest
		setupMock     func(m mockSet)
		wantAvailable bool
		wantReason    string
		wantErr       bool
	}{
		{
			name:       "unit missing",
			req:        dto.AvailabilityRequest{StartDate: "20240601"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:       "window too long",
			req:        dto.AvailabilityRequest{UnitID: 3, StartDate: "20240101", EndDate: "20241231"},
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name: "lookup by code, overtime does not block",
			req:  dto.AvailabilityRequest{UnitCode: "B 3 RNT", StartDate: "20240601", EndDate: "20240605"},
			setupMock: func(m mockSet) {
				m.unit.EXPECT().GetUnitByCode(gomock.Any(), "B 3 RNT").Return(unit, nil)

				period, _ := daterange.Parse("20240601", "20240605")
				overtime.StartAt = period.Start
				overtime.EndAt = period.End

				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{}, nil)
				m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{overtime}, nil)
			},
			wantAvailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			res, err := svc.CheckAvailability(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantReason, failure.GetReason(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, res.Available)
			assert.Equal(t, unit.Code, res.UnitCode)
			assert.Empty(t, res.Conflicts)
			assert.Len(t, res.UnavailablePeriods, 1)
			assert.Equal(t, "20240601", res.Period.StartDate)
		})
	}
}

func TestBookingService_AvailableUnits(t *testing.T) {
	svc, m := newMockedService(t)

	period, err := daterange.Parse("20240601", "20240605")
	require.NoError(t, err)

	m.unit.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(unitDto.GetUnitsResponse{
		Units: []unitDto.UnitResponse{{ID: 1, Code: "A"}, {ID: 2, Code: "B"}, {ID: 3, Code: "C"}},
	}, nil)
	m.repo.EXPECT().FindOverlapping(gomock.Any(), gomock.Any()).Return([]model.Booking{
		{ID: "b-1", UnitID: 2, Status: model.StatusApproved, StartAt: period.Start, EndAt: period.End},
	}, nil)

	res, err := svc.AvailableUnits(context.Background(), dto.AvailableUnitsRequest{StartDate: "20240601", EndDate: "20240605"})
	require.NoError(t, err)

	require.Len(t, res.Units, 2)
	assert.Equal(t, int64(1), res.Units[0].ID)
	assert.Equal(t, int64(3), res.Units[1].ID)
	assert.Equal(t, "20240605", res.Period.EndDate)
}

func TestBookingService_GetCacheHit(t *testing.T) {
	svc, m := newMockedService(t)

	m.cache.EXPECT().
		Get(gomock.Any(), "booking:get:b-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			res, ok := value.(*dto.BookingResponse)
			require.True(t, ok)
			res.ID = "b-1"

			return nil
		})

	res, err := svc.Get(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "b-1", res.ID)
}
