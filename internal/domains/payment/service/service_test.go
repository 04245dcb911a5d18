package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rental/config"
	otelMocks "rental/infras/otel/mocks"
	s3Mocks "rental/infras/s3/mocks"
	bookingMocks "rental/internal/domains/booking/mocks"
	bookingModel "rental/internal/domains/booking/model"
	paymentMocks "rental/internal/domains/payment/mocks"
	"rental/internal/domains/payment/model"
	"rental/internal/domains/payment/model/dto"
	"rental/internal/domains/payment/service"
	"rental/internal/domains/payment/service/mocks"
	cacheMocks "rental/shared/cache/mocks"
	"rental/shared/constant"
	gDto "rental/shared/dto"
	"rental/shared/failure"
	"rental/shared/timezone"
)

type mockSet struct {
	repo         *paymentMocks.MockTransaction
	bookingRepo  *bookingMocks.MockBooking
	storage      *s3Mocks.MockS3
	synchronizer *mocks.MockSynchronizer
	cache        *cacheMocks.MockRedisCache
}

func newMockedService(t *testing.T) (service.Payment, mockSet) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mockSet{
		repo:         paymentMocks.NewMockTransaction(ctrl),
		bookingRepo:  bookingMocks.NewMockBooking(ctrl),
		storage:      s3Mocks.NewMockS3(ctrl),
		synchronizer: mocks.NewMockSynchronizer(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
	}

	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.storage.EXPECT().DeleteFile(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.Payment.ProofDirectory = "payment-proofs"

	svc := service.New(m.repo, m.bookingRepo, m.storage, m.synchronizer, cfg, m.cache, otelMocks.NewOtel())
	service.SetNow(svc, clock)

	return svc, m
}

func clock() time.Time {
	return time.Date(2024, 5, 20, 9, 0, 0, 0, timezone.GetLocation())
}

func userContext(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestPaymentService_UploadProof(t *testing.T) {
	header := &multipart.FileHeader{Filename: "proof.png"}
	req := dto.UploadProofRequest{Proof: header}
	pending := model.Transaction{ID: "trx-1", Method: model.MethodQRIS, Amount: 350000, Status: model.StatusPending}
	withProof := pending
	withProof.ProofURL = "https://cdn.example.com/payment-proofs/old.png"
	booking := bookingModel.Booking{
		ID:            "bk-1",
		RequesterID:   "user-1",
		Status:        bookingModel.StatusPending,
		TransactionID: sql.NullString{String: "trx-1", Valid: true},
	}
	rejected := booking
	rejected.Status = bookingModel.StatusRejected

	tests := []struct {
		name       string
		ctx        context.Context
		setupMock  func(m mockSet)
		wantReason string
		wantStatus string
		wantErr    bool
	}{
		{
			name: "payment not found",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{}, nil)
			},
			wantReason: failure.ReasonNotFound,
			wantErr:    true,
		},
		{
			name: "another customer's payment",
			ctx:  userContext("user-2", constant.RoleUser),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantErr:    true,
			wantReason: failure.ReasonForbidden,
		},
		{
			name: "booking already rejected",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(rejected, nil)
			},
			wantReason: failure.ReasonInvalidOperation,
			wantErr:    true,
		},
		{
			name: "payment already paid",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(m mockSet) {
				paid := withProof
				paid.Status = model.StatusPaid

				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paid, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
			},
			wantReason: failure.ReasonInvalidState,
			wantErr:    true,
		},
		{
			name: "upload fails",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				m.storage.EXPECT().UploadFile(gomock.Any(), "payment-proofs", gomock.Any(), header, gomock.Any()).
					Return("", errors.New("bucket unavailable"))
			},
			wantErr: true,
		},
		{
			name: "owner uploads and booking is synchronized",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(withProof, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				m.storage.EXPECT().UploadFile(gomock.Any(), "payment-proofs", gomock.Any(), header, fmt.Sprintf("trx-1-%d", clock().Unix())).
					Return("https://cdn.example.com/payment-proofs/new.png", nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
						assert.Equal(t, string(model.StatusPending), fields[model.FieldStatus])
						assert.Equal(t, "https://cdn.example.com/payment-proofs/new.png", fields[model.FieldProofURL])

						return 1, nil
					})
				m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusPending)
			},
			wantStatus: string(model.StatusPending),
		},
		{
			name: "admin uploads on behalf of customer",
			ctx:  userContext("admin-1", constant.RoleAdmin),
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				m.bookingRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)
				m.storage.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://cdn.example.com/payment-proofs/new.png", nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusPending)
			},
			wantStatus: string(model.StatusPending),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			res, err := svc.UploadProof(tt.ctx, "trx-1", req)
			if tt.wantErr {
				require.Error(t, err)

				if tt.wantReason != "" {
					assert.Equal(t, tt.wantReason, failure.GetReason(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.NotEmpty(t, res.ProofURL)
		})
	}
}

func TestPaymentService_ApprovePayment(t *testing.T) {
	tests := []struct {
		name        string
		transaction model.Transaction
		setupMock   func(m mockSet)
		wantReason  string
		wantErr     bool
	}{
		{
			name:        "already paid",
			transaction: model.Transaction{ID: "trx-1", Status: model.StatusPaid, ProofURL: "p.png"},
			setupMock:   func(mockSet) {},
			wantReason:  failure.ReasonInvalidState,
			wantErr:     true,
		},
		{
			name:        "no proof uploaded",
			transaction: model.Transaction{ID: "trx-1", Status: model.StatusPending},
			setupMock:   func(mockSet) {},
			wantReason:  failure.ReasonInvalidState,
			wantErr:     true,
		},
		{
			name:        "update fails",
			transaction: model.Transaction{ID: "trx-1", Status: model.StatusPending, ProofURL: "p.png"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name:        "pending proof is verified",
			transaction: model.Transaction{ID: "trx-1", Status: model.StatusPending, ProofURL: "p.png"},
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusPaid)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.transaction, nil)
			tt.setupMock(m)

			res, err := svc.ApprovePayment(userContext("admin-1", constant.RoleAdmin), "trx-1")
			if tt.wantErr {
				require.Error(t, err)

				if tt.wantReason != "" {
					assert.Equal(t, tt.wantReason, failure.GetReason(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, string(model.StatusPaid), res.Status)
			assert.Equal(t, "admin-1", res.ModifiedBy)
		})
	}
}

func TestPaymentService_RejectProof(t *testing.T) {
	t.Run("only pending proofs can be rejected", func(t *testing.T) {
		svc, m := newMockedService(t)
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{ID: "trx-1", Status: model.StatusUnpaid}, nil)

		_, err := svc.RejectProof(context.Background(), "trx-1", dto.RejectProofRequest{Reason: "blurry"})
		require.Error(t, err)
		assert.Equal(t, failure.ReasonInvalidState, failure.GetReason(err))
	})

	t.Run("pending proof becomes unpaid", func(t *testing.T) {
		svc, m := newMockedService(t)
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{ID: "trx-1", Status: model.StatusPending, ProofURL: "p.png"}, nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
		m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusUnpaid)

		res, err := svc.RejectProof(context.Background(), "trx-1", dto.RejectProofRequest{Reason: "blurry"})
		require.NoError(t, err)
		assert.Equal(t, string(model.StatusUnpaid), res.Status)
		assert.Equal(t, constant.ContextSystem, res.ModifiedBy)
	})
}

func TestPaymentService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		setupMock  func(m mockSet)
		wantReason string
		wantErr    bool
	}{
		{
			name:       "unknown status",
			status:     "refunded",
			setupMock:  func(mockSet) {},
			wantReason: failure.ReasonValidation,
			wantErr:    true,
		},
		{
			name:   "paid without proof is settled and synchronized",
			status: "paid",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{ID: "trx-1", Status: model.StatusPending}, nil)
				m.repo.EXPECT().Update(gomock.Any(), map[string]any{
					model.FieldStatus:        string(model.StatusPaid),
					constant.FieldModifiedAt: clock(),
					constant.FieldModifiedBy: constant.ContextSystem,
				}, gomock.Any()).Return(int64(1), nil)
				m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusPaid)
			},
		},
		{
			name:   "status is normalized and synchronized",
			status: " PAID ",
			setupMock: func(m mockSet) {
				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{ID: "trx-1", Status: model.StatusPending, ProofURL: "p.png"}, nil)
				m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
				m.synchronizer.EXPECT().OnPaymentStatusChanged(gomock.Any(), "trx-1", model.StatusPaid)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService(t)
			tt.setupMock(m)

			_, err := svc.UpdateStatus(context.Background(), "trx-1", dto.UpdateStatusRequest{Status: tt.status})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantReason, failure.GetReason(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestPaymentService_Get(t *testing.T) {
	t.Run("cache hit skips the repository", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redis := cacheMocks.NewMockRedisCache(ctrl)
		redis.EXPECT().Get(gomock.Any(), "payment:get:trx-1", gomock.Any()).Return(nil)

		svc := service.New(paymentMocks.NewMockTransaction(ctrl), bookingMocks.NewMockBooking(ctrl), s3Mocks.NewMockS3(ctrl),
			mocks.NewMockSynchronizer(ctrl), &config.Config{}, redis, otelMocks.NewOtel())

		_, err := svc.Get(context.Background(), "trx-1")
		require.NoError(t, err)
	})

	t.Run("missing payment", func(t *testing.T) {
		svc, m := newMockedService(t)
		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis: nil"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Transaction{}, nil)

		_, err := svc.Get(context.Background(), "trx-1")
		require.Error(t, err)
		assert.Equal(t, failure.ReasonNotFound, failure.GetReason(err))
	})
}
