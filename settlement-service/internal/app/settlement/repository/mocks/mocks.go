package mocks

import (
	"context"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSettlementRepository - мок репозитория расчетов
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, settlement *entity.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Settlement, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) UpdateRefund(ctx context.Context, id uuid.UUID, refundedAmount, netAmount int64) error {
	args := m.Called(ctx, id, refundedAmount, netAmount)
	return args.Error(0)
}

func (m *MockSettlementRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockSettlementRepository) Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, adminID, at)
	return args.Error(0)
}

func (m *MockSettlementRepository) Reject(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time, reason string) error {
	args := m.Called(ctx, id, adminID, at, reason)
	return args.Error(0)
}

func (m *MockSettlementRepository) ListByStatus(ctx context.Context, status string) ([]entity.Settlement, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) Search(ctx context.Context, req *entity.SearchRequest) ([]entity.Settlement, int64, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.Settlement), args.Get(1).(int64), args.Error(2)
}

func (m *MockSettlementRepository) Aggregate(ctx context.Context, req *entity.SearchRequest) (*entity.Aggregations, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Aggregations), args.Error(1)
}

// MockPaymentReadRepository - мок выборки списанных платежей для батча
type MockPaymentReadRepository struct {
	mock.Mock
}

func (m *MockPaymentReadRepository) ListCapturedWithoutSettlement(ctx context.Context, date time.Time) ([]entity.CapturedPayment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CapturedPayment), args.Error(1)
}

// MockScheduleConfigRepository - мок репозитория расписаний батча
type MockScheduleConfigRepository struct {
	mock.Mock
}

func (m *MockScheduleConfigRepository) Create(ctx context.Context, cfg *entity.SettlementScheduleConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockScheduleConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SettlementScheduleConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SettlementScheduleConfig), args.Error(1)
}

func (m *MockScheduleConfigRepository) List(ctx context.Context) ([]entity.SettlementScheduleConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SettlementScheduleConfig), args.Error(1)
}

func (m *MockScheduleConfigRepository) ListEnabled(ctx context.Context) ([]entity.SettlementScheduleConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SettlementScheduleConfig), args.Error(1)
}

func (m *MockScheduleConfigRepository) Update(ctx context.Context, cfg *entity.SettlementScheduleConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockScheduleConfigRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	args := m.Called(ctx, id, enabled)
	return args.Error(0)
}

func (m *MockScheduleConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
