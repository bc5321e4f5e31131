package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/repository"
	"lemuel/settlement-service/internal/app/settlement/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSettlementServiceForTest() (*SettlementService, *mocks.MockSettlementRepository, *mocks.MockPaymentReadRepository) {
	settlementRepo := new(mocks.MockSettlementRepository)
	paymentRepo := new(mocks.MockPaymentReadRepository)
	svc := NewSettlementService(settlementRepo, paymentRepo)
	return svc, settlementRepo, paymentRepo
}

func capturedEvent(paymentID uuid.UUID, amount int64) *entity.PaymentEvent {
	capturedAt := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	return &entity.PaymentEvent{
		EventType:      entity.EventPaymentCaptured,
		PaymentID:      paymentID,
		OrderID:        uuid.New(),
		OrdererName:    "Kim Minsu",
		ProductName:    "Wireless Keyboard",
		Amount:         amount,
		RefundedAmount: 0,
		PaymentMethod:  "CARD",
		CapturedAt:     &capturedAt,
		Timestamp:      capturedAt,
	}
}

// ===================== Commission Tests =====================

func TestCalculateCommission(t *testing.T) {
	// 3% с округлением half-up до целой воны
	assert.Equal(t, int64(3000), entity.CalculateCommission(100000))
	assert.Equal(t, int64(1350), entity.CalculateCommission(45000))
	// 33 * 3 / 100 = 0.99 -> 1
	assert.Equal(t, int64(1), entity.CalculateCommission(33))
	// 16 * 3 / 100 = 0.48 -> 0
	assert.Equal(t, int64(0), entity.CalculateCommission(16))
	// 50 * 3 / 100 = 1.50 -> 2
	assert.Equal(t, int64(2), entity.CalculateCommission(50))
	assert.Equal(t, int64(0), entity.CalculateCommission(0))
}

func TestCalculateNetAmount(t *testing.T) {
	// net = платеж - возврат - комиссия (комиссия от полной суммы платежа)
	assert.Equal(t, int64(97000), entity.CalculateNetAmount(100000, 0))
	assert.Equal(t, int64(67000), entity.CalculateNetAmount(100000, 30000))
	assert.Equal(t, int64(-3000), entity.CalculateNetAmount(100000, 100000))
}

// ===================== HandlePaymentEvent Tests =====================

func TestSettlementService_HandlePaymentEvent_CapturedCreatesSettlement(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	paymentID := uuid.New()
	event := capturedEvent(paymentID, 100000)

	var created *entity.Settlement
	settlementRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Settlement")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.Settlement)
		}).Return(nil)

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, paymentID, created.PaymentID)
	assert.Equal(t, event.OrderID, created.OrderID)
	assert.Equal(t, "Kim Minsu", created.OrdererName)
	assert.Equal(t, "Wireless Keyboard", created.ProductName)
	assert.Equal(t, int64(100000), created.PaymentAmount)
	assert.Equal(t, int64(3000), created.Commission)
	assert.Equal(t, int64(97000), created.NetAmount)
	assert.Equal(t, entity.SettlementStatusPending, created.Status)
	// Дата расчета - день списания, без времени
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), created.SettlementDate)
}

func TestSettlementService_HandlePaymentEvent_RedeliveredEventIsIdempotent(t *testing.T) {
	// Повторная доставка события не создает второй расчет и не ошибка:
	// offset должен закоммититься
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	event := capturedEvent(uuid.New(), 100000)

	settlementRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Settlement")).
		Return(repository.ErrDuplicateSettlement)

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert
	assert.NoError(t, err)
}

func TestSettlementService_HandlePaymentEvent_CreateErrorPropagates(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	event := capturedEvent(uuid.New(), 100000)

	settlementRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Settlement")).
		Return(errors.New("db down"))

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert - ошибка возвращается, offset не коммитится
	assert.Error(t, err)
}

func TestSettlementService_HandlePaymentEvent_PartialRefundUpdatesAmounts(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	paymentID := uuid.New()
	settlementID := uuid.New()

	settlementRepo.On("GetByPaymentID", mock.Anything, paymentID).Return(&entity.Settlement{
		ID:            settlementID,
		PaymentID:     paymentID,
		PaymentAmount: 100000,
		Commission:    3000,
		NetAmount:     97000,
		Status:        entity.SettlementStatusPending,
	}, nil)
	// Накопленный возврат 30000: net = 100000 - 30000 - 3000
	settlementRepo.On("UpdateRefund", mock.Anything, settlementID, int64(30000), int64(67000)).Return(nil)

	event := capturedEvent(paymentID, 100000)
	event.EventType = entity.EventPaymentRefunded
	event.RefundedAmount = 30000

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert - частичный возврат статус не меняет
	require.NoError(t, err)
	settlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_HandlePaymentEvent_FullRefundCancelsSettlement(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	paymentID := uuid.New()
	settlementID := uuid.New()

	settlementRepo.On("GetByPaymentID", mock.Anything, paymentID).Return(&entity.Settlement{
		ID:            settlementID,
		PaymentID:     paymentID,
		PaymentAmount: 100000,
		Status:        entity.SettlementStatusWaitingApproval,
	}, nil)
	settlementRepo.On("UpdateRefund", mock.Anything, settlementID, int64(100000), int64(-3000)).Return(nil)
	settlementRepo.On("UpdateStatus", mock.Anything, settlementID, mock.Anything, entity.SettlementStatusCanceled).Return(nil)

	event := capturedEvent(paymentID, 100000)
	event.EventType = entity.EventPaymentRefunded
	event.RefundedAmount = 100000

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert
	require.NoError(t, err)
	settlementRepo.AssertCalled(t, "UpdateStatus", mock.Anything, settlementID, mock.Anything, entity.SettlementStatusCanceled)
}

func TestSettlementService_HandlePaymentEvent_FullRefundKeepsConfirmedSettlement(t *testing.T) {
	// Подтвержденный расчет возвратом не аннулируется
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	paymentID := uuid.New()
	settlementID := uuid.New()

	settlementRepo.On("GetByPaymentID", mock.Anything, paymentID).Return(&entity.Settlement{
		ID:            settlementID,
		PaymentID:     paymentID,
		PaymentAmount: 100000,
		Status:        entity.SettlementStatusConfirmed,
	}, nil)
	settlementRepo.On("UpdateRefund", mock.Anything, settlementID, int64(100000), int64(-3000)).Return(nil)

	event := capturedEvent(paymentID, 100000)
	event.EventType = entity.EventPaymentRefunded
	event.RefundedAmount = 100000

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert
	require.NoError(t, err)
	settlementRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementService_HandlePaymentEvent_RefundWithoutSettlementSkipped(t *testing.T) {
	// Возврат до создания расчета: батч подберет платеж
	// с уже актуальной суммой возврата
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	paymentID := uuid.New()

	settlementRepo.On("GetByPaymentID", mock.Anything, paymentID).
		Return(nil, repository.ErrSettlementNotFound)

	event := capturedEvent(paymentID, 100000)
	event.EventType = entity.EventPaymentRefunded
	event.RefundedAmount = 100000

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert
	assert.NoError(t, err)
}

func TestSettlementService_HandlePaymentEvent_UnknownTypeSkipped(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	event := capturedEvent(uuid.New(), 100000)
	event.EventType = "PAYMENT_DECLINED"

	// Act
	err := svc.HandlePaymentEvent(context.Background(), event)

	// Assert - незнакомый тип не блокирует партицию
	assert.NoError(t, err)
	settlementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ===================== RunDailyBatch Tests =====================

func TestSettlementService_RunDailyBatch_CreatesMissingSettlements(t *testing.T) {
	// Arrange
	svc, settlementRepo, paymentRepo := newSettlementServiceForTest()
	targetDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	payments := []entity.CapturedPayment{
		{
			PaymentID:   uuid.New(),
			OrderID:     uuid.New(),
			OrdererName: "Kim Minsu",
			ProductName: "Wireless Keyboard",
			Amount:      100000,
			CapturedAt:  targetDate.Add(10 * time.Hour),
		},
		{
			PaymentID:      uuid.New(),
			OrderID:        uuid.New(),
			OrdererName:    "Lee Jiyoung",
			ProductName:    "USB Hub",
			Amount:         45000,
			RefundedAmount: 5000,
			CapturedAt:     targetDate.Add(15 * time.Hour),
		},
	}

	paymentRepo.On("ListCapturedWithoutSettlement", mock.Anything, targetDate).Return(payments, nil)
	settlementRepo.On("Aggregate", mock.Anything, mock.Anything).
		Return(&entity.Aggregations{StatusCounts: map[string]int64{}}, nil)

	var created []*entity.Settlement
	settlementRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Settlement")).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*entity.Settlement))
		}).Return(nil)

	// Act
	result, err := svc.RunDailyBatch(context.Background(), targetDate.Add(5*time.Hour))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
	// Время в дате батча обрезается до полуночи
	assert.Equal(t, targetDate, result.TargetDate)

	require.Len(t, created, 2)
	// Частично возвращенный платеж попадает в расчет с актуальными суммами
	assert.Equal(t, int64(5000), created[1].RefundedAmount)
	assert.Equal(t, int64(1350), created[1].Commission)
	assert.Equal(t, int64(38650), created[1].NetAmount)
}

func TestSettlementService_RunDailyBatch_SkipsDuplicates(t *testing.T) {
	// Гонка с событием: расчет успел создаться между выборкой и вставкой
	// Arrange
	svc, settlementRepo, paymentRepo := newSettlementServiceForTest()
	targetDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	payments := []entity.CapturedPayment{
		{PaymentID: uuid.New(), OrderID: uuid.New(), Amount: 100000, CapturedAt: targetDate.Add(time.Hour)},
	}

	paymentRepo.On("ListCapturedWithoutSettlement", mock.Anything, targetDate).Return(payments, nil)
	settlementRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Settlement")).
		Return(repository.ErrDuplicateSettlement)
	settlementRepo.On("Aggregate", mock.Anything, mock.Anything).
		Return(&entity.Aggregations{StatusCounts: map[string]int64{}}, nil)

	// Act
	result, err := svc.RunDailyBatch(context.Background(), targetDate)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestSettlementService_RunDailyBatch_EmptyDay(t *testing.T) {
	// Arrange
	svc, settlementRepo, paymentRepo := newSettlementServiceForTest()
	targetDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	paymentRepo.On("ListCapturedWithoutSettlement", mock.Anything, targetDate).
		Return([]entity.CapturedPayment{}, nil)
	settlementRepo.On("Aggregate", mock.Anything, mock.Anything).
		Return(&entity.Aggregations{StatusCounts: map[string]int64{}}, nil)

	// Act
	result, err := svc.RunDailyBatch(context.Background(), targetDate)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, result.Skipped)
	settlementRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementService_RunDailyBatch_ListError(t *testing.T) {
	// Arrange
	svc, _, paymentRepo := newSettlementServiceForTest()
	targetDate := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	paymentRepo.On("ListCapturedWithoutSettlement", mock.Anything, targetDate).
		Return(nil, errors.New("db down"))

	// Act
	result, err := svc.RunDailyBatch(context.Background(), targetDate)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, result)
}

// ===================== Search Tests =====================

func TestSettlementService_Search_Success(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()

	req := &entity.SearchRequest{OrdererName: "Kim"}
	items := []entity.Settlement{
		{ID: uuid.New(), OrdererName: "Kim Minsu", PaymentAmount: 100000},
	}
	aggregations := &entity.Aggregations{
		TotalAmount:         100000,
		TotalRefundedAmount: 0,
		TotalFinalAmount:    100000,
		StatusCounts:        map[string]int64{entity.SettlementStatusPending: 1},
	}

	settlementRepo.On("Search", mock.Anything, req).Return(items, int64(45), nil)
	settlementRepo.On("Aggregate", mock.Anything, req).Return(aggregations, nil)

	// Act
	resp, err := svc.Search(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, int64(45), resp.TotalItems)
	// Нормализация: size 20 по умолчанию, 45/20 = 3 страницы
	assert.Equal(t, 20, resp.Size)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, int64(100000), resp.Aggregations.TotalAmount)
	// Сортировка по умолчанию
	assert.Equal(t, "settlement_date", req.SortBy)
	assert.Equal(t, "desc", req.SortDir)
}

func TestSettlementService_Search_EmptyResult(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()

	req := &entity.SearchRequest{Status: entity.SettlementStatusRejected}
	settlementRepo.On("Search", mock.Anything, req).Return([]entity.Settlement{}, int64(0), nil)
	settlementRepo.On("Aggregate", mock.Anything, req).Return(&entity.Aggregations{
		StatusCounts: map[string]int64{},
	}, nil)

	// Act
	resp, err := svc.Search(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 0, resp.TotalPages)
}

// ===================== Status Transition Tests =====================

func TestSettlementService_Submit_Success(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("UpdateStatus", mock.Anything, id,
		[]string{entity.SettlementStatusPending}, entity.SettlementStatusWaitingApproval).Return(nil)
	settlementRepo.On("GetByID", mock.Anything, id).Return(&entity.Settlement{
		ID:     id,
		Status: entity.SettlementStatusWaitingApproval,
	}, nil)

	// Act
	settlement, err := svc.Submit(context.Background(), id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusWaitingApproval, settlement.Status)
}

func TestSettlementService_Submit_WrongStatus(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("UpdateStatus", mock.Anything, id, mock.Anything, mock.Anything).
		Return(repository.ErrStatusConflict)

	// Act
	settlement, err := svc.Submit(context.Background(), id)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSettlementStatus)
	assert.Nil(t, settlement)
}

func TestSettlementService_Approve_Success(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()
	adminID := uuid.New()

	settlementRepo.On("Approve", mock.Anything, id, adminID, mock.AnythingOfType("time.Time")).Return(nil)
	settlementRepo.On("GetByID", mock.Anything, id).Return(&entity.Settlement{
		ID:         id,
		Status:     entity.SettlementStatusApproved,
		ApprovedBy: &adminID,
	}, nil)

	// Act
	settlement, err := svc.Approve(context.Background(), id, adminID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusApproved, settlement.Status)
	assert.Equal(t, adminID, *settlement.ApprovedBy)
}

func TestSettlementService_Approve_NotWaiting(t *testing.T) {
	// Утвердить можно только поданный расчет
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("Approve", mock.Anything, id, mock.Anything, mock.AnythingOfType("time.Time")).
		Return(repository.ErrStatusConflict)

	// Act
	_, err := svc.Approve(context.Background(), id, uuid.New())

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSettlementStatus)
}

func TestSettlementService_Approve_NotFound(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("Approve", mock.Anything, id, mock.Anything, mock.AnythingOfType("time.Time")).
		Return(repository.ErrSettlementNotFound)

	// Act
	_, err := svc.Approve(context.Background(), id, uuid.New())

	// Assert
	assert.ErrorIs(t, err, ErrSettlementNotFound)
}

func TestSettlementService_Reject_Success(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()
	adminID := uuid.New()

	settlementRepo.On("Reject", mock.Anything, id, adminID, mock.AnythingOfType("time.Time"),
		"Amount mismatch with PG statement").Return(nil)
	settlementRepo.On("GetByID", mock.Anything, id).Return(&entity.Settlement{
		ID:              id,
		Status:          entity.SettlementStatusRejected,
		RejectionReason: "Amount mismatch with PG statement",
	}, nil)

	// Act
	settlement, err := svc.Reject(context.Background(), id, adminID, "Amount mismatch with PG statement")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusRejected, settlement.Status)
	assert.Equal(t, "Amount mismatch with PG statement", settlement.RejectionReason)
}

func TestSettlementService_Confirm_FromPendingOrWaiting(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("UpdateStatus", mock.Anything, id,
		[]string{entity.SettlementStatusPending, entity.SettlementStatusWaitingApproval},
		entity.SettlementStatusConfirmed).Return(nil)
	settlementRepo.On("GetByID", mock.Anything, id).Return(&entity.Settlement{
		ID:     id,
		Status: entity.SettlementStatusConfirmed,
	}, nil)

	// Act
	settlement, err := svc.Confirm(context.Background(), id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusConfirmed, settlement.Status)
}

func TestSettlementService_Confirm_CanceledRejected(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()
	id := uuid.New()

	settlementRepo.On("UpdateStatus", mock.Anything, id, mock.Anything, mock.Anything).
		Return(repository.ErrStatusConflict)

	// Act
	_, err := svc.Confirm(context.Background(), id)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidSettlementStatus)
}

// ===================== ListWaiting Tests =====================

func TestSettlementService_ListWaiting(t *testing.T) {
	// Arrange
	svc, settlementRepo, _ := newSettlementServiceForTest()

	settlementRepo.On("ListByStatus", mock.Anything, entity.SettlementStatusWaitingApproval).
		Return([]entity.Settlement{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	// Act
	settlements, err := svc.ListWaiting(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Len(t, settlements, 2)
}
