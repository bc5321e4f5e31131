package service

import (
	"context"
	"testing"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/repository"
	"lemuel/orders-service/internal/app/orders/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRefundService() (*RefundService, *mocks.MockRefundRepository, *mocks.MockPaymentRepository, *mocks.MockOrderRepository, *mocks.MockMessagePublisher) {
	refundRepo := new(mocks.MockRefundRepository)
	paymentRepo := new(mocks.MockPaymentRepository)
	orderRepo := new(mocks.MockOrderRepository)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	return NewRefundService(refundRepo, paymentRepo, orderRepo, kafkaProducer), refundRepo, paymentRepo, orderRepo, kafkaProducer
}

func capturedPayment(id, orderID uuid.UUID, amount, refunded int64) *entity.Payment {
	return &entity.Payment{
		ID:             id,
		OrderID:        orderID,
		Amount:         amount,
		RefundedAmount: refunded,
		PaymentMethod:  "TOSS_PAYMENTS",
		Status:         entity.PaymentStatusCaptured,
	}
}

// ===================== CreateRefund Tests =====================

func TestCreateRefund_Partial_Success(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, orderRepo, kafkaProducer := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	orderID := uuid.New()

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 0), nil).Once()
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-1").Return(nil, repository.ErrRefundNotFound)
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(nil)
	paymentRepo.On("AddRefundedAmount", ctx, paymentID, int64(30000)).Return(nil)
	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 30000), nil)
	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{ID: orderID, Status: entity.OrderStatusPaid}, nil)
	kafkaProducer.On("PublishMessage", ctx, paymentID.String(), mock.Anything).Return(nil)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(30000), result.Amount)
	assert.Equal(t, entity.RefundStatusCompleted, result.Status)
	// Частичный возврат не трогает статусы платежа и заказа
	paymentRepo.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, kafkaProducer.Messages, 1)
	assert.Contains(t, string(kafkaProducer.Messages[0]), entity.EventPaymentRefunded)
}

func TestCreateRefund_FullRefundFlipsPaymentAndOrder(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, orderRepo, kafkaProducer := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	orderID := uuid.New()

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 60000), nil).Once()
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-2").Return(nil, repository.ErrRefundNotFound)
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(nil)
	paymentRepo.On("AddRefundedAmount", ctx, paymentID, int64(40000)).Return(nil)
	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 100000), nil)
	paymentRepo.On("MarkRefunded", ctx, paymentID).Return(nil)
	orderRepo.On("UpdateStatus", ctx, orderID, entity.OrderStatusPaid, entity.OrderStatusRefunded).Return(nil)
	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{ID: orderID, Status: entity.OrderStatusRefunded}, nil)
	kafkaProducer.On("PublishMessage", ctx, paymentID.String(), mock.Anything).Return(nil)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 40000, "customer request", "key-2")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(40000), result.Amount)
	paymentRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestCreateRefund_ReplayedByIdempotencyKey(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, kafkaProducer := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	stored := &entity.Refund{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		Amount:         30000,
		Status:         entity.RefundStatusCompleted,
		IdempotencyKey: "key-1",
	}

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, uuid.New(), 100000, 30000), nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-1").Return(stored, nil)

	// Act: повтор с тем же ключом
	result, err := service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-1")

	// Assert: возвращается исходный возврат, сумма не списывается второй раз
	assert.NoError(t, err)
	assert.Equal(t, stored.ID, result.ID)
	refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	paymentRepo.AssertNotCalled(t, "AddRefundedAmount", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, kafkaProducer.Messages)
}

func TestCreateRefund_ConcurrentDuplicateReturnsWinner(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	winner := &entity.Refund{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		Amount:         30000,
		Status:         entity.RefundStatusCompleted,
		IdempotencyKey: "key-1",
	}

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, uuid.New(), 100000, 0), nil)
	// Между проверкой ключа и insert конкурент успел вставить свой возврат
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-1").Return(nil, repository.ErrRefundNotFound).Once()
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(repository.ErrDuplicateRefundKey)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-1").Return(winner, nil)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, winner.ID, result.ID)
	paymentRepo.AssertNotCalled(t, "AddRefundedAmount", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRefund_ExceedsRefundableAmount(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()

	// Доступно к возврату 100000 - 80000 = 20000
	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, uuid.New(), 100000, 80000), nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-3").Return(nil, repository.ErrRefundNotFound)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-3")

	// Assert
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	assert.Nil(t, result)
	refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRefund_NotCapturedPayment(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()

	payment := capturedPayment(paymentID, uuid.New(), 100000, 0)
	payment.Status = entity.PaymentStatusReady
	paymentRepo.On("GetByID", ctx, paymentID).Return(payment, nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-4").Return(nil, repository.ErrRefundNotFound)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 10000, "customer request", "key-4")

	// Assert
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
	assert.Nil(t, result)
}

func TestCreateRefund_BalanceGuardLostRace(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, uuid.New(), 100000, 0), nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-5").Return(nil, repository.ErrRefundNotFound)
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(nil)
	// Конкурентный возврат исчерпал остаток между чтением и UPDATE
	paymentRepo.On("AddRefundedAmount", ctx, paymentID, int64(100000)).
		Return(repository.ErrRefundBalanceExceeded)
	refundRepo.On("Delete", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	// Act
	result, err := service.CreateRefund(ctx, paymentID, 100000, "customer request", "key-5")

	// Assert: вставленная запись компенсационно удалена
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	assert.Nil(t, result)
	refundRepo.AssertCalled(t, "Delete", ctx, mock.AnythingOfType("uuid.UUID"))
}

func TestCreateRefund_GuardFailureNotReplayableAsSuccess(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()

	// Конкурентные возвраты съедают остаток; чтение платежа отстает,
	// поэтому insert проходит, а условный UPDATE - нет
	paymentRepo.On("GetByID", ctx, paymentID).
		Return(capturedPayment(paymentID, uuid.New(), 100000, 0), nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-9").
		Return(nil, repository.ErrRefundNotFound)

	var inserted *entity.Refund
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*entity.Refund)
		})
	paymentRepo.On("AddRefundedAmount", ctx, paymentID, int64(30000)).
		Return(repository.ErrRefundBalanceExceeded)
	refundRepo.On("Delete", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	// Act: первый запрос падает по остатку
	result, err := service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-9")
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	assert.Nil(t, result)

	// Assert: компенсация удалила именно вставленную запись, и повтор
	// с тем же ключом не находит ее как состоявшийся возврат
	require.NotNil(t, inserted)
	refundRepo.AssertCalled(t, "Delete", ctx, inserted.ID)

	result, err = service.CreateRefund(ctx, paymentID, 30000, "customer request", "key-9")
	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	assert.Nil(t, result)
}

// ===================== ProcessFullRefund Tests =====================

func TestProcessFullRefund_RefundsRemainingBalance(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, orderRepo, kafkaProducer := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	orderID := uuid.New()

	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 25000), nil).Twice()
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-6").Return(nil, repository.ErrRefundNotFound)
	refundRepo.On("Create", ctx, mock.AnythingOfType("*entity.Refund")).Return(nil)
	// Возвращается остаток 75000, а не полная сумма платежа
	paymentRepo.On("AddRefundedAmount", ctx, paymentID, int64(75000)).Return(nil)
	paymentRepo.On("GetByID", ctx, paymentID).Return(capturedPayment(paymentID, orderID, 100000, 100000), nil)
	paymentRepo.On("MarkRefunded", ctx, paymentID).Return(nil)
	orderRepo.On("UpdateStatus", ctx, orderID, entity.OrderStatusPaid, entity.OrderStatusRefunded).Return(nil)
	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{ID: orderID, Status: entity.OrderStatusRefunded}, nil)
	kafkaProducer.On("PublishMessage", ctx, paymentID.String(), mock.Anything).Return(nil)

	// Act
	result, err := service.ProcessFullRefund(ctx, paymentID, "key-6")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(75000), result.Amount)
	paymentRepo.AssertExpectations(t)
}

func TestProcessFullRefund_AlreadyRefundedReplaysStoredKey(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	payment := capturedPayment(paymentID, uuid.New(), 100000, 100000)
	payment.Status = entity.PaymentStatusRefunded
	stored := &entity.Refund{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		Amount:         100000,
		Status:         entity.RefundStatusCompleted,
		IdempotencyKey: "key-7",
	}

	paymentRepo.On("GetByID", ctx, paymentID).Return(payment, nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "key-7").Return(stored, nil)

	// Act
	result, err := service.ProcessFullRefund(ctx, paymentID, "key-7")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, stored.ID, result.ID)
	refundRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessFullRefund_AlreadyRefundedNewKeyRejected(t *testing.T) {
	// Arrange
	service, refundRepo, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()
	payment := capturedPayment(paymentID, uuid.New(), 100000, 100000)
	payment.Status = entity.PaymentStatusRefunded

	paymentRepo.On("GetByID", ctx, paymentID).Return(payment, nil)
	refundRepo.On("GetByPaymentAndKey", ctx, paymentID, "fresh-key").Return(nil, repository.ErrRefundNotFound)

	// Act
	result, err := service.ProcessFullRefund(ctx, paymentID, "fresh-key")

	// Assert
	assert.ErrorIs(t, err, ErrRefundNotAllowed)
	assert.Nil(t, result)
}

// ===================== ProcessPartialRefund Tests =====================

func TestProcessPartialRefund_PaymentNotFound(t *testing.T) {
	// Arrange
	service, _, paymentRepo, _, _ := newRefundService()

	ctx := context.Background()
	paymentID := uuid.New()

	paymentRepo.On("GetByID", ctx, paymentID).Return(nil, repository.ErrPaymentNotFound)

	// Act
	result, err := service.ProcessPartialRefund(ctx, paymentID, 10000, "key-8")

	// Assert
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.Nil(t, result)
}
