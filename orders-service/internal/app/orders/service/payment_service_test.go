package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/repository"
	"lemuel/orders-service/internal/app/orders/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPaymentService() (*PaymentService, *mocks.MockPaymentRepository, *mocks.MockOrderRepository, *mocks.MockTossGateway, *mocks.MockMessagePublisher) {
	paymentRepo := new(mocks.MockPaymentRepository)
	orderRepo := new(mocks.MockOrderRepository)
	tossGateway := new(mocks.MockTossGateway)
	kafkaProducer := &mocks.MockMessagePublisher{Messages: make([][]byte, 0)}
	return NewPaymentService(paymentRepo, orderRepo, tossGateway, kafkaProducer), paymentRepo, orderRepo, tossGateway, kafkaProducer
}

// ===================== CreatePayment Tests =====================

func TestCreatePayment_Success(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, _, _ := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:     orderID,
		Amount: 99000,
		Status: entity.OrderStatusCreated,
	}, nil)
	paymentRepo.On("GetActiveByOrderID", ctx, orderID).Return(nil, repository.ErrPaymentNotFound)
	paymentRepo.On("Create", ctx, mock.AnythingOfType("*entity.Payment")).Return(nil)

	// Act
	result, err := service.CreatePayment(ctx, &entity.CreatePaymentRequest{
		OrderID:       orderID,
		PaymentMethod: "CARD",
	})

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, entity.PaymentStatusReady, result.Status)
	// Сумма копируется из заказа, клиент ее не задает
	assert.Equal(t, int64(99000), result.Amount)
	paymentRepo.AssertExpectations(t)
}

func TestCreatePayment_OrderNotPayable(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, _, _ := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:     orderID,
		Amount: 99000,
		Status: entity.OrderStatusPaid,
	}, nil)

	// Act
	result, err := service.CreatePayment(ctx, &entity.CreatePaymentRequest{
		OrderID:       orderID,
		PaymentMethod: "CARD",
	})

	// Assert
	assert.ErrorIs(t, err, ErrOrderNotPayable)
	assert.Nil(t, result)
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePayment_ActivePaymentExists(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, _, _ := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:     orderID,
		Amount: 99000,
		Status: entity.OrderStatusCreated,
	}, nil)
	paymentRepo.On("GetActiveByOrderID", ctx, orderID).Return(&entity.Payment{
		ID:      uuid.New(),
		OrderID: orderID,
		Status:  entity.PaymentStatusReady,
	}, nil)

	// Act
	result, err := service.CreatePayment(ctx, &entity.CreatePaymentRequest{
		OrderID:       orderID,
		PaymentMethod: "CARD",
	})

	// Assert
	assert.ErrorIs(t, err, ErrActivePaymentExists)
	assert.Nil(t, result)
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ===================== CapturePayment Tests =====================

func TestCapturePayment_Success(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, _, kafkaProducer := newPaymentService()

	ctx := context.Background()
	paymentID := uuid.New()
	orderID := uuid.New()
	capturedAt := time.Now()
	pgTxID := "toss-key-123"

	paymentRepo.On("Capture", ctx, paymentID, mock.AnythingOfType("time.Time")).Return(nil)
	paymentRepo.On("GetByID", ctx, paymentID).Return(&entity.Payment{
		ID:              paymentID,
		OrderID:         orderID,
		Amount:          50000,
		PaymentMethod:   methodTossPayments,
		Status:          entity.PaymentStatusCaptured,
		PGTransactionID: &pgTxID,
		CapturedAt:      &capturedAt,
	}, nil)
	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:          orderID,
		OrdererName: "Kim Minsu",
		ProductName: "Wireless Keyboard",
		Amount:      50000,
		Status:      entity.OrderStatusCreated,
	}, nil)
	orderRepo.On("UpdateStatus", ctx, orderID, entity.OrderStatusCreated, entity.OrderStatusPaid).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, paymentID.String(), mock.Anything).Return(nil)

	// Act
	result, err := service.CapturePayment(ctx, paymentID)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusCaptured, result.Status)
	assert.Len(t, kafkaProducer.Messages, 1)
	assert.Contains(t, string(kafkaProducer.Messages[0]), entity.EventPaymentCaptured)
	assert.Contains(t, string(kafkaProducer.Messages[0]), "Kim Minsu")
	paymentRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

func TestCapturePayment_DoubleCaptureRejected(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, _, kafkaProducer := newPaymentService()

	ctx := context.Background()
	paymentID := uuid.New()

	// Второй вызов: условный UPDATE не находит платеж в AUTHORIZED
	paymentRepo.On("Capture", ctx, paymentID, mock.AnythingOfType("time.Time")).
		Return(repository.ErrStatusConflict)

	// Act
	result, err := service.CapturePayment(ctx, paymentID)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
	assert.Nil(t, result)
	assert.Empty(t, kafkaProducer.Messages)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ===================== ConfirmTossPayment Tests =====================

func TestConfirmTossPayment_Success(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, tossGateway, kafkaProducer := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()
	paymentKey := "tviva20260831abc"

	order := &entity.Order{
		ID:          orderID,
		OrdererName: "Kim Minsu",
		ProductName: "Wireless Keyboard",
		Amount:      135000,
		Status:      entity.OrderStatusCreated,
	}
	orderRepo.On("GetByID", ctx, orderID).Return(order, nil)
	tossGateway.On("Confirm", ctx, paymentKey, "order-20260831-001", int64(135000)).Return(nil)

	// settleConfirmedOrder: READY -> AUTHORIZED -> CAPTURED
	paymentRepo.On("GetActiveByOrderID", ctx, orderID).Return(nil, repository.ErrPaymentNotFound)
	paymentRepo.On("Create", ctx, mock.AnythingOfType("*entity.Payment")).Return(nil)
	paymentRepo.On("Authorize", ctx, mock.AnythingOfType("uuid.UUID"), paymentKey).Return(nil)
	paymentRepo.On("Capture", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)
	paymentRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).Return(&entity.Payment{
		ID:              uuid.New(),
		OrderID:         orderID,
		Amount:          135000,
		PaymentMethod:   methodTossPayments,
		Status:          entity.PaymentStatusCaptured,
		PGTransactionID: &paymentKey,
	}, nil)
	orderRepo.On("UpdateStatus", ctx, orderID, entity.OrderStatusCreated, entity.OrderStatusPaid).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	// Act
	result, err := service.ConfirmTossPayment(ctx, &entity.TossConfirmRequest{
		OrderID:     orderID,
		PaymentKey:  paymentKey,
		TossOrderID: "order-20260831-001",
		Amount:      135000,
	})

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, entity.PaymentStatusCaptured, result.Status)
	assert.Equal(t, paymentKey, *result.PGTransactionID)
	tossGateway.AssertExpectations(t)
	assert.Len(t, kafkaProducer.Messages, 1)
}

func TestConfirmTossPayment_AmountMismatchFailsBeforeGateway(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, tossGateway, _ := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:     orderID,
		Amount: 135000,
		Status: entity.OrderStatusCreated,
	}, nil)

	// Act: клиент прислал подмененную сумму
	result, err := service.ConfirmTossPayment(ctx, &entity.TossConfirmRequest{
		OrderID:     orderID,
		PaymentKey:  "tviva20260831abc",
		TossOrderID: "order-20260831-001",
		Amount:      1000,
	})

	// Assert: шлюз не вызывался, платеж не создан
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Nil(t, result)
	tossGateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestConfirmTossPayment_GatewayError(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, tossGateway, _ := newPaymentService()

	ctx := context.Background()
	orderID := uuid.New()

	orderRepo.On("GetByID", ctx, orderID).Return(&entity.Order{
		ID:     orderID,
		Amount: 135000,
		Status: entity.OrderStatusCreated,
	}, nil)

	gatewayErr := errors.New("NOT_FOUND_PAYMENT_SESSION")
	tossGateway.On("Confirm", ctx, "bad-key", "order-20260831-001", int64(135000)).Return(gatewayErr)

	// Act
	result, err := service.ConfirmTossPayment(ctx, &entity.TossConfirmRequest{
		OrderID:     orderID,
		PaymentKey:  "bad-key",
		TossOrderID: "order-20260831-001",
		Amount:      135000,
	})

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, gatewayErr)
	assert.Nil(t, result)
	paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// ===================== ConfirmTossCartPayment Tests =====================

func TestConfirmTossCartPayment_TotalMismatchFailsBeforeGateway(t *testing.T) {
	// Arrange
	service, _, orderRepo, tossGateway, _ := newPaymentService()

	ctx := context.Background()
	firstID := uuid.New()
	secondID := uuid.New()

	orderRepo.On("GetByIDs", ctx, []uuid.UUID{firstID, secondID}).Return([]entity.Order{
		{ID: firstID, Amount: 30000, Status: entity.OrderStatusCreated},
		{ID: secondID, Amount: 45000, Status: entity.OrderStatusCreated},
	}, nil)

	// Act: сумма заказов 75000, клиент прислал 70000
	result, err := service.ConfirmTossCartPayment(ctx, &entity.TossCartConfirmRequest{
		OrderIDs:    []uuid.UUID{firstID, secondID},
		PaymentKey:  "tviva20260831abc",
		TossOrderID: "cart-20260831-001",
		TotalAmount: 70000,
	})

	// Assert
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Nil(t, result)
	tossGateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmTossCartPayment_MissingOrder(t *testing.T) {
	// Arrange
	service, _, orderRepo, tossGateway, _ := newPaymentService()

	ctx := context.Background()
	firstID := uuid.New()
	secondID := uuid.New()

	// Один из заказов не найден
	orderRepo.On("GetByIDs", ctx, []uuid.UUID{firstID, secondID}).Return([]entity.Order{
		{ID: firstID, Amount: 30000, Status: entity.OrderStatusCreated},
	}, nil)

	// Act
	result, err := service.ConfirmTossCartPayment(ctx, &entity.TossCartConfirmRequest{
		OrderIDs:    []uuid.UUID{firstID, secondID},
		PaymentKey:  "tviva20260831abc",
		TossOrderID: "cart-20260831-001",
		TotalAmount: 30000,
	})

	// Assert
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, result)
	tossGateway.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmTossCartPayment_PartialSettlementFailureCollected(t *testing.T) {
	// Arrange
	service, paymentRepo, orderRepo, tossGateway, kafkaProducer := newPaymentService()

	ctx := context.Background()
	okID := uuid.New()
	brokenID := uuid.New()
	paymentKey := "tviva20260831abc"

	orderRepo.On("GetByIDs", ctx, []uuid.UUID{okID, brokenID}).Return([]entity.Order{
		{ID: okID, OrdererName: "Kim Minsu", Amount: 30000, Status: entity.OrderStatusCreated},
		{ID: brokenID, OrdererName: "Kim Minsu", Amount: 45000, Status: entity.OrderStatusCreated},
	}, nil)
	tossGateway.On("Confirm", ctx, paymentKey, "cart-20260831-001", int64(75000)).Return(nil)

	// Первый заказ проводится, по второму уже висит активный платеж
	paymentRepo.On("GetActiveByOrderID", ctx, okID).Return(nil, repository.ErrPaymentNotFound)
	paymentRepo.On("GetActiveByOrderID", ctx, brokenID).Return(&entity.Payment{
		ID:      uuid.New(),
		OrderID: brokenID,
		Status:  entity.PaymentStatusReady,
	}, nil)
	orderRepo.On("GetByID", ctx, okID).Return(&entity.Order{
		ID:     okID,
		Amount: 30000,
		Status: entity.OrderStatusCreated,
	}, nil)
	orderRepo.On("GetByID", ctx, brokenID).Return(&entity.Order{
		ID:     brokenID,
		Amount: 45000,
		Status: entity.OrderStatusCreated,
	}, nil)

	paymentRepo.On("Create", ctx, mock.AnythingOfType("*entity.Payment")).Return(nil)
	paymentRepo.On("Authorize", ctx, mock.AnythingOfType("uuid.UUID"), paymentKey).Return(nil)
	paymentRepo.On("Capture", ctx, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("time.Time")).Return(nil)
	paymentRepo.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).Return(&entity.Payment{
		ID:              uuid.New(),
		OrderID:         okID,
		Amount:          30000,
		PaymentMethod:   methodTossPayments,
		Status:          entity.PaymentStatusCaptured,
		PGTransactionID: &paymentKey,
	}, nil)
	orderRepo.On("UpdateStatus", ctx, okID, entity.OrderStatusCreated, entity.OrderStatusPaid).Return(nil)
	kafkaProducer.On("PublishMessage", ctx, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	// Act
	result, err := service.ConfirmTossCartPayment(ctx, &entity.TossCartConfirmRequest{
		OrderIDs:    []uuid.UUID{okID, brokenID},
		PaymentKey:  paymentKey,
		TossOrderID: "cart-20260831-001",
		TotalAmount: 75000,
	})

	// Assert: деньги списаны, сбой одного заказа не откатывает остальные
	assert.NoError(t, err)
	assert.Len(t, result.Payments, 1)
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, brokenID, result.Failures[0].OrderID)
	tossGateway.AssertNumberOfCalls(t, "Confirm", 1)
}

// ===================== AuthorizePayment / CancelPayment Tests =====================

func TestAuthorizePayment_WrongStatus(t *testing.T) {
	// Arrange
	service, paymentRepo, _, _, _ := newPaymentService()

	ctx := context.Background()
	paymentID := uuid.New()

	paymentRepo.On("Authorize", ctx, paymentID, "pg-tx-1").Return(repository.ErrStatusConflict)

	// Act
	result, err := service.AuthorizePayment(ctx, paymentID, "pg-tx-1")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
	assert.Nil(t, result)
}

func TestCancelPayment_NotFound(t *testing.T) {
	// Arrange
	service, paymentRepo, _, _, _ := newPaymentService()

	ctx := context.Background()
	paymentID := uuid.New()

	paymentRepo.On("Cancel", ctx, paymentID).Return(repository.ErrPaymentNotFound)

	// Act
	result, err := service.CancelPayment(ctx, paymentID)

	// Assert
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.Nil(t, result)
}
