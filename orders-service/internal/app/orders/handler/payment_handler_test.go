package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lemuel/orders-service/internal/app/orders/entity"
	infrahttp "lemuel/orders-service/internal/app/orders/infrastructure/http"
	"lemuel/orders-service/internal/app/orders/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentService мок для PaymentService в тестах handler
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, req *entity.CreatePaymentRequest) (*entity.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) AuthorizePayment(ctx context.Context, id uuid.UUID, pgTransactionID string) (*entity.Payment, error) {
	args := m.Called(ctx, id, pgTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) CapturePayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) CancelPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) ConfirmTossPayment(ctx context.Context, req *entity.TossConfirmRequest) (*entity.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payment), args.Error(1)
}

func (m *MockPaymentService) ConfirmTossCartPayment(ctx context.Context, req *entity.TossCartConfirmRequest) (*entity.CartConfirmResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CartConfirmResponse), args.Error(1)
}

// ===================== CreatePayment Handler Tests =====================

func TestCreatePaymentHandler_Success(t *testing.T) {
	router := setupTestRouter()

	orderID := uuid.New()
	paymentID := uuid.New()

	mockService := new(MockPaymentService)
	mockService.On("CreatePayment", mock.Anything, mock.AnythingOfType("*entity.CreatePaymentRequest")).
		Return(&entity.Payment{
			ID:            paymentID,
			OrderID:       orderID,
			Amount:        99000,
			PaymentMethod: "CARD",
			Status:        entity.PaymentStatusReady,
		}, nil)

	h := NewPaymentHandler(mockService)
	router.POST("/payments", h.CreatePayment)

	body, _ := json.Marshal(entity.CreatePaymentRequest{OrderID: orderID, PaymentMethod: "CARD"})
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var got entity.Payment
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, entity.PaymentStatusReady, got.Status)
}

func TestCreatePaymentHandler_ActivePaymentConflict(t *testing.T) {
	router := setupTestRouter()

	mockService := new(MockPaymentService)
	mockService.On("CreatePayment", mock.Anything, mock.AnythingOfType("*entity.CreatePaymentRequest")).
		Return(nil, service.ErrActivePaymentExists)

	h := NewPaymentHandler(mockService)
	router.POST("/payments", h.CreatePayment)

	body, _ := json.Marshal(entity.CreatePaymentRequest{OrderID: uuid.New(), PaymentMethod: "CARD"})
	req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePaymentHandler_MissingMethod(t *testing.T) {
	router := setupTestRouter()

	mockService := new(MockPaymentService)
	h := NewPaymentHandler(mockService)
	router.POST("/payments", h.CreatePayment)

	req := httptest.NewRequest(http.MethodPost, "/payments",
		bytes.NewReader([]byte(fmt.Sprintf(`{"order_id":"%s"}`, uuid.New()))))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
}

// ===================== Capture Handler Tests =====================

func TestCapturePaymentHandler_DoubleCaptureConflict(t *testing.T) {
	router := setupTestRouter()

	paymentID := uuid.New()

	mockService := new(MockPaymentService)
	mockService.On("CapturePayment", mock.Anything, paymentID).
		Return(nil, service.ErrInvalidPaymentStatus)

	h := NewPaymentHandler(mockService)
	router.PATCH("/payments/:id/capture", h.CapturePayment)

	req := httptest.NewRequest(http.MethodPatch, "/payments/"+paymentID.String()+"/capture", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// ===================== Toss Confirm Handler Tests =====================

func TestConfirmTossHandler_Success(t *testing.T) {
	router := setupTestRouter()

	orderID := uuid.New()
	paymentKey := "tviva20260831abc"

	mockService := new(MockPaymentService)
	mockService.On("ConfirmTossPayment", mock.Anything, mock.AnythingOfType("*entity.TossConfirmRequest")).
		Return(&entity.Payment{
			ID:              uuid.New(),
			OrderID:         orderID,
			Amount:          135000,
			PaymentMethod:   "TOSS_PAYMENTS",
			Status:          entity.PaymentStatusCaptured,
			PGTransactionID: &paymentKey,
		}, nil)

	h := NewPaymentHandler(mockService)
	router.POST("/payments/toss/confirm", h.ConfirmTossPayment)

	// Поля в формате Toss: orderId / paymentKey / amount
	body := fmt.Sprintf(`{"orderId":"%s","paymentKey":"%s","tossOrderId":"order-20260831-001","amount":135000}`, orderID, paymentKey)
	req := httptest.NewRequest(http.MethodPost, "/payments/toss/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestConfirmTossHandler_AmountMismatch(t *testing.T) {
	router := setupTestRouter()

	orderID := uuid.New()

	mockService := new(MockPaymentService)
	mockService.On("ConfirmTossPayment", mock.Anything, mock.AnythingOfType("*entity.TossConfirmRequest")).
		Return(nil, service.ErrAmountMismatch)

	h := NewPaymentHandler(mockService)
	router.POST("/payments/toss/confirm", h.ConfirmTossPayment)

	body := fmt.Sprintf(`{"orderId":"%s","paymentKey":"key","tossOrderId":"order-1","amount":1000}`, orderID)
	req := httptest.NewRequest(http.MethodPost, "/payments/toss/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmTossHandler_GatewayErrorMapsToBadGateway(t *testing.T) {
	router := setupTestRouter()

	orderID := uuid.New()

	mockService := new(MockPaymentService)
	// Ошибка шлюза приходит обернутой, handler достает ее через errors.As
	tossErr := &infrahttp.TossError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND_PAYMENT_SESSION",
		Message:    "결제 세션이 만료되었습니다.",
	}
	mockService.On("ConfirmTossPayment", mock.Anything, mock.AnythingOfType("*entity.TossConfirmRequest")).
		Return(nil, fmt.Errorf("toss confirmation failed: %w", tossErr))

	h := NewPaymentHandler(mockService)
	router.POST("/payments/toss/confirm", h.ConfirmTossPayment)

	body := fmt.Sprintf(`{"orderId":"%s","paymentKey":"expired-key","tossOrderId":"order-1","amount":135000}`, orderID)
	req := httptest.NewRequest(http.MethodPost, "/payments/toss/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND_PAYMENT_SESSION")
}

func TestConfirmTossCartHandler_PartialFailuresMultiStatus(t *testing.T) {
	router := setupTestRouter()

	okID := uuid.New()
	brokenID := uuid.New()

	mockService := new(MockPaymentService)
	mockService.On("ConfirmTossCartPayment", mock.Anything, mock.AnythingOfType("*entity.TossCartConfirmRequest")).
		Return(&entity.CartConfirmResponse{
			Payments: []entity.Payment{
				{ID: uuid.New(), OrderID: okID, Amount: 30000, Status: entity.PaymentStatusCaptured},
			},
			Failures: []entity.CartOrderFailure{
				{OrderID: brokenID, Error: "order already has an active payment"},
			},
		}, nil)

	h := NewPaymentHandler(mockService)
	router.POST("/payments/toss/cart/confirm", h.ConfirmTossCartPayment)

	body := fmt.Sprintf(`{"orderIds":["%s","%s"],"paymentKey":"key","tossOrderId":"cart-1","totalAmount":75000}`, okID, brokenID)
	req := httptest.NewRequest(http.MethodPost, "/payments/toss/cart/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMultiStatus, w.Code)

	var got entity.CartConfirmResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Payments, 1)
	assert.Len(t, got.Failures, 1)
}

func TestConfirmTossCartHandler_EmptyOrderList(t *testing.T) {
	router := setupTestRouter()

	mockService := new(MockPaymentService)
	h := NewPaymentHandler(mockService)
	router.POST("/payments/toss/cart/confirm", h.ConfirmTossCartPayment)

	body := `{"orderIds":[],"paymentKey":"key","tossOrderId":"cart-1","totalAmount":1000}`
	req := httptest.NewRequest(http.MethodPost, "/payments/toss/cart/confirm", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "ConfirmTossCartPayment", mock.Anything, mock.Anything)
}
