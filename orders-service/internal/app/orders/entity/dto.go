package entity

import "github.com/google/uuid"

// CreateOrderRequest запрос на создание заказа.
// С product_id сумма пересчитывается по каталогу и поле amount игнорируется;
// без product_id заказ создается на указанную сумму (legacy-путь).
type CreateOrderRequest struct {
	ProductID   *uuid.UUID `json:"product_id,omitempty"`
	Quantity    int        `json:"quantity" validate:"omitempty,gt=0"`
	Amount      int64      `json:"amount" validate:"omitempty,gt=0"`
	OrdererName string     `json:"orderer_name" validate:"omitempty,max=100"` // По умолчанию email из токена
}

type CreatePaymentRequest struct {
	OrderID       uuid.UUID `json:"order_id" validate:"required"`
	PaymentMethod string    `json:"payment_method" validate:"required,min=2,max=50"`
}

type AuthorizePaymentRequest struct {
	PGTransactionID string `json:"pg_transaction_id" validate:"required,max=200"`
}

// TossConfirmRequest запрос подтверждения платежа Toss Payments.
// order_id - идентификатор заказа в нашей БД, toss_order_id - на стороне Toss.
type TossConfirmRequest struct {
	OrderID     uuid.UUID `json:"orderId" validate:"required"`
	PaymentKey  string    `json:"paymentKey" validate:"required"`
	TossOrderID string    `json:"tossOrderId" validate:"required"`
	Amount      int64     `json:"amount" validate:"required,gt=0"`
}

// TossCartConfirmRequest запрос подтверждения корзины: несколько заказов
// оплачиваются одним платежом Toss.
type TossCartConfirmRequest struct {
	OrderIDs    []uuid.UUID `json:"orderIds" validate:"required,min=1"`
	PaymentKey  string      `json:"paymentKey" validate:"required"`
	TossOrderID string      `json:"tossOrderId" validate:"required"`
	TotalAmount int64       `json:"totalAmount" validate:"required,gt=0"`
}

// CartOrderFailure описывает заказ, который не удалось провести после
// успешного списания в шлюзе.
type CartOrderFailure struct {
	OrderID uuid.UUID `json:"order_id"`
	Error   string    `json:"error"`
}

// CartConfirmResponse результат подтверждения корзины: успешные платежи
// плюс заказы, зависшие после списания (требуют ручной сверки).
type CartConfirmResponse struct {
	Payments []Payment          `json:"payments"`
	Failures []CartOrderFailure `json:"failures,omitempty"`
}

type RefundRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
