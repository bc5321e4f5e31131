package service

import (
	"context"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, ordererName string, req *entity.CreateOrderRequest) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*entity.Order, error)
	GetUserOrders(ctx context.Context, userID, requesterID uuid.UUID, requesterRole string) ([]entity.Order, error)
	CancelOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*entity.Order, error)
}

type PaymentServiceInterface interface {
	CreatePayment(ctx context.Context, req *entity.CreatePaymentRequest) (*entity.Payment, error)
	AuthorizePayment(ctx context.Context, id uuid.UUID, pgTransactionID string) (*entity.Payment, error)
	CapturePayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	CancelPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	ConfirmTossPayment(ctx context.Context, req *entity.TossConfirmRequest) (*entity.Payment, error)
	ConfirmTossCartPayment(ctx context.Context, req *entity.TossCartConfirmRequest) (*entity.CartConfirmResponse, error)
}

type RefundServiceInterface interface {
	CreateRefund(ctx context.Context, paymentID uuid.UUID, amount int64, reason, idempotencyKey string) (*entity.Refund, error)
	ProcessFullRefund(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*entity.Refund, error)
	ProcessPartialRefund(ctx context.Context, paymentID uuid.UUID, amount int64, idempotencyKey string) (*entity.Refund, error)
}
