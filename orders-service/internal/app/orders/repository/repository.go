package repository

import (
	"context"
	"errors"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRefundNotFound      = errors.New("refund not found")
	ErrStatusConflict      = errors.New("status transition conflict")
	ErrDuplicateRefundKey  = errors.New("refund with this idempotency key already exists")
	ErrRefundBalanceExceeded = errors.New("refunded amount would exceed payment amount")
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Order, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Order, error)
	// UpdateStatus переводит заказ из статуса from в to условным UPDATE.
	// Возвращает ErrStatusConflict, когда текущий статус отличается от from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	// GetActiveByOrderID возвращает платеж заказа в статусе, отличном от
	// CANCELED/FAILED, или ErrPaymentNotFound.
	GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error)
	// Authorize READY -> AUTHORIZED с записью идентификатора транзакции шлюза.
	Authorize(ctx context.Context, id uuid.UUID, pgTransactionID string) error
	// Capture AUTHORIZED -> CAPTURED. Условный UPDATE с проверкой затронутых
	// строк гарантирует, что повторное подтверждение не спишет дважды.
	Capture(ctx context.Context, id uuid.UUID, capturedAt time.Time) error
	// Fail READY/AUTHORIZED -> FAILED.
	Fail(ctx context.Context, id uuid.UUID) error
	// Cancel AUTHORIZED/FAILED -> CANCELED.
	Cancel(ctx context.Context, id uuid.UUID) error
	// AddRefundedAmount увеличивает refunded_amount при условии, что итог не
	// превысит amount; иначе ErrRefundBalanceExceeded.
	AddRefundedAmount(ctx context.Context, id uuid.UUID, amount int64) error
	// MarkRefunded CAPTURED -> REFUNDED после полного возврата.
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}

type RefundRepository interface {
	// Create сохраняет возврат; нарушение уникальности
	// (payment_id, idempotency_key) возвращает ErrDuplicateRefundKey.
	Create(ctx context.Context, refund *entity.Refund) error
	GetByPaymentAndKey(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*entity.Refund, error)
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.Refund, error)
	// Delete убирает возврат, не прошедший проверку остатка,
	// чтобы ключ идемпотентности не указывал на несостоявшийся возврат
	Delete(ctx context.Context, id uuid.UUID) error
}
