package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository создает новый репозиторий платежей
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create создает новый платеж в PostgreSQL
func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	result := r.db.WithContext(ctx).Create(payment)
	return result.Error
}

// GetByID получает платеж по ID
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	result := r.db.WithContext(ctx).First(&payment, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, result.Error
	}

	return &payment, nil
}

// GetActiveByOrderID получает активный платеж заказа.
// Активный - любой, кроме CANCELED и FAILED.
func (r *paymentRepository) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	result := r.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID,
			[]string{entity.PaymentStatusCanceled, entity.PaymentStatusFailed}).
		Order("created_at DESC").
		First(&payment)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, result.Error
	}

	return &payment, nil
}

// Authorize переводит платеж READY -> AUTHORIZED и записывает
// идентификатор транзакции шлюза
func (r *paymentRepository) Authorize(ctx context.Context, id uuid.UUID, pgTransactionID string) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, pg_transaction_id = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		entity.PaymentStatusAuthorized, pgTransactionID, id, entity.PaymentStatusReady,
	)
	return r.checkTransition(ctx, id, result)
}

// Capture переводит платеж AUTHORIZED -> CAPTURED.
// Условие на текущий статус закрывает гонку повторного подтверждения:
// второй вызов не затронет ни одной строки.
func (r *paymentRepository) Capture(ctx context.Context, id uuid.UUID, capturedAt time.Time) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, captured_at = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		entity.PaymentStatusCaptured, capturedAt, id, entity.PaymentStatusAuthorized,
	)
	return r.checkTransition(ctx, id, result)
}

// Fail переводит платеж READY/AUTHORIZED -> FAILED
func (r *paymentRepository) Fail(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = NOW() WHERE id = ? AND status IN ?`,
		entity.PaymentStatusFailed, id,
		[]string{entity.PaymentStatusReady, entity.PaymentStatusAuthorized},
	)
	return r.checkTransition(ctx, id, result)
}

// Cancel переводит платеж AUTHORIZED/FAILED -> CANCELED
func (r *paymentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = NOW() WHERE id = ? AND status IN ?`,
		entity.PaymentStatusCanceled, id,
		[]string{entity.PaymentStatusAuthorized, entity.PaymentStatusFailed},
	)
	return r.checkTransition(ctx, id, result)
}

// AddRefundedAmount увеличивает накопленную сумму возвратов.
// Условие refunded_amount + ? <= amount держит инвариант на стороне БД
// даже при конкурентных возвратах.
func (r *paymentRepository) AddRefundedAmount(ctx context.Context, id uuid.UUID, amount int64) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET refunded_amount = refunded_amount + ?, updated_at = NOW()
		 WHERE id = ? AND refunded_amount + ? <= amount`,
		amount, id, amount,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to add refunded amount: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Payment{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPaymentNotFound
		}
		return ErrRefundBalanceExceeded
	}

	return nil
}

// MarkRefunded переводит платеж CAPTURED -> REFUNDED после полного возврата
func (r *paymentRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?`,
		entity.PaymentStatusRefunded, id, entity.PaymentStatusCaptured,
	)
	return r.checkTransition(ctx, id, result)
}

// checkTransition различает отсутствующий платеж и конфликт статусов,
// когда условный UPDATE не затронул ни одной строки.
func (r *paymentRepository) checkTransition(ctx context.Context, id uuid.UUID, result *gorm.DB) error {
	if result.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Payment{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrPaymentNotFound
		}
		return ErrStatusConflict
	}

	return nil
}
