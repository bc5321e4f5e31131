package repository

import (
	"context"
	"errors"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type refundRepository struct {
	db *gorm.DB
}

// NewRefundRepository создает новый репозиторий возвратов
func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

// Create сохраняет возврат. Уникальный индекс (payment_id, idempotency_key)
// закрывает гонку конкурентных повторов: проигравший insert получает
// ErrDuplicateRefundKey и должен вернуть запись победителя.
func (r *refundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	result := r.db.WithContext(ctx).Create(refund)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRefundKey
		}
		return result.Error
	}
	return nil
}

// GetByPaymentAndKey ищет возврат по платежу и ключу идемпотентности
func (r *refundRepository) GetByPaymentAndKey(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*entity.Refund, error) {
	var refund entity.Refund
	result := r.db.WithContext(ctx).
		Where("payment_id = ? AND idempotency_key = ?", paymentID, idempotencyKey).
		First(&refund)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRefundNotFound
		}
		return nil, result.Error
	}

	return &refund, nil
}

// GetByPaymentID возвращает историю возвратов платежа, новые первыми
func (r *refundRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]entity.Refund, error) {
	var refunds []entity.Refund
	result := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		Find(&refunds)

	if result.Error != nil {
		return nil, result.Error
	}

	return refunds, nil
}

// Delete удаляет возврат по ID. Используется как компенсация, когда
// insert прошел, а условный UPDATE refunded_amount проиграл гонку.
func (r *refundRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Refund{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefundNotFound
	}
	return nil
}
