package repository

import (
	"context"
	"fmt"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"gorm.io/gorm"
)

type paymentReadRepository struct {
	db *gorm.DB
}

// NewPaymentReadRepository создает репозиторий чтения платежей.
// Работает с таблицами payments/orders, которые ведет orders-service.
func NewPaymentReadRepository(db *gorm.DB) PaymentReadRepository {
	return &paymentReadRepository{db: db}
}

// ListCapturedWithoutSettlement возвращает платежи, списанные в заданную
// дату, по которым расчет еще не создан. Батч закрывает разрыв, если
// событие Kafka было потеряно или не обработано.
func (r *paymentReadRepository) ListCapturedWithoutSettlement(ctx context.Context, date time.Time) ([]entity.CapturedPayment, error) {
	var payments []entity.CapturedPayment

	err := r.db.WithContext(ctx).Raw(
		`SELECT p.id AS payment_id,
		        p.order_id,
		        o.orderer_name,
		        o.product_name,
		        p.amount,
		        p.refunded_amount,
		        p.captured_at
		 FROM payments p
		 JOIN orders o ON o.id = p.order_id
		 LEFT JOIN settlements s ON s.payment_id = p.id
		 WHERE p.status IN ('CAPTURED', 'REFUNDED')
		   AND p.captured_at >= ? AND p.captured_at < ?
		   AND s.id IS NULL
		 ORDER BY p.captured_at`,
		date, date.AddDate(0, 0, 1),
	).Scan(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list captured payments: %w", err)
	}

	return payments, nil
}
