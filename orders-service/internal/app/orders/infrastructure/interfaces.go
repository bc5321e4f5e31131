package infrastructure

import (
	"context"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// CatalogServiceClient клиент Catalog Service: цены и остатки.
// Сумма заказа всегда пересчитывается по каталогу на сервере,
// клиентская сумма для товарных заказов не используется.
type CatalogServiceClient interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*entity.Product, error)
	DecreaseStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

// TossGateway клиент подтверждения платежей Toss Payments
type TossGateway interface {
	Confirm(ctx context.Context, paymentKey, tossOrderID string, amount int64) error
}
