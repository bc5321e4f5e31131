package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/infrastructure"
	infrahttp "lemuel/orders-service/internal/app/orders/infrastructure/http"
	"lemuel/orders-service/internal/app/orders/repository"
	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"

	"github.com/google/uuid"
)

// OrderService обрабатывает бизнес-логику заказов.
// Для товарных заказов сумма пересчитывается по каталогу на сервере,
// клиентская сумма принимается только для legacy-заказов без товара.
type OrderService struct {
	orderRepo     repository.OrderRepository
	catalogClient infrastructure.CatalogServiceClient
}

// NewOrderService создает новый сервис заказов
func NewOrderService(
	orderRepo repository.OrderRepository,
	catalogClient infrastructure.CatalogServiceClient,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		catalogClient: catalogClient,
	}
}

// CreateOrder создает заказ в статусе CREATED.
// С product_id: цена берется из каталога, остаток списывается сразу.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, ordererName string, req *entity.CreateOrderRequest) (*entity.Order, error) {
	order := &entity.Order{
		ID:          uuid.New(),
		UserID:      userID,
		OrdererName: ordererName,
		Quantity:    1,
		Status:      entity.OrderStatusCreated,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if req.ProductID != nil {
		quantity := req.Quantity
		if quantity == 0 {
			quantity = 1
		}

		product, err := s.catalogClient.GetProduct(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, infrahttp.ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to get product from catalog: %w", err)
		}

		if !product.AvailableForSale() {
			return nil, ErrProductUnavailable
		}
		if product.StockQuantity < quantity {
			return nil, ErrInsufficientStock
		}

		if err := s.catalogClient.DecreaseStock(ctx, product.ID, quantity); err != nil {
			switch {
			case errors.Is(err, infrahttp.ErrInsufficientStock):
				return nil, ErrInsufficientStock
			case errors.Is(err, infrahttp.ErrProductNotFound):
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to decrease product stock: %w", err)
		}

		order.ProductID = &product.ID
		order.ProductName = product.Name
		order.Quantity = quantity
		order.Amount = product.Price * int64(quantity)
	} else {
		// Legacy-заказ одной суммой, без привязки к товару
		if req.Amount <= 0 {
			return nil, fmt.Errorf("amount is required for orders without a product")
		}
		order.Amount = req.Amount
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount", order.Amount).
		Msg("Order created")

	return order, nil
}

// GetOrder получает заказ. Доступ есть у владельца и администратора.
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != requesterID && requesterRole != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	return order, nil
}

// GetUserOrders получает историю заказов пользователя.
// Чужую историю может читать только администратор.
func (s *OrderService) GetUserOrders(ctx context.Context, userID, requesterID uuid.UUID, requesterRole string) ([]entity.Order, error) {
	if userID != requesterID && requesterRole != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	orders, err := s.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user orders: %w", err)
	}

	return orders, nil
}

// CancelOrder отменяет заказ. Допустим только переход CREATED -> CANCELED.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, requesterID uuid.UUID, requesterRole string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != requesterID && requesterRole != entity.RoleAdmin {
		return nil, ErrForbidden
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, entity.OrderStatusCreated, entity.OrderStatusCanceled); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrOrderNotCancelable
		}
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	order.Status = entity.OrderStatusCanceled
	logger.Info().
		Str("order_id", orderID.String()).
		Msg("Order canceled")

	return order, nil
}
