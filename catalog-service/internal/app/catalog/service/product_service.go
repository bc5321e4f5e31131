package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/repository"
	"lemuel/catalog-service/internal/app/catalog/util"
	"lemuel/pkg/logger"

	"github.com/google/uuid"
)

// ProductService обрабатывает бизнес-логику товаров.
// Координирует репозиторий, Kafka producer и правила переходов статусов.
type ProductService struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	tagRepo       repository.TagRepository
	kafkaProducer util.MessagePublisher
}

// NewProductService создает новый сервис товаров с внедрением зависимостей
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	tagRepo repository.TagRepository,
	kafkaProducer util.MessagePublisher,
) *ProductService {
	return &ProductService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		tagRepo:       tagRepo,
		kafkaProducer: kafkaProducer,
	}
}

// CreateProduct создает новый товар в статусе ACTIVE.
// Нулевой остаток статус не меняет: доступность для продажи -
// производное свойство (ACTIVE и stock > 0), а не отдельный статус.
func (s *ProductService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error) {
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to verify category: %w", err)
		}
	}

	product := &entity.Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Status:        entity.ProductStatusActive,
		CategoryID:    req.CategoryID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	for _, tagID := range req.TagIDs {
		tag, err := s.tagRepo.GetByID(ctx, tagID)
		if err != nil {
			if errors.Is(err, repository.ErrTagNotFound) {
				return nil, ErrTagNotFound
			}
			return nil, fmt.Errorf("failed to verify tag: %w", err)
		}
		product.Tags = append(product.Tags, *tag)
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publishProductEvent(ctx, entity.EventProductCreated, product)

	return product, nil
}

// GetProduct получает товар по ID с категорией, тегами и изображениями
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// GetAllProducts получает все товары
func (s *ProductService) GetAllProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

// GetProductsByStatus получает товары в указанном статусе
func (s *ProductService) GetProductsByStatus(ctx context.Context, status string) ([]entity.Product, error) {
	switch status {
	case entity.ProductStatusActive, entity.ProductStatusInactive,
		entity.ProductStatusOutOfStock, entity.ProductStatusDiscontinued:
	default:
		return nil, ErrInvalidStatusChange
	}

	products, err := s.productRepo.GetByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by status: %w", err)
	}

	return products, nil
}

// GetAvailableProducts получает товары доступные для продажи
func (s *ProductService) GetAvailableProducts(ctx context.Context) ([]entity.Product, error) {
	products, err := s.productRepo.GetAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get available products: %w", err)
	}

	return products, nil
}

// UpdateProductInfo обновляет название, описание и категорию товара.
// Цена и остаток меняются отдельными операциями.
func (s *ProductService) UpdateProductInfo(ctx context.Context, id uuid.UUID, req *entity.UpdateProductInfoRequest) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("failed to verify category: %w", err)
		}
		product.CategoryID = req.CategoryID
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.publishProductEvent(ctx, entity.EventProductUpdated, product)

	return product, nil
}

// UpdateProductPrice меняет цену товара и отправляет событие
// PRODUCT_PRICE_CHANGED в Kafka
func (s *ProductService) UpdateProductPrice(ctx context.Context, id uuid.UUID, req *entity.UpdateProductPriceRequest) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPrice := product.Price
	product.Price = req.Price

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product price: %w", err)
	}

	if product.Price != oldPrice {
		s.publishProductEvent(ctx, entity.EventProductPriceChanged, product)
	}

	return product, nil
}

// UpdateProductStock изменяет остаток товара.
// DECREASE выполняется условным UPDATE: при нехватке остатка операция
// отклоняется с ErrInsufficientStock. Остаток 0 переводит товар
// в OUT_OF_STOCK, пополнение возвращает OUT_OF_STOCK товар в ACTIVE.
func (s *ProductService) UpdateProductStock(ctx context.Context, id uuid.UUID, req *entity.UpdateProductStockRequest) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.ChangeType {
	case entity.StockChangeDecrease:
		if err := s.productRepo.DecreaseStock(ctx, id, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, ErrInsufficientStock
			}
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to decrease stock: %w", err)
		}
	case entity.StockChangeIncrease:
		if err := s.productRepo.IncreaseStock(ctx, id, req.Quantity); err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to increase stock: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown stock change type: %s", req.ChangeType)
	}

	// Перечитываем актуальный остаток после атомарного изменения
	product, err = s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.StockQuantity == 0 && product.Status == entity.ProductStatusActive {
		if err := s.productRepo.UpdateStatus(ctx, id, entity.ProductStatusOutOfStock); err != nil {
			return nil, fmt.Errorf("failed to mark product out of stock: %w", err)
		}
		product.Status = entity.ProductStatusOutOfStock
	}

	if product.StockQuantity > 0 && product.Status == entity.ProductStatusOutOfStock {
		if err := s.productRepo.UpdateStatus(ctx, id, entity.ProductStatusActive); err != nil {
			return nil, fmt.Errorf("failed to reactivate product: %w", err)
		}
		product.Status = entity.ProductStatusActive
	}

	s.publishProductEvent(ctx, entity.EventProductUpdated, product)

	return product, nil
}

// ActivateProduct переводит товар в ACTIVE.
// Снятый с продажи товар (DISCONTINUED) можно активировать заново.
// Товар с нулевым остатком активируется в OUT_OF_STOCK.
func (s *ProductService) ActivateProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	target := entity.ProductStatusActive
	if product.StockQuantity == 0 {
		target = entity.ProductStatusOutOfStock
	}

	if err := s.productRepo.UpdateStatus(ctx, id, target); err != nil {
		return nil, fmt.Errorf("failed to activate product: %w", err)
	}
	product.Status = target

	s.publishProductEvent(ctx, entity.EventProductUpdated, product)

	return product, nil
}

// DeactivateProduct переводит товар в INACTIVE.
// Снятый с продажи товар деактивировать нельзя.
func (s *ProductService) DeactivateProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.Status == entity.ProductStatusDiscontinued {
		return nil, ErrInvalidStatusChange
	}

	if err := s.productRepo.UpdateStatus(ctx, id, entity.ProductStatusInactive); err != nil {
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}
	product.Status = entity.ProductStatusInactive

	s.publishProductEvent(ctx, entity.EventProductUpdated, product)

	return product, nil
}

// DiscontinueProduct снимает товар с продажи. Допускается из любого статуса.
func (s *ProductService) DiscontinueProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.UpdateStatus(ctx, id, entity.ProductStatusDiscontinued); err != nil {
		return nil, fmt.Errorf("failed to discontinue product: %w", err)
	}
	product.Status = entity.ProductStatusDiscontinued

	s.publishProductEvent(ctx, entity.EventProductDiscontinued, product)

	return product, nil
}

// AttachImage добавляет изображение к товару
func (s *ProductService) AttachImage(ctx context.Context, productID uuid.UUID, req *entity.AttachImageRequest) (*entity.ProductImage, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	image := &entity.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		ImageURL:  req.ImageURL,
		AltText:   req.AltText,
		SortOrder: req.SortOrder,
		CreatedAt: time.Now(),
	}

	if err := s.productRepo.AddImage(ctx, image); err != nil {
		return nil, fmt.Errorf("failed to add image: %w", err)
	}

	return image, nil
}

// GetImages получает изображения товара в порядке отображения
func (s *ProductService) GetImages(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	images, err := s.productRepo.GetImages(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	return images, nil
}

// ReorderImages переставляет изображения в порядке переданного списка ID
func (s *ProductService) ReorderImages(ctx context.Context, productID uuid.UUID, req *entity.ReorderImagesRequest) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	for i, imageID := range req.ImageIDs {
		if err := s.productRepo.UpdateImageOrder(ctx, productID, imageID, i); err != nil {
			if errors.Is(err, repository.ErrImageNotFound) {
				return ErrImageNotFound
			}
			return fmt.Errorf("failed to reorder images: %w", err)
		}
	}

	return nil
}

// DeleteImage удаляет изображение товара
func (s *ProductService) DeleteImage(ctx context.Context, productID uuid.UUID, imageID uuid.UUID) error {
	if err := s.productRepo.DeleteImage(ctx, productID, imageID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// AttachTag привязывает тег к товару
func (s *ProductService) AttachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	if _, err := s.tagRepo.GetByID(ctx, tagID); err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return ErrTagNotFound
		}
		return fmt.Errorf("failed to verify tag: %w", err)
	}

	if err := s.productRepo.AttachTag(ctx, productID, tagID); err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}

	return nil
}

// DetachTag отвязывает тег от товара
func (s *ProductService) DetachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	if err := s.productRepo.DetachTag(ctx, productID, tagID); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}

	return nil
}

// publishProductEvent отправляет событие о товаре в Kafka.
// Товар уже сохранен, поэтому ошибка отправки логируется, но не прерывает операцию.
func (s *ProductService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) {
	event := entity.ProductEvent{
		EventType:     eventType,
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		Status:        product.Status,
		CategoryID:    product.CategoryID,
		Timestamp:     time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal product event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ProductID.String(), eventData); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Str("product_id", product.ID.String()).Msg("Failed to publish product event")
	}
}
