package repository

import (
	"context"
	"errors"

	"lemuel/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар вместе со связями тегов
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Create(product)
	return result.Error
}

// GetByID получает товар по ID вместе с категорией, тегами и изображениями
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// GetAll получает все товары с категориями и тегами
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// GetByStatus получает товары в указанном статусе
func (r *productRepository) GetByStatus(ctx context.Context, status string) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// GetAvailable получает товары доступные для продажи:
// статус ACTIVE и остаток больше нуля
func (r *productRepository) GetAvailable(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Tags").
		Where("status = ? AND stock_quantity > 0", entity.ProductStatusActive).
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// GetByCategory получает товары категории
func (r *productRepository) GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Preload("Tags").
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// Update обновляет основные поля товара
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"category_id": product.CategoryID,
		"status":      product.Status,
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// UpdateStatus меняет статус товара
func (r *productRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DecreaseStock атомарно уменьшает остаток товара.
// Условие stock_quantity >= quantity в WHERE гарантирует, что остаток
// не уйдет в минус при конкурентных заказах: проигравший получает
// RowsAffected == 0 и ErrInsufficientStock.
func (r *productRepository) DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = NOW() WHERE id = ? AND stock_quantity >= ?`,
		quantity, id, quantity,
	)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Либо товара нет, либо остатка не хватает
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}

	return nil
}

// IncreaseStock увеличивает остаток товара
func (r *productRepository) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE products SET stock_quantity = stock_quantity + ?, updated_at = NOW() WHERE id = ?`,
		quantity, id,
	)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// CountByCategory считает товары в категории, используется при удалении категории
func (r *productRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count)

	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// AddImage добавляет изображение к товару
func (r *productRepository) AddImage(ctx context.Context, image *entity.ProductImage) error {
	result := r.db.WithContext(ctx).Create(image)
	return result.Error
}

// GetImages получает изображения товара в порядке sort_order
func (r *productRepository) GetImages(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error) {
	var images []entity.ProductImage
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order ASC").
		Find(&images)

	if result.Error != nil {
		return nil, result.Error
	}

	return images, nil
}

// UpdateImageOrder меняет позицию изображения в списке
func (r *productRepository) UpdateImageOrder(ctx context.Context, productID uuid.UUID, imageID uuid.UUID, sortOrder int) error {
	result := r.db.WithContext(ctx).Model(&entity.ProductImage{}).
		Where("id = ? AND product_id = ?", imageID, productID).
		Update("sort_order", sortOrder)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// DeleteImage удаляет изображение товара
func (r *productRepository) DeleteImage(ctx context.Context, productID uuid.UUID, imageID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.ProductImage{}, "id = ? AND product_id = ?", imageID, productID)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrImageNotFound
	}

	return nil
}

// AttachTag привязывает тег к товару
func (r *productRepository) AttachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Product{ID: productID}).
		Association("Tags").
		Append(&entity.Tag{ID: tagID})
}

// DetachTag отвязывает тег от товара
func (r *productRepository) DetachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entity.Product{ID: productID}).
		Association("Tags").
		Delete(&entity.Tag{ID: tagID})
}
