package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Статусы товара. Переходы между статусами контролирует service layer.
const (
	ProductStatusActive       = "ACTIVE"
	ProductStatusInactive     = "INACTIVE"
	ProductStatusOutOfStock   = "OUT_OF_STOCK"
	ProductStatusDiscontinued = "DISCONTINUED"
)

// Направления изменения остатка для операции updateStock
const (
	StockChangeIncrease = "INCREASE"
	StockChangeDecrease = "DECREASE"
)

// Типы событий для Kafka топика product_events
const (
	EventProductCreated      = "PRODUCT_CREATED"
	EventProductUpdated      = "PRODUCT_UPDATED"
	EventProductPriceChanged = "PRODUCT_PRICE_CHANGED"
	EventProductDiscontinued = "PRODUCT_DISCONTINUED"
)

// Product представляет товар в каталоге.
// Цена хранится в KRW без дробной части.
type Product struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string         `json:"name" gorm:"not null"`
	Description   string         `json:"description"`
	Price         int64          `json:"price" gorm:"not null"`
	StockQuantity int            `json:"stock_quantity" gorm:"not null;default:0"`
	Status        string         `json:"status" gorm:"not null;default:'ACTIVE'"`
	CategoryID    *uuid.UUID     `json:"category_id" gorm:"type:uuid"`
	Category      *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Tags          []Tag          `json:"tags,omitempty" gorm:"many2many:product_tags"`
	Images        []ProductImage `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AvailableForSale - производное свойство: купить можно только
// активный товар с положительным остатком.
func (p *Product) AvailableForSale() bool {
	return p.Status == ProductStatusActive && p.StockQuantity > 0
}

// MarshalJSON добавляет в ответ производное поле available_for_sale
func (p Product) MarshalJSON() ([]byte, error) {
	type productAlias Product
	return json.Marshal(struct {
		productAlias
		AvailableForSale bool `json:"available_for_sale"`
	}{
		productAlias:     productAlias(p),
		AvailableForSale: p.AvailableForSale(),
	})
}

// ProductImage представляет изображение товара.
// SortOrder задает порядок отображения в карточке товара.
type ProductImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	ImageURL  string    `json:"image_url" gorm:"not null"`
	AltText   string    `json:"alt_text"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// Category представляет категорию товаров.
// Дерево категорий ограничено тремя уровнями (depth 0..2).
type Category struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid"`
	Depth       int        `json:"depth" gorm:"not null;default:0"`
	SortOrder   int        `json:"sort_order" gorm:"not null;default:0"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CategoryNode - узел дерева категорий для публичного API
type CategoryNode struct {
	Category
	Children []CategoryNode `json:"children"`
}

// Tag представляет тег товара. Связь с товарами many-to-many.
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Color     string    `json:"color"` // формат #rrggbb
	CreatedAt time.Time `json:"created_at"`
}

// ProductEvent представляет событие изменения товара для Kafka
type ProductEvent struct {
	EventType     string     `json:"event_type"`
	ProductID     uuid.UUID  `json:"product_id"`
	Name          string     `json:"name"`
	Price         int64      `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	Status        string     `json:"status"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}
