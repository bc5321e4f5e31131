package repository

import (
	"context"
	"errors"

	"lemuel/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrTagNotFound          = errors.New("tag not found")
	ErrImageNotFound        = errors.New("image not found")
	ErrDuplicateSlug        = errors.New("category with this slug already exists")
	ErrDuplicateTagName     = errors.New("tag with this name already exists")
	ErrCategoryHasChildren  = errors.New("cannot delete category with child categories")
	ErrCategoryHasProducts  = errors.New("cannot delete category with existing products")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetAll(ctx context.Context) ([]entity.Product, error)
	GetByStatus(ctx context.Context, status string) ([]entity.Product, error)
	GetAvailable(ctx context.Context) ([]entity.Product, error)
	GetByCategory(ctx context.Context, categoryID uuid.UUID) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// DecreaseStock атомарно уменьшает остаток, возвращает ErrInsufficientStock
	// если остаток меньше запрошенного количества
	DecreaseStock(ctx context.Context, id uuid.UUID, quantity int) error
	IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	AddImage(ctx context.Context, image *entity.ProductImage) error
	GetImages(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error)
	UpdateImageOrder(ctx context.Context, productID uuid.UUID, imageID uuid.UUID, sortOrder int) error
	DeleteImage(ctx context.Context, productID uuid.UUID, imageID uuid.UUID) error

	AttachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error
	DetachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetBySlug(ctx context.Context, slug string) (*entity.Category, error)
	GetAll(ctx context.Context) ([]entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *entity.Tag) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tag, error)
	GetAll(ctx context.Context) ([]entity.Tag, error)
	Update(ctx context.Context, tag *entity.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
}
