package service

import (
	"context"

	"lemuel/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetAllProducts(ctx context.Context) ([]entity.Product, error)
	GetProductsByStatus(ctx context.Context, status string) ([]entity.Product, error)
	GetAvailableProducts(ctx context.Context) ([]entity.Product, error)
	UpdateProductInfo(ctx context.Context, id uuid.UUID, req *entity.UpdateProductInfoRequest) (*entity.Product, error)
	UpdateProductPrice(ctx context.Context, id uuid.UUID, req *entity.UpdateProductPriceRequest) (*entity.Product, error)
	UpdateProductStock(ctx context.Context, id uuid.UUID, req *entity.UpdateProductStockRequest) (*entity.Product, error)
	ActivateProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	DiscontinueProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)

	AttachImage(ctx context.Context, productID uuid.UUID, req *entity.AttachImageRequest) (*entity.ProductImage, error)
	GetImages(ctx context.Context, productID uuid.UUID) ([]entity.ProductImage, error)
	ReorderImages(ctx context.Context, productID uuid.UUID, req *entity.ReorderImagesRequest) error
	DeleteImage(ctx context.Context, productID uuid.UUID, imageID uuid.UUID) error

	AttachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error
	DetachTag(ctx context.Context, productID uuid.UUID, tagID uuid.UUID) error
}

type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*entity.Category, error)
	GetAllCategories(ctx context.Context) ([]entity.Category, error)
	GetCategoryTree(ctx context.Context) ([]entity.CategoryNode, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type TagServiceInterface interface {
	CreateTag(ctx context.Context, req *entity.CreateTagRequest) (*entity.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (*entity.Tag, error)
	GetAllTags(ctx context.Context) ([]entity.Tag, error)
	UpdateTag(ctx context.Context, id uuid.UUID, req *entity.UpdateTagRequest) (*entity.Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
}
