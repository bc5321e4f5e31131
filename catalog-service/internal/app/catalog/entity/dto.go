package entity

import "github.com/google/uuid"

type CreateProductRequest struct {
	Name          string     `json:"name" validate:"required,min=2,max=200"`
	Description   string     `json:"description" validate:"max=2000"`
	Price         int64      `json:"price" validate:"required,gte=0"`
	StockQuantity int        `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *uuid.UUID `json:"category_id" validate:"omitempty"`
	TagIDs        []uuid.UUID `json:"tag_ids" validate:"omitempty"`
}

type UpdateProductInfoRequest struct {
	Name        string     `json:"name" validate:"omitempty,min=2,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	CategoryID  *uuid.UUID `json:"category_id" validate:"omitempty"`
}

type UpdateProductPriceRequest struct {
	Price int64 `json:"price" validate:"gte=0"`
}

type UpdateProductStockRequest struct {
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	ChangeType string `json:"change_type" validate:"required,oneof=INCREASE DECREASE"`
}

type AttachImageRequest struct {
	ImageURL  string `json:"image_url" validate:"required,url,max=500"`
	AltText   string `json:"alt_text" validate:"max=200"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

type ReorderImagesRequest struct {
	ImageIDs []uuid.UUID `json:"image_ids" validate:"required,min=1"`
}

type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Description string     `json:"description" validate:"max=500"`
	Slug        string     `json:"slug" validate:"omitempty,max=100"`
	ParentID    *uuid.UUID `json:"parent_id" validate:"omitempty"`
	SortOrder   int        `json:"sort_order" validate:"gte=0"`
}

type UpdateCategoryRequest struct {
	Name        string     `json:"name" validate:"omitempty,min=2,max=100"`
	Description string     `json:"description" validate:"omitempty,max=500"`
	ParentID    *uuid.UUID `json:"parent_id" validate:"omitempty"`
	SortOrder   *int       `json:"sort_order" validate:"omitempty,gte=0"`
	IsActive    *bool      `json:"is_active" validate:"omitempty"`
}

type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateTagRequest struct {
	Name  string `json:"name" validate:"omitempty,min=1,max=50"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type CategoryListResponse struct {
	Categories []Category `json:"categories"`
	Total      int        `json:"total"`
}

type CategoryTreeResponse struct {
	Categories []CategoryNode `json:"categories"`
}

type TagListResponse struct {
	Tags  []Tag `json:"tags"`
	Total int   `json:"total"`
}
