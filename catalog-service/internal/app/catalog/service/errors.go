package service

import "errors"

// Ошибки бизнес-логики для обработки в handlers
var (
	ErrProductNotFound       = errors.New("product not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrTagNotFound           = errors.New("tag not found")
	ErrImageNotFound         = errors.New("image not found")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidStatusChange   = errors.New("invalid product status change")
	ErrInvalidSlug           = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrDuplicateSlug         = errors.New("category with this slug already exists")
	ErrDuplicateTagName      = errors.New("tag with this name already exists")
	ErrCategoryDepthExceeded = errors.New("category tree depth limit exceeded")
	ErrCircularCategory      = errors.New("category cannot be its own ancestor")
	ErrCategoryHasChildren   = errors.New("cannot delete category with child categories")
	ErrCategoryHasProducts   = errors.New("cannot delete category with existing products")
)
