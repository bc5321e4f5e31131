package handler

import (
	"context"
	"errors"
	"net/http"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ProductHandler обрабатывает HTTP запросы для товаров
type ProductHandler struct {
	productService service.ProductServiceInterface
	validator      *validator.Validate
}

// NewProductHandler создает новый обработчик товаров
func NewProductHandler(productService service.ProductServiceInterface) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      validator.New(),
	}
}

// CreateProduct обрабатывает POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req entity.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, http.StatusBadRequest, "Category not found")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusBadRequest, "Tag not found")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct обрабатывает GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetAllProducts обрабатывает GET /api/products.
// Поддерживает фильтры ?status= и ?available=true.
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	var (
		products []entity.Product
		err      error
	)

	switch {
	case c.Query("available") == "true":
		products, err = h.productService.GetAvailableProducts(c.Request.Context())
	case c.Query("status") != "":
		products, err = h.productService.GetProductsByStatus(c.Request.Context(), c.Query("status"))
	default:
		products, err = h.productService.GetAllProducts(c.Request.Context())
	}

	if err != nil {
		if errors.Is(err, service.ErrInvalidStatusChange) {
			respondError(c, http.StatusBadRequest, "Unknown product status")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get products")
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: products,
		Total:    len(products),
	})
}

// UpdateProductInfo обрабатывает PUT /api/products/:id
func (h *ProductHandler) UpdateProductInfo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.UpdateProductInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.productService.UpdateProductInfo(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, http.StatusBadRequest, "Category not found")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProductPrice обрабатывает PATCH /api/products/:id/price
func (h *ProductHandler) UpdateProductPrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.UpdateProductPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.productService.UpdateProductPrice(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to update product price")
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProductStock обрабатывает PATCH /api/products/:id/stock
func (h *ProductHandler) UpdateProductStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.UpdateProductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	product, err := h.productService.UpdateProductStock(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, http.StatusConflict, "Insufficient stock")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to update product stock")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// ActivateProduct обрабатывает POST /api/products/:id/activate
func (h *ProductHandler) ActivateProduct(c *gin.Context) {
	h.changeStatus(c, h.productService.ActivateProduct)
}

// DeactivateProduct обрабатывает POST /api/products/:id/deactivate
func (h *ProductHandler) DeactivateProduct(c *gin.Context) {
	h.changeStatus(c, h.productService.DeactivateProduct)
}

// DiscontinueProduct обрабатывает POST /api/products/:id/discontinue
func (h *ProductHandler) DiscontinueProduct(c *gin.Context) {
	h.changeStatus(c, h.productService.DiscontinueProduct)
}

func (h *ProductHandler) changeStatus(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*entity.Product, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := op(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrInvalidStatusChange):
			respondError(c, http.StatusConflict, "Invalid product status change")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to change product status")
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// AttachImage обрабатывает POST /api/products/:id/images
func (h *ProductHandler) AttachImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.AttachImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	image, err := h.productService.AttachImage(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to attach image")
		return
	}

	c.JSON(http.StatusCreated, image)
}

// GetImages обрабатывает GET /api/products/:id/images
func (h *ProductHandler) GetImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	images, err := h.productService.GetImages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get images")
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images, "total": len(images)})
}

// ReorderImages обрабатывает PUT /api/products/:id/images/order
func (h *ProductHandler) ReorderImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req entity.ReorderImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	if err := h.productService.ReorderImages(c.Request.Context(), id, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrImageNotFound):
			respondError(c, http.StatusNotFound, "Image not found")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to reorder images")
		}
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Images reordered successfully"})
}

// DeleteImage обрабатывает DELETE /api/products/:id/images/:imageId
func (h *ProductHandler) DeleteImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	imageID, err := uuid.Parse(c.Param("imageId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid image ID")
		return
	}

	if err := h.productService.DeleteImage(c.Request.Context(), id, imageID); err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			respondError(c, http.StatusNotFound, "Image not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete image")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Image deleted successfully"})
}

// AttachTag обрабатывает POST /api/products/:id/tags/:tagId
func (h *ProductHandler) AttachTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	if err := h.productService.AttachTag(c.Request.Context(), id, tagID); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusNotFound, "Product not found")
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "Tag not found")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to attach tag")
		}
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Tag attached successfully"})
}

// DetachTag обрабатывает DELETE /api/products/:id/tags/:tagId
func (h *ProductHandler) DetachTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	tagID, err := uuid.Parse(c.Param("tagId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	if err := h.productService.DetachTag(c.Request.Context(), id, tagID); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, http.StatusNotFound, "Product not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to detach tag")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Tag detached successfully"})
}

// === HELPER FUNCTIONS ===

// respondError отправляет ответ об ошибке
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrors) > 0 {
			return validationErrors[0].Field() + " validation failed"
		}
	}
	return "Validation failed"
}
