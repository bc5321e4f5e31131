package handler

import (
	"errors"
	"net/http"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OrderHandler обрабатывает HTTP запросы для заказов
type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

// NewOrderHandler создает новый обработчик заказов
func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// CreateOrder обрабатывает POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, email, _, ok := requesterFromContext(c)
	if !ok {
		return
	}

	var req entity.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	ordererName := req.OrdererName
	if ordererName == "" {
		ordererName = email
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, ordererName, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, http.StatusBadRequest, "Product not found in catalog")
		case errors.Is(err, service.ErrProductUnavailable):
			respondError(c, http.StatusConflict, "Product is not available for sale")
		case errors.Is(err, service.ErrInsufficientStock):
			respondError(c, http.StatusConflict, "Insufficient product stock")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create order")
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _, role, ok := requesterFromContext(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "Access denied")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to get order")
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetUserOrders обрабатывает GET /orders/user/:userId
func (h *OrderHandler) GetUserOrders(c *gin.Context) {
	requesterID, _, role, ok := requesterFromContext(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	orders, err := h.orderService.GetUserOrders(c.Request.Context(), userID, requesterID, role)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			respondError(c, http.StatusForbidden, "Access denied")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get orders")
		return
	}

	c.JSON(http.StatusOK, entity.OrderListResponse{Orders: orders, Total: len(orders)})
}

// CancelOrder обрабатывает PATCH /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, _, role, ok := requesterFromContext(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "Access denied")
		case errors.Is(err, service.ErrOrderNotCancelable):
			respondError(c, http.StatusConflict, "Only created orders can be canceled")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to cancel order")
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// requesterFromContext достает данные пользователя, установленные middleware
func requesterFromContext(c *gin.Context) (uuid.UUID, string, string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, "", "", false
	}

	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		respondError(c, http.StatusInternalServerError, "Invalid user ID")
		return uuid.Nil, "", "", false
	}

	email, _ := c.Get("email")
	emailStr, _ := email.(string)
	role, _ := c.Get("role")
	roleStr, _ := role.(string)

	return userUUID, emailStr, roleStr, true
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, entity.ErrorResponse{Error: message})
}

// formatValidationError форматирует ошибки валидации
func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
