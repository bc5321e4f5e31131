package handler

import (
	"errors"
	"net/http"

	"lemuel/orders-service/internal/app/orders/entity"
	infrahttp "lemuel/orders-service/internal/app/orders/infrastructure/http"
	"lemuel/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PaymentHandler обрабатывает HTTP запросы для платежей
type PaymentHandler struct {
	paymentService service.PaymentServiceInterface
	validator      *validator.Validate
}

// NewPaymentHandler создает новый обработчик платежей
func NewPaymentHandler(paymentService service.PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validator:      validator.New(),
	}
}

// CreatePayment обрабатывает POST /payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req entity.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderNotPayable):
			respondError(c, http.StatusConflict, "Order is not payable")
		case errors.Is(err, service.ErrActivePaymentExists):
			respondError(c, http.StatusConflict, "Order already has an active payment")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to create payment")
		}
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// AuthorizePayment обрабатывает PATCH /payments/:id/authorize
func (h *PaymentHandler) AuthorizePayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var req entity.AuthorizePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	payment, err := h.paymentService.AuthorizePayment(c.Request.Context(), paymentID, req.PGTransactionID)
	if err != nil {
		h.respondPaymentError(c, err, "Failed to authorize payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CapturePayment обрабатывает PATCH /payments/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.CapturePayment(c.Request.Context(), paymentID)
	if err != nil {
		h.respondPaymentError(c, err, "Failed to capture payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// CancelPayment обрабатывает PATCH /payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.CancelPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.respondPaymentError(c, err, "Failed to cancel payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetPayment обрабатывает GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.respondPaymentError(c, err, "Failed to get payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ConfirmTossPayment обрабатывает POST /payments/toss/confirm
func (h *PaymentHandler) ConfirmTossPayment(c *gin.Context) {
	var req entity.TossConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	payment, err := h.paymentService.ConfirmTossPayment(c.Request.Context(), &req)
	if err != nil {
		h.respondConfirmError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ConfirmTossCartPayment обрабатывает POST /payments/toss/cart/confirm
func (h *PaymentHandler) ConfirmTossCartPayment(c *gin.Context) {
	var req entity.TossCartConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	result, err := h.paymentService.ConfirmTossCartPayment(c.Request.Context(), &req)
	if err != nil {
		h.respondConfirmError(c, err)
		return
	}

	// Частичные сбои после списания возвращаются клиенту вместе с
	// успешными платежами, операция не откатывается
	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// respondConfirmError мапит ошибки подтверждения Toss в HTTP статусы.
// Тело ошибки шлюза прокидывается клиенту без изменений.
func (h *PaymentHandler) respondConfirmError(c *gin.Context, err error) {
	var tossErr *infrahttp.TossError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrOrderNotPayable):
		respondError(c, http.StatusConflict, "Order is not payable")
	case errors.Is(err, service.ErrAmountMismatch):
		respondError(c, http.StatusBadRequest, "Payment amount does not match order amount")
	case errors.Is(err, service.ErrActivePaymentExists):
		respondError(c, http.StatusConflict, "Order already has an active payment")
	case errors.As(err, &tossErr):
		c.AbortWithStatusJSON(http.StatusBadGateway, entity.ErrorResponse{
			Error:   "Toss confirmation failed",
			Message: tossErr.Code + " - " + tossErr.Message,
		})
	default:
		respondError(c, http.StatusInternalServerError, "Failed to confirm payment")
	}
}

func (h *PaymentHandler) respondPaymentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, "Payment not found")
	case errors.Is(err, service.ErrInvalidPaymentStatus):
		respondError(c, http.StatusConflict, "Invalid payment status for this operation")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
