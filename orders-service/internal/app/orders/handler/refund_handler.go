package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RefundHandler обрабатывает HTTP запросы для возвратов.
// Все операции требуют заголовок Idempotency-Key: повтор запроса с тем же
// ключом возвращает исходный возврат вместо второго списания.
type RefundHandler struct {
	refundService service.RefundServiceInterface
	validator     *validator.Validate
}

// NewRefundHandler создает новый обработчик возвратов
func NewRefundHandler(refundService service.RefundServiceInterface) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
		validator:     validator.New(),
	}
}

// CreateRefund обрабатывает POST /refunds/:paymentId
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	paymentID, idempotencyKey, ok := h.refundParams(c)
	if !ok {
		return
	}

	var req entity.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	refund, err := h.refundService.CreateRefund(c.Request.Context(), paymentID, req.Amount, req.Reason, idempotencyKey)
	if err != nil {
		h.respondRefundError(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}

// ProcessFullRefund обрабатывает POST /refunds/full/:paymentId
func (h *RefundHandler) ProcessFullRefund(c *gin.Context) {
	paymentID, idempotencyKey, ok := h.refundParams(c)
	if !ok {
		return
	}

	refund, err := h.refundService.ProcessFullRefund(c.Request.Context(), paymentID, idempotencyKey)
	if err != nil {
		h.respondRefundError(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}

// ProcessPartialRefund обрабатывает POST /refunds/partial/:paymentId?refundAmount=
func (h *RefundHandler) ProcessPartialRefund(c *gin.Context) {
	paymentID, idempotencyKey, ok := h.refundParams(c)
	if !ok {
		return
	}

	amount, err := strconv.ParseInt(c.Query("refundAmount"), 10, 64)
	if err != nil || amount <= 0 {
		respondError(c, http.StatusBadRequest, "refundAmount must be a positive integer")
		return
	}

	refund, err := h.refundService.ProcessPartialRefund(c.Request.Context(), paymentID, amount, idempotencyKey)
	if err != nil {
		h.respondRefundError(c, err)
		return
	}

	c.JSON(http.StatusOK, refund)
}

// refundParams разбирает ID платежа и обязательный Idempotency-Key
func (h *RefundHandler) refundParams(c *gin.Context) (uuid.UUID, string, bool) {
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payment ID")
		return uuid.Nil, "", false
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		respondError(c, http.StatusBadRequest, "Idempotency-Key header is required")
		return uuid.Nil, "", false
	}

	return paymentID, idempotencyKey, true
}

func (h *RefundHandler) respondRefundError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotFound):
		respondError(c, http.StatusNotFound, "Payment not found")
	case errors.Is(err, service.ErrRefundNotAllowed):
		respondError(c, http.StatusConflict, "Payment is not refundable")
	case errors.Is(err, service.ErrRefundExceedsPayment):
		respondError(c, http.StatusConflict, "Refund amount exceeds refundable balance")
	default:
		respondError(c, http.StatusInternalServerError, "Failed to process refund")
	}
}
