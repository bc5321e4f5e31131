package handler

import (
	"errors"
	"net/http"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SettlementHandler обрабатывает HTTP запросы для расчетов
type SettlementHandler struct {
	settlementService service.SettlementServiceInterface
	validator         *validator.Validate
}

// NewSettlementHandler создает новый обработчик расчетов
func NewSettlementHandler(settlementService service.SettlementServiceInterface) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		validator:         validator.New(),
	}
}

// SearchGet обрабатывает GET /settlements/search с фильтрами в query string
func (h *SettlementHandler) SearchGet(c *gin.Context) {
	var req entity.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	h.search(c, &req)
}

// SearchPost обрабатывает POST /settlements/search с фильтрами в JSON
func (h *SettlementHandler) SearchPost(c *gin.Context) {
	var req entity.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.search(c, &req)
}

func (h *SettlementHandler) search(c *gin.Context, req *entity.SearchRequest) {
	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	resp, err := h.settlementService.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to search settlements")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSettlement обрабатывает GET /settlements/:id
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	settlement, err := h.settlementService.GetSettlement(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSettlementNotFound) {
			respondError(c, http.StatusNotFound, "Settlement not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get settlement")
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// ListWaiting обрабатывает GET /settlements/waiting
func (h *SettlementHandler) ListWaiting(c *gin.Context) {
	settlements, err := h.settlementService.ListWaiting(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list settlements")
		return
	}

	c.JSON(http.StatusOK, entity.SettlementListResponse{
		Settlements: settlements,
		Total:       len(settlements),
	})
}

// Submit обрабатывает PATCH /settlements/:id/submit
func (h *SettlementHandler) Submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	settlement, err := h.settlementService.Submit(c.Request.Context(), id)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// Approve обрабатывает PATCH /settlements/:id/approve
func (h *SettlementHandler) Approve(c *gin.Context) {
	adminID, _, _, ok := requesterFromContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	settlement, err := h.settlementService.Approve(c.Request.Context(), id, adminID)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// Reject обрабатывает PATCH /settlements/:id/reject
func (h *SettlementHandler) Reject(c *gin.Context) {
	adminID, _, _, ok := requesterFromContext(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	var req entity.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	settlement, err := h.settlementService.Reject(c.Request.Context(), id, adminID, req.Reason)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// Confirm обрабатывает PATCH /settlements/:id/confirm
func (h *SettlementHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid settlement ID")
		return
	}

	settlement, err := h.settlementService.Confirm(c.Request.Context(), id)
	if err != nil {
		respondTransitionError(c, err)
		return
	}

	c.JSON(http.StatusOK, settlement)
}

// RunBatch обрабатывает POST /settlements/batch?date=YYYY-MM-DD.
// Ручной запуск сверочного батча; без date берется вчерашний день.
func (h *SettlementHandler) RunBatch(c *gin.Context) {
	targetDate := time.Now().AddDate(0, 0, -1)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		targetDate = parsed
	}

	result, err := h.settlementService.RunDailyBatch(c.Request.Context(), targetDate)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Settlement batch failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSettlementNotFound):
		respondError(c, http.StatusNotFound, "Settlement not found")
	case errors.Is(err, service.ErrInvalidSettlementStatus):
		respondError(c, http.StatusConflict, "Settlement status does not allow this operation")
	default:
		respondError(c, http.StatusInternalServerError, "Failed to update settlement")
	}
}

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
