package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ScheduleHandler обрабатывает HTTP запросы для расписаний батча
type ScheduleHandler struct {
	scheduleService service.ScheduleServiceInterface
	reloader        service.ScheduleReloader
	validator       *validator.Validate
}

// NewScheduleHandler создает новый обработчик расписаний
func NewScheduleHandler(scheduleService service.ScheduleServiceInterface, reloader service.ScheduleReloader) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		reloader:        reloader,
		validator:       validator.New(),
	}
}

// CreateSchedule обрабатывает POST /schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req entity.ScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	cfg, err := h.scheduleService.CreateSchedule(c.Request.Context(), &req)
	if err != nil {
		respondScheduleError(c, err, "Failed to create schedule")
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

// GetSchedule обрабатывает GET /schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid schedule ID")
		return
	}

	cfg, err := h.scheduleService.GetSchedule(c.Request.Context(), id)
	if err != nil {
		respondScheduleError(c, err, "Failed to get schedule")
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// ListSchedules обрабатывает GET /schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	configs, err := h.scheduleService.ListSchedules(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list schedules")
		return
	}

	c.JSON(http.StatusOK, configs)
}

// UpdateSchedule обрабатывает PUT /schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid schedule ID")
		return
	}

	var req entity.ScheduleConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	cfg, err := h.scheduleService.UpdateSchedule(c.Request.Context(), id, &req)
	if err != nil {
		respondScheduleError(c, err, "Failed to update schedule")
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// ToggleSchedule обрабатывает PATCH /schedules/:id/toggle?enabled=true|false
func (h *ScheduleHandler) ToggleSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid schedule ID")
		return
	}

	enabled, err := strconv.ParseBool(c.Query("enabled"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Query parameter 'enabled' must be true or false")
		return
	}

	cfg, err := h.scheduleService.ToggleSchedule(c.Request.Context(), id, enabled)
	if err != nil {
		respondScheduleError(c, err, "Failed to toggle schedule")
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// DeleteSchedule обрабатывает DELETE /schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid schedule ID")
		return
	}

	if err := h.scheduleService.DeleteSchedule(c.Request.Context(), id); err != nil {
		respondScheduleError(c, err, "Failed to delete schedule")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Schedule deleted", ID: id})
}

// ReloadSchedules обрабатывает POST /schedules/reload -
// принудительно перечитывает расписания из базы
func (h *ScheduleHandler) ReloadSchedules(c *gin.Context) {
	if err := h.reloader.Reload(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to reload schedules")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Schedules reloaded"})
}

func respondScheduleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrScheduleConfigNotFound):
		respondError(c, http.StatusNotFound, "Schedule not found")
	case errors.Is(err, service.ErrDuplicateScheduleName):
		respondError(c, http.StatusConflict, "Schedule name already exists")
	case errors.Is(err, service.ErrInvalidCronExpr):
		respondError(c, http.StatusBadRequest, "Invalid cron expression")
	default:
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
