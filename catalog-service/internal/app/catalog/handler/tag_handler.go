package handler

import (
	"errors"
	"net/http"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TagHandler обрабатывает HTTP запросы для тегов
type TagHandler struct {
	tagService service.TagServiceInterface
	validator  *validator.Validate
}

// NewTagHandler создает новый обработчик тегов
func NewTagHandler(tagService service.TagServiceInterface) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		validator:  validator.New(),
	}
}

// CreateTag обрабатывает POST /api/tags
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req entity.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateTagName) {
			respondError(c, http.StatusConflict, "Tag with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to create tag")
		return
	}

	c.JSON(http.StatusCreated, tag)
}

// GetTag обрабатывает GET /api/tags/:id
func (h *TagHandler) GetTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	tag, err := h.tagService.GetTag(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "Tag not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to get tag")
		return
	}

	c.JSON(http.StatusOK, tag)
}

// GetAllTags обрабатывает GET /api/tags
func (h *TagHandler) GetAllTags(c *gin.Context) {
	tags, err := h.tagService.GetAllTags(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to get tags")
		return
	}

	c.JSON(http.StatusOK, entity.TagListResponse{
		Tags:  tags,
		Total: len(tags),
	})
}

// UpdateTag обрабатывает PUT /api/tags/:id
func (h *TagHandler) UpdateTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	var req entity.UpdateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, formatValidationError(err))
		return
	}

	tag, err := h.tagService.UpdateTag(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			respondError(c, http.StatusNotFound, "Tag not found")
		case errors.Is(err, service.ErrDuplicateTagName):
			respondError(c, http.StatusConflict, "Tag with this name already exists")
		default:
			respondError(c, http.StatusInternalServerError, "Failed to update tag")
		}
		return
	}

	c.JSON(http.StatusOK, tag)
}

// DeleteTag обрабатывает DELETE /api/tags/:id
func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid tag ID")
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			respondError(c, http.StatusNotFound, "Tag not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to delete tag")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Tag deleted successfully"})
}
