package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lemuel/catalog-service/internal/app/catalog/entity"
	"lemuel/catalog-service/internal/app/catalog/repository"

	"github.com/google/uuid"
)

// Цвет тега по умолчанию, если не передан при создании
const defaultTagColor = "#999999"

// TagService обрабатывает бизнес-логику тегов
type TagService struct {
	tagRepo repository.TagRepository
}

// NewTagService создает новый сервис тегов
func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

func (s *TagService) CreateTag(ctx context.Context, req *entity.CreateTagRequest) (*entity.Tag, error) {
	color := req.Color
	if color == "" {
		color = defaultTagColor
	}

	tag := &entity.Tag{
		ID:        uuid.New(),
		Name:      req.Name,
		Color:     color,
		CreatedAt: time.Now(),
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicateTagName) {
			return nil, ErrDuplicateTagName
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return tag, nil
}

func (s *TagService) GetTag(ctx context.Context, id uuid.UUID) (*entity.Tag, error) {
	tag, err := s.tagRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

func (s *TagService) GetAllTags(ctx context.Context) ([]entity.Tag, error) {
	tags, err := s.tagRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}

	return tags, nil
}

func (s *TagService) UpdateTag(ctx context.Context, id uuid.UUID, req *entity.UpdateTagRequest) (*entity.Tag, error) {
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		tag.Name = req.Name
	}
	if req.Color != "" {
		tag.Color = req.Color
	}

	if err := s.tagRepo.Update(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicateTagName) {
			return nil, ErrDuplicateTagName
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}

	return tag, nil
}

func (s *TagService) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return ErrTagNotFound
		}
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	return nil
}
