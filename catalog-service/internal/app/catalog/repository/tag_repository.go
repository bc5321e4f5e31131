package repository

import (
	"context"
	"errors"
	"fmt"

	"lemuel/catalog-service/internal/app/catalog/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository создает новый репозиторий тегов
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Create(ctx context.Context, tag *entity.Tag) error {
	result := r.db.WithContext(ctx).Create(tag)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTagName
		}
		return fmt.Errorf("failed to create tag: %w", result.Error)
	}

	return nil
}

func (r *tagRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Tag, error) {
	var tag entity.Tag
	result := r.db.WithContext(ctx).First(&tag, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, result.Error
	}

	return &tag, nil
}

func (r *tagRepository) GetAll(ctx context.Context) ([]entity.Tag, error) {
	var tags []entity.Tag
	result := r.db.WithContext(ctx).Order("name ASC").Find(&tags)

	if result.Error != nil {
		return nil, result.Error
	}

	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, tag *entity.Tag) error {
	result := r.db.WithContext(ctx).Model(&entity.Tag{}).Where("id = ?", tag.ID).Updates(map[string]interface{}{
		"name":  tag.Name,
		"color": tag.Color,
	})

	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTagName
		}
		return fmt.Errorf("failed to update tag: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Связи в product_tags снимаются перед удалением тега
	if err := r.db.WithContext(ctx).Exec(`DELETE FROM product_tags WHERE tag_id = ?`, id).Error; err != nil {
		return fmt.Errorf("failed to detach tag from products: %w", err)
	}

	result := r.db.WithContext(ctx).Delete(&entity.Tag{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}

	return nil
}
