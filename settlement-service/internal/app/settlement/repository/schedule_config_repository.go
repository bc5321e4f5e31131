package repository

import (
	"context"
	"errors"
	"fmt"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type scheduleConfigRepository struct {
	db *gorm.DB
}

// NewScheduleConfigRepository создает репозиторий расписаний батча
func NewScheduleConfigRepository(db *gorm.DB) ScheduleConfigRepository {
	return &scheduleConfigRepository{db: db}
}

func (r *scheduleConfigRepository) Create(ctx context.Context, cfg *entity.SettlementScheduleConfig) error {
	result := r.db.WithContext(ctx).Create(cfg)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateScheduleName
		}
		return fmt.Errorf("failed to create schedule config: %w", result.Error)
	}
	return nil
}

func (r *scheduleConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SettlementScheduleConfig, error) {
	var cfg entity.SettlementScheduleConfig
	result := r.db.WithContext(ctx).First(&cfg, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleConfigNotFound
		}
		return nil, fmt.Errorf("failed to get schedule config: %w", result.Error)
	}

	return &cfg, nil
}

func (r *scheduleConfigRepository) List(ctx context.Context) ([]entity.SettlementScheduleConfig, error) {
	var configs []entity.SettlementScheduleConfig
	if err := r.db.WithContext(ctx).Order("created_at").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list schedule configs: %w", err)
	}
	return configs, nil
}

func (r *scheduleConfigRepository) ListEnabled(ctx context.Context) ([]entity.SettlementScheduleConfig, error) {
	var configs []entity.SettlementScheduleConfig
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("created_at").Find(&configs).Error; err != nil {
		return nil, fmt.Errorf("failed to list enabled schedule configs: %w", err)
	}
	return configs, nil
}

func (r *scheduleConfigRepository) Update(ctx context.Context, cfg *entity.SettlementScheduleConfig) error {
	result := r.db.WithContext(ctx).Model(&entity.SettlementScheduleConfig{}).
		Where("id = ?", cfg.ID).
		Updates(map[string]interface{}{
			"name":        cfg.Name,
			"cron_expr":   cfg.CronExpr,
			"description": cfg.Description,
			"enabled":     cfg.Enabled,
		})
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateScheduleName
		}
		return fmt.Errorf("failed to update schedule config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleConfigNotFound
	}
	return nil
}

func (r *scheduleConfigRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&entity.SettlementScheduleConfig{}).
		Where("id = ?", id).
		Update("enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle schedule config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleConfigNotFound
	}
	return nil
}

func (r *scheduleConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.SettlementScheduleConfig{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScheduleConfigNotFound
	}
	return nil
}
