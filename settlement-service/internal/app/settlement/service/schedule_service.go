package service

import (
	"context"
	"errors"
	"fmt"

	"lemuel/pkg/logger"
	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/repository"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ScheduleReloader перечитывает расписания батча из базы
// и перепрограммирует планировщик
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// ScheduleService управляет расписаниями сверочного батча.
// После каждого изменения дергает reload планировщика, чтобы
// новое расписание применилось без перезапуска сервиса.
type ScheduleService struct {
	scheduleRepo repository.ScheduleConfigRepository
	reloader     ScheduleReloader
}

// NewScheduleService создает новый сервис расписаний
func NewScheduleService(scheduleRepo repository.ScheduleConfigRepository) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo}
}

// SetReloader подключает планировщик; вызывается из main после того,
// как планировщик создан
func (s *ScheduleService) SetReloader(reloader ScheduleReloader) {
	s.reloader = reloader
}

// CreateSchedule создает расписание батча
func (s *ScheduleService) CreateSchedule(ctx context.Context, req *entity.ScheduleConfigRequest) (*entity.SettlementScheduleConfig, error) {
	if err := validateCronExpr(req.CronExpr); err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	cfg := &entity.SettlementScheduleConfig{
		ID:          uuid.New(),
		Name:        req.Name,
		CronExpr:    req.CronExpr,
		Description: req.Description,
		Enabled:     enabled,
	}

	if err := s.scheduleRepo.Create(ctx, cfg); err != nil {
		if errors.Is(err, repository.ErrDuplicateScheduleName) {
			return nil, ErrDuplicateScheduleName
		}
		return nil, fmt.Errorf("failed to create schedule config: %w", err)
	}

	s.triggerReload(ctx)

	logger.Info().
		Str("schedule_id", cfg.ID.String()).
		Str("name", cfg.Name).
		Str("cron_expr", cfg.CronExpr).
		Msg("Settlement schedule created")

	return cfg, nil
}

// GetSchedule получает расписание по ID
func (s *ScheduleService) GetSchedule(ctx context.Context, id uuid.UUID) (*entity.SettlementScheduleConfig, error) {
	cfg, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleConfigNotFound) {
			return nil, ErrScheduleConfigNotFound
		}
		return nil, fmt.Errorf("failed to get schedule config: %w", err)
	}
	return cfg, nil
}

// ListSchedules возвращает все расписания
func (s *ScheduleService) ListSchedules(ctx context.Context) ([]entity.SettlementScheduleConfig, error) {
	configs, err := s.scheduleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule configs: %w", err)
	}
	return configs, nil
}

// UpdateSchedule изменяет расписание
func (s *ScheduleService) UpdateSchedule(ctx context.Context, id uuid.UUID, req *entity.ScheduleConfigRequest) (*entity.SettlementScheduleConfig, error) {
	if err := validateCronExpr(req.CronExpr); err != nil {
		return nil, err
	}

	cfg, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg.Name = req.Name
	cfg.CronExpr = req.CronExpr
	cfg.Description = req.Description
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}

	if err := s.scheduleRepo.Update(ctx, cfg); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateScheduleName):
			return nil, ErrDuplicateScheduleName
		case errors.Is(err, repository.ErrScheduleConfigNotFound):
			return nil, ErrScheduleConfigNotFound
		}
		return nil, fmt.Errorf("failed to update schedule config: %w", err)
	}

	s.triggerReload(ctx)

	logger.Info().
		Str("schedule_id", cfg.ID.String()).
		Str("cron_expr", cfg.CronExpr).
		Msg("Settlement schedule updated")

	return cfg, nil
}

// ToggleSchedule включает или выключает расписание
func (s *ScheduleService) ToggleSchedule(ctx context.Context, id uuid.UUID, enabled bool) (*entity.SettlementScheduleConfig, error) {
	if err := s.scheduleRepo.SetEnabled(ctx, id, enabled); err != nil {
		if errors.Is(err, repository.ErrScheduleConfigNotFound) {
			return nil, ErrScheduleConfigNotFound
		}
		return nil, fmt.Errorf("failed to toggle schedule config: %w", err)
	}

	s.triggerReload(ctx)

	logger.Info().
		Str("schedule_id", id.String()).
		Bool("enabled", enabled).
		Msg("Settlement schedule toggled")

	return s.GetSchedule(ctx, id)
}

// DeleteSchedule удаляет расписание
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrScheduleConfigNotFound) {
			return ErrScheduleConfigNotFound
		}
		return fmt.Errorf("failed to delete schedule config: %w", err)
	}

	s.triggerReload(ctx)

	logger.Info().
		Str("schedule_id", id.String()).
		Msg("Settlement schedule deleted")

	return nil
}

// triggerReload перепрограммирует планировщик после изменения расписаний.
// Ошибка reload не откатывает изменение: следующий reload подберет его.
func (s *ScheduleService) triggerReload(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to reload settlement scheduler")
	}
}

func validateCronExpr(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCronExpr, err)
	}
	return nil
}
