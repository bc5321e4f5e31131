package processor

import (
	"context"
	"sync"
	"time"

	"lemuel/pkg/logger"
	"lemuel/settlement-service/internal/app/settlement/repository"
	"lemuel/settlement-service/internal/app/settlement/service"

	"github.com/robfig/cron/v3"
)

// cronLogAdapter направляет внутренние логи cron в общий логгер
type cronLogAdapter struct{}

func (cronLogAdapter) Printf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

// CronScheduler запускает сверочный батч по расписаниям из базы.
// Расписания перечитываются через Reload без перезапуска сервиса;
// при пустой таблице используется расписание по умолчанию из конфига.
type CronScheduler struct {
	cron            *cron.Cron
	settlementSvc   service.SettlementServiceInterface
	scheduleRepo    repository.ScheduleConfigRepository
	defaultCronExpr string

	mu      sync.Mutex
	entries []cron.EntryID
}

// NewCronScheduler создает новый планировщик батча
func NewCronScheduler(
	settlementSvc service.SettlementServiceInterface,
	scheduleRepo repository.ScheduleConfigRepository,
	defaultCronExpr string,
) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(cronLogAdapter{})))

	return &CronScheduler{
		cron:            c,
		settlementSvc:   settlementSvc,
		scheduleRepo:    scheduleRepo,
		defaultCronExpr: defaultCronExpr,
	}
}

// Start программирует включенные расписания и запускает планировщик
func (s *CronScheduler) Start(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Settlement batch scheduler started")
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping settlement batch scheduler")
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Settlement batch scheduler stopped")
}

// Reload перечитывает включенные расписания из базы и перепрограммирует
// планировщик. Старые записи снимаются, новые добавляются атомарно
// относительно других Reload.
func (s *CronScheduler) Reload(ctx context.Context) error {
	configs, err := s.scheduleRepo.ListEnabled(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	if len(configs) == 0 {
		id, err := s.cron.AddFunc(s.defaultCronExpr, s.runBatchJob("default"))
		if err != nil {
			return err
		}
		s.entries = append(s.entries, id)
		logger.Info().
			Str("cron_expr", s.defaultCronExpr).
			Msg("No enabled schedules, using default batch schedule")
		return nil
	}

	for _, cfg := range configs {
		id, err := s.cron.AddFunc(cfg.CronExpr, s.runBatchJob(cfg.Name))
		if err != nil {
			// Битое расписание пропускаем, остальные продолжают работать
			logger.Error().Err(err).
				Str("name", cfg.Name).
				Str("cron_expr", cfg.CronExpr).
				Msg("Failed to schedule settlement batch")
			continue
		}
		s.entries = append(s.entries, id)
	}

	logger.Info().
		Int("schedules", len(s.entries)).
		Msg("Settlement batch schedules reloaded")

	return nil
}

// runBatchJob возвращает задачу батча за вчерашний день
func (s *CronScheduler) runBatchJob(name string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		targetDate := time.Now().AddDate(0, 0, -1)
		logger.Info().
			Str("schedule", name).
			Str("target_date", targetDate.Format("2006-01-02")).
			Msg("Settlement batch triggered")

		result, err := s.settlementSvc.RunDailyBatch(ctx, targetDate)
		if err != nil {
			logger.Error().Err(err).
				Str("schedule", name).
				Msg("Settlement batch failed")
			return
		}

		logger.Info().
			Str("schedule", name).
			Int("created", result.Created).
			Int("skipped", result.Skipped).
			Msg("Settlement batch finished")
	}
}

// GetEntries возвращает запланированные задачи
func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
