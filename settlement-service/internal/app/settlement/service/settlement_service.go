package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"
	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/repository"

	"github.com/google/uuid"
)

// SettlementService ведет расчеты по списанным платежам: создание из
// событий Kafka и сверочного батча, поиск со сводкой и цикл утверждения.
type SettlementService struct {
	settlementRepo repository.SettlementRepository
	paymentRepo    repository.PaymentReadRepository
}

// NewSettlementService создает новый сервис расчетов
func NewSettlementService(
	settlementRepo repository.SettlementRepository,
	paymentRepo repository.PaymentReadRepository,
) *SettlementService {
	return &SettlementService{
		settlementRepo: settlementRepo,
		paymentRepo:    paymentRepo,
	}
}

// HandlePaymentEvent обрабатывает событие платежа.
// PAYMENT_CAPTURED создает расчет в PENDING; уникальный payment_id
// делает обработку идемпотентной при повторной доставке.
// PAYMENT_REFUNDED переносит суммы возврата в расчет и аннулирует его,
// если платеж возвращен целиком и расчет еще не подтвержден.
func (s *SettlementService) HandlePaymentEvent(ctx context.Context, event *entity.PaymentEvent) error {
	switch event.EventType {
	case entity.EventPaymentCaptured:
		return s.handleCaptured(ctx, event)
	case entity.EventPaymentRefunded:
		return s.handleRefunded(ctx, event)
	default:
		// Незнакомые типы событий пропускаем, не блокируя партицию
		logger.Warn().
			Str("event_type", event.EventType).
			Str("payment_id", event.PaymentID.String()).
			Msg("Skipping unknown payment event type")
		return nil
	}
}

func (s *SettlementService) handleCaptured(ctx context.Context, event *entity.PaymentEvent) error {
	settlementDate := event.Timestamp
	if event.CapturedAt != nil {
		settlementDate = *event.CapturedAt
	}

	settlement := newSettlement(
		event.PaymentID, event.OrderID,
		event.OrdererName, event.ProductName,
		event.Amount, event.RefundedAmount,
		settlementDate,
	)

	if err := s.settlementRepo.Create(ctx, settlement); err != nil {
		if errors.Is(err, repository.ErrDuplicateSettlement) {
			logger.Info().
				Str("payment_id", event.PaymentID.String()).
				Msg("Settlement already exists, skipping redelivered event")
			return nil
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	metrics.SettlementsCreated.WithLabelValues("event").Inc()

	logger.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("payment_id", event.PaymentID.String()).
		Int64("net_amount", settlement.NetAmount).
		Msg("Settlement created from payment event")

	return nil
}

func (s *SettlementService) handleRefunded(ctx context.Context, event *entity.PaymentEvent) error {
	settlement, err := s.settlementRepo.GetByPaymentID(ctx, event.PaymentID)
	if err != nil {
		if errors.Is(err, repository.ErrSettlementNotFound) {
			// Возврат мог прийти до захвата расчета батчем; батч
			// подберет платеж с уже актуальной суммой возврата
			logger.Warn().
				Str("payment_id", event.PaymentID.String()).
				Msg("Refund event for payment without settlement, skipping")
			return nil
		}
		return fmt.Errorf("failed to get settlement by payment: %w", err)
	}

	// Событие несет накопленную сумму возврата, не дельту
	netAmount := entity.CalculateNetAmount(settlement.PaymentAmount, event.RefundedAmount)
	if err := s.settlementRepo.UpdateRefund(ctx, settlement.ID, event.RefundedAmount, netAmount); err != nil {
		return fmt.Errorf("failed to update settlement refund: %w", err)
	}

	if event.RefundedAmount >= settlement.PaymentAmount &&
		settlement.Status != entity.SettlementStatusConfirmed {
		from := []string{
			entity.SettlementStatusPending,
			entity.SettlementStatusWaitingApproval,
			entity.SettlementStatusApproved,
			entity.SettlementStatusRejected,
		}
		if err := s.settlementRepo.UpdateStatus(ctx, settlement.ID, from, entity.SettlementStatusCanceled); err != nil {
			if !errors.Is(err, repository.ErrStatusConflict) {
				return fmt.Errorf("failed to cancel settlement: %w", err)
			}
			// Расчет успели подтвердить; суммы обновлены, статус не трогаем
			logger.Warn().
				Str("settlement_id", settlement.ID.String()).
				Msg("Fully refunded settlement is already confirmed, keeping status")
		}
	}

	logger.Info().
		Str("settlement_id", settlement.ID.String()).
		Str("payment_id", event.PaymentID.String()).
		Int64("refunded_amount", event.RefundedAmount).
		Msg("Settlement refund updated")

	return nil
}

// RunDailyBatch создает расчеты по всем платежам, списанным в заданную
// дату и еще не попавшим в расчеты. Страхует от потерянных событий:
// уже созданные из событий расчеты отсекает LEFT JOIN в выборке, а
// гонку с параллельной доставкой события закрывает уникальный payment_id.
func (s *SettlementService) RunDailyBatch(ctx context.Context, date time.Time) (*entity.BatchResult, error) {
	start := time.Now()
	targetDate := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	payments, err := s.paymentRepo.ListCapturedWithoutSettlement(ctx, targetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list captured payments: %w", err)
	}

	result := &entity.BatchResult{TargetDate: targetDate}
	for i := range payments {
		p := &payments[i]
		settlement := newSettlement(
			p.PaymentID, p.OrderID,
			p.OrdererName, p.ProductName,
			p.Amount, p.RefundedAmount,
			p.CapturedAt,
		)

		if err := s.settlementRepo.Create(ctx, settlement); err != nil {
			if errors.Is(err, repository.ErrDuplicateSettlement) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("failed to create settlement for payment %s: %w", p.PaymentID, err)
		}

		metrics.SettlementsCreated.WithLabelValues("batch").Inc()
		result.Created++
	}

	metrics.SettlementBatchDuration.Observe(time.Since(start).Seconds())
	s.refreshStatusGauge(ctx)

	logger.Info().
		Str("target_date", targetDate.Format("2006-01-02")).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("Settlement batch completed")

	return result, nil
}

// GetSettlement получает расчет по ID
func (s *SettlementService) GetSettlement(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.settlementRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSettlementNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// Search возвращает страницу расчетов по фильтрам со сводкой по всей
// выборке. Сводка считается по тем же фильтрам, без учета пагинации.
func (s *SettlementService) Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error) {
	req.Normalize()

	items, total, err := s.settlementRepo.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search settlements: %w", err)
	}

	aggregations, err := s.settlementRepo.Aggregate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate settlements: %w", err)
	}

	metrics.SettlementSearches.Inc()

	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.Size)))
	}

	return &entity.SearchResponse{
		Items:        items,
		Page:         req.Page,
		Size:         req.Size,
		TotalItems:   total,
		TotalPages:   totalPages,
		Aggregations: *aggregations,
	}, nil
}

// ListWaiting возвращает расчеты, ожидающие решения администратора
func (s *SettlementService) ListWaiting(ctx context.Context) ([]entity.Settlement, error) {
	settlements, err := s.settlementRepo.ListByStatus(ctx, entity.SettlementStatusWaitingApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting settlements: %w", err)
	}
	return settlements, nil
}

// Submit подает расчет на утверждение: PENDING -> WAITING_APPROVAL
func (s *SettlementService) Submit(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	from := []string{entity.SettlementStatusPending}
	if err := s.settlementRepo.UpdateStatus(ctx, id, from, entity.SettlementStatusWaitingApproval); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	return s.reload(ctx, id)
}

// Approve утверждает расчет: WAITING_APPROVAL -> APPROVED
func (s *SettlementService) Approve(ctx context.Context, id, adminID uuid.UUID) (*entity.Settlement, error) {
	if err := s.settlementRepo.Approve(ctx, id, adminID, time.Now()); err != nil {
		return nil, s.mapTransitionErr(err)
	}

	logger.Info().
		Str("settlement_id", id.String()).
		Str("admin_id", adminID.String()).
		Msg("Settlement approved")

	return s.reload(ctx, id)
}

// Reject отклоняет расчет с причиной: WAITING_APPROVAL -> REJECTED
func (s *SettlementService) Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*entity.Settlement, error) {
	if err := s.settlementRepo.Reject(ctx, id, adminID, time.Now(), reason); err != nil {
		return nil, s.mapTransitionErr(err)
	}

	logger.Info().
		Str("settlement_id", id.String()).
		Str("admin_id", adminID.String()).
		Str("reason", reason).
		Msg("Settlement rejected")

	return s.reload(ctx, id)
}

// Confirm подтверждает расчет к выплате: PENDING/WAITING_APPROVAL -> CONFIRMED.
// Подтвержденный расчет больше не аннулируется возвратом.
func (s *SettlementService) Confirm(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	from := []string{entity.SettlementStatusPending, entity.SettlementStatusWaitingApproval}
	if err := s.settlementRepo.UpdateStatus(ctx, id, from, entity.SettlementStatusConfirmed); err != nil {
		return nil, s.mapTransitionErr(err)
	}

	logger.Info().
		Str("settlement_id", id.String()).
		Msg("Settlement confirmed")

	return s.reload(ctx, id)
}

// refreshStatusGauge обновляет gauge распределения расчетов по статусам.
// Вызывается после батча; ошибка не влияет на результат батча.
func (s *SettlementService) refreshStatusGauge(ctx context.Context) {
	aggregations, err := s.settlementRepo.Aggregate(ctx, &entity.SearchRequest{})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to refresh settlement status gauge")
		return
	}
	for status, count := range aggregations.StatusCounts {
		metrics.SettlementsByStatus.WithLabelValues(status).Set(float64(count))
	}
}

func (s *SettlementService) reload(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload settlement: %w", err)
	}
	return settlement, nil
}

func (s *SettlementService) mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrSettlementNotFound):
		return ErrSettlementNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidSettlementStatus
	default:
		return fmt.Errorf("failed to update settlement status: %w", err)
	}
}

func newSettlement(paymentID, orderID uuid.UUID, ordererName, productName string,
	amount, refundedAmount int64, capturedAt time.Time) *entity.Settlement {
	return &entity.Settlement{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		OrderID:        orderID,
		OrdererName:    ordererName,
		ProductName:    productName,
		PaymentAmount:  amount,
		RefundedAmount: refundedAmount,
		Commission:     entity.CalculateCommission(amount),
		NetAmount:      entity.CalculateNetAmount(amount, refundedAmount),
		Status:         entity.SettlementStatusPending,
		SettlementDate: time.Date(capturedAt.Year(), capturedAt.Month(), capturedAt.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}
