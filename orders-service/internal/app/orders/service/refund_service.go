package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"
	"lemuel/orders-service/internal/app/orders/infrastructure"
	"lemuel/orders-service/internal/app/orders/repository"
	"lemuel/pkg/logger"
	"lemuel/pkg/metrics"

	"github.com/google/uuid"
)

// RefundService обрабатывает возвраты по платежам.
// Ключ идемпотентности закрывает повторы: запрос с уже использованным
// ключом возвращает сохраненный возврат без повторного списания.
type RefundService struct {
	refundRepo    repository.RefundRepository
	paymentRepo   repository.PaymentRepository
	orderRepo     repository.OrderRepository
	kafkaProducer infrastructure.MessagePublisher
}

// NewRefundService создает новый сервис возвратов
func NewRefundService(
	refundRepo repository.RefundRepository,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	kafkaProducer infrastructure.MessagePublisher,
) *RefundService {
	return &RefundService{
		refundRepo:    refundRepo,
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		kafkaProducer: kafkaProducer,
	}
}

// CreateRefund выполняет возврат по платежу.
// Платеж должен быть CAPTURED (или REFUNDED для повтора с тем же ключом).
// Порядок фиксирован: сначала insert возврата (идемпотентный барьер на
// уникальном индексе), затем инкремент refunded_amount - при конкурентном
// повторе проигравший не инкрементирует сумму второй раз. Если условный
// UPDATE не прошел по остатку, вставленный возврат удаляется, чтобы
// повтор с тем же ключом не зачелся как успех.
func (s *RefundService) CreateRefund(ctx context.Context, paymentID uuid.UUID, amount int64, reason, idempotencyKey string) (*entity.Refund, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	// Повтор с уже использованным ключом возвращает исходный результат
	if existing, err := s.refundRepo.GetByPaymentAndKey(ctx, paymentID, idempotencyKey); err == nil {
		metrics.RefundsProcessed.WithLabelValues("replayed").Inc()
		logger.Info().
			Str("payment_id", paymentID.String()).
			Str("refund_id", existing.ID.String()).
			Msg("Refund replayed by idempotency key")
		return existing, nil
	} else if !errors.Is(err, repository.ErrRefundNotFound) {
		return nil, fmt.Errorf("failed to look up refund: %w", err)
	}

	if payment.Status != entity.PaymentStatusCaptured {
		return nil, ErrRefundNotAllowed
	}

	if amount > payment.RefundableAmount() {
		return nil, ErrRefundExceedsPayment
	}

	refund := &entity.Refund{
		ID:             uuid.New(),
		PaymentID:      paymentID,
		Amount:         amount,
		Reason:         reason,
		Status:         entity.RefundStatusCompleted,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
	}

	if err := s.refundRepo.Create(ctx, refund); err != nil {
		if errors.Is(err, repository.ErrDuplicateRefundKey) {
			// Конкурентный повтор успел первым: возвращаем его запись
			winner, lookupErr := s.refundRepo.GetByPaymentAndKey(ctx, paymentID, idempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load concurrent refund: %w", lookupErr)
			}
			metrics.RefundsProcessed.WithLabelValues("replayed").Inc()
			return winner, nil
		}
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	if err := s.paymentRepo.AddRefundedAmount(ctx, paymentID, amount); err != nil {
		// Insert уже прошел: запись нужно убрать, иначе повтор с тем же
		// ключом вернет возврат, который деньги не двигал
		if deleteErr := s.refundRepo.Delete(ctx, refund.ID); deleteErr != nil {
			logger.Error().Err(deleteErr).
				Str("refund_id", refund.ID.String()).
				Str("payment_id", paymentID.String()).
				Msg("Failed to remove refund after balance check failure")
		}
		if errors.Is(err, repository.ErrRefundBalanceExceeded) {
			return nil, ErrRefundExceedsPayment
		}
		return nil, fmt.Errorf("failed to update refunded amount: %w", err)
	}

	payment, err = s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload payment: %w", err)
	}

	refundKind := "partial"
	if payment.IsFullyRefunded() {
		refundKind = "full"
		if err := s.paymentRepo.MarkRefunded(ctx, paymentID); err != nil {
			logger.Error().Err(err).
				Str("payment_id", paymentID.String()).
				Msg("Failed to mark payment as refunded")
		} else {
			payment.Status = entity.PaymentStatusRefunded
		}
		if err := s.orderRepo.UpdateStatus(ctx, payment.OrderID, entity.OrderStatusPaid, entity.OrderStatusRefunded); err != nil {
			logger.Error().Err(err).
				Str("order_id", payment.OrderID.String()).
				Msg("Failed to mark order as refunded")
		}
	}

	metrics.RefundsProcessed.WithLabelValues(refundKind).Inc()
	s.publishRefundEvent(ctx, payment)

	logger.Info().
		Str("refund_id", refund.ID.String()).
		Str("payment_id", paymentID.String()).
		Int64("amount", amount).
		Str("kind", refundKind).
		Msg("Refund completed")

	return refund, nil
}

// ProcessFullRefund возвращает весь доступный остаток платежа
func (s *RefundService) ProcessFullRefund(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*entity.Refund, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	// Уже полностью возвращенный платеж: повтор отдает сохраненный возврат
	if payment.IsFullyRefunded() {
		if existing, err := s.refundRepo.GetByPaymentAndKey(ctx, paymentID, idempotencyKey); err == nil {
			metrics.RefundsProcessed.WithLabelValues("replayed").Inc()
			return existing, nil
		}
		return nil, ErrRefundNotAllowed
	}

	return s.CreateRefund(ctx, paymentID, payment.RefundableAmount(), "full refund", idempotencyKey)
}

// ProcessPartialRefund возвращает часть суммы платежа
func (s *RefundService) ProcessPartialRefund(ctx context.Context, paymentID uuid.UUID, amount int64, idempotencyKey string) (*entity.Refund, error) {
	return s.CreateRefund(ctx, paymentID, amount, "partial refund", idempotencyKey)
}

// publishRefundEvent отправляет PAYMENT_REFUNDED с накопленной суммой
// возвратов. Ошибка публикации не прерывает операцию.
func (s *RefundService) publishRefundEvent(ctx context.Context, payment *entity.Payment) {
	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		logger.Error().Err(err).
			Str("order_id", payment.OrderID.String()).
			Msg("Failed to load order for refund event")
		order = &entity.Order{ID: payment.OrderID}
	}

	event := entity.PaymentEvent{
		EventType:      entity.EventPaymentRefunded,
		PaymentID:      payment.ID,
		OrderID:        payment.OrderID,
		OrdererName:    order.OrdererName,
		ProductName:    order.ProductName,
		Amount:         payment.Amount,
		RefundedAmount: payment.RefundedAmount,
		PaymentMethod:  payment.PaymentMethod,
		CapturedAt:     payment.CapturedAt,
		Timestamp:      time.Now(),
	}
	if payment.PGTransactionID != nil {
		event.PGTransactionID = *payment.PGTransactionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Msg("Failed to marshal refund event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, payment.ID.String(), data); err != nil {
		logger.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Msg("Failed to publish refund event")
	}
}
