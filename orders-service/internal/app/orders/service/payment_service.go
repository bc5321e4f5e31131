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

const methodTossPayments = "TOSS_PAYMENTS"

// PaymentService обрабатывает жизненный цикл платежа:
// READY -> AUTHORIZED -> CAPTURED, отмены и подтверждение через Toss.
type PaymentService struct {
	paymentRepo   repository.PaymentRepository
	orderRepo     repository.OrderRepository
	tossGateway   infrastructure.TossGateway
	kafkaProducer infrastructure.MessagePublisher
}

// NewPaymentService создает новый сервис платежей
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	tossGateway infrastructure.TossGateway,
	kafkaProducer infrastructure.MessagePublisher,
) *PaymentService {
	return &PaymentService{
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		tossGateway:   tossGateway,
		kafkaProducer: kafkaProducer,
	}
}

// CreatePayment создает платеж в статусе READY.
// Сумма копируется из заказа; на заказ допускается один активный платеж.
func (s *PaymentService) CreatePayment(ctx context.Context, req *entity.CreatePaymentRequest) (*entity.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.Status != entity.OrderStatusCreated {
		return nil, ErrOrderNotPayable
	}

	if _, err := s.paymentRepo.GetActiveByOrderID(ctx, order.ID); err == nil {
		return nil, ErrActivePaymentExists
	} else if !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, fmt.Errorf("failed to check active payment: %w", err)
	}

	payment := &entity.Payment{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Amount:        order.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        entity.PaymentStatusReady,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	logger.Info().
		Str("payment_id", payment.ID.String()).
		Str("order_id", order.ID.String()).
		Int64("amount", payment.Amount).
		Msg("Payment created")

	return payment, nil
}

// AuthorizePayment переводит платеж READY -> AUTHORIZED
func (s *PaymentService) AuthorizePayment(ctx context.Context, id uuid.UUID, pgTransactionID string) (*entity.Payment, error) {
	if err := s.paymentRepo.Authorize(ctx, id, pgTransactionID); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	return s.getPayment(ctx, id)
}

// CapturePayment переводит платеж AUTHORIZED -> CAPTURED, заказ -> PAID
// и публикует PAYMENT_CAPTURED. Условный UPDATE в репозитории гарантирует,
// что повторное подтверждение не спишет платеж дважды.
func (s *PaymentService) CapturePayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	capturedAt := time.Now()
	if err := s.paymentRepo.Capture(ctx, id, capturedAt); err != nil {
		return nil, s.mapTransitionErr(err)
	}

	payment, err := s.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.orderRepo.UpdateStatus(ctx, order.ID, entity.OrderStatusCreated, entity.OrderStatusPaid); err != nil {
		// Платеж уже списан; рассинхрон статуса заказа только логируем
		logger.Error().Err(err).
			Str("order_id", order.ID.String()).
			Str("payment_id", payment.ID.String()).
			Msg("Failed to mark order as paid after capture")
	} else {
		order.Status = entity.OrderStatusPaid
	}

	metrics.PaymentsCaptured.WithLabelValues(payment.PaymentMethod).Inc()
	metrics.PaymentsCapturedAmount.Add(float64(payment.Amount))

	s.publishPaymentEvent(ctx, entity.EventPaymentCaptured, payment, order)

	logger.Info().
		Str("payment_id", payment.ID.String()).
		Str("order_id", order.ID.String()).
		Int64("amount", payment.Amount).
		Msg("Payment captured")

	return payment, nil
}

// CancelPayment переводит платеж AUTHORIZED/FAILED -> CANCELED.
// Заказ остается в CREATED и может быть оплачен новым платежом.
func (s *PaymentService) CancelPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	if err := s.paymentRepo.Cancel(ctx, id); err != nil {
		return nil, s.mapTransitionErr(err)
	}
	return s.getPayment(ctx, id)
}

// GetPayment получает платеж по ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	return s.getPayment(ctx, id)
}

// ConfirmTossPayment подтверждает платеж Toss для одного заказа.
// Расхождение суммы отклоняется до обращения к шлюзу; после успешного
// подтверждения платеж проходит READY -> AUTHORIZED -> CAPTURED, где
// paymentKey сохраняется как идентификатор транзакции шлюза.
func (s *PaymentService) ConfirmTossPayment(ctx context.Context, req *entity.TossConfirmRequest) (*entity.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if req.Amount != order.Amount {
		metrics.TossConfirmations.WithLabelValues("mismatch").Inc()
		logger.Warn().
			Str("order_id", order.ID.String()).
			Int64("client_amount", req.Amount).
			Int64("order_amount", order.Amount).
			Msg("Toss confirm rejected: amount mismatch")
		return nil, ErrAmountMismatch
	}

	if err := s.tossGateway.Confirm(ctx, req.PaymentKey, req.TossOrderID, req.Amount); err != nil {
		metrics.TossConfirmations.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("toss confirmation failed: %w", err)
	}

	payment, err := s.settleConfirmedOrder(ctx, order, req.PaymentKey)
	if err != nil {
		return nil, err
	}

	metrics.TossConfirmations.WithLabelValues("success").Inc()
	return payment, nil
}

// ConfirmTossCartPayment подтверждает один платеж Toss за несколько заказов.
// Сумма заказов сверяется с totalAmount до обращения к шлюзу. После
// успешного списания заказы проводятся независимо; ошибки отдельных
// заказов собираются и возвращаются для ручной сверки, а не откатываются.
func (s *PaymentService) ConfirmTossCartPayment(ctx context.Context, req *entity.TossCartConfirmRequest) (*entity.CartConfirmResponse, error) {
	orders, err := s.orderRepo.GetByIDs(ctx, req.OrderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	if len(orders) != len(req.OrderIDs) {
		return nil, ErrOrderNotFound
	}

	var sum int64
	for i := range orders {
		if orders[i].Status != entity.OrderStatusCreated {
			return nil, ErrOrderNotPayable
		}
		sum += orders[i].Amount
	}

	if sum != req.TotalAmount {
		metrics.TossConfirmations.WithLabelValues("mismatch").Inc()
		logger.Warn().
			Int64("client_total", req.TotalAmount).
			Int64("orders_total", sum).
			Int("orders", len(orders)).
			Msg("Toss cart confirm rejected: total amount mismatch")
		return nil, ErrAmountMismatch
	}

	if err := s.tossGateway.Confirm(ctx, req.PaymentKey, req.TossOrderID, req.TotalAmount); err != nil {
		metrics.TossConfirmations.WithLabelValues("gateway_error").Inc()
		return nil, fmt.Errorf("toss confirmation failed: %w", err)
	}

	response := &entity.CartConfirmResponse{}
	for i := range orders {
		payment, err := s.settleConfirmedOrder(ctx, &orders[i], req.PaymentKey)
		if err != nil {
			// Деньги уже списаны шлюзом: фиксируем проблемный заказ
			// для сверки и продолжаем с остальными
			logger.Error().Err(err).
				Str("order_id", orders[i].ID.String()).
				Msg("Cart order settlement failed after gateway charge")
			response.Failures = append(response.Failures, entity.CartOrderFailure{
				OrderID: orders[i].ID,
				Error:   err.Error(),
			})
			continue
		}
		response.Payments = append(response.Payments, *payment)
	}

	metrics.TossConfirmations.WithLabelValues("success").Inc()
	return response, nil
}

// settleConfirmedOrder проводит заказ после подтверждения шлюза:
// создает платеж READY, авторизует его с paymentKey и списывает.
func (s *PaymentService) settleConfirmedOrder(ctx context.Context, order *entity.Order, paymentKey string) (*entity.Payment, error) {
	payment, err := s.CreatePayment(ctx, &entity.CreatePaymentRequest{
		OrderID:       order.ID,
		PaymentMethod: methodTossPayments,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.AuthorizePayment(ctx, payment.ID, paymentKey); err != nil {
		return nil, err
	}

	return s.CapturePayment(ctx, payment.ID)
}

func (s *PaymentService) getPayment(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

func (s *PaymentService) mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		return ErrPaymentNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return ErrInvalidPaymentStatus
	default:
		return fmt.Errorf("payment transition failed: %w", err)
	}
}

// publishPaymentEvent отправляет событие платежа в Kafka.
// Ошибка публикации логируется, но не прерывает операцию.
func (s *PaymentService) publishPaymentEvent(ctx context.Context, eventType string, payment *entity.Payment, order *entity.Order) {
	event := entity.PaymentEvent{
		EventType:      eventType,
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
			Msg("Failed to marshal payment event")
		return
	}

	if err := s.kafkaProducer.PublishMessage(ctx, payment.ID.String(), data); err != nil {
		logger.Error().Err(err).
			Str("payment_id", payment.ID.String()).
			Str("event_type", eventType).
			Msg("Failed to publish payment event")
	}
}
