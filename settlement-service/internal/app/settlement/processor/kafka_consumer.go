package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lemuel/pkg/logger"
	"lemuel/settlement-service/internal/app/settlement/entity"
	"lemuel/settlement-service/internal/app/settlement/service"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer читает события платежей из топика payment_events
// и создает/обновляет расчеты
type KafkaConsumer struct {
	reader        *kafka.Reader
	settlementSvc service.SettlementServiceInterface
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	settlementSvc service.SettlementServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: minBytes,
		MaxBytes: maxBytes,
		// Старые события уже покрыты сверочным батчем
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:        reader,
		settlementSvc: settlementSvc,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Msg("Starting payment events consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer и дожидается завершения цикла чтения
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping payment events consumer")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Payment events consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error().Err(err).Msg("Failed to fetch message")
				time.Sleep(time.Second)
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				// Offset не коммитим: сообщение будет доставлено повторно,
				// обработка идемпотентна по payment_id
				logger.Error().Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Failed to process payment event")
			} else {
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("Failed to commit message")
				}
			}
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.PaymentEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal payment event: %w", err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("payment_id", event.PaymentID.String()).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received payment event")

	if err := c.settlementSvc.HandlePaymentEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to handle payment event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
