package infrastructure

import "context"

// MessagePublisher интерфейс публикации событий отзывов (Kafka).
// Отделяет сервис от конкретного продюсера для тестов.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
