package repository

import (
	"context"
	"errors"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"github.com/google/uuid"
)

var (
	ErrSettlementNotFound     = errors.New("settlement not found")
	ErrDuplicateSettlement    = errors.New("settlement already exists for payment")
	ErrStatusConflict         = errors.New("settlement status does not allow this transition")
	ErrScheduleConfigNotFound = errors.New("schedule config not found")
	ErrDuplicateScheduleName  = errors.New("schedule config name already exists")
)

// SettlementRepository интерфейс для работы с расчетами в PostgreSQL
type SettlementRepository interface {
	// Create создает расчет; ErrDuplicateSettlement при повторном payment_id
	Create(ctx context.Context, settlement *entity.Settlement) error

	// GetByID получает расчет по ID
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)

	// GetByPaymentID получает расчет по ID платежа
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Settlement, error)

	// UpdateRefund обновляет сумму возврата и сумму к выплате
	UpdateRefund(ctx context.Context, id uuid.UUID, refundedAmount, netAmount int64) error

	// UpdateStatus выполняет условный переход статуса из одного из
	// перечисленных; ErrStatusConflict если текущий статус другой
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error

	// Approve фиксирует утверждение расчета администратором
	Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time) error

	// Reject фиксирует отклонение расчета с причиной
	Reject(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time, reason string) error

	// ListByStatus возвращает расчеты в заданном статусе
	ListByStatus(ctx context.Context, status string) ([]entity.Settlement, error)

	// Search возвращает страницу расчетов и общее число по фильтрам
	Search(ctx context.Context, req *entity.SearchRequest) ([]entity.Settlement, int64, error)

	// Aggregate считает сводку по всей отфильтрованной выборке
	Aggregate(ctx context.Context, req *entity.SearchRequest) (*entity.Aggregations, error)
}

// PaymentReadRepository читает списанные платежи orders-service
// для сверочного батча
type PaymentReadRepository interface {
	// ListCapturedWithoutSettlement возвращает платежи, списанные в
	// заданную дату, по которым нет расчета
	ListCapturedWithoutSettlement(ctx context.Context, date time.Time) ([]entity.CapturedPayment, error)
}

// ScheduleConfigRepository интерфейс для расписаний батча
type ScheduleConfigRepository interface {
	Create(ctx context.Context, cfg *entity.SettlementScheduleConfig) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SettlementScheduleConfig, error)
	List(ctx context.Context) ([]entity.SettlementScheduleConfig, error)
	ListEnabled(ctx context.Context) ([]entity.SettlementScheduleConfig, error)
	Update(ctx context.Context, cfg *entity.SettlementScheduleConfig) error
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}
