package entity

import (
	"time"

	"github.com/google/uuid"
)

// Статусы расчета.
// PENDING - создан из события или батча, ждет подачи на утверждение.
// WAITING_APPROVAL - подан, ждет решения администратора.
// CONFIRMED - подтвержден напрямую из PENDING/WAITING_APPROVAL.
// CANCELED - аннулирован полным возвратом платежа.
const (
	SettlementStatusPending         = "PENDING"
	SettlementStatusWaitingApproval = "WAITING_APPROVAL"
	SettlementStatusApproved        = "APPROVED"
	SettlementStatusRejected        = "REJECTED"
	SettlementStatusConfirmed       = "CONFIRMED"
	SettlementStatusCanceled        = "CANCELED"
)

// Типы событий платежей из Kafka
const (
	EventPaymentCaptured = "PAYMENT_CAPTURED"
	EventPaymentRefunded = "PAYMENT_REFUNDED"
)

// Роли пользователей
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// CommissionRatePercent - комиссия платформы в процентах
const CommissionRatePercent = 3

// Settlement представляет расчет по списанному платежу.
// payment_id уникален: событие или батч не создают второй расчет
// по тому же платежу.
type Settlement struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PaymentID       uuid.UUID  `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex:idx_settlements_payment"`
	OrderID         uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	OrdererName     string     `json:"orderer_name" gorm:"type:varchar(100);not null;index"`
	ProductName     string     `json:"product_name" gorm:"type:varchar(200);not null;index"`
	PaymentAmount   int64      `json:"payment_amount" gorm:"not null"`
	RefundedAmount  int64      `json:"refunded_amount" gorm:"not null;default:0"`
	Commission      int64      `json:"commission" gorm:"not null"`
	NetAmount       int64      `json:"net_amount" gorm:"not null"`
	Status          string     `json:"status" gorm:"type:varchar(30);not null;default:'PENDING';index"`
	SettlementDate  time.Time  `json:"settlement_date" gorm:"type:date;not null;index"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty" gorm:"type:uuid"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID `json:"rejected_by,omitempty" gorm:"type:uuid"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:varchar(500)"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Settlement) TableName() string {
	return "settlements"
}

// IsFullyRefunded сообщает, возвращен ли платеж целиком
func (s *Settlement) IsFullyRefunded() bool {
	return s.RefundedAmount >= s.PaymentAmount
}

// CalculateCommission считает комиссию платформы: 3% от суммы платежа,
// округление half-up до целой воны
func CalculateCommission(paymentAmount int64) int64 {
	return (paymentAmount*CommissionRatePercent + 50) / 100
}

// CalculateNetAmount считает сумму к выплате продавцу
func CalculateNetAmount(paymentAmount, refundedAmount int64) int64 {
	return paymentAmount - refundedAmount - CalculateCommission(paymentAmount)
}

// SettlementScheduleConfig хранит расписание ежедневного батча.
// Изменения применяются на лету через reload без перезапуска сервиса.
type SettlementScheduleConfig struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CronExpr    string    `json:"cron_expr" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	Enabled     bool      `json:"enabled" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (SettlementScheduleConfig) TableName() string {
	return "settlement_schedule_configs"
}

// PaymentEvent - событие платежа из топика payment_events.
// Формат задает orders-service.
type PaymentEvent struct {
	EventType       string     `json:"event_type"`
	PaymentID       uuid.UUID  `json:"payment_id"`
	OrderID         uuid.UUID  `json:"order_id"`
	OrdererName     string     `json:"orderer_name"`
	ProductName     string     `json:"product_name"`
	Amount          int64      `json:"amount"`
	RefundedAmount  int64      `json:"refunded_amount"`
	PaymentMethod   string     `json:"payment_method"`
	PGTransactionID string     `json:"pg_transaction_id,omitempty"`
	CapturedAt      *time.Time `json:"captured_at,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// CapturedPayment - строка выборки для сверочного батча: списанный платеж
// с данными заказа, по которому еще нет расчета.
type CapturedPayment struct {
	PaymentID      uuid.UUID
	OrderID        uuid.UUID
	OrdererName    string
	ProductName    string
	Amount         int64
	RefundedAmount int64
	CapturedAt     time.Time
}
