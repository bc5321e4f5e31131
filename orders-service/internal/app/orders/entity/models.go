package entity

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей из JWT Auth Service
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Статусы заказа
const (
	OrderStatusCreated  = "CREATED"  // Создан, ожидает оплаты
	OrderStatusPaid     = "PAID"     // Оплачен
	OrderStatusCanceled = "CANCELED" // Отменен до оплаты
	OrderStatusRefunded = "REFUNDED" // Полностью возвращен
)

// Статусы платежа
const (
	PaymentStatusReady      = "READY"      // Платеж создан, ожидает авторизации
	PaymentStatusAuthorized = "AUTHORIZED" // Авторизован платежным шлюзом
	PaymentStatusCaptured   = "CAPTURED"   // Списан, деньги получены
	PaymentStatusFailed     = "FAILED"     // Ошибка при списании
	PaymentStatusCanceled   = "CANCELED"   // Авторизация отменена
	PaymentStatusRefunded   = "REFUNDED"   // Полностью возвращен
)

// Статус возврата: возвраты создаются только после успешного выполнения
const (
	RefundStatusCompleted = "COMPLETED"
)

// Типы событий для Kafka
const (
	EventPaymentCaptured = "PAYMENT_CAPTURED"
	EventPaymentRefunded = "PAYMENT_REFUNDED"
)

// Order представляет заказ. Суммы хранятся в вонах (KRW), без дробной части.
// ProductID может отсутствовать: старые заказы создавались одной суммой без
// привязки к товару каталога.
type Order struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null"`
	ProductID   *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid"`
	ProductName string     `json:"product_name,omitempty" gorm:"type:varchar(200)"` // Снапшот названия на момент заказа
	OrdererName string     `json:"orderer_name" gorm:"type:varchar(100)"`           // Снапшот имени покупателя для отчетов
	Quantity    int        `json:"quantity" gorm:"not null;default:1"`
	Amount      int64      `json:"amount" gorm:"not null"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'CREATED'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// Payment представляет платеж по заказу.
// Активным считается платеж в статусе, отличном от CANCELED/FAILED;
// на заказ допускается не более одного активного платежа.
type Payment struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID  `json:"order_id" gorm:"type:uuid;not null;index"`
	Amount          int64      `json:"amount" gorm:"not null"`
	RefundedAmount  int64      `json:"refunded_amount" gorm:"not null;default:0"` // Накопленная сумма возвратов, <= Amount
	PaymentMethod   string     `json:"payment_method" gorm:"type:varchar(50);not null"`
	Status          string     `json:"status" gorm:"type:varchar(20);not null;default:'READY'"`
	PGTransactionID *string    `json:"pg_transaction_id,omitempty" gorm:"type:varchar(200)"` // Идентификатор транзакции платежного шлюза
	CapturedAt      *time.Time `json:"captured_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

// RefundableAmount возвращает остаток, доступный к возврату.
func (p *Payment) RefundableAmount() int64 {
	return p.Amount - p.RefundedAmount
}

// IsFullyRefunded сообщает, возвращена ли вся сумма платежа.
func (p *Payment) IsFullyRefunded() bool {
	return p.RefundedAmount >= p.Amount
}

// Refund представляет возврат по платежу.
// Пара (payment_id, idempotency_key) уникальна: повторный запрос с тем же
// ключом возвращает уже созданную запись вместо второго возврата.
type Refund struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PaymentID      uuid.UUID `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex:idx_refunds_payment_key"`
	Amount         int64     `json:"amount" gorm:"not null"`
	Reason         string    `json:"reason" gorm:"type:varchar(500)"`
	Status         string    `json:"status" gorm:"type:varchar(20);not null;default:'COMPLETED'"`
	IdempotencyKey string    `json:"idempotency_key" gorm:"type:varchar(100);not null;uniqueIndex:idx_refunds_payment_key"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Refund) TableName() string {
	return "refunds"
}

// PaymentEvent представляет событие платежа для Kafka.
// Снапшоты имени покупателя и товара нужны сервису расчетов для поиска.
type PaymentEvent struct {
	EventType       string     `json:"event_type"` // PAYMENT_CAPTURED, PAYMENT_REFUNDED
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

// Product представляет товар из каталога (ответ Catalog Service).
type Product struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Status        string    `json:"status"`
}

// AvailableForSale сообщает, можно ли продавать товар.
func (p *Product) AvailableForSale() bool {
	return p.Status == "ACTIVE" && p.StockQuantity > 0
}
