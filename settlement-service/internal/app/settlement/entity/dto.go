package entity

import (
	"time"

	"github.com/google/uuid"
)

// SearchRequest - параметры поиска расчетов.
// Принимается и как query string (GET), и как JSON (POST).
type SearchRequest struct {
	OrdererName string `json:"ordererName" form:"ordererName" validate:"omitempty,max=100"`
	ProductName string `json:"productName" form:"productName" validate:"omitempty,max=200"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=PENDING WAITING_APPROVAL APPROVED REJECTED CONFIRMED CANCELED"`
	IsRefunded  *bool  `json:"isRefunded" form:"isRefunded"`
	DateFrom    string `json:"dateFrom" form:"dateFrom" validate:"omitempty,datetime=2006-01-02"`
	DateTo      string `json:"dateTo" form:"dateTo" validate:"omitempty,datetime=2006-01-02"`
	SortBy      string `json:"sortBy" form:"sortBy" validate:"omitempty,oneof=settlement_date payment_amount net_amount orderer_name product_name created_at"`
	SortDir     string `json:"sortDir" form:"sortDir" validate:"omitempty,oneof=asc desc"`
	Page        int    `json:"page" form:"page" validate:"omitempty,gte=0"`
	Size        int    `json:"size" form:"size" validate:"omitempty,gte=1,lte=100"`
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы
func (r *SearchRequest) Normalize() {
	if r.Size == 0 {
		r.Size = 20
	}
	if r.Size > 100 {
		r.Size = 100
	}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.SortBy == "" {
		r.SortBy = "settlement_date"
	}
	if r.SortDir == "" {
		r.SortDir = "desc"
	}
}

// Aggregations - сводка по всей отфильтрованной выборке,
// не зависит от пагинации
type Aggregations struct {
	TotalAmount         int64            `json:"totalAmount"`
	TotalRefundedAmount int64            `json:"totalRefundedAmount"`
	TotalFinalAmount    int64            `json:"totalFinalAmount"`
	StatusCounts        map[string]int64 `json:"statusCounts"`
}

// SearchResponse - страница результатов поиска со сводкой
type SearchResponse struct {
	Items        []Settlement `json:"items"`
	Page         int          `json:"page"`
	Size         int          `json:"size"`
	TotalItems   int64        `json:"totalItems"`
	TotalPages   int          `json:"totalPages"`
	Aggregations Aggregations `json:"aggregations"`
}

// RejectRequest - причина отклонения расчета
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ScheduleConfigRequest - создание/изменение расписания батча
type ScheduleConfigRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	CronExpr    string `json:"cron_expr" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Enabled     *bool  `json:"enabled"`
}

// BatchResult - итог работы сверочного батча
type BatchResult struct {
	TargetDate time.Time `json:"target_date"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
}

// SettlementListResponse - список расчетов
type SettlementListResponse struct {
	Settlements []Settlement `json:"settlements"`
	Total       int          `json:"total"`
}

// ErrorResponse - стандартный формат ошибки API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный формат успешного ответа
type SuccessResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id,omitempty"`
}
