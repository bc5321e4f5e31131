package service

import (
	"context"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"github.com/google/uuid"
)

type SettlementServiceInterface interface {
	HandlePaymentEvent(ctx context.Context, event *entity.PaymentEvent) error
	RunDailyBatch(ctx context.Context, date time.Time) (*entity.BatchResult, error)
	GetSettlement(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)
	Search(ctx context.Context, req *entity.SearchRequest) (*entity.SearchResponse, error)
	ListWaiting(ctx context.Context) ([]entity.Settlement, error)
	Submit(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)
	Approve(ctx context.Context, id, adminID uuid.UUID) (*entity.Settlement, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason string) (*entity.Settlement, error)
	Confirm(ctx context.Context, id uuid.UUID) (*entity.Settlement, error)
}

type ScheduleServiceInterface interface {
	CreateSchedule(ctx context.Context, req *entity.ScheduleConfigRequest) (*entity.SettlementScheduleConfig, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*entity.SettlementScheduleConfig, error)
	ListSchedules(ctx context.Context) ([]entity.SettlementScheduleConfig, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, req *entity.ScheduleConfigRequest) (*entity.SettlementScheduleConfig, error)
	ToggleSchedule(ctx context.Context, id uuid.UUID, enabled bool) (*entity.SettlementScheduleConfig, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
}
