package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lemuel/settlement-service/internal/app/settlement/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository создает новый репозиторий расчетов
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

// Create создает расчет. Уникальный индекс на payment_id делает вставку
// идемпотентной: повторное событие по тому же платежу дает
// ErrDuplicateSettlement.
func (r *settlementRepository) Create(ctx context.Context, settlement *entity.Settlement) error {
	result := r.db.WithContext(ctx).Create(settlement)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateSettlement
		}
		return fmt.Errorf("failed to create settlement: %w", result.Error)
	}
	return nil
}

// GetByID получает расчет по ID
func (r *settlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	var settlement entity.Settlement
	result := r.db.WithContext(ctx).First(&settlement, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", result.Error)
	}

	return &settlement, nil
}

// GetByPaymentID получает расчет по ID платежа
func (r *settlementRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) (*entity.Settlement, error) {
	var settlement entity.Settlement
	result := r.db.WithContext(ctx).First(&settlement, "payment_id = ?", paymentID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettlementNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", result.Error)
	}

	return &settlement, nil
}

// UpdateRefund обновляет сумму возврата и сумму к выплате
func (r *settlementRepository) UpdateRefund(ctx context.Context, id uuid.UUID, refundedAmount, netAmount int64) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE settlements SET refunded_amount = ?, net_amount = ?, updated_at = NOW() WHERE id = ?`,
		refundedAmount, netAmount, id,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to update settlement refund: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSettlementNotFound
	}
	return nil
}

// UpdateStatus выполняет условный переход статуса. Нулевое число
// затронутых строк при существующем расчете означает конфликт статусов.
func (r *settlementRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE settlements SET status = ?, updated_at = NOW() WHERE id = ? AND status IN ?`,
		to, id, from,
	)
	return r.checkTransition(ctx, id, result)
}

// Approve переводит расчет WAITING_APPROVAL -> APPROVED
func (r *settlementRepository) Approve(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE settlements SET status = ?, approved_by = ?, approved_at = ?, updated_at = NOW()
		 WHERE id = ? AND status = ?`,
		entity.SettlementStatusApproved, adminID, at, id, entity.SettlementStatusWaitingApproval,
	)
	return r.checkTransition(ctx, id, result)
}

// Reject переводит расчет WAITING_APPROVAL -> REJECTED с причиной
func (r *settlementRepository) Reject(ctx context.Context, id uuid.UUID, adminID uuid.UUID, at time.Time, reason string) error {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE settlements SET status = ?, rejected_by = ?, rejected_at = ?, rejection_reason = ?, updated_at = NOW()
		 WHERE id = ? AND status = ?`,
		entity.SettlementStatusRejected, adminID, at, reason, id, entity.SettlementStatusWaitingApproval,
	)
	return r.checkTransition(ctx, id, result)
}

// ListByStatus возвращает расчеты в заданном статусе, новые первыми
func (r *settlementRepository) ListByStatus(ctx context.Context, status string) ([]entity.Settlement, error) {
	var settlements []entity.Settlement
	result := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&settlements)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", result.Error)
	}

	return settlements, nil
}

// Search возвращает страницу расчетов по фильтрам.
// Поле и направление сортировки валидируются в DTO по whitelist,
// поэтому подстановка в Order безопасна.
func (r *settlementRepository) Search(ctx context.Context, req *entity.SearchRequest) ([]entity.Settlement, int64, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&entity.Settlement{}), req)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	var settlements []entity.Settlement
	err := query.
		Order(req.SortBy + " " + req.SortDir).
		Offset(req.Page * req.Size).
		Limit(req.Size).
		Find(&settlements).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search settlements: %w", err)
	}

	return settlements, total, nil
}

// Aggregate считает сводку по всей отфильтрованной выборке одним
// запросом, отдельно от пагинированной выдачи.
func (r *settlementRepository) Aggregate(ctx context.Context, req *entity.SearchRequest) (*entity.Aggregations, error) {
	var totals struct {
		TotalAmount         int64
		TotalRefundedAmount int64
	}
	err := r.applyFilters(r.db.WithContext(ctx).Model(&entity.Settlement{}), req).
		Select("COALESCE(SUM(payment_amount), 0) AS total_amount, COALESCE(SUM(refunded_amount), 0) AS total_refunded_amount").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate settlements: %w", err)
	}

	var statusRows []struct {
		Status string
		Count  int64
	}
	err = r.applyFilters(r.db.WithContext(ctx).Model(&entity.Settlement{}), req).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate settlement statuses: %w", err)
	}

	statusCounts := make(map[string]int64, len(statusRows))
	for _, row := range statusRows {
		statusCounts[row.Status] = row.Count
	}

	return &entity.Aggregations{
		TotalAmount:         totals.TotalAmount,
		TotalRefundedAmount: totals.TotalRefundedAmount,
		TotalFinalAmount:    totals.TotalAmount - totals.TotalRefundedAmount,
		StatusCounts:        statusCounts,
	}, nil
}

// applyFilters накладывает условия поиска на запрос
func (r *settlementRepository) applyFilters(query *gorm.DB, req *entity.SearchRequest) *gorm.DB {
	if req.OrdererName != "" {
		query = query.Where("orderer_name ILIKE ?", "%"+req.OrdererName+"%")
	}
	if req.ProductName != "" {
		query = query.Where("product_name ILIKE ?", "%"+req.ProductName+"%")
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.IsRefunded != nil {
		if *req.IsRefunded {
			query = query.Where("refunded_amount > 0")
		} else {
			query = query.Where("refunded_amount = 0")
		}
	}
	if req.DateFrom != "" {
		query = query.Where("settlement_date >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("settlement_date <= ?", req.DateTo)
	}
	return query
}

// checkTransition различает отсутствующий расчет и конфликт статусов
func (r *settlementRepository) checkTransition(ctx context.Context, id uuid.UUID, result *gorm.DB) error {
	if result.Error != nil {
		return fmt.Errorf("failed to update settlement status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Settlement{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSettlementNotFound
		}
		return ErrStatusConflict
	}

	return nil
}
