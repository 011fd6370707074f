package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

// Repository manages persistence for settlement schedules and their
// member orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSchedule(ctx context.Context, schedule *models.SettlementSchedule) error
	GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*models.SettlementSchedule, error)
	// FindOpenSchedule returns the seller's earliest scheduled batch dated at
	// or after from, or CodeNotFound when no batch is open.
	FindOpenSchedule(ctx context.Context, sellerID uuid.UUID, from time.Time) (*models.SettlementSchedule, error)
	// UpdateTransitioned writes the full row but only when the stored status
	// still equals from, so racing transitions lose cleanly.
	UpdateTransitioned(ctx context.Context, schedule *models.SettlementSchedule, from enums.SettlementStatus) error
	AddOrder(ctx context.Context, order *models.SettlementOrder) error
	HasActiveMembership(ctx context.Context, orderID uuid.UUID) (bool, error)
	ListOrders(ctx context.Context, scheduleID uuid.UUID) ([]models.SettlementOrder, error)
	DeactivateOrders(ctx context.Context, scheduleID uuid.UUID) error
	ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.SettlementSchedule, error)
	ListFailedRetryable(ctx context.Context, maxRetries int, limit int) ([]models.SettlementSchedule, error)
	ListStuckProcessing(ctx context.Context, before time.Time, limit int) ([]models.SettlementSchedule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSchedule(ctx context.Context, schedule *models.SettlementSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *repository) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*models.SettlementSchedule, error) {
	var schedule models.SettlementSchedule
	err := r.db.WithContext(ctx).Where("id = ?", scheduleID).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "settlement schedule not found")
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) FindOpenSchedule(ctx context.Context, sellerID uuid.UUID, from time.Time) (*models.SettlementSchedule, error) {
	var schedule models.SettlementSchedule
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ? AND settlement_date >= ?", sellerID, enums.SettlementStatusScheduled, from).
		Order("settlement_date ASC").
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "no open settlement schedule")
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) UpdateTransitioned(ctx context.Context, schedule *models.SettlementSchedule, from enums.SettlementStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.SettlementSchedule{}).
		Where("id = ? AND status = ?", schedule.ID, from).
		Select("*").
		Omit("id", "created_at").
		Updates(schedule)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorsx.New(errorsx.CodeStateConflict, "settlement schedule was modified concurrently")
	}
	return nil
}

func (r *repository) AddOrder(ctx context.Context, order *models.SettlementOrder) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return errorsx.New(errorsx.CodeDuplicateMembership, "order already belongs to an active settlement batch")
	}
	return err
}

func (r *repository) HasActiveMembership(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SettlementOrder{}).
		Where("order_id = ? AND active", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListOrders(ctx context.Context, scheduleID uuid.UUID) ([]models.SettlementOrder, error) {
	var orders []models.SettlementOrder
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) DeactivateOrders(ctx context.Context, scheduleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SettlementOrder{}).
		Where("schedule_id = ? AND active", scheduleID).
		Update("active", false).Error
}

func (r *repository) ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.SettlementSchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var schedules []models.SettlementSchedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND settlement_date <= ?", enums.SettlementStatusScheduled, asOf).
		Order("settlement_date ASC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

func (r *repository) ListFailedRetryable(ctx context.Context, maxRetries int, limit int) ([]models.SettlementSchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var schedules []models.SettlementSchedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", enums.SettlementStatusFailed, maxRetries).
		Order("updated_at ASC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

func (r *repository) ListStuckProcessing(ctx context.Context, before time.Time, limit int) ([]models.SettlementSchedule, error) {
	if limit <= 0 {
		limit = 100
	}
	var schedules []models.SettlementSchedule
	err := r.db.WithContext(ctx).
		Where("status = ? AND processing_at < ?", enums.SettlementStatusProcessing, before).
		Order("processing_at ASC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}
