package sellers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

// Repository manages the mutable seller aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerStats, error)
	Create(ctx context.Context, stats *models.SellerStats) error
	// UpdateVersioned writes the aggregate guarded by its version column and
	// returns STALE_BALANCE_WRITE when another writer got there first.
	UpdateVersioned(ctx context.Context, stats *models.SellerStats) error
	// ListAfter walks all sellers in keyset order for batch jobs.
	ListAfter(ctx context.Context, afterSellerID uuid.UUID, limit int) ([]models.SellerStats, error)
	ListWithResetBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SellerStats, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a seller stats repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerStats, error) {
	var stats models.SellerStats
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "seller stats not found")
		}
		return nil, err
	}
	return &stats, nil
}

func (r *repository) Create(ctx context.Context, stats *models.SellerStats) error {
	return r.db.WithContext(ctx).Create(stats).Error
}

func (r *repository) UpdateVersioned(ctx context.Context, stats *models.SellerStats) error {
	currentVersion := stats.Version
	stats.Version = currentVersion + 1
	result := r.db.WithContext(ctx).
		Model(&models.SellerStats{}).
		Where("seller_id = ? AND version = ?", stats.SellerID, currentVersion).
		Select("*").
		Omit("seller_id", "created_at").
		Updates(stats)
	if result.Error != nil {
		stats.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		stats.Version = currentVersion
		return errorsx.New(errorsx.CodeStaleBalanceWrite, "seller stats modified concurrently")
	}
	return nil
}

func (r *repository) ListAfter(ctx context.Context, afterSellerID uuid.UUID, limit int) ([]models.SellerStats, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Model(&models.SellerStats{})
	if afterSellerID != uuid.Nil {
		query = query.Where("seller_id > ?", afterSellerID)
	}
	var rows []models.SellerStats
	err := query.
		Order("seller_id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListWithResetBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SellerStats, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.SellerStats
	err := r.db.WithContext(ctx).
		Where("monthly_reset_date <= ?", cutoff).
		Order("monthly_reset_date ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
