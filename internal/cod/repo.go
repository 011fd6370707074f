package cod

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// Repository manages persistence for COD collection rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, collection *models.CODCollection) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.CODCollection, error)
	// UpdateTransitioned writes the full row but only when the stored status
	// still equals from, so racing transitions lose cleanly.
	UpdateTransitioned(ctx context.Context, collection *models.CODCollection, from enums.RemittanceStatus) error
	ListByStatus(ctx context.Context, status enums.RemittanceStatus, params pagination.Params) ([]models.CODCollection, *pagination.Cursor, error)
	ListStaleInStatus(ctx context.Context, status enums.RemittanceStatus, before time.Time, limit int) ([]models.CODCollection, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a COD repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, collection *models.CODCollection) error {
	err := r.db.WithContext(ctx).Create(collection).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return errorsx.New(errorsx.CodeStateConflict, "cod collection already exists for order")
	}
	return err
}

func (r *repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.CODCollection, error) {
	var collection models.CODCollection
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "cod collection not found")
		}
		return nil, err
	}
	return &collection, nil
}

func (r *repository) UpdateTransitioned(ctx context.Context, collection *models.CODCollection, from enums.RemittanceStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.CODCollection{}).
		Where("id = ? AND remittance_status = ?", collection.ID, from).
		Select("*").
		Omit("id", "created_at").
		Updates(collection)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorsx.New(errorsx.CodeStateConflict, "cod collection was modified concurrently")
	}
	return nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.RemittanceStatus, params pagination.Params) ([]models.CODCollection, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.CODCollection{}).Where("remittance_status = ?", status)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var collections []models.CODCollection
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&collections).Error; err != nil {
		return nil, nil, err
	}

	if len(collections) > normalized {
		next := collections[normalized]
		collections = collections[:normalized]
		return collections, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return collections, nil, nil
}

func (r *repository) ListStaleInStatus(ctx context.Context, status enums.RemittanceStatus, before time.Time, limit int) ([]models.CODCollection, error) {
	if limit <= 0 {
		limit = 100
	}
	var collections []models.CODCollection
	err := r.db.WithContext(ctx).
		Where("remittance_status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&collections).Error
	return collections, err
}
