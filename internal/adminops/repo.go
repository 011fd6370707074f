package adminops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// ListFilter narrows the override audit listing.
type ListFilter struct {
	AdminID    *uuid.UUID
	TargetType *enums.OverrideTarget
	TargetID   *uuid.UUID
}

// Repository manages persistence for the admin override audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, override *models.AdminOverride) error
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AdminOverride, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an override repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, override *models.AdminOverride) error {
	return r.db.WithContext(ctx).Create(override).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AdminOverride, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.AdminOverride{})

	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.TargetType != nil {
		query = query.Where("target_type = ?", *filter.TargetType)
	}
	if filter.TargetID != nil {
		query = query.Where("target_id = ?", *filter.TargetID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var overrides []models.AdminOverride
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&overrides).Error; err != nil {
		return nil, nil, err
	}

	if len(overrides) > normalized {
		next := overrides[normalized]
		overrides = overrides[:normalized]
		return overrides, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return overrides, nil, nil
}
