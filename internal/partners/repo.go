package partners

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

// Repository manages the mutable partner aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, partnerID uuid.UUID) (*models.PartnerBalance, error)
	Create(ctx context.Context, balance *models.PartnerBalance) error
	// UpdateVersioned writes the aggregate guarded by its version column and
	// returns STALE_BALANCE_WRITE when another writer got there first.
	UpdateVersioned(ctx context.Context, balance *models.PartnerBalance) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a partner balance repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, partnerID uuid.UUID) (*models.PartnerBalance, error) {
	var balance models.PartnerBalance
	err := r.db.WithContext(ctx).Where("partner_id = ?", partnerID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "partner balance not found")
		}
		return nil, err
	}
	return &balance, nil
}

func (r *repository) Create(ctx context.Context, balance *models.PartnerBalance) error {
	return r.db.WithContext(ctx).Create(balance).Error
}

func (r *repository) UpdateVersioned(ctx context.Context, balance *models.PartnerBalance) error {
	currentVersion := balance.Version
	balance.Version = currentVersion + 1
	result := r.db.WithContext(ctx).
		Model(&models.PartnerBalance{}).
		Where("partner_id = ? AND version = ?", balance.PartnerID, currentVersion).
		Select("*").
		Omit("partner_id", "created_at").
		Updates(balance)
	if result.Error != nil {
		balance.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		balance.Version = currentVersion
		return errorsx.New(errorsx.CodeStaleBalanceWrite, "partner balance modified concurrently")
	}
	return nil
}
