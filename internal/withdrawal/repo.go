package withdrawal

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

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.WithdrawalRequest) error
	Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	// UpdateTransitioned writes the full row but only when the stored status
	// still equals from, so racing reviews lose cleanly.
	UpdateTransitioned(ctx context.Context, request *models.WithdrawalRequest, from enums.WithdrawalStatus) error
	ListByOwner(ctx context.Context, kind enums.ActorKind, ownerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error)
	ListStuckProcessing(ctx context.Context, before time.Time, limit int) ([]models.WithdrawalRequest, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.WithdrawalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	var request models.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorsx.New(errorsx.CodeNotFound, "withdrawal request not found")
		}
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateTransitioned(ctx context.Context, request *models.WithdrawalRequest, from enums.WithdrawalStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", request.ID, from).
		Select("*").
		Omit("id", "created_at").
		Updates(request)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errorsx.New(errorsx.CodeStateConflict, "withdrawal request was modified concurrently")
	}
	return nil
}

func (r *repository) ListByOwner(ctx context.Context, kind enums.ActorKind, ownerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).Where("owner_kind = ? AND owner_id = ?", kind, ownerID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var requests []models.WithdrawalRequest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&requests).Error; err != nil {
		return nil, nil, err
	}

	if len(requests) > normalized {
		next := requests[normalized]
		requests = requests[:normalized]
		return requests, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return requests, nil, nil
}

func (r *repository) ListStuckProcessing(ctx context.Context, before time.Time, limit int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	var requests []models.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND processing_at < ?", enums.WithdrawalStatusProcessing, before).
		Order("processing_at ASC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}
