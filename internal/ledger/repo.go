package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// Repository manages persistence for ledger entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSellerEntry(ctx context.Context, entry *models.SellerLedgerEntry) error
	CreatePartnerEntry(ctx context.Context, entry *models.PartnerLedgerEntry) error
	ListSellerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SellerLedgerEntry, *pagination.Cursor, error)
	ListPartnerEntries(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.PartnerLedgerEntry, *pagination.Cursor, error)
	HasSellerEntryForOrder(ctx context.Context, sellerID, orderID uuid.UUID, entryType enums.SellerEntryType) (bool, error)
	ListAllSellerEntriesAsc(ctx context.Context, sellerID uuid.UUID) ([]models.SellerLedgerEntry, error)
	ListAllPartnerEntriesAsc(ctx context.Context, partnerID uuid.UUID) ([]models.PartnerLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSellerEntry(ctx context.Context, entry *models.SellerLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreatePartnerEntry(ctx context.Context, entry *models.PartnerLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListSellerEntries(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SellerLedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.SellerLedgerEntry{}).Where("seller_id = ?", sellerID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.SellerLedgerEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}

func (r *repository) ListPartnerEntries(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.PartnerLedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.PartnerLedgerEntry{}).Where("partner_id = ?", partnerID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.PartnerLedgerEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}

func (r *repository) HasSellerEntryForOrder(ctx context.Context, sellerID, orderID uuid.UUID, entryType enums.SellerEntryType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SellerLedgerEntry{}).
		Where("seller_id = ? AND order_id = ? AND type = ?", sellerID, orderID, entryType).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListAllSellerEntriesAsc(ctx context.Context, sellerID uuid.UUID) ([]models.SellerLedgerEntry, error) {
	var entries []models.SellerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListAllPartnerEntriesAsc(ctx context.Context, partnerID uuid.UUID) ([]models.PartnerLedgerEntry, error) {
	var entries []models.PartnerLedgerEntry
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
