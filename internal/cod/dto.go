package cod

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// CollectionView is the API projection of one COD collection record.
type CollectionView struct {
	ID                     uuid.UUID              `json:"id"`
	OrderID                uuid.UUID              `json:"order_id"`
	SellerID               uuid.UUID              `json:"seller_id"`
	PartnerID              uuid.UUID              `json:"partner_id"`
	CODAmountPaise         int64                  `json:"cod_amount_paise"`
	CollectedAmountPaise   *int64                 `json:"collected_amount_paise,omitempty"`
	ShippingChargePaise    int64                  `json:"shipping_charge_paise"`
	PlatformFeePaise       int64                  `json:"platform_fee_paise"`
	CODHandlingFeePaise    int64                  `json:"cod_handling_fee_paise"`
	NetSettlementPaise     *int64                 `json:"net_settlement_paise,omitempty"`
	RemittanceStatus       enums.RemittanceStatus `json:"remittance_status"`
	DiscrepancyAmountPaise int64                  `json:"discrepancy_amount_paise"`
	CollectedAt            *time.Time             `json:"collected_at,omitempty"`
	RemittedAt             *time.Time             `json:"remitted_at,omitempty"`
	ReconciledAt           *time.Time             `json:"reconciled_at,omitempty"`
	DisputedAt             *time.Time             `json:"disputed_at,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
}

// CollectionList wraps a paginated collections page plus the next cursor.
type CollectionList struct {
	Collections []CollectionView `json:"collections"`
	NextCursor  string           `json:"next_cursor,omitempty"`
}

// NewCollectionView maps a persisted collection into its API shape.
func NewCollectionView(collection *models.CODCollection) CollectionView {
	return CollectionView{
		ID:                     collection.ID,
		OrderID:                collection.OrderID,
		SellerID:               collection.SellerID,
		PartnerID:              collection.PartnerID,
		CODAmountPaise:         collection.CODAmountPaise,
		CollectedAmountPaise:   collection.CollectedAmountPaise,
		ShippingChargePaise:    collection.ShippingChargePaise,
		PlatformFeePaise:       collection.PlatformFeePaise,
		CODHandlingFeePaise:    collection.CODHandlingFeePaise,
		NetSettlementPaise:     collection.NetSettlementPaise,
		RemittanceStatus:       collection.RemittanceStatus,
		DiscrepancyAmountPaise: collection.DiscrepancyAmountPaise,
		CollectedAt:            collection.CollectedAt,
		RemittedAt:             collection.RemittedAt,
		ReconciledAt:           collection.ReconciledAt,
		DisputedAt:             collection.DisputedAt,
		CreatedAt:              collection.CreatedAt,
	}
}

// NewCollectionList builds the list response from a repository page.
func NewCollectionList(collections []models.CODCollection, next *pagination.Cursor) CollectionList {
	list := CollectionList{Collections: make([]CollectionView, 0, len(collections))}
	for i := range collections {
		list.Collections = append(list.Collections, NewCollectionView(&collections[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
