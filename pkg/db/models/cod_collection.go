package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// CODCollection tracks cash-on-delivery money for a single order from
// collection by the partner through remittance and reconciliation.
type CODCollection struct {
	ID                     uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	SellerID               uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	PartnerID              uuid.UUID              `gorm:"column:partner_id;type:uuid;not null"`
	CODAmountPaise         int64                  `gorm:"column:cod_amount_paise;not null"`
	CollectedAmountPaise   *int64                 `gorm:"column:collected_amount_paise"`
	ShippingChargePaise    int64                  `gorm:"column:shipping_charge_paise;not null;default:0"`
	PlatformFeePaise       int64                  `gorm:"column:platform_fee_paise;not null;default:0"`
	CODHandlingFeePaise    int64                  `gorm:"column:cod_handling_fee_paise;not null;default:0"`
	NetSettlementPaise     *int64                 `gorm:"column:net_settlement_paise"`
	RemittanceStatus       enums.RemittanceStatus `gorm:"column:remittance_status;type:remittance_status_enum;not null;default:'pending'"`
	DiscrepancyAmountPaise int64                  `gorm:"column:discrepancy_amount_paise;not null;default:0"`
	CollectedAt            *time.Time             `gorm:"column:collected_at"`
	RemittedAt             *time.Time             `gorm:"column:remitted_at"`
	ReconciledAt           *time.Time             `gorm:"column:reconciled_at"`
	DisputedAt             *time.Time             `gorm:"column:disputed_at"`
	CreatedAt              time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
