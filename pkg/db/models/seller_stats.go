package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// SellerStats is the mutable seller aggregate: denormalized lifetime totals,
// wallet buckets and the trailing monthly counters the tier evaluator reads.
// The ledger is the source of truth; this row is a cache maintained in the
// same transaction as each ledger write. Version backs the per-seller
// optimistic lock.
type SellerStats struct {
	SellerID                    uuid.UUID        `gorm:"column:seller_id;type:uuid;primaryKey"`
	CurrentTier                 enums.SellerTier `gorm:"column:current_tier;type:seller_tier_enum;not null;default:'bronze'"`
	TierUpdatedAt               *time.Time       `gorm:"column:tier_updated_at"`
	TotalOrders                 int              `gorm:"column:total_orders;not null;default:0"`
	DeliveredOrders             int              `gorm:"column:delivered_orders;not null;default:0"`
	RTOOrders                   int              `gorm:"column:rto_orders;not null;default:0"`
	GrossRevenuePaise           int64            `gorm:"column:gross_revenue_paise;not null;default:0"`
	TotalPlatformFeesPaise      int64            `gorm:"column:total_platform_fees_paise;not null;default:0"`
	TotalRTOChargesPaise        int64            `gorm:"column:total_rto_charges_paise;not null;default:0"`
	PendingSettlementPaise      int64            `gorm:"column:pending_settlement_paise;not null;default:0"`
	AvailableForWithdrawalPaise int64            `gorm:"column:available_for_withdrawal_paise;not null;default:0"`
	ReservedPaise               int64            `gorm:"column:reserved_paise;not null;default:0"`
	TotalSettledPaise           int64            `gorm:"column:total_settled_paise;not null;default:0"`
	MonthlyOrders               int              `gorm:"column:monthly_orders;not null;default:0"`
	MonthlyDelivered            int              `gorm:"column:monthly_delivered;not null;default:0"`
	MonthlyRTO                  int              `gorm:"column:monthly_rto;not null;default:0"`
	MonthlyResetDate            time.Time        `gorm:"column:monthly_reset_date;not null"`
	PayoutsHeld                 bool             `gorm:"column:payouts_held;not null;default:false"`
	Version                     int64            `gorm:"column:version;not null;default:0"`
	CreatedAt                   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (SellerStats) TableName() string { return "seller_stats" }

// AvailablePaise returns the settled balance a new withdrawal request may
// claim, net of amounts reserved by pending requests.
func (s SellerStats) AvailablePaise() int64 {
	return s.AvailableForWithdrawalPaise - s.ReservedPaise
}
