package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// TierEvaluationLog is one immutable audit row per tier evaluation run per
// seller, written even when the tier is unchanged.
type TierEvaluationLog struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID         uuid.UUID        `gorm:"column:seller_id;type:uuid;not null"`
	PreviousTier     enums.SellerTier `gorm:"column:previous_tier;type:seller_tier_enum;not null"`
	NewTier          enums.SellerTier `gorm:"column:new_tier;type:seller_tier_enum;not null"`
	MonthlyOrders    int              `gorm:"column:monthly_orders;not null"`
	MonthlyDelivered int              `gorm:"column:monthly_delivered;not null"`
	MonthlyRTO       int              `gorm:"column:monthly_rto;not null"`
	RTOPercent       decimal.Decimal  `gorm:"column:rto_percent;type:numeric(5,2);not null"`
	Reason           string           `gorm:"column:reason;not null"`
	AutoUpgrade      bool             `gorm:"column:auto_upgrade;not null"`
	TriggeredBy      *uuid.UUID       `gorm:"column:triggered_by;type:uuid"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular log suffix.
func (TierEvaluationLog) TableName() string { return "tier_evaluation_logs" }
