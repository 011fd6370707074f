package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// SettlementSchedule is a dated batch of settlement-eligible orders for one
// seller. At most one non-terminal batch exists per seller per cycle; member
// orders live in settlement_orders.
type SettlementSchedule struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID         uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	Tier             enums.SellerTier       `gorm:"column:tier;type:seller_tier_enum;not null"`
	TotalAmountPaise int64                  `gorm:"column:total_amount_paise;not null;default:0"`
	OrderCount       int                    `gorm:"column:order_count;not null;default:0"`
	SettlementDate   time.Time              `gorm:"column:settlement_date;not null"`
	Status           enums.SettlementStatus `gorm:"column:status;type:settlement_status_enum;not null;default:'scheduled'"`
	FailureReason    *string                `gorm:"column:failure_reason"`
	RetryCount       int                    `gorm:"column:retry_count;not null;default:0"`
	HoldReason       *string                `gorm:"column:hold_reason"`
	HeldAt           *time.Time             `gorm:"column:held_at"`
	ReleasedAt       *time.Time             `gorm:"column:released_at"`
	ProcessingAt     *time.Time             `gorm:"column:processing_at"`
	CompletedAt      *time.Time             `gorm:"column:completed_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// SettlementOrder links one delivered order to the batch that will settle it.
// Active is cleared when the batch completes, so the partial unique index on
// (order_id) WHERE active enforces exclusive membership across non-terminal
// batches.
type SettlementOrder struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ScheduleID  uuid.UUID `gorm:"column:schedule_id;type:uuid;not null"`
	SellerID    uuid.UUID `gorm:"column:seller_id;type:uuid;not null"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	AmountPaise int64     `gorm:"column:amount_paise;not null"`
	Active      bool      `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
