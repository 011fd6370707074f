package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// ScheduleView is the API projection of one settlement batch.
type ScheduleView struct {
	ID               uuid.UUID              `json:"id"`
	SellerID         uuid.UUID              `json:"seller_id"`
	Tier             enums.SellerTier       `json:"tier"`
	TotalAmountPaise int64                  `json:"total_amount_paise"`
	OrderCount       int                    `json:"order_count"`
	SettlementDate   time.Time              `json:"settlement_date"`
	Status           enums.SettlementStatus `json:"status"`
	FailureReason    *string                `json:"failure_reason,omitempty"`
	RetryCount       int                    `json:"retry_count"`
	HoldReason       *string                `json:"hold_reason,omitempty"`
	HeldAt           *time.Time             `json:"held_at,omitempty"`
	ReleasedAt       *time.Time             `json:"released_at,omitempty"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewScheduleView maps a persisted schedule into its API shape.
func NewScheduleView(schedule *models.SettlementSchedule) ScheduleView {
	return ScheduleView{
		ID:               schedule.ID,
		SellerID:         schedule.SellerID,
		Tier:             schedule.Tier,
		TotalAmountPaise: schedule.TotalAmountPaise,
		OrderCount:       schedule.OrderCount,
		SettlementDate:   schedule.SettlementDate,
		Status:           schedule.Status,
		FailureReason:    schedule.FailureReason,
		RetryCount:       schedule.RetryCount,
		HoldReason:       schedule.HoldReason,
		HeldAt:           schedule.HeldAt,
		ReleasedAt:       schedule.ReleasedAt,
		CompletedAt:      schedule.CompletedAt,
		CreatedAt:        schedule.CreatedAt,
	}
}
