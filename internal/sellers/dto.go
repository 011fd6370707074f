package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// StatsView is the API projection of the seller aggregate.
type StatsView struct {
	SellerID                    uuid.UUID        `json:"seller_id"`
	CurrentTier                 enums.SellerTier `json:"current_tier"`
	TierUpdatedAt               *time.Time       `json:"tier_updated_at,omitempty"`
	TotalOrders                 int              `json:"total_orders"`
	DeliveredOrders             int              `json:"delivered_orders"`
	RTOOrders                   int              `json:"rto_orders"`
	GrossRevenuePaise           int64            `json:"gross_revenue_paise"`
	TotalPlatformFeesPaise      int64            `json:"total_platform_fees_paise"`
	TotalRTOChargesPaise        int64            `json:"total_rto_charges_paise"`
	PendingSettlementPaise      int64            `json:"pending_settlement_paise"`
	AvailableForWithdrawalPaise int64            `json:"available_for_withdrawal_paise"`
	ReservedPaise               int64            `json:"reserved_paise"`
	TotalSettledPaise           int64            `json:"total_settled_paise"`
	MonthlyOrders               int              `json:"monthly_orders"`
	MonthlyDelivered            int              `json:"monthly_delivered"`
	MonthlyRTO                  int              `json:"monthly_rto"`
	MonthlyResetDate            time.Time        `json:"monthly_reset_date"`
	PayoutsHeld                 bool             `json:"payouts_held"`
}

// NewStatsView maps the seller aggregate into its API shape.
func NewStatsView(stats *models.SellerStats) StatsView {
	return StatsView{
		SellerID:                    stats.SellerID,
		CurrentTier:                 stats.CurrentTier,
		TierUpdatedAt:               stats.TierUpdatedAt,
		TotalOrders:                 stats.TotalOrders,
		DeliveredOrders:             stats.DeliveredOrders,
		RTOOrders:                   stats.RTOOrders,
		GrossRevenuePaise:           stats.GrossRevenuePaise,
		TotalPlatformFeesPaise:      stats.TotalPlatformFeesPaise,
		TotalRTOChargesPaise:        stats.TotalRTOChargesPaise,
		PendingSettlementPaise:      stats.PendingSettlementPaise,
		AvailableForWithdrawalPaise: stats.AvailableForWithdrawalPaise,
		ReservedPaise:               stats.ReservedPaise,
		TotalSettledPaise:           stats.TotalSettledPaise,
		MonthlyOrders:               stats.MonthlyOrders,
		MonthlyDelivered:            stats.MonthlyDelivered,
		MonthlyRTO:                  stats.MonthlyRTO,
		MonthlyResetDate:            stats.MonthlyResetDate,
		PayoutsHeld:                 stats.PayoutsHeld,
	}
}
