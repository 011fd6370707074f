package partners

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
)

// BalanceView is the API projection of the partner aggregate.
type BalanceView struct {
	PartnerID         uuid.UUID  `json:"partner_id"`
	BalancePaise      int64      `json:"balance_paise"`
	AvailablePaise    int64      `json:"available_paise"`
	CODHeldPaise      int64      `json:"cod_held_paise"`
	ReservedPaise     int64      `json:"reserved_paise"`
	TotalEarnedPaise  int64      `json:"total_earned_paise"`
	TotalPaidOutPaise int64      `json:"total_paid_out_paise"`
	PayoutsHeld       bool       `json:"payouts_held"`
	SuspendedAt       *time.Time `json:"suspended_at,omitempty"`
}

// NewBalanceView maps the partner aggregate into its API shape.
func NewBalanceView(balance *models.PartnerBalance) BalanceView {
	return BalanceView{
		PartnerID:         balance.PartnerID,
		BalancePaise:      balance.BalancePaise,
		AvailablePaise:    balance.AvailablePaise(),
		CODHeldPaise:      balance.CODHeldPaise,
		ReservedPaise:     balance.ReservedPaise,
		TotalEarnedPaise:  balance.TotalEarnedPaise,
		TotalPaidOutPaise: balance.TotalPaidOutPaise,
		PayoutsHeld:       balance.PayoutsHeld,
		SuspendedAt:       balance.SuspendedAt,
	}
}
