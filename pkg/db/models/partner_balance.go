package models

import (
	"time"

	"github.com/google/uuid"
)

// PartnerBalance is the mutable partner aggregate. CODHeldPaise tracks cash
// the partner collected but has not yet remitted; ReservedPaise tracks
// amounts claimed by pending withdrawal requests. Spendable balance is
// BalancePaise - ReservedPaise.
type PartnerBalance struct {
	PartnerID         uuid.UUID  `gorm:"column:partner_id;type:uuid;primaryKey"`
	BalancePaise      int64      `gorm:"column:balance_paise;not null;default:0"`
	CODHeldPaise      int64      `gorm:"column:cod_held_paise;not null;default:0"`
	ReservedPaise     int64      `gorm:"column:reserved_paise;not null;default:0"`
	TotalEarnedPaise  int64      `gorm:"column:total_earned_paise;not null;default:0"`
	TotalPaidOutPaise int64      `gorm:"column:total_paid_out_paise;not null;default:0"`
	PayoutsHeld       bool       `gorm:"column:payouts_held;not null;default:false"`
	SuspendedAt       *time.Time `gorm:"column:suspended_at"`
	Version           int64      `gorm:"column:version;not null;default:0"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailablePaise returns the balance a new withdrawal request may claim.
func (b PartnerBalance) AvailablePaise() int64 {
	return b.BalancePaise - b.ReservedPaise
}
