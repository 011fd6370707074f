package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// PartnerLedgerEntry records one immutable financial event against a delivery
// partner account.
type PartnerLedgerEntry struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartnerID          uuid.UUID              `gorm:"column:partner_id;type:uuid;not null"`
	OrderID            *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type               enums.PartnerEntryType `gorm:"column:type;type:partner_entry_type_enum;not null"`
	AmountPaise        int64                  `gorm:"column:amount_paise;not null"`
	Description        string                 `gorm:"column:description;not null"`
	BalanceBeforePaise int64                  `gorm:"column:balance_before_paise;not null"`
	BalanceAfterPaise  int64                  `gorm:"column:balance_after_paise;not null"`
	PayoutReference    *string                `gorm:"column:payout_reference"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
}
