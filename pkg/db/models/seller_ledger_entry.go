package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// SellerLedgerEntry records one immutable financial event against a seller
// account. Corrections are new entries, never edits.
type SellerLedgerEntry struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID             uuid.UUID             `gorm:"column:seller_id;type:uuid;not null"`
	OrderID              *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	SettlementID         *uuid.UUID            `gorm:"column:settlement_id;type:uuid"`
	Type                 enums.SellerEntryType `gorm:"column:type;type:seller_entry_type_enum;not null"`
	AmountPaise          int64                 `gorm:"column:amount_paise;not null"`
	Description          string                `gorm:"column:description;not null"`
	PendingBeforePaise   int64                 `gorm:"column:pending_before_paise;not null"`
	PendingAfterPaise    int64                 `gorm:"column:pending_after_paise;not null"`
	AvailableBeforePaise int64                 `gorm:"column:available_before_paise;not null"`
	AvailableAfterPaise  int64                 `gorm:"column:available_after_paise;not null"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
}
