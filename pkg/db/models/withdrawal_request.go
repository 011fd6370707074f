package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// WithdrawalRequest is a payout gated by admin approval. OwnerKind names the
// account holder side, so one table serves seller and partner withdrawals.
// The requested amount stays reserved on the owner's balance from request
// until the terminal state.
type WithdrawalRequest struct {
	ID                      uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerKind               enums.ActorKind        `gorm:"column:owner_kind;type:actor_kind_enum;not null"`
	OwnerID                 uuid.UUID              `gorm:"column:owner_id;type:uuid;not null"`
	AmountPaise             int64                  `gorm:"column:amount_paise;not null"`
	Status                  enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status_enum;not null;default:'pending'"`
	BalanceAtRequestPaise   int64                  `gorm:"column:balance_at_request_paise;not null"`
	BalanceAfterPayoutPaise *int64                 `gorm:"column:balance_after_payout_paise"`
	TransactionRef          *string                `gorm:"column:transaction_ref"`
	ReviewedBy              *uuid.UUID             `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt              *time.Time             `gorm:"column:reviewed_at"`
	RejectReason            *string                `gorm:"column:reject_reason"`
	ProcessingAt            *time.Time             `gorm:"column:processing_at"`
	CompletedAt             *time.Time             `gorm:"column:completed_at"`
	CreatedAt               time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
