package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// EarningRecordedEvent signals a delivered order credited to a seller wallet.
type EarningRecordedEvent struct {
	SellerID    uuid.UUID `json:"seller_id"`
	OrderID     uuid.UUID `json:"order_id"`
	AmountPaise int64     `json:"amount_paise"`
	EntryID     uuid.UUID `json:"entry_id"`
}

// SettlementScheduledEvent is emitted when eligible earnings are grouped into a batch.
type SettlementScheduledEvent struct {
	ScheduleID       uuid.UUID        `json:"schedule_id"`
	SellerID         uuid.UUID        `json:"seller_id"`
	Tier             enums.SellerTier `json:"tier"`
	TotalAmountPaise int64            `json:"total_amount_paise"`
	OrderCount       int              `json:"order_count"`
	SettlementDate   time.Time        `json:"settlement_date"`
}

// SettlementCompletedEvent surfaces the moved amount when a batch settles.
type SettlementCompletedEvent struct {
	ScheduleID       uuid.UUID `json:"schedule_id"`
	SellerID         uuid.UUID `json:"seller_id"`
	TotalAmountPaise int64     `json:"total_amount_paise"`
	OrderCount       int       `json:"order_count"`
	CompletedAt      time.Time `json:"completed_at"`
}

// SettlementFailedEvent reports a batch that failed mid-flight or ran out of retries.
type SettlementFailedEvent struct {
	ScheduleID    uuid.UUID `json:"schedule_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	FailureReason string    `json:"failure_reason"`
	RetryCount    int       `json:"retry_count"`
	WillRetry     bool      `json:"will_retry"`
}

// SettlementHeldEvent is emitted when an admin freezes a scheduled batch.
type SettlementHeldEvent struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	AdminID    uuid.UUID `json:"admin_id"`
	HoldReason string    `json:"hold_reason"`
	HeldAt     time.Time `json:"held_at"`
}

// SettlementReleasedEvent is emitted when a held batch is returned to the queue.
type SettlementReleasedEvent struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	AdminID    uuid.UUID `json:"admin_id"`
	ReleasedAt time.Time `json:"released_at"`
}

// TierChangedEvent describes a seller tier transition with its metric snapshot.
type TierChangedEvent struct {
	SellerID          uuid.UUID        `json:"seller_id"`
	PreviousTier      enums.SellerTier `json:"previous_tier"`
	NewTier           enums.SellerTier `json:"new_tier"`
	MonthlyOrderCount int              `json:"monthly_order_count"`
	MonthlyGMVPaise   int64            `json:"monthly_gmv_paise"`
	RTOPercent        string           `json:"rto_percent"`
	AutoUpgrade       bool             `json:"auto_upgrade"`
	Reason            string           `json:"reason,omitempty"`
}

// WithdrawalRequestedEvent is emitted when a seller or partner asks for a
// payout.
type WithdrawalRequestedEvent struct {
	RequestID             uuid.UUID       `json:"request_id"`
	OwnerKind             enums.ActorKind `json:"owner_kind"`
	OwnerID               uuid.UUID       `json:"owner_id"`
	AmountPaise           int64           `json:"amount_paise"`
	BalanceAtRequestPaise int64           `json:"balance_at_request_paise"`
}

// WithdrawalApprovedEvent reports an admin approval entering payout processing.
type WithdrawalApprovedEvent struct {
	RequestID   uuid.UUID       `json:"request_id"`
	OwnerKind   enums.ActorKind `json:"owner_kind"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	AmountPaise int64           `json:"amount_paise"`
	ReviewedBy  uuid.UUID       `json:"reviewed_by"`
}

// WithdrawalCompletedEvent carries the provider reference once funds moved.
type WithdrawalCompletedEvent struct {
	RequestID      uuid.UUID       `json:"request_id"`
	OwnerKind      enums.ActorKind `json:"owner_kind"`
	OwnerID        uuid.UUID       `json:"owner_id"`
	AmountPaise    int64           `json:"amount_paise"`
	TransactionRef string          `json:"transaction_ref"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// WithdrawalRejectedEvent is emitted when a request is declined.
type WithdrawalRejectedEvent struct {
	RequestID    uuid.UUID       `json:"request_id"`
	OwnerKind    enums.ActorKind `json:"owner_kind"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	AmountPaise  int64           `json:"amount_paise"`
	ReviewedBy   uuid.UUID       `json:"reviewed_by"`
	RejectReason string          `json:"reject_reason"`
}

// CODCollectedEvent records cash received by a partner at the doorstep.
type CODCollectedEvent struct {
	CollectionID         uuid.UUID `json:"collection_id"`
	OrderID              uuid.UUID `json:"order_id"`
	PartnerID            uuid.UUID `json:"partner_id"`
	SellerID             uuid.UUID `json:"seller_id"`
	CollectedAmountPaise int64     `json:"collected_amount_paise"`
	CollectedAt          time.Time `json:"collected_at"`
}

// CODRemittedEvent reports cash deposited by the partner.
type CODRemittedEvent struct {
	CollectionID uuid.UUID `json:"collection_id"`
	OrderID      uuid.UUID `json:"order_id"`
	PartnerID    uuid.UUID `json:"partner_id"`
	RemittedAt   time.Time `json:"remitted_at"`
}

// CODReconciledEvent is emitted when a remittance matches within tolerance.
type CODReconciledEvent struct {
	CollectionID       uuid.UUID `json:"collection_id"`
	OrderID            uuid.UUID `json:"order_id"`
	SellerID           uuid.UUID `json:"seller_id"`
	NetSettlementPaise int64     `json:"net_settlement_paise"`
	ReconciledAt       time.Time `json:"reconciled_at"`
}

// CODDisputedEvent reports a collected/expected mismatch above tolerance.
type CODDisputedEvent struct {
	CollectionID           uuid.UUID `json:"collection_id"`
	OrderID                uuid.UUID `json:"order_id"`
	PartnerID              uuid.UUID `json:"partner_id"`
	DiscrepancyAmountPaise int64     `json:"discrepancy_amount_paise"`
}

// AdminOverrideRecordedEvent mirrors the audit row written for a manual intervention.
type AdminOverrideRecordedEvent struct {
	OverrideID uuid.UUID            `json:"override_id"`
	AdminID    uuid.UUID            `json:"admin_id"`
	TargetType enums.OverrideTarget `json:"target_type"`
	TargetID   uuid.UUID            `json:"target_id"`
	Action     enums.OverrideAction `json:"action"`
	Reason     string               `json:"reason"`
}
