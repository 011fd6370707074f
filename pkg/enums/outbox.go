package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSeller         OutboxAggregateType = "seller"
	AggregatePartner        OutboxAggregateType = "partner"
	AggregateSettlement     OutboxAggregateType = "settlement_schedule"
	AggregateWithdrawal     OutboxAggregateType = "withdrawal_request"
	AggregateCODCollection  OutboxAggregateType = "cod_collection"
	AggregateLedgerEntry    OutboxAggregateType = "ledger_entry"
	AggregateTierEvaluation OutboxAggregateType = "tier_evaluation"
	AggregateAdminOverride  OutboxAggregateType = "admin_override"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSeller,
	AggregatePartner,
	AggregateSettlement,
	AggregateWithdrawal,
	AggregateCODCollection,
	AggregateLedgerEntry,
	AggregateTierEvaluation,
	AggregateAdminOverride,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventEarningRecorded     OutboxEventType = "earning_recorded"
	EventSettlementScheduled OutboxEventType = "settlement_scheduled"
	EventSettlementCompleted OutboxEventType = "settlement_completed"
	EventSettlementFailed    OutboxEventType = "settlement_failed"
	EventSettlementHeld      OutboxEventType = "settlement_held"
	EventSettlementReleased  OutboxEventType = "settlement_released"
	EventTierChanged         OutboxEventType = "tier_changed"
	EventWithdrawalRequested OutboxEventType = "withdrawal_requested"
	EventWithdrawalApproved  OutboxEventType = "withdrawal_approved"
	EventWithdrawalCompleted OutboxEventType = "withdrawal_completed"
	EventWithdrawalRejected  OutboxEventType = "withdrawal_rejected"
	EventCODCollected        OutboxEventType = "cod_collected"
	EventCODRemitted         OutboxEventType = "cod_remitted"
	EventCODReconciled       OutboxEventType = "cod_reconciled"
	EventCODDisputed         OutboxEventType = "cod_disputed"
	EventAdminOverride       OutboxEventType = "admin_override_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventEarningRecorded,
	EventSettlementScheduled,
	EventSettlementCompleted,
	EventSettlementFailed,
	EventSettlementHeld,
	EventSettlementReleased,
	EventTierChanged,
	EventWithdrawalRequested,
	EventWithdrawalApproved,
	EventWithdrawalCompleted,
	EventWithdrawalRejected,
	EventCODCollected,
	EventCODRemitted,
	EventCODReconciled,
	EventCODDisputed,
	EventAdminOverride,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason maps to the outbox_dlq_error_reason_enum enum in Postgres.
type OutboxDLQErrorReason string

const (
	DLQReasonMaxAttempts     OutboxDLQErrorReason = "max_attempts_exceeded"
	DLQReasonDecodeFailure   OutboxDLQErrorReason = "decode_failure"
	DLQReasonUnknownEvent    OutboxDLQErrorReason = "unknown_event_type"
	DLQReasonMissingTopic    OutboxDLQErrorReason = "missing_topic"
	DLQReasonPublishRejected OutboxDLQErrorReason = "publish_rejected"
)

var validDLQReasons = []OutboxDLQErrorReason{
	DLQReasonMaxAttempts,
	DLQReasonDecodeFailure,
	DLQReasonUnknownEvent,
	DLQReasonMissingTopic,
	DLQReasonPublishRejected,
}

// IsValid reports whether the value is known.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validDLQReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
