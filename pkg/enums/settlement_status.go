package enums

import "fmt"

// SettlementStatus maps to the settlement_status_enum enum in Postgres.
type SettlementStatus string

const (
	SettlementStatusScheduled  SettlementStatus = "scheduled"
	SettlementStatusProcessing SettlementStatus = "processing"
	SettlementStatusCompleted  SettlementStatus = "completed"
	SettlementStatusFailed     SettlementStatus = "failed"
	SettlementStatusHeld       SettlementStatus = "held"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusScheduled,
	SettlementStatusProcessing,
	SettlementStatusCompleted,
	SettlementStatusFailed,
	SettlementStatusHeld,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a batch in this status can never process again.
// Failed batches are retried and held batches can be released, so only
// completed is terminal.
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusCompleted
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}
