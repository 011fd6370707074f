package enums

import "fmt"

// RemittanceStatus maps to the remittance_status_enum enum in Postgres.
type RemittanceStatus string

const (
	RemittanceStatusPending    RemittanceStatus = "pending"
	RemittanceStatusCollected  RemittanceStatus = "collected"
	RemittanceStatusRemitted   RemittanceStatus = "remitted"
	RemittanceStatusReconciled RemittanceStatus = "reconciled"
	RemittanceStatusDisputed   RemittanceStatus = "disputed"
)

var validRemittanceStatuses = []RemittanceStatus{
	RemittanceStatusPending,
	RemittanceStatusCollected,
	RemittanceStatusRemitted,
	RemittanceStatusReconciled,
	RemittanceStatusDisputed,
}

// String implements fmt.Stringer.
func (s RemittanceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s RemittanceStatus) IsValid() bool {
	for _, candidate := range validRemittanceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the collection state machine allows the move.
// disputed is reachable from remitted or reconciled when a discrepancy is
// found, and is resolved back to reconciled by an admin override.
func (s RemittanceStatus) CanTransitionTo(next RemittanceStatus) bool {
	switch s {
	case RemittanceStatusPending:
		return next == RemittanceStatusCollected
	case RemittanceStatusCollected:
		return next == RemittanceStatusRemitted
	case RemittanceStatusRemitted:
		return next == RemittanceStatusReconciled || next == RemittanceStatusDisputed
	case RemittanceStatusReconciled:
		return next == RemittanceStatusDisputed
	case RemittanceStatusDisputed:
		return next == RemittanceStatusReconciled
	default:
		return false
	}
}

// ParseRemittanceStatus converts raw input into a RemittanceStatus.
func ParseRemittanceStatus(value string) (RemittanceStatus, error) {
	for _, candidate := range validRemittanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid remittance status %q", value)
}
