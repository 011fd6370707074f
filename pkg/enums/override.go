package enums

import "fmt"

// OverrideAction maps to the override_action_enum enum in Postgres.
type OverrideAction string

const (
	OverrideActionTierOverride      OverrideAction = "tier_override"
	OverrideActionPayoutHold        OverrideAction = "payout_hold"
	OverrideActionPayoutRelease     OverrideAction = "payout_release"
	OverrideActionLedgerCorrection  OverrideAction = "ledger_correction"
	OverrideActionDisputeResolution OverrideAction = "dispute_resolution"
	OverrideActionAccountSuspend    OverrideAction = "account_suspend"
	OverrideActionAccountActivate   OverrideAction = "account_activate"
)

var validOverrideActions = []OverrideAction{
	OverrideActionTierOverride,
	OverrideActionPayoutHold,
	OverrideActionPayoutRelease,
	OverrideActionLedgerCorrection,
	OverrideActionDisputeResolution,
	OverrideActionAccountSuspend,
	OverrideActionAccountActivate,
}

// IsValid reports whether the value matches the canonical override action enum.
func (a OverrideAction) IsValid() bool {
	for _, candidate := range validOverrideActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOverrideAction converts raw input into an OverrideAction.
func ParseOverrideAction(value string) (OverrideAction, error) {
	for _, candidate := range validOverrideActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid override action %q", value)
}

// OverrideTarget maps to the override_target_enum enum in Postgres.
type OverrideTarget string

const (
	OverrideTargetSeller     OverrideTarget = "seller"
	OverrideTargetPartner    OverrideTarget = "partner"
	OverrideTargetSettlement OverrideTarget = "settlement_schedule"
	OverrideTargetWithdrawal OverrideTarget = "withdrawal_request"
	OverrideTargetCOD        OverrideTarget = "cod_collection"
)

var validOverrideTargets = []OverrideTarget{
	OverrideTargetSeller,
	OverrideTargetPartner,
	OverrideTargetSettlement,
	OverrideTargetWithdrawal,
	OverrideTargetCOD,
}

// IsValid reports whether the value matches the canonical override target enum.
func (t OverrideTarget) IsValid() bool {
	for _, candidate := range validOverrideTargets {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOverrideTarget converts raw input into an OverrideTarget.
func ParseOverrideTarget(value string) (OverrideTarget, error) {
	for _, candidate := range validOverrideTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid override target %q", value)
}
