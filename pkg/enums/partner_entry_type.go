package enums

import "fmt"

// PartnerEntryType maps to the partner_entry_type_enum enum in Postgres.
type PartnerEntryType string

const (
	PartnerEntryTypeEarning       PartnerEntryType = "earning"
	PartnerEntryTypeDeduction     PartnerEntryType = "deduction"
	PartnerEntryTypePayout        PartnerEntryType = "payout"
	PartnerEntryTypeCODCollection PartnerEntryType = "cod_collection"
	PartnerEntryTypeCODRemittance PartnerEntryType = "cod_remittance"
	PartnerEntryTypePenalty       PartnerEntryType = "penalty"
	PartnerEntryTypeBonus         PartnerEntryType = "bonus"
)

var validPartnerEntryTypes = []PartnerEntryType{
	PartnerEntryTypeEarning,
	PartnerEntryTypeDeduction,
	PartnerEntryTypePayout,
	PartnerEntryTypeCODCollection,
	PartnerEntryTypeCODRemittance,
	PartnerEntryTypePenalty,
	PartnerEntryTypeBonus,
}

// IsValid reports whether the value matches the canonical partner entry enum.
func (t PartnerEntryType) IsValid() bool {
	for _, candidate := range validPartnerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Direction returns the credit/debit classification for the entry type.
// cod_collection credits the partner's cod-held bucket; cod_remittance
// transfers the held cash out when it is handed to the platform.
func (t PartnerEntryType) Direction() EntryDirection {
	switch t {
	case PartnerEntryTypeEarning, PartnerEntryTypeCODCollection, PartnerEntryTypeBonus:
		return EntryDirectionCredit
	case PartnerEntryTypeDeduction, PartnerEntryTypePayout, PartnerEntryTypePenalty:
		return EntryDirectionDebit
	default:
		return EntryDirectionTransfer
	}
}

// ParsePartnerEntryType converts raw input into a PartnerEntryType.
func ParsePartnerEntryType(value string) (PartnerEntryType, error) {
	for _, candidate := range validPartnerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid partner entry type %q", value)
}
