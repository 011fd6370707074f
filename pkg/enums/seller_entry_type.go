package enums

import "fmt"

// SellerEntryType maps to the seller_entry_type_enum enum in Postgres.
type SellerEntryType string

const (
	SellerEntryTypeEarning       SellerEntryType = "earning"
	SellerEntryTypeDeduction     SellerEntryType = "deduction"
	SellerEntryTypeSettlement    SellerEntryType = "settlement"
	SellerEntryTypeRefund        SellerEntryType = "refund"
	SellerEntryTypeRTOCharge     SellerEntryType = "rto_charge"
	SellerEntryTypeWithdrawal    SellerEntryType = "withdrawal"
	SellerEntryTypeCODCollection SellerEntryType = "cod_collection"
)

var validSellerEntryTypes = []SellerEntryType{
	SellerEntryTypeEarning,
	SellerEntryTypeDeduction,
	SellerEntryTypeSettlement,
	SellerEntryTypeRefund,
	SellerEntryTypeRTOCharge,
	SellerEntryTypeWithdrawal,
	SellerEntryTypeCODCollection,
}

// IsValid reports whether the value matches the canonical seller entry enum.
func (t SellerEntryType) IsValid() bool {
	for _, candidate := range validSellerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Direction returns the credit/debit classification for the entry type.
// Earnings accrue to the pending bucket; settlement moves pending to
// available; debits draw down the available bucket.
func (t SellerEntryType) Direction() EntryDirection {
	switch t {
	case SellerEntryTypeEarning, SellerEntryTypeRefund, SellerEntryTypeCODCollection:
		return EntryDirectionCredit
	case SellerEntryTypeDeduction, SellerEntryTypeRTOCharge, SellerEntryTypeWithdrawal:
		return EntryDirectionDebit
	default:
		return EntryDirectionTransfer
	}
}

// ParseSellerEntryType converts raw input into a SellerEntryType.
func ParseSellerEntryType(value string) (SellerEntryType, error) {
	for _, candidate := range validSellerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller entry type %q", value)
}
