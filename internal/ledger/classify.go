package ledger

import (
	"fmt"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

// sellerSnapshot carries the wallet bucket values around one entry.
type sellerSnapshot struct {
	PendingBefore   int64
	PendingAfter    int64
	AvailableBefore int64
	AvailableAfter  int64
}

// partnerSnapshot carries the account total around one entry. The partner
// running balance is BalancePaise + CODHeldPaise so that cod_collection
// credits and the cod_remittance transfer both satisfy
// after = before + signedAmount.
type partnerSnapshot struct {
	BalanceBefore int64
	BalanceAfter  int64
}

// applySellerEntry mutates the wallet buckets for one entry and returns the
// before/after snapshots. amountPaise is a positive magnitude; the entry type
// decides the sign and the bucket it lands in.
func applySellerEntry(stats *models.SellerStats, entryType enums.SellerEntryType, amountPaise int64) (sellerSnapshot, error) {
	snapshot := sellerSnapshot{
		PendingBefore:   stats.PendingSettlementPaise,
		AvailableBefore: stats.AvailableForWithdrawalPaise,
	}

	switch entryType.Direction() {
	case enums.EntryDirectionCredit:
		stats.PendingSettlementPaise += amountPaise
	case enums.EntryDirectionDebit:
		switch entryType {
		case enums.SellerEntryTypeWithdrawal:
			if stats.ReservedPaise < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeStateConflict,
					fmt.Sprintf("withdrawal of %d paise exceeds reserved amount %d", amountPaise, stats.ReservedPaise))
			}
			if stats.AvailableForWithdrawalPaise < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
					fmt.Sprintf("withdrawal of %d paise exceeds available balance %d", amountPaise, stats.AvailableForWithdrawalPaise))
			}
			stats.AvailableForWithdrawalPaise -= amountPaise
			stats.ReservedPaise -= amountPaise
		default:
			if stats.PendingSettlementPaise < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
					fmt.Sprintf("%s of %d paise exceeds pending balance %d", entryType, amountPaise, stats.PendingSettlementPaise))
			}
			stats.PendingSettlementPaise -= amountPaise
		}
	case enums.EntryDirectionTransfer:
		if stats.PendingSettlementPaise < amountPaise {
			return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
				fmt.Sprintf("settlement of %d paise exceeds pending balance %d", amountPaise, stats.PendingSettlementPaise))
		}
		stats.PendingSettlementPaise -= amountPaise
		stats.AvailableForWithdrawalPaise += amountPaise
		stats.TotalSettledPaise += amountPaise
	default:
		return snapshot, errorsx.New(errorsx.CodeInvalidEntryType,
			fmt.Sprintf("unclassified seller entry type %q", entryType))
	}

	snapshot.PendingAfter = stats.PendingSettlementPaise
	snapshot.AvailableAfter = stats.AvailableForWithdrawalPaise
	return snapshot, nil
}

// applyPartnerEntry mutates the partner buckets for one entry and returns the
// before/after snapshots of the account total.
func applyPartnerEntry(balance *models.PartnerBalance, entryType enums.PartnerEntryType, amountPaise int64) (partnerSnapshot, error) {
	total := balance.BalancePaise + balance.CODHeldPaise
	snapshot := partnerSnapshot{BalanceBefore: total}

	switch entryType.Direction() {
	case enums.EntryDirectionCredit:
		if entryType == enums.PartnerEntryTypeCODCollection {
			balance.CODHeldPaise += amountPaise
		} else {
			balance.BalancePaise += amountPaise
			balance.TotalEarnedPaise += amountPaise
		}
	case enums.EntryDirectionDebit:
		if entryType == enums.PartnerEntryTypePayout {
			if balance.ReservedPaise < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeStateConflict,
					fmt.Sprintf("payout of %d paise exceeds reserved amount %d", amountPaise, balance.ReservedPaise))
			}
			if balance.BalancePaise < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
					fmt.Sprintf("payout of %d paise exceeds balance %d", amountPaise, balance.BalancePaise))
			}
			balance.BalancePaise -= amountPaise
			balance.ReservedPaise -= amountPaise
			balance.TotalPaidOutPaise += amountPaise
		} else {
			if balance.AvailablePaise() < amountPaise {
				return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
					fmt.Sprintf("%s of %d paise exceeds available balance %d", entryType, amountPaise, balance.AvailablePaise()))
			}
			balance.BalancePaise -= amountPaise
		}
	case enums.EntryDirectionTransfer:
		if balance.CODHeldPaise < amountPaise {
			return snapshot, errorsx.New(errorsx.CodeInsufficientBalance,
				fmt.Sprintf("remittance of %d paise exceeds cod held %d", amountPaise, balance.CODHeldPaise))
		}
		balance.CODHeldPaise -= amountPaise
		balance.BalancePaise += amountPaise
	default:
		return snapshot, errorsx.New(errorsx.CodeInvalidEntryType,
			fmt.Sprintf("unclassified partner entry type %q", entryType))
	}

	snapshot.BalanceAfter = balance.BalancePaise + balance.CODHeldPaise
	return snapshot, nil
}
