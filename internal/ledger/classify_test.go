package ledger

import (
	"testing"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

func TestApplySellerEntry_Credits(t *testing.T) {
	for _, entryType := range []enums.SellerEntryType{
		enums.SellerEntryTypeEarning,
		enums.SellerEntryTypeRefund,
		enums.SellerEntryTypeCODCollection,
	} {
		stats := &models.SellerStats{PendingSettlementPaise: 1000, AvailableForWithdrawalPaise: 500}
		snapshot, err := applySellerEntry(stats, entryType, 250)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", entryType, err)
		}
		if stats.PendingSettlementPaise != 1250 {
			t.Fatalf("%s: pending = %d, want 1250", entryType, stats.PendingSettlementPaise)
		}
		if stats.AvailableForWithdrawalPaise != 500 {
			t.Fatalf("%s: available should not change", entryType)
		}
		if snapshot.PendingBefore != 1000 || snapshot.PendingAfter != 1250 {
			t.Fatalf("%s: bad snapshot %+v", entryType, snapshot)
		}
	}
}

func TestApplySellerEntry_Debits(t *testing.T) {
	stats := &models.SellerStats{PendingSettlementPaise: 1000, AvailableForWithdrawalPaise: 500, ReservedPaise: 500}

	if _, err := applySellerEntry(stats, enums.SellerEntryTypeDeduction, 300); err != nil {
		t.Fatalf("deduction: %v", err)
	}
	if stats.PendingSettlementPaise != 700 {
		t.Fatalf("pending = %d, want 700", stats.PendingSettlementPaise)
	}

	if _, err := applySellerEntry(stats, enums.SellerEntryTypeWithdrawal, 500); err != nil {
		t.Fatalf("withdrawal: %v", err)
	}
	if stats.AvailableForWithdrawalPaise != 0 || stats.ReservedPaise != 0 {
		t.Fatalf("available = %d reserved = %d, want 0 0", stats.AvailableForWithdrawalPaise, stats.ReservedPaise)
	}
}

func TestApplySellerEntry_WithdrawalRequiresReservation(t *testing.T) {
	stats := &models.SellerStats{AvailableForWithdrawalPaise: 1000}

	_, err := applySellerEntry(stats, enums.SellerEntryTypeWithdrawal, 500)
	if !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT without reservation, got %v", err)
	}
	if stats.AvailableForWithdrawalPaise != 1000 {
		t.Fatalf("failed apply must not mutate: %+v", stats)
	}
}

func TestApplySellerEntry_InsufficientBalance(t *testing.T) {
	cases := []struct {
		name      string
		entryType enums.SellerEntryType
		stats     models.SellerStats
	}{
		{"deduction over pending", enums.SellerEntryTypeDeduction, models.SellerStats{PendingSettlementPaise: 99}},
		{"rto over pending", enums.SellerEntryTypeRTOCharge, models.SellerStats{PendingSettlementPaise: 99}},
		{"withdrawal over available", enums.SellerEntryTypeWithdrawal, models.SellerStats{AvailableForWithdrawalPaise: 99, ReservedPaise: 100}},
		{"settlement over pending", enums.SellerEntryTypeSettlement, models.SellerStats{PendingSettlementPaise: 99}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := tc.stats
			before := stats
			_, err := applySellerEntry(&stats, tc.entryType, 100)
			if !errorsx.HasCode(err, errorsx.CodeInsufficientBalance) {
				t.Fatalf("expected INSUFFICIENT_BALANCE, got %v", err)
			}
			if stats != before {
				t.Fatalf("failed apply must not mutate: %+v", stats)
			}
		})
	}
}

func TestApplySellerEntry_SettlementTransfer(t *testing.T) {
	stats := &models.SellerStats{PendingSettlementPaise: 1000, AvailableForWithdrawalPaise: 200}
	snapshot, err := applySellerEntry(stats, enums.SellerEntryTypeSettlement, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PendingSettlementPaise != 400 || stats.AvailableForWithdrawalPaise != 800 {
		t.Fatalf("transfer mismatch: pending=%d available=%d", stats.PendingSettlementPaise, stats.AvailableForWithdrawalPaise)
	}
	if stats.TotalSettledPaise != 600 {
		t.Fatalf("total settled = %d, want 600", stats.TotalSettledPaise)
	}
	totalBefore := snapshot.PendingBefore + snapshot.AvailableBefore
	totalAfter := snapshot.PendingAfter + snapshot.AvailableAfter
	if totalBefore != totalAfter {
		t.Fatalf("transfer changed total: %d -> %d", totalBefore, totalAfter)
	}
}

func TestApplyPartnerEntry_CreditsAndCODHold(t *testing.T) {
	balance := &models.PartnerBalance{}

	snapshot, err := applyPartnerEntry(balance, enums.PartnerEntryTypeEarning, 400)
	if err != nil {
		t.Fatalf("earning: %v", err)
	}
	if balance.BalancePaise != 400 || balance.TotalEarnedPaise != 400 {
		t.Fatalf("earning mismatch: %+v", balance)
	}
	if snapshot.BalanceBefore != 0 || snapshot.BalanceAfter != 400 {
		t.Fatalf("bad snapshot %+v", snapshot)
	}

	snapshot, err = applyPartnerEntry(balance, enums.PartnerEntryTypeCODCollection, 900)
	if err != nil {
		t.Fatalf("cod collection: %v", err)
	}
	if balance.CODHeldPaise != 900 {
		t.Fatalf("cod held = %d, want 900", balance.CODHeldPaise)
	}
	if balance.BalancePaise != 400 {
		t.Fatalf("cod collection must not touch balance")
	}
	if snapshot.BalanceAfter != 1300 {
		t.Fatalf("account total should include held cash, got %d", snapshot.BalanceAfter)
	}
}

func TestApplyPartnerEntry_RemittanceTransfer(t *testing.T) {
	balance := &models.PartnerBalance{BalancePaise: 100, CODHeldPaise: 900}
	snapshot, err := applyPartnerEntry(balance, enums.PartnerEntryTypeCODRemittance, 900)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.CODHeldPaise != 0 || balance.BalancePaise != 1000 {
		t.Fatalf("remittance mismatch: %+v", balance)
	}
	if snapshot.BalanceBefore != snapshot.BalanceAfter {
		t.Fatalf("transfer changed account total: %+v", snapshot)
	}

	if _, err := applyPartnerEntry(balance, enums.PartnerEntryTypeCODRemittance, 1); !errorsx.HasCode(err, errorsx.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE for over-remittance, got %v", err)
	}
}

func TestApplyPartnerEntry_PayoutConsumesReservation(t *testing.T) {
	balance := &models.PartnerBalance{BalancePaise: 1000, ReservedPaise: 600}
	if _, err := applyPartnerEntry(balance, enums.PartnerEntryTypePayout, 600); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if balance.BalancePaise != 400 || balance.ReservedPaise != 0 || balance.TotalPaidOutPaise != 600 {
		t.Fatalf("payout mismatch: %+v", balance)
	}

	balance = &models.PartnerBalance{BalancePaise: 1000, ReservedPaise: 100}
	if _, err := applyPartnerEntry(balance, enums.PartnerEntryTypePayout, 600); !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT without reservation, got %v", err)
	}
}

func TestApplyPartnerEntry_DebitRespectsReservation(t *testing.T) {
	balance := &models.PartnerBalance{BalancePaise: 1000, ReservedPaise: 800}
	if _, err := applyPartnerEntry(balance, enums.PartnerEntryTypePenalty, 300); !errorsx.HasCode(err, errorsx.CodeInsufficientBalance) {
		t.Fatalf("expected INSUFFICIENT_BALANCE when reservation blocks debit, got %v", err)
	}
	if _, err := applyPartnerEntry(balance, enums.PartnerEntryTypePenalty, 200); err != nil {
		t.Fatalf("penalty within available: %v", err)
	}
	if balance.BalancePaise != 800 {
		t.Fatalf("balance = %d, want 800", balance.BalancePaise)
	}
}
