package enums

import "testing"

func TestSellerEntryTypeDirection(t *testing.T) {
	credits := []SellerEntryType{SellerEntryTypeEarning, SellerEntryTypeRefund, SellerEntryTypeCODCollection}
	for _, typ := range credits {
		if typ.Direction() != EntryDirectionCredit {
			t.Fatalf("%s should be a credit", typ)
		}
	}
	debits := []SellerEntryType{SellerEntryTypeDeduction, SellerEntryTypeRTOCharge, SellerEntryTypeWithdrawal}
	for _, typ := range debits {
		if typ.Direction() != EntryDirectionDebit {
			t.Fatalf("%s should be a debit", typ)
		}
	}
	if SellerEntryTypeSettlement.Direction() != EntryDirectionTransfer {
		t.Fatal("settlement should be a transfer")
	}
}

func TestPartnerEntryTypeDirection(t *testing.T) {
	credits := []PartnerEntryType{PartnerEntryTypeEarning, PartnerEntryTypeCODCollection, PartnerEntryTypeBonus}
	for _, typ := range credits {
		if typ.Direction() != EntryDirectionCredit {
			t.Fatalf("%s should be a credit", typ)
		}
	}
	debits := []PartnerEntryType{PartnerEntryTypeDeduction, PartnerEntryTypePayout, PartnerEntryTypePenalty}
	for _, typ := range debits {
		if typ.Direction() != EntryDirectionDebit {
			t.Fatalf("%s should be a debit", typ)
		}
	}
	if PartnerEntryTypeCODRemittance.Direction() != EntryDirectionTransfer {
		t.Fatal("cod_remittance should be a transfer")
	}
}

func TestParseSellerEntryType(t *testing.T) {
	parsed, err := ParseSellerEntryType("rto_charge")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if parsed != SellerEntryTypeRTOCharge {
		t.Fatalf("unexpected value %q", parsed)
	}
	if _, err := ParseSellerEntryType("payout"); err == nil {
		t.Fatal("partner-only type should not parse as seller type")
	}
}

func TestSettlementCadenceDays(t *testing.T) {
	cases := map[SellerTier]int{
		SellerTierBronze: 7,
		SellerTierSilver: 5,
		SellerTierGold:   3,
	}
	for tier, want := range cases {
		if got := tier.SettlementCadenceDays(); got != want {
			t.Fatalf("%s cadence = %d, want %d", tier, got, want)
		}
	}
}
