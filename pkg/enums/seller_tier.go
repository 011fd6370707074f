package enums

import "fmt"

// SellerTier maps to the seller_tier_enum enum in Postgres.
type SellerTier string

const (
	SellerTierBronze SellerTier = "bronze"
	SellerTierSilver SellerTier = "silver"
	SellerTierGold   SellerTier = "gold"
)

var validSellerTiers = []SellerTier{
	SellerTierBronze,
	SellerTierSilver,
	SellerTierGold,
}

// String implements fmt.Stringer.
func (t SellerTier) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical seller tier enum.
func (t SellerTier) IsValid() bool {
	for _, candidate := range validSellerTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// SettlementCadenceDays returns the settlement cycle length for the tier.
func (t SellerTier) SettlementCadenceDays() int {
	switch t {
	case SellerTierGold:
		return 3
	case SellerTierSilver:
		return 5
	default:
		return 7
	}
}

// ParseSellerTier converts raw input into a SellerTier.
func ParseSellerTier(value string) (SellerTier, error) {
	for _, candidate := range validSellerTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller tier %q", value)
}
