package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// RolloverIfDue zeroes the monthly counters when the reset date has passed
// and advances it by calendar months until it is in the future. Lifetime
// totals are untouched. Returns true when the aggregate was modified.
func RolloverIfDue(stats *models.SellerStats, now time.Time) bool {
	if stats == nil || stats.MonthlyResetDate.IsZero() {
		return false
	}
	if now.Before(stats.MonthlyResetDate) {
		return false
	}

	stats.MonthlyOrders = 0
	stats.MonthlyDelivered = 0
	stats.MonthlyRTO = 0
	for !now.Before(stats.MonthlyResetDate) {
		stats.MonthlyResetDate = stats.MonthlyResetDate.AddDate(0, 1, 0)
	}
	return true
}

// NewStats builds a zeroed bronze aggregate for a seller first seen at now.
// The first monthly reset lands on the first of the next calendar month.
func NewStats(sellerID uuid.UUID, now time.Time) *models.SellerStats {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return &models.SellerStats{
		SellerID:         sellerID,
		CurrentTier:      enums.SellerTierBronze,
		MonthlyResetDate: firstOfMonth.AddDate(0, 1, 0),
	}
}
