package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type fakeSellersRepo struct {
	stats map[uuid.UUID]*models.SellerStats
}

func (f *fakeSellersRepo) WithTx(tx *gorm.DB) sellers.Repository { return f }

func (f *fakeSellersRepo) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerStats, error) {
	stats, ok := f.stats[sellerID]
	if !ok {
		return nil, errorsx.New(errorsx.CodeNotFound, "seller stats not found")
	}
	copied := *stats
	return &copied, nil
}

func (f *fakeSellersRepo) Create(ctx context.Context, stats *models.SellerStats) error {
	copied := *stats
	f.stats[stats.SellerID] = &copied
	return nil
}

func (f *fakeSellersRepo) UpdateVersioned(ctx context.Context, stats *models.SellerStats) error {
	copied := *stats
	copied.Version++
	f.stats[stats.SellerID] = &copied
	return nil
}

func (f *fakeSellersRepo) ListAfter(ctx context.Context, afterSellerID uuid.UUID, limit int) ([]models.SellerStats, error) {
	return nil, nil
}

func (f *fakeSellersRepo) ListWithResetBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SellerStats, error) {
	var rows []models.SellerStats
	for _, stats := range f.stats {
		if !stats.MonthlyResetDate.After(cutoff) {
			rows = append(rows, *stats)
		}
	}
	return rows, nil
}

type cronTestTxRunner struct{}

func (cronTestTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func TestMonthlyResetJobRollsStaleSellers(t *testing.T) {
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	staleID, freshID := uuid.New(), uuid.New()
	repo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{
		staleID: {
			SellerID:         staleID,
			MonthlyOrders:    240,
			MonthlyDelivered: 230,
			MonthlyRTO:       10,
			TotalOrders:      1900,
			MonthlyResetDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		freshID: {
			SellerID:         freshID,
			MonthlyOrders:    12,
			MonthlyResetDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	jobIface, err := NewMonthlyResetJob(MonthlyResetJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		DB:      cronTestTxRunner{},
		Sellers: repo,
	})
	if err != nil {
		t.Fatalf("NewMonthlyResetJob: %v", err)
	}
	job := jobIface.(*monthlyResetJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stale := repo.stats[staleID]
	if stale.MonthlyOrders != 0 || stale.MonthlyDelivered != 0 || stale.MonthlyRTO != 0 {
		t.Fatalf("monthly counters not zeroed: %+v", stale)
	}
	if stale.TotalOrders != 1900 {
		t.Fatalf("lifetime totals must survive rollover")
	}
	if !stale.MonthlyResetDate.After(now) {
		t.Fatalf("reset date not advanced: %s", stale.MonthlyResetDate)
	}
	if repo.stats[freshID].MonthlyOrders != 12 {
		t.Fatalf("fresh seller must be untouched")
	}
}
