package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

const monthlyResetBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MonthlyResetJobParams configures the seller counter rollover sweep.
type MonthlyResetJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Sellers sellers.Repository
}

// NewMonthlyResetJob constructs the job that rolls stale monthly counters.
// Rollover also happens lazily on every read; this sweep catches sellers
// with no traffic so their tier inputs do not go stale.
func NewMonthlyResetJob(params MonthlyResetJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Sellers == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	return &monthlyResetJob{
		logg:    params.Logger,
		db:      params.DB,
		sellers: params.Sellers,
		now:     time.Now,
	}, nil
}

type monthlyResetJob struct {
	logg    *logger.Logger
	db      txRunner
	sellers sellers.Repository
	now     func() time.Time
}

func (j *monthlyResetJob) Name() string { return "monthly-reset" }

func (j *monthlyResetJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	reset, failed := 0, 0

	for {
		batch, err := j.sellers.ListWithResetBefore(ctx, now, monthlyResetBatchSize)
		if err != nil {
			return fmt.Errorf("list stale sellers: %w", err)
		}

		progressed := 0
		for i := range batch {
			sellerID := batch[i].SellerID
			err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
				repo := j.sellers.WithTx(tx)
				stats, err := repo.Get(ctx, sellerID)
				if err != nil {
					return err
				}
				if !sellers.RolloverIfDue(stats, now) {
					return nil
				}
				return repo.UpdateVersioned(ctx, stats)
			})
			if err != nil {
				failed++
				logCtx := j.logg.WithField(ctx, "seller_id", sellerID.String())
				j.logg.Error(logCtx, "monthly rollover failed for seller", err)
				continue
			}
			progressed++
		}
		reset += progressed

		if len(batch) < monthlyResetBatchSize || progressed == 0 {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sellers_reset":  reset,
		"sellers_failed": failed,
	})
	j.logg.Info(logCtx, "monthly counter reset complete")
	if failed > 0 {
		return fmt.Errorf("monthly reset: %d sellers failed", failed)
	}
	return nil
}
