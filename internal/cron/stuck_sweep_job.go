package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/fastfare/fastfare-backend/pkg/logger"
)

const defaultStuckThreshold = 24 * time.Hour

type stuckSettlementSweeper interface {
	SweepStuck(ctx context.Context, threshold time.Duration) (int, error)
}

type stuckWithdrawalAlerter interface {
	AlertStuck(ctx context.Context, threshold time.Duration) (int, error)
}

// StuckSweepJobParams configures the stuck-processing watchdog.
type StuckSweepJobParams struct {
	Logger      *logger.Logger
	Settlement  stuckSettlementSweeper
	Withdrawals stuckWithdrawalAlerter
	Threshold   time.Duration
}

// NewStuckSweepJob constructs the watchdog over rows parked in processing.
// Stuck settlement batches are re-queued; stuck withdrawals hold a possibly
// in-flight provider transfer, so they are only surfaced for an operator.
func NewStuckSweepJob(params StuckSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Withdrawals == nil {
		return nil, fmt.Errorf("withdrawal service required")
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = defaultStuckThreshold
	}
	return &stuckSweepJob{
		logg:        params.Logger,
		settlement:  params.Settlement,
		withdrawals: params.Withdrawals,
		threshold:   threshold,
	}, nil
}

type stuckSweepJob struct {
	logg        *logger.Logger
	settlement  stuckSettlementSweeper
	withdrawals stuckWithdrawalAlerter
	threshold   time.Duration
}

func (j *stuckSweepJob) Name() string { return "stuck-processing-sweep" }

func (j *stuckSweepJob) Run(ctx context.Context) error {
	var errs []error

	requeued, err := j.settlement.SweepStuck(ctx, j.threshold)
	if err != nil {
		errs = append(errs, fmt.Errorf("settlement sweep: %w", err))
	}
	alerted, err := j.withdrawals.AlertStuck(ctx, j.threshold)
	if err != nil {
		errs = append(errs, fmt.Errorf("withdrawal sweep: %w", err))
	}
	if len(errs) > 0 {
		return multierr.Combine(errs...)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batches_requeued":    requeued,
		"withdrawals_alerted": alerted,
		"threshold":           j.threshold.String(),
	})
	j.logg.Info(logCtx, "stuck processing sweep complete")
	return nil
}
