package cron

import (
	"context"
	"fmt"

	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type settlementProcessor interface {
	Process(ctx context.Context) (*settlement.ProcessReport, error)
}

// SettlementProcessJobParams configures the scheduled batch payout run.
type SettlementProcessJobParams struct {
	Logger     *logger.Logger
	Settlement settlementProcessor
}

// NewSettlementProcessJob constructs the job that pays out due batches.
func NewSettlementProcessJob(params SettlementProcessJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	return &settlementProcessJob{
		logg:       params.Logger,
		settlement: params.Settlement,
	}, nil
}

type settlementProcessJob struct {
	logg       *logger.Logger
	settlement settlementProcessor
}

func (j *settlementProcessJob) Name() string { return "settlement-process" }

func (j *settlementProcessJob) Run(ctx context.Context) error {
	report, err := j.settlement.Process(ctx)
	if err != nil {
		return fmt.Errorf("settlement process: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batches_completed": report.Completed,
		"batches_failed":    report.Failed,
	})
	j.logg.Info(logCtx, "settlement run complete")
	if report.Failed > 0 {
		j.logg.Warn(logCtx, "some settlement batches failed and will retry")
	}
	return nil
}
