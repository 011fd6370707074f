package cron

import (
	"context"
	"fmt"

	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type tierEvaluator interface {
	EvaluateAll(ctx context.Context) (int, error)
}

// TierEvaluationJobParams configures the fleet-wide tier sweep.
type TierEvaluationJobParams struct {
	Logger *logger.Logger
	Tier   tierEvaluator
}

// NewTierEvaluationJob constructs the job that re-grades every seller.
func NewTierEvaluationJob(params TierEvaluationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Tier == nil {
		return nil, fmt.Errorf("tier service required")
	}
	return &tierEvaluationJob{
		logg: params.Logger,
		tier: params.Tier,
	}, nil
}

type tierEvaluationJob struct {
	logg *logger.Logger
	tier tierEvaluator
}

func (j *tierEvaluationJob) Name() string { return "tier-evaluation" }

func (j *tierEvaluationJob) Run(ctx context.Context) error {
	evaluated, err := j.tier.EvaluateAll(ctx)
	if err != nil {
		return fmt.Errorf("tier evaluation: %w", err)
	}
	logCtx := j.logg.WithField(ctx, "sellers_evaluated", evaluated)
	j.logg.Info(logCtx, "tier evaluation sweep complete")
	return nil
}
