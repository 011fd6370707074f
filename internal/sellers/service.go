package sellers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/logger"
)

// ServiceParams groups dependencies for the seller stats read service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
	Now    func() time.Time
}

// Service serves read projections of the seller aggregate.
type Service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires a seller stats service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("sellers repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{repo: params.Repo, logg: params.Logger, now: now}, nil
}

// GetStats returns the seller aggregate with any due monthly rollover applied
// to the view. The rollover is not persisted here; the monthly reset job and
// the next balance write both roll the stored row forward on their own.
func (s *Service) GetStats(ctx context.Context, sellerID uuid.UUID) (*StatsView, error) {
	stats, err := s.repo.Get(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	RolloverIfDue(stats, s.now())
	view := NewStatsView(stats)
	return &view, nil
}
