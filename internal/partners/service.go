package partners

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ServiceParams groups dependencies for the partner balance read service.
type ServiceParams struct {
	Repo Repository
}

// Service serves read projections of the partner aggregate.
type Service struct {
	repo Repository
}

// NewService wires a partner balance service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("partners repository required")
	}
	return &Service{repo: params.Repo}, nil
}

// GetBalance returns the partner aggregate in its API shape.
func (s *Service) GetBalance(ctx context.Context, partnerID uuid.UUID) (*BalanceView, error) {
	balance, err := s.repo.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	view := NewBalanceView(balance)
	return &view, nil
}
