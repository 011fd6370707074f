package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// Thresholds from the published seller tier table. RTO rate caps both
// upgrades at the same 15%.
const (
	GoldMinMonthlyOrders   = 800
	SilverMinMonthlyOrders = 300
)

var maxRTOPercent = decimal.NewFromInt(15)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams groups dependencies for the tier evaluator.
type ServiceParams struct {
	Repo         Repository
	Sellers      sellers.Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Logger       *logger.Logger
	WriteRetries int
	Now          func() time.Time
}

// Service recomputes seller tiers from trailing monthly metrics and keeps an
// unconditional audit log of every run.
type Service struct {
	repo         Repository
	sellers      sellers.Repository
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	writeRetries int
	now          func() time.Time
}

// NewService wires a tier service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("tier repository required")
	}
	if params.Sellers == nil {
		return nil, errors.New("sellers repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	retries := params.WriteRetries
	if retries <= 0 {
		retries = ledger.DefaultWriteRetries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         params.Repo,
		sellers:      params.Sellers,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
		writeRetries: retries,
		now:          now,
	}, nil
}

// Decide returns the tier the metric pair maps to. Upgrades and downgrades
// are both in play; the evaluator is not ratchet-only.
func Decide(monthlyOrders int, rtoPercent decimal.Decimal) enums.SellerTier {
	if rtoPercent.GreaterThan(maxRTOPercent) {
		return enums.SellerTierBronze
	}
	switch {
	case monthlyOrders >= GoldMinMonthlyOrders:
		return enums.SellerTierGold
	case monthlyOrders >= SilverMinMonthlyOrders:
		return enums.SellerTierSilver
	default:
		return enums.SellerTierBronze
	}
}

// RTOPercent computes the monthly RTO rate as a percentage with two decimal
// places. Zero orders means zero percent.
func RTOPercent(monthlyOrders, monthlyRTO int) decimal.Decimal {
	if monthlyOrders <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(monthlyRTO)).
		Div(decimal.NewFromInt(int64(monthlyOrders))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// Evaluate recomputes one seller's tier and appends an evaluation log row.
func (s *Service) Evaluate(ctx context.Context, sellerID uuid.UUID) (*models.TierEvaluationLog, error) {
	return s.evaluate(ctx, sellerID, true, nil)
}

// EvaluateManual is an admin-triggered run; the log row carries the admin id
// and is never flagged as an auto upgrade.
func (s *Service) EvaluateManual(ctx context.Context, sellerID, adminID uuid.UUID) (*models.TierEvaluationLog, error) {
	if adminID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "admin id is required")
	}
	return s.evaluate(ctx, sellerID, false, &adminID)
}

func (s *Service) evaluate(ctx context.Context, sellerID uuid.UUID, auto bool, triggeredBy *uuid.UUID) (*models.TierEvaluationLog, error) {
	if sellerID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "seller id is required")
	}

	var log *models.TierEvaluationLog
	err := s.retryStale(ctx, sellerID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			sellerRepo := s.sellers.WithTx(tx)
			stats, err := sellerRepo.Get(ctx, sellerID)
			if err != nil {
				return err
			}
			rolled := sellers.RolloverIfDue(stats, s.now())

			rtoPercent := RTOPercent(stats.MonthlyOrders, stats.MonthlyRTO)
			newTier := Decide(stats.MonthlyOrders, rtoPercent)
			previous := stats.CurrentTier
			changed := newTier != previous

			log = &models.TierEvaluationLog{
				ID:               uuid.New(),
				SellerID:         sellerID,
				PreviousTier:     previous,
				NewTier:          newTier,
				MonthlyOrders:    stats.MonthlyOrders,
				MonthlyDelivered: stats.MonthlyDelivered,
				MonthlyRTO:       stats.MonthlyRTO,
				RTOPercent:       rtoPercent,
				Reason:           evaluationReason(stats.MonthlyOrders, rtoPercent, previous, newTier),
				AutoUpgrade:      auto,
				TriggeredBy:      triggeredBy,
			}
			if err := s.repo.WithTx(tx).CreateLog(ctx, log); err != nil {
				return err
			}

			if changed || rolled {
				if changed {
					now := s.now()
					stats.CurrentTier = newTier
					stats.TierUpdatedAt = &now
				}
				if err := sellerRepo.UpdateVersioned(ctx, stats); err != nil {
					return err
				}
			}
			if !changed {
				return nil
			}

			var actor *outbox.ActorRef
			if triggeredBy != nil {
				actor = &outbox.ActorRef{MemberID: *triggeredBy, Role: enums.MemberRoleAdmin.String()}
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventTierChanged,
				AggregateType: enums.AggregateSeller,
				AggregateID:   sellerID,
				Actor:         actor,
				Version:       1,
				Data: payloads.TierChangedEvent{
					SellerID:          sellerID,
					PreviousTier:      previous,
					NewTier:           newTier,
					MonthlyOrderCount: stats.MonthlyOrders,
					MonthlyGMVPaise:   stats.GrossRevenuePaise,
					RTOPercent:        rtoPercent.String(),
					AutoUpgrade:       auto,
					Reason:            log.Reason,
				},
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// OverrideTierTx pins a seller to a tier inside the caller's transaction,
// bypassing the decision table. The admin override flow owns the audit row
// in admin_overrides; the evaluation log still records the forced move.
func (s *Service) OverrideTierTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, newTier enums.SellerTier, adminID uuid.UUID, reason string) (*models.TierEvaluationLog, error) {
	if !newTier.IsValid() {
		return nil, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid seller tier %q", newTier))
	}
	if reason == "" {
		return nil, errorsx.New(errorsx.CodeValidation, "override reason is required")
	}

	sellerRepo := s.sellers.WithTx(tx)
	stats, err := sellerRepo.Get(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	previous := stats.CurrentTier

	now := s.now()
	stats.CurrentTier = newTier
	stats.TierUpdatedAt = &now
	if err := sellerRepo.UpdateVersioned(ctx, stats); err != nil {
		return nil, err
	}

	log := &models.TierEvaluationLog{
		ID:               uuid.New(),
		SellerID:         sellerID,
		PreviousTier:     previous,
		NewTier:          newTier,
		MonthlyOrders:    stats.MonthlyOrders,
		MonthlyDelivered: stats.MonthlyDelivered,
		MonthlyRTO:       stats.MonthlyRTO,
		RTOPercent:       RTOPercent(stats.MonthlyOrders, stats.MonthlyRTO),
		Reason:           reason,
		AutoUpgrade:      false,
		TriggeredBy:      &adminID,
	}
	if err := s.repo.WithTx(tx).CreateLog(ctx, log); err != nil {
		return nil, err
	}

	if previous == newTier {
		return log, nil
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTierChanged,
		AggregateType: enums.AggregateSeller,
		AggregateID:   sellerID,
		Actor:         &outbox.ActorRef{MemberID: adminID, Role: enums.MemberRoleAdmin.String()},
		Version:       1,
		Data: payloads.TierChangedEvent{
			SellerID:          sellerID,
			PreviousTier:      previous,
			NewTier:           newTier,
			MonthlyOrderCount: stats.MonthlyOrders,
			MonthlyGMVPaise:   stats.GrossRevenuePaise,
			RTOPercent:        log.RTOPercent.String(),
			AutoUpgrade:       false,
			Reason:            reason,
		},
	}); err != nil {
		return nil, err
	}
	return log, nil
}

// EvaluateAll sweeps every seller in primary-key order. Per-seller failures
// are logged and skipped so one bad row cannot stall the run.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	evaluated := 0
	after := uuid.Nil
	for {
		batch, err := s.sellers.ListAfter(ctx, after, 0)
		if err != nil {
			return evaluated, err
		}
		if len(batch) == 0 {
			return evaluated, nil
		}
		for _, stats := range batch {
			if _, err := s.Evaluate(ctx, stats.SellerID); err != nil {
				if s.logg != nil {
					logCtx := s.logg.WithSellerID(ctx, stats.SellerID.String())
					s.logg.Error(logCtx, "tier evaluation failed", err)
				}
				continue
			}
			evaluated++
		}
		after = batch[len(batch)-1].SellerID
	}
}

// ListLogs returns a seller's evaluation history, newest first.
func (s *Service) ListLogs(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.TierEvaluationLog, *pagination.Cursor, error) {
	if sellerID == uuid.Nil {
		return nil, nil, errorsx.New(errorsx.CodeValidation, "seller id is required")
	}
	return s.repo.ListLogs(ctx, sellerID, params)
}

func evaluationReason(monthlyOrders int, rtoPercent decimal.Decimal, previous, next enums.SellerTier) string {
	verdict := "tier unchanged"
	if next != previous {
		verdict = fmt.Sprintf("tier %s -> %s", previous, next)
	}
	return fmt.Sprintf("monthly_orders=%d rto_percent=%s: %s", monthlyOrders, rtoPercent.String(), verdict)
}

func (s *Service) retryStale(ctx context.Context, sellerID uuid.UUID, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.writeRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !errorsx.HasCode(err, errorsx.CodeStaleBalanceWrite) {
			return err
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"seller_id": sellerID.String(),
				"attempt":   attempt,
			})
			s.logg.Warn(logCtx, "tier write conflicted, retrying")
		}
	}
	return err
}
