package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerWriter interface {
	RecordSellerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordSellerEntryInput) (*models.SellerLedgerEntry, error)
}

// TriggerInput attaches one delivered order's earning to a settlement cycle.
type TriggerInput struct {
	SellerID    uuid.UUID
	OrderID     uuid.UUID
	AmountPaise int64
	DeliveredAt time.Time
}

// ProcessReport summarizes one process() sweep.
type ProcessReport struct {
	Completed int
	Failed    int
}

// ServiceParams groups dependencies for the settlement scheduler.
type ServiceParams struct {
	Repo              Repository
	Sellers           sellers.Repository
	Ledger            ledgerWriter
	Tx                txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
	EligibilityWindow time.Duration
	MaxRetries        int
	WriteRetries      int
	Now               func() time.Time
}

// Service batches settlement-eligible orders per seller and processes due
// batches into settlement ledger entries.
type Service struct {
	repo              Repository
	sellers           sellers.Repository
	ledger            ledgerWriter
	tx                txRunner
	outbox            outboxPublisher
	logg              *logger.Logger
	eligibilityWindow time.Duration
	maxRetries        int
	writeRetries      int
	now               func() time.Time
}

// NewService wires a settlement service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("settlement repository required")
	}
	if params.Sellers == nil {
		return nil, errors.New("sellers repository required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger writer required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	if params.EligibilityWindow < 0 {
		return nil, errors.New("eligibility window must not be negative")
	}
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	writeRetries := params.WriteRetries
	if writeRetries <= 0 {
		writeRetries = ledger.DefaultWriteRetries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:              params.Repo,
		sellers:           params.Sellers,
		ledger:            params.Ledger,
		tx:                params.Tx,
		outbox:            params.Outbox,
		logg:              params.Logger,
		eligibilityWindow: params.EligibilityWindow,
		maxRetries:        maxRetries,
		writeRetries:      writeRetries,
		now:               now,
	}, nil
}

// Trigger attaches a delivered order to the seller's open settlement batch,
// creating one dated at the next cycle boundary when none is open.
func (s *Service) Trigger(ctx context.Context, input TriggerInput) (*models.SettlementSchedule, error) {
	var schedule *models.SettlementSchedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var innerErr error
		schedule, innerErr = s.TriggerTx(ctx, tx, input)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// TriggerTx is Trigger inside the caller's transaction.
func (s *Service) TriggerTx(ctx context.Context, tx *gorm.DB, input TriggerInput) (*models.SettlementSchedule, error) {
	if input.SellerID == uuid.Nil || input.OrderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "seller id and order id are required")
	}
	if input.AmountPaise <= 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "amount must be positive")
	}

	repo := s.repo.WithTx(tx)
	member, err := repo.HasActiveMembership(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, errorsx.New(errorsx.CodeDuplicateMembership, "order already belongs to an active settlement batch")
	}

	stats, err := s.sellers.WithTx(tx).Get(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}

	deliveredAt := input.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = s.now()
	}
	eligibleAt := deliveredAt.Add(s.eligibilityWindow)

	schedule, err := repo.FindOpenSchedule(ctx, input.SellerID, eligibleAt)
	if err != nil {
		if !errorsx.HasCode(err, errorsx.CodeNotFound) {
			return nil, err
		}
		schedule = &models.SettlementSchedule{
			ID:             uuid.New(),
			SellerID:       input.SellerID,
			Tier:           stats.CurrentTier,
			SettlementDate: nextCycleDate(eligibleAt, stats.CurrentTier),
			Status:         enums.SettlementStatusScheduled,
		}
		if err := repo.CreateSchedule(ctx, schedule); err != nil {
			return nil, err
		}
	}

	if err := repo.AddOrder(ctx, &models.SettlementOrder{
		ID:          uuid.New(),
		ScheduleID:  schedule.ID,
		SellerID:    input.SellerID,
		OrderID:     input.OrderID,
		AmountPaise: input.AmountPaise,
		Active:      true,
	}); err != nil {
		return nil, err
	}

	schedule.TotalAmountPaise += input.AmountPaise
	schedule.OrderCount++
	if err := repo.UpdateTransitioned(ctx, schedule, enums.SettlementStatusScheduled); err != nil {
		return nil, err
	}

	if schedule.OrderCount == 1 {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementScheduled,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   schedule.ID,
			Version:       1,
			Data: payloads.SettlementScheduledEvent{
				ScheduleID:       schedule.ID,
				SellerID:         schedule.SellerID,
				Tier:             schedule.Tier,
				TotalAmountPaise: schedule.TotalAmountPaise,
				OrderCount:       schedule.OrderCount,
				SettlementDate:   schedule.SettlementDate,
			},
		}); err != nil {
			return nil, err
		}
	}
	return schedule, nil
}

// Process settles all due batches plus failed batches with retry budget left.
// Per-batch failures are recorded in place and never abort the sweep.
func (s *Service) Process(ctx context.Context) (*ProcessReport, error) {
	now := s.now()
	due, err := s.repo.ListDue(ctx, now, 0)
	if err != nil {
		return nil, err
	}
	retryable, err := s.repo.ListFailedRetryable(ctx, s.maxRetries, 0)
	if err != nil {
		return nil, err
	}

	report := &ProcessReport{}
	for _, schedule := range append(due, retryable...) {
		if err := s.processOne(ctx, schedule); err != nil {
			report.Failed++
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"schedule_id": schedule.ID.String(),
					"seller_id":   schedule.SellerID.String(),
				})
				s.logg.Error(logCtx, "settlement batch failed", err)
			}
			continue
		}
		report.Completed++
	}
	return report, nil
}

func (s *Service) processOne(ctx context.Context, schedule models.SettlementSchedule) error {
	from := schedule.Status
	now := s.now()
	schedule.Status = enums.SettlementStatusProcessing
	schedule.ProcessingAt = &now
	if err := s.repo.UpdateTransitioned(ctx, &schedule, from); err != nil {
		return err
	}

	err := s.retryStale(ctx, schedule.SellerID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.completeTx(ctx, tx, schedule)
		})
	})
	if err != nil {
		return s.markFailed(ctx, schedule, err)
	}
	return nil
}

func (s *Service) completeTx(ctx context.Context, tx *gorm.DB, schedule models.SettlementSchedule) error {
	scheduleID := schedule.ID
	if _, err := s.ledger.RecordSellerEntryTx(ctx, tx, ledger.RecordSellerEntryInput{
		SellerID:     schedule.SellerID,
		SettlementID: &scheduleID,
		Type:         enums.SellerEntryTypeSettlement,
		AmountPaise:  schedule.TotalAmountPaise,
		Description:  fmt.Sprintf("settlement batch %s (%d orders)", scheduleID, schedule.OrderCount),
	}); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	if err := repo.DeactivateOrders(ctx, scheduleID); err != nil {
		return err
	}

	now := s.now()
	schedule.Status = enums.SettlementStatusCompleted
	schedule.CompletedAt = &now
	schedule.FailureReason = nil
	if err := repo.UpdateTransitioned(ctx, &schedule, enums.SettlementStatusProcessing); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSettlementCompleted,
		AggregateType: enums.AggregateSettlement,
		AggregateID:   scheduleID,
		Version:       1,
		Data: payloads.SettlementCompletedEvent{
			ScheduleID:       scheduleID,
			SellerID:         schedule.SellerID,
			TotalAmountPaise: schedule.TotalAmountPaise,
			OrderCount:       schedule.OrderCount,
			CompletedAt:      now,
		},
	})
}

func (s *Service) markFailed(ctx context.Context, schedule models.SettlementSchedule, cause error) error {
	reason := cause.Error()
	schedule.Status = enums.SettlementStatusFailed
	schedule.FailureReason = &reason
	schedule.RetryCount++
	if err := s.repo.UpdateTransitioned(ctx, &schedule, enums.SettlementStatusProcessing); err != nil {
		return errors.Join(cause, err)
	}

	emitErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSettlementFailed,
			AggregateType: enums.AggregateSettlement,
			AggregateID:   schedule.ID,
			Version:       1,
			Data: payloads.SettlementFailedEvent{
				ScheduleID:    schedule.ID,
				SellerID:      schedule.SellerID,
				FailureReason: reason,
				RetryCount:    schedule.RetryCount,
				WillRetry:     schedule.RetryCount < s.maxRetries,
			},
		})
	})
	if emitErr != nil {
		return errors.Join(cause, emitErr)
	}
	return cause
}

// HoldTx freezes a scheduled batch inside the caller's transaction. Held
// batches are skipped by Process until released.
func (s *Service) HoldTx(ctx context.Context, tx *gorm.DB, scheduleID, adminID uuid.UUID, reason string) (*models.SettlementSchedule, error) {
	if reason == "" {
		return nil, errorsx.New(errorsx.CodeValidation, "hold reason is required")
	}
	repo := s.repo.WithTx(tx)
	schedule, err := repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status != enums.SettlementStatusScheduled {
		return nil, errorsx.New(errorsx.CodeStateConflict,
			fmt.Sprintf("cannot hold settlement in status %q", schedule.Status))
	}

	now := s.now()
	schedule.Status = enums.SettlementStatusHeld
	schedule.HoldReason = &reason
	schedule.HeldAt = &now
	if err := repo.UpdateTransitioned(ctx, schedule, enums.SettlementStatusScheduled); err != nil {
		return nil, err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSettlementHeld,
		AggregateType: enums.AggregateSettlement,
		AggregateID:   schedule.ID,
		Version:       1,
		Data: payloads.SettlementHeldEvent{
			ScheduleID: schedule.ID,
			SellerID:   schedule.SellerID,
			AdminID:    adminID,
			HoldReason: reason,
			HeldAt:     now,
		},
	}); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ReleaseTx returns a held batch to the queue, or re-queues a failed batch
// that exhausted its retries. Resets the retry budget either way.
func (s *Service) ReleaseTx(ctx context.Context, tx *gorm.DB, scheduleID, adminID uuid.UUID) (*models.SettlementSchedule, error) {
	repo := s.repo.WithTx(tx)
	schedule, err := repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	from := schedule.Status
	if from != enums.SettlementStatusHeld && from != enums.SettlementStatusFailed {
		return nil, errorsx.New(errorsx.CodeStateConflict,
			fmt.Sprintf("cannot release settlement in status %q", from))
	}

	now := s.now()
	schedule.Status = enums.SettlementStatusScheduled
	schedule.ReleasedAt = &now
	schedule.HoldReason = nil
	schedule.RetryCount = 0
	if err := repo.UpdateTransitioned(ctx, schedule, from); err != nil {
		return nil, err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSettlementReleased,
		AggregateType: enums.AggregateSettlement,
		AggregateID:   schedule.ID,
		Version:       1,
		Data: payloads.SettlementReleasedEvent{
			ScheduleID: schedule.ID,
			SellerID:   schedule.SellerID,
			AdminID:    adminID,
			ReleasedAt: now,
		},
	}); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Get returns one schedule by id.
func (s *Service) Get(ctx context.Context, scheduleID uuid.UUID) (*models.SettlementSchedule, error) {
	if scheduleID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "schedule id is required")
	}
	return s.repo.GetSchedule(ctx, scheduleID)
}

// SweepStuck logs processing batches older than threshold and re-queues them.
func (s *Service) SweepStuck(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := s.now().Add(-threshold)
	stuck, err := s.repo.ListStuckProcessing(ctx, cutoff, 0)
	if err != nil {
		return 0, err
	}
	requeued := 0
	for _, schedule := range stuck {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"schedule_id":   schedule.ID.String(),
				"seller_id":     schedule.SellerID.String(),
				"processing_at": schedule.ProcessingAt,
			})
			s.logg.Error(logCtx, "settlement batch stuck in processing, re-queueing", nil)
		}
		schedule.Status = enums.SettlementStatusScheduled
		schedule.ProcessingAt = nil
		if err := s.repo.UpdateTransitioned(ctx, &schedule, enums.SettlementStatusProcessing); err != nil {
			if errorsx.HasCode(err, errorsx.CodeStateConflict) {
				continue
			}
			return requeued, err
		}
		requeued++
	}
	return requeued, nil
}

// nextCycleDate aligns eligibility to the tier cadence: the first UTC
// midnight at or after eligibleAt plus the cadence length.
func nextCycleDate(eligibleAt time.Time, tier enums.SellerTier) time.Time {
	day := eligibleAt.UTC().Truncate(24 * time.Hour)
	if day.Before(eligibleAt.UTC()) {
		day = day.Add(24 * time.Hour)
	}
	return day.AddDate(0, 0, tier.SettlementCadenceDays())
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
			s.logg.Warn(logCtx, "settlement ledger write conflicted, retrying")
		}
	}
	return err
}
