package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// DefaultWriteRetries bounds the optimistic-lock retry loop.
const DefaultWriteRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SellerStatsDelta carries counter adjustments applied atomically with an entry.
type SellerStatsDelta struct {
	TotalOrders            int
	DeliveredOrders        int
	RTOOrders              int
	GrossRevenuePaise      int64
	TotalPlatformFeesPaise int64
	TotalRTOChargesPaise   int64
}

// RecordSellerEntryInput captures the immutable data a seller entry requires.
type RecordSellerEntryInput struct {
	SellerID     uuid.UUID
	OrderID      *uuid.UUID
	SettlementID *uuid.UUID
	Type         enums.SellerEntryType
	AmountPaise  int64
	Description  string
	StatsDelta   *SellerStatsDelta
	Actor        *outbox.ActorRef
}

// RecordPartnerEntryInput captures the immutable data a partner entry requires.
type RecordPartnerEntryInput struct {
	PartnerID       uuid.UUID
	OrderID         *uuid.UUID
	Type            enums.PartnerEntryType
	AmountPaise     int64
	Description     string
	PayoutReference *string
	Actor           *outbox.ActorRef
}

// ReplayMismatch describes one entry whose snapshots disagree with replay.
type ReplayMismatch struct {
	EntryID  uuid.UUID
	Field    string
	Expected int64
	Actual   int64
}

// ReplayReport is the result of re-deriving balances from the entry history.
type ReplayReport struct {
	Consistent bool
	Mismatches []ReplayMismatch
}

// ServiceParams groups dependencies for the ledger service.
type ServiceParams struct {
	Repo         Repository
	Sellers      sellers.Repository
	Partners     partners.Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Logger       *logger.Logger
	WriteRetries int
	Now          func() time.Time
}

// Service is the single write path for seller and partner ledger entries.
type Service struct {
	repo         Repository
	sellers      sellers.Repository
	partners     partners.Repository
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	writeRetries int
	now          func() time.Time
}

// NewService wires a ledger service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("ledger repository required")
	}
	if params.Sellers == nil {
		return nil, errors.New("sellers repository required")
	}
	if params.Partners == nil {
		return nil, errors.New("partners repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	retries := params.WriteRetries
	if retries <= 0 {
		retries = DefaultWriteRetries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         params.Repo,
		sellers:      params.Sellers,
		partners:     params.Partners,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
		writeRetries: retries,
		now:          now,
	}, nil
}

// RecordSellerEntry appends one seller entry, retrying on concurrent writes.
func (s *Service) RecordSellerEntry(ctx context.Context, input RecordSellerEntryInput) (*models.SellerLedgerEntry, error) {
	var entry *models.SellerLedgerEntry
	err := s.retryStale(ctx, "seller", input.SellerID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var innerErr error
			entry, innerErr = s.RecordSellerEntryTx(ctx, tx, input)
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordSellerEntryTx appends one seller entry inside the caller's transaction.
// The caller owns retry on STALE_BALANCE_WRITE.
func (s *Service) RecordSellerEntryTx(ctx context.Context, tx *gorm.DB, input RecordSellerEntryInput) (*models.SellerLedgerEntry, error) {
	if err := validateSellerInput(input); err != nil {
		return nil, err
	}

	sellerRepo := s.sellers.WithTx(tx)
	stats, err := sellerRepo.Get(ctx, input.SellerID)
	if err != nil {
		return nil, err
	}
	sellers.RolloverIfDue(stats, s.now())

	snapshot, err := applySellerEntry(stats, input.Type, input.AmountPaise)
	if err != nil {
		return nil, err
	}
	if delta := input.StatsDelta; delta != nil {
		stats.TotalOrders += delta.TotalOrders
		stats.DeliveredOrders += delta.DeliveredOrders
		stats.RTOOrders += delta.RTOOrders
		stats.MonthlyOrders += delta.TotalOrders
		stats.MonthlyDelivered += delta.DeliveredOrders
		stats.MonthlyRTO += delta.RTOOrders
		stats.GrossRevenuePaise += delta.GrossRevenuePaise
		stats.TotalPlatformFeesPaise += delta.TotalPlatformFeesPaise
		stats.TotalRTOChargesPaise += delta.TotalRTOChargesPaise
	}

	entry := &models.SellerLedgerEntry{
		ID:                   uuid.New(),
		SellerID:             input.SellerID,
		OrderID:              input.OrderID,
		SettlementID:         input.SettlementID,
		Type:                 input.Type,
		AmountPaise:          input.AmountPaise,
		Description:          input.Description,
		PendingBeforePaise:   snapshot.PendingBefore,
		PendingAfterPaise:    snapshot.PendingAfter,
		AvailableBeforePaise: snapshot.AvailableBefore,
		AvailableAfterPaise:  snapshot.AvailableAfter,
	}
	if err := s.repo.WithTx(tx).CreateSellerEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := sellerRepo.UpdateVersioned(ctx, stats); err != nil {
		return nil, err
	}

	if input.Type == enums.SellerEntryTypeEarning && input.OrderID != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventEarningRecorded,
			AggregateType: enums.AggregateLedgerEntry,
			AggregateID:   entry.ID,
			Actor:         input.Actor,
			Version:       1,
			Data: payloads.EarningRecordedEvent{
				SellerID:    input.SellerID,
				OrderID:     *input.OrderID,
				AmountPaise: input.AmountPaise,
				EntryID:     entry.ID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// RecordPartnerEntry appends one partner entry, retrying on concurrent writes.
func (s *Service) RecordPartnerEntry(ctx context.Context, input RecordPartnerEntryInput) (*models.PartnerLedgerEntry, error) {
	var entry *models.PartnerLedgerEntry
	err := s.retryStale(ctx, "partner", input.PartnerID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var innerErr error
			entry, innerErr = s.RecordPartnerEntryTx(ctx, tx, input)
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RecordPartnerEntryTx appends one partner entry inside the caller's transaction.
func (s *Service) RecordPartnerEntryTx(ctx context.Context, tx *gorm.DB, input RecordPartnerEntryInput) (*models.PartnerLedgerEntry, error) {
	if err := validatePartnerInput(input); err != nil {
		return nil, err
	}

	partnerRepo := s.partners.WithTx(tx)
	balance, err := partnerRepo.Get(ctx, input.PartnerID)
	if err != nil {
		return nil, err
	}

	snapshot, err := applyPartnerEntry(balance, input.Type, input.AmountPaise)
	if err != nil {
		return nil, err
	}

	entry := &models.PartnerLedgerEntry{
		ID:                 uuid.New(),
		PartnerID:          input.PartnerID,
		OrderID:            input.OrderID,
		Type:               input.Type,
		AmountPaise:        input.AmountPaise,
		Description:        input.Description,
		BalanceBeforePaise: snapshot.BalanceBefore,
		BalanceAfterPaise:  snapshot.BalanceAfter,
		PayoutReference:    input.PayoutReference,
	}
	if err := s.repo.WithTx(tx).CreatePartnerEntry(ctx, entry); err != nil {
		return nil, err
	}
	if err := partnerRepo.UpdateVersioned(ctx, balance); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListSellerLedger returns a seller's entries newest first with a next cursor.
func (s *Service) ListSellerLedger(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SellerLedgerEntry, *pagination.Cursor, error) {
	if sellerID == uuid.Nil {
		return nil, nil, errorsx.New(errorsx.CodeValidation, "seller id is required")
	}
	return s.repo.ListSellerEntries(ctx, sellerID, params)
}

// ListPartnerLedger returns a partner's entries newest first with a next cursor.
func (s *Service) ListPartnerLedger(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.PartnerLedgerEntry, *pagination.Cursor, error) {
	if partnerID == uuid.Nil {
		return nil, nil, errorsx.New(errorsx.CodeValidation, "partner id is required")
	}
	return s.repo.ListPartnerEntries(ctx, partnerID, params)
}

// HasSellerEntryForOrder reports whether an entry of the given type already
// exists for the order, backing consumer idempotency.
func (s *Service) HasSellerEntryForOrder(ctx context.Context, sellerID, orderID uuid.UUID, entryType enums.SellerEntryType) (bool, error) {
	if sellerID == uuid.Nil || orderID == uuid.Nil {
		return false, errorsx.New(errorsx.CodeValidation, "seller id and order id are required")
	}
	return s.repo.HasSellerEntryForOrder(ctx, sellerID, orderID, entryType)
}

// VerifySellerBalances replays a seller's entry history and reports snapshot gaps.
func (s *Service) VerifySellerBalances(ctx context.Context, sellerID uuid.UUID) (*ReplayReport, error) {
	entries, err := s.repo.ListAllSellerEntriesAsc(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	report := &ReplayReport{Consistent: true}
	var pending, available int64
	for _, entry := range entries {
		if entry.PendingBeforePaise != pending {
			report.addMismatch(entry.ID, "pending_before_paise", pending, entry.PendingBeforePaise)
		}
		if entry.AvailableBeforePaise != available {
			report.addMismatch(entry.ID, "available_before_paise", available, entry.AvailableBeforePaise)
		}
		pending = entry.PendingAfterPaise
		available = entry.AvailableAfterPaise
	}
	return report, nil
}

// VerifyPartnerBalances replays a partner's entry history and reports snapshot gaps.
func (s *Service) VerifyPartnerBalances(ctx context.Context, partnerID uuid.UUID) (*ReplayReport, error) {
	entries, err := s.repo.ListAllPartnerEntriesAsc(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	report := &ReplayReport{Consistent: true}
	var balance int64
	for _, entry := range entries {
		if entry.BalanceBeforePaise != balance {
			report.addMismatch(entry.ID, "balance_before_paise", balance, entry.BalanceBeforePaise)
		}
		balance = entry.BalanceAfterPaise
	}
	return report, nil
}

func (r *ReplayReport) addMismatch(entryID uuid.UUID, field string, expected, actual int64) {
	r.Consistent = false
	r.Mismatches = append(r.Mismatches, ReplayMismatch{
		EntryID:  entryID,
		Field:    field,
		Expected: expected,
		Actual:   actual,
	})
}

func (s *Service) retryStale(ctx context.Context, actorKind string, actorID uuid.UUID, fn func() error) error {
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
				"actor_kind": actorKind,
				"actor_id":   actorID.String(),
				"attempt":    attempt,
			})
			s.logg.Warn(logCtx, "ledger write conflicted, retrying")
		}
	}
	return err
}

func validateSellerInput(input RecordSellerEntryInput) error {
	if input.SellerID == uuid.Nil {
		return errorsx.New(errorsx.CodeValidation, "seller id is required")
	}
	if !input.Type.IsValid() {
		return errorsx.New(errorsx.CodeInvalidEntryType,
			fmt.Sprintf("invalid seller entry type %q", input.Type))
	}
	if input.AmountPaise <= 0 {
		return errorsx.New(errorsx.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return errorsx.New(errorsx.CodeValidation, "description is required")
	}
	return nil
}

func validatePartnerInput(input RecordPartnerEntryInput) error {
	if input.PartnerID == uuid.Nil {
		return errorsx.New(errorsx.CodeValidation, "partner id is required")
	}
	if !input.Type.IsValid() {
		return errorsx.New(errorsx.CodeInvalidEntryType,
			fmt.Sprintf("invalid partner entry type %q", input.Type))
	}
	if input.AmountPaise <= 0 {
		return errorsx.New(errorsx.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return errorsx.New(errorsx.CodeValidation, "description is required")
	}
	return nil
}
