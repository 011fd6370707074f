package cod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/outbox/payloads"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerWriter interface {
	RecordPartnerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordPartnerEntryInput) (*models.PartnerLedgerEntry, error)
}

// OpenInput seeds a pending collection when a COD order ships.
type OpenInput struct {
	OrderID             uuid.UUID
	SellerID            uuid.UUID
	PartnerID           uuid.UUID
	CODAmountPaise      int64
	ShippingChargePaise int64
	PlatformFeePaise    int64
	CODHandlingFeePaise int64
}

// CollectInput confirms cash received at the doorstep.
type CollectInput struct {
	OrderID              uuid.UUID
	CollectedAmountPaise int64
	Actor                *outbox.ActorRef
}

// ServiceParams groups dependencies for the COD reconciliation service.
type ServiceParams struct {
	Repo           Repository
	Ledger         ledgerWriter
	Tx             txRunner
	Outbox         outboxPublisher
	Logger         *logger.Logger
	TolerancePaise int64
	WriteRetries   int
	Now            func() time.Time
}

// Service drives per-order COD collections through their lifecycle and keeps
// the partner ledger in step with each cash movement.
type Service struct {
	repo         Repository
	ledger       ledgerWriter
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	tolerance    decimal.Decimal
	writeRetries int
	now          func() time.Time
}

// NewService wires a COD service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("cod repository required")
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
	if params.TolerancePaise < 0 {
		return nil, errors.New("cod tolerance must not be negative")
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
		ledger:       params.Ledger,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
		tolerance:    decimal.NewFromInt(params.TolerancePaise),
		writeRetries: retries,
		now:          now,
	}, nil
}

// OpenTx creates the pending collection row inside the caller's transaction.
// Called by the delivery consumer alongside the seller earning entry.
func (s *Service) OpenTx(ctx context.Context, tx *gorm.DB, input OpenInput) (*models.CODCollection, error) {
	if input.OrderID == uuid.Nil || input.SellerID == uuid.Nil || input.PartnerID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order, seller and partner ids are required")
	}
	if input.CODAmountPaise <= 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "cod amount must be positive")
	}
	collection := &models.CODCollection{
		ID:                  uuid.New(),
		OrderID:             input.OrderID,
		SellerID:            input.SellerID,
		PartnerID:           input.PartnerID,
		CODAmountPaise:      input.CODAmountPaise,
		ShippingChargePaise: input.ShippingChargePaise,
		PlatformFeePaise:    input.PlatformFeePaise,
		CODHandlingFeePaise: input.CODHandlingFeePaise,
		RemittanceStatus:    enums.RemittanceStatusPending,
	}
	if err := s.repo.WithTx(tx).Create(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Collect moves a collection pending→collected, records the collected amount
// and credits the partner's cod-held bucket.
func (s *Service) Collect(ctx context.Context, input CollectInput) (*models.CODCollection, error) {
	if input.OrderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order id is required")
	}
	if input.CollectedAmountPaise <= 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "collected amount must be positive")
	}

	var collection *models.CODCollection
	err := s.retryStale(ctx, input.OrderID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.repo.WithTx(tx).GetByOrderID(ctx, input.OrderID)
			if err != nil {
				return err
			}
			if err := requireTransition(current.RemittanceStatus, enums.RemittanceStatusCollected); err != nil {
				return err
			}

			now := s.now()
			amount := input.CollectedAmountPaise
			current.CollectedAmountPaise = &amount
			current.CollectedAt = &now
			current.RemittanceStatus = enums.RemittanceStatusCollected
			if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusPending); err != nil {
				return err
			}

			orderID := input.OrderID
			if _, err := s.ledger.RecordPartnerEntryTx(ctx, tx, ledger.RecordPartnerEntryInput{
				PartnerID:   current.PartnerID,
				OrderID:     &orderID,
				Type:        enums.PartnerEntryTypeCODCollection,
				AmountPaise: amount,
				Description: fmt.Sprintf("COD collected for order %s", orderID),
				Actor:       input.Actor,
			}); err != nil {
				return err
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCODCollected,
				AggregateType: enums.AggregateCODCollection,
				AggregateID:   current.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: payloads.CODCollectedEvent{
					CollectionID:         current.ID,
					OrderID:              current.OrderID,
					PartnerID:            current.PartnerID,
					SellerID:             current.SellerID,
					CollectedAmountPaise: amount,
					CollectedAt:          now,
				},
			}); err != nil {
				return err
			}
			collection = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// Remit moves a collection collected→remitted and shifts the partner's
// cod-held amount into spendable balance.
func (s *Service) Remit(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.CODCollection, error) {
	if orderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order id is required")
	}

	var collection *models.CODCollection
	err := s.retryStale(ctx, orderID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.repo.WithTx(tx).GetByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			if err := requireTransition(current.RemittanceStatus, enums.RemittanceStatusRemitted); err != nil {
				return err
			}
			if current.CollectedAmountPaise == nil {
				return errorsx.New(errorsx.CodeStateConflict, "collection has no recorded amount")
			}

			now := s.now()
			current.RemittedAt = &now
			current.RemittanceStatus = enums.RemittanceStatusRemitted
			if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusCollected); err != nil {
				return err
			}

			order := orderID
			if _, err := s.ledger.RecordPartnerEntryTx(ctx, tx, ledger.RecordPartnerEntryInput{
				PartnerID:   current.PartnerID,
				OrderID:     &order,
				Type:        enums.PartnerEntryTypeCODRemittance,
				AmountPaise: *current.CollectedAmountPaise,
				Description: fmt.Sprintf("COD remitted for order %s", order),
				Actor:       actor,
			}); err != nil {
				return err
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCODRemitted,
				AggregateType: enums.AggregateCODCollection,
				AggregateID:   current.ID,
				Actor:         actor,
				Version:       1,
				Data: payloads.CODRemittedEvent{
					CollectionID: current.ID,
					OrderID:      current.OrderID,
					PartnerID:    current.PartnerID,
					RemittedAt:   now,
				},
			}); err != nil {
				return err
			}
			collection = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// Reconcile compares the collected amount against the owed amount. Within
// tolerance the collection completes with its net settlement; otherwise it
// lands in disputed with the signed discrepancy, waiting for an admin
// correction. The disputed transition commits and then surfaces as a
// RECONCILIATION_MISMATCH error so callers see the discrepancy.
func (s *Service) Reconcile(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.CODCollection, error) {
	if orderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order id is required")
	}

	var collection *models.CODCollection
	var mismatch int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.RemittanceStatus != enums.RemittanceStatusRemitted {
			return errorsx.New(errorsx.CodeStateConflict,
				fmt.Sprintf("cannot reconcile collection in status %q", current.RemittanceStatus))
		}
		if current.CollectedAmountPaise == nil {
			return errorsx.New(errorsx.CodeStateConflict, "collection has no recorded amount")
		}

		now := s.now()
		discrepancy := *current.CollectedAmountPaise - current.CODAmountPaise
		if decimal.NewFromInt(discrepancy).Abs().GreaterThan(s.tolerance) {
			current.DiscrepancyAmountPaise = discrepancy
			current.DisputedAt = &now
			current.RemittanceStatus = enums.RemittanceStatusDisputed
			if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusRemitted); err != nil {
				return err
			}
			if s.logg != nil {
				logCtx := s.logg.WithFields(ctx, map[string]any{
					"order_id":          orderID.String(),
					"discrepancy_paise": discrepancy,
				})
				s.logg.Warn(logCtx, "cod reconciliation mismatch, collection disputed")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCODDisputed,
				AggregateType: enums.AggregateCODCollection,
				AggregateID:   current.ID,
				Actor:         actor,
				Version:       1,
				Data: payloads.CODDisputedEvent{
					CollectionID:           current.ID,
					OrderID:                current.OrderID,
					PartnerID:              current.PartnerID,
					DiscrepancyAmountPaise: discrepancy,
				},
			}); err != nil {
				return err
			}
			collection = current
			mismatch = discrepancy
			return nil
		}

		net := *current.CollectedAmountPaise - current.ShippingChargePaise - current.PlatformFeePaise - current.CODHandlingFeePaise
		current.NetSettlementPaise = &net
		current.DiscrepancyAmountPaise = discrepancy
		current.ReconciledAt = &now
		current.RemittanceStatus = enums.RemittanceStatusReconciled
		if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusRemitted); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCODReconciled,
			AggregateType: enums.AggregateCODCollection,
			AggregateID:   current.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.CODReconciledEvent{
				CollectionID:       current.ID,
				OrderID:            current.OrderID,
				SellerID:           current.SellerID,
				NetSettlementPaise: net,
				ReconciledAt:       now,
			},
		}); err != nil {
			return err
		}
		collection = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatch != 0 {
		return collection, errorsx.New(errorsx.CodeReconMismatch,
			fmt.Sprintf("collected amount differs from cod amount by %d paise", mismatch))
	}
	return collection, nil
}

// Dispute flags a reconciled collection whose money turned out wrong after
// the fact, for example a bounced deposit discovered during a bank audit.
// The recorded discrepancy waits for the admin resolution flow.
func (s *Service) Dispute(ctx context.Context, orderID uuid.UUID, discrepancyPaise int64, reason string, actor *outbox.ActorRef) (*models.CODCollection, error) {
	if orderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order id is required")
	}
	if discrepancyPaise == 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "discrepancy must not be zero")
	}
	if reason == "" {
		return nil, errorsx.New(errorsx.CodeValidation, "dispute reason is required")
	}

	var collection *models.CODCollection
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).GetByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.RemittanceStatus != enums.RemittanceStatusReconciled {
			return errorsx.New(errorsx.CodeStateConflict,
				fmt.Sprintf("cannot dispute collection in status %q", current.RemittanceStatus))
		}

		now := s.now()
		current.DiscrepancyAmountPaise = discrepancyPaise
		current.DisputedAt = &now
		current.RemittanceStatus = enums.RemittanceStatusDisputed
		if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusReconciled); err != nil {
			return err
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":          orderID.String(),
				"discrepancy_paise": discrepancyPaise,
			})
			s.logg.Warn(logCtx, "reconciled cod collection disputed: "+reason)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCODDisputed,
			AggregateType: enums.AggregateCODCollection,
			AggregateID:   current.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.CODDisputedEvent{
				CollectionID:           current.ID,
				OrderID:                current.OrderID,
				PartnerID:              current.PartnerID,
				DiscrepancyAmountPaise: discrepancyPaise,
			},
		}); err != nil {
			return err
		}
		collection = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// ResolveDisputeTx settles a disputed collection inside the caller's
// transaction. The admin override flow owns the compensating ledger entries;
// this only closes the state machine.
func (s *Service) ResolveDisputeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.CODCollection, error) {
	current, err := s.repo.WithTx(tx).GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.RemittanceStatus != enums.RemittanceStatusDisputed {
		return nil, errorsx.New(errorsx.CodeStateConflict,
			fmt.Sprintf("cannot resolve collection in status %q", current.RemittanceStatus))
	}
	if current.CollectedAmountPaise == nil {
		return nil, errorsx.New(errorsx.CodeStateConflict, "collection has no recorded amount")
	}

	now := s.now()
	net := *current.CollectedAmountPaise - current.ShippingChargePaise - current.PlatformFeePaise - current.CODHandlingFeePaise
	current.NetSettlementPaise = &net
	current.ReconciledAt = &now
	current.RemittanceStatus = enums.RemittanceStatusReconciled
	if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.RemittanceStatusDisputed); err != nil {
		return nil, err
	}
	return current, nil
}

// Get returns the collection for an order.
func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*models.CODCollection, error) {
	if orderID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "order id is required")
	}
	return s.repo.GetByOrderID(ctx, orderID)
}

// ListByStatus returns collections in a given state, newest first.
func (s *Service) ListByStatus(ctx context.Context, status enums.RemittanceStatus, params pagination.Params) ([]models.CODCollection, *pagination.Cursor, error) {
	if !status.IsValid() {
		return nil, nil, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid remittance status %q", status))
	}
	return s.repo.ListByStatus(ctx, status, params)
}

func requireTransition(from, to enums.RemittanceStatus) error {
	if !from.CanTransitionTo(to) {
		return errorsx.New(errorsx.CodeStateConflict,
			fmt.Sprintf("cannot transition collection from %q to %q", from, to))
	}
	return nil
}

func (s *Service) retryStale(ctx context.Context, orderID uuid.UUID, fn func() error) error {
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
				"order_id": orderID.String(),
				"attempt":  attempt,
			})
			s.logg.Warn(logCtx, "cod ledger write conflicted, retrying")
		}
	}
	return err
}
