package adminops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerWriter interface {
	RecordSellerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordSellerEntryInput) (*models.SellerLedgerEntry, error)
	RecordPartnerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordPartnerEntryInput) (*models.PartnerLedgerEntry, error)
}

type tierOverrider interface {
	OverrideTierTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, newTier enums.SellerTier, adminID uuid.UUID, reason string) (*models.TierEvaluationLog, error)
}

type settlementAdmin interface {
	HoldTx(ctx context.Context, tx *gorm.DB, scheduleID, adminID uuid.UUID, reason string) (*models.SettlementSchedule, error)
	ReleaseTx(ctx context.Context, tx *gorm.DB, scheduleID, adminID uuid.UUID) (*models.SettlementSchedule, error)
}

type codResolver interface {
	ResolveDisputeTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.CODCollection, error)
}

// LedgerCorrectionInput describes one compensating entry an admin applies to
// a seller or partner ledger.
type LedgerCorrectionInput struct {
	AdminID     uuid.UUID
	Target      enums.OverrideTarget
	TargetID    uuid.UUID
	EntryType   string
	AmountPaise int64
	OrderID     *uuid.UUID
	Reason      string
}

// ServiceParams groups dependencies for the admin operations service.
type ServiceParams struct {
	Repo         Repository
	Ledger       ledgerWriter
	Tier         tierOverrider
	Settlement   settlementAdmin
	COD          codResolver
	Sellers      sellers.Repository
	Partners     partners.Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Logger       *logger.Logger
	WriteRetries int
	Now          func() time.Time
}

// Service performs out-of-band corrections. Every operation applies its
// compensating mutation and appends the override audit row in one
// transaction; the row alone is never the mutation.
type Service struct {
	repo         Repository
	ledger       ledgerWriter
	tier         tierOverrider
	settlement   settlementAdmin
	cod          codResolver
	sellers      sellers.Repository
	partners     partners.Repository
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	writeRetries int
	now          func() time.Time
}

// NewService wires an admin operations service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("override repository required")
	}
	if params.Ledger == nil {
		return nil, errors.New("ledger writer required")
	}
	if params.Tier == nil {
		return nil, errors.New("tier overrider required")
	}
	if params.Settlement == nil {
		return nil, errors.New("settlement admin required")
	}
	if params.COD == nil {
		return nil, errors.New("cod resolver required")
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
		retries = ledger.DefaultWriteRetries
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         params.Repo,
		ledger:       params.Ledger,
		tier:         params.Tier,
		settlement:   params.Settlement,
		cod:          params.COD,
		sellers:      params.Sellers,
		partners:     params.Partners,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
		writeRetries: retries,
		now:          now,
	}, nil
}

// OverrideTier pins a seller to a tier and documents the move.
func (s *Service) OverrideTier(ctx context.Context, adminID, sellerID uuid.UUID, newTier enums.SellerTier, reason string) (*models.AdminOverride, error) {
	if err := validateActor(adminID, sellerID, reason); err != nil {
		return nil, err
	}

	var override *models.AdminOverride
	err := s.retryStale(ctx, adminID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			log, err := s.tier.OverrideTierTx(ctx, tx, sellerID, newTier, adminID, reason)
			if err != nil {
				return err
			}
			var innerErr error
			override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
				AdminID:       adminID,
				TargetType:    enums.OverrideTargetSeller,
				TargetID:      sellerID,
				Action:        enums.OverrideActionTierOverride,
				PreviousValue: mustJSON(map[string]string{"tier": log.PreviousTier.String()}),
				NewValue:      mustJSON(map[string]string{"tier": log.NewTier.String()}),
				Reason:        reason,
			})
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// HoldSettlement freezes a scheduled batch and documents the hold.
func (s *Service) HoldSettlement(ctx context.Context, adminID, scheduleID uuid.UUID, reason string) (*models.AdminOverride, error) {
	if err := validateActor(adminID, scheduleID, reason); err != nil {
		return nil, err
	}

	var override *models.AdminOverride
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		schedule, err := s.settlement.HoldTx(ctx, tx, scheduleID, adminID, reason)
		if err != nil {
			return err
		}
		var innerErr error
		override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
			AdminID:       adminID,
			TargetType:    enums.OverrideTargetSettlement,
			TargetID:      scheduleID,
			Action:        enums.OverrideActionPayoutHold,
			PreviousValue: mustJSON(map[string]string{"status": enums.SettlementStatusScheduled.String()}),
			NewValue:      mustJSON(map[string]string{"status": schedule.Status.String()}),
			Reason:        reason,
		})
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// ReleaseSettlement returns a held or exhausted-failed batch to the queue.
func (s *Service) ReleaseSettlement(ctx context.Context, adminID, scheduleID uuid.UUID, reason string) (*models.AdminOverride, error) {
	if err := validateActor(adminID, scheduleID, reason); err != nil {
		return nil, err
	}

	var override *models.AdminOverride
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		schedule, err := s.settlement.ReleaseTx(ctx, tx, scheduleID, adminID)
		if err != nil {
			return err
		}
		var innerErr error
		override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
			AdminID:       adminID,
			TargetType:    enums.OverrideTargetSettlement,
			TargetID:      scheduleID,
			Action:        enums.OverrideActionPayoutRelease,
			NewValue:      mustJSON(map[string]string{"status": schedule.Status.String()}),
			Reason:        reason,
		})
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// ResolveCODDispute closes a disputed collection and writes the compensating
// ledger entries for the discrepancy: a shortfall is charged to the partner,
// a surplus is credited to the seller.
func (s *Service) ResolveCODDispute(ctx context.Context, adminID, orderID uuid.UUID, reason string) (*models.AdminOverride, error) {
	if err := validateActor(adminID, orderID, reason); err != nil {
		return nil, err
	}

	var override *models.AdminOverride
	err := s.retryStale(ctx, adminID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			collection, err := s.cod.ResolveDisputeTx(ctx, tx, orderID)
			if err != nil {
				return err
			}

			discrepancy := collection.DiscrepancyAmountPaise
			order := collection.OrderID
			switch {
			case discrepancy < 0:
				if _, err := s.ledger.RecordPartnerEntryTx(ctx, tx, ledger.RecordPartnerEntryInput{
					PartnerID:   collection.PartnerID,
					OrderID:     &order,
					Type:        enums.PartnerEntryTypeDeduction,
					AmountPaise: -discrepancy,
					Description: fmt.Sprintf("COD shortfall for order %s: %s", order, reason),
					Actor:       &outbox.ActorRef{MemberID: adminID, Role: enums.MemberRoleAdmin.String()},
				}); err != nil {
					return err
				}
			case discrepancy > 0:
				if _, err := s.ledger.RecordSellerEntryTx(ctx, tx, ledger.RecordSellerEntryInput{
					SellerID:    collection.SellerID,
					OrderID:     &order,
					Type:        enums.SellerEntryTypeCODCollection,
					AmountPaise: discrepancy,
					Description: fmt.Sprintf("COD over-collection for order %s: %s", order, reason),
					Actor:       &outbox.ActorRef{MemberID: adminID, Role: enums.MemberRoleAdmin.String()},
				}); err != nil {
					return err
				}
			}

			var innerErr error
			override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
				AdminID:       adminID,
				TargetType:    enums.OverrideTargetCOD,
				TargetID:      collection.ID,
				Action:        enums.OverrideActionDisputeResolution,
				PreviousValue: mustJSON(map[string]any{"status": enums.RemittanceStatusDisputed.String(), "discrepancy_paise": discrepancy}),
				NewValue:      mustJSON(map[string]any{"status": collection.RemittanceStatus.String()}),
				Reason:        reason,
			})
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// CorrectLedger applies one manual ledger entry against a seller or partner
// and documents it. The entry type must belong to the targeted actor kind.
func (s *Service) CorrectLedger(ctx context.Context, input LedgerCorrectionInput) (*models.AdminOverride, error) {
	if err := validateActor(input.AdminID, input.TargetID, input.Reason); err != nil {
		return nil, err
	}
	if input.AmountPaise <= 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "amount must be positive")
	}

	actor := &outbox.ActorRef{MemberID: input.AdminID, Role: enums.MemberRoleAdmin.String()}
	description := fmt.Sprintf("admin correction: %s", input.Reason)

	var override *models.AdminOverride
	err := s.retryStale(ctx, input.AdminID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var entryID uuid.UUID
			switch input.Target {
			case enums.OverrideTargetSeller:
				entry, err := s.ledger.RecordSellerEntryTx(ctx, tx, ledger.RecordSellerEntryInput{
					SellerID:    input.TargetID,
					OrderID:     input.OrderID,
					Type:        enums.SellerEntryType(input.EntryType),
					AmountPaise: input.AmountPaise,
					Description: description,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				entryID = entry.ID
			case enums.OverrideTargetPartner:
				entry, err := s.ledger.RecordPartnerEntryTx(ctx, tx, ledger.RecordPartnerEntryInput{
					PartnerID:   input.TargetID,
					OrderID:     input.OrderID,
					Type:        enums.PartnerEntryType(input.EntryType),
					AmountPaise: input.AmountPaise,
					Description: description,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				entryID = entry.ID
			default:
				return errorsx.New(errorsx.CodeValidation,
					fmt.Sprintf("ledger corrections target sellers or partners, not %q", input.Target))
			}

			var innerErr error
			override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
				AdminID:    input.AdminID,
				TargetType: input.Target,
				TargetID:   input.TargetID,
				Action:     enums.OverrideActionLedgerCorrection,
				NewValue: mustJSON(map[string]any{
					"entry_id":     entryID,
					"entry_type":   input.EntryType,
					"amount_paise": input.AmountPaise,
				}),
				Reason: input.Reason,
			})
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// SuspendPartner blocks a partner from new withdrawals and documents it.
func (s *Service) SuspendPartner(ctx context.Context, adminID, partnerID uuid.UUID, reason string) (*models.AdminOverride, error) {
	return s.setPartnerSuspension(ctx, adminID, partnerID, reason, true)
}

// ActivatePartner lifts a suspension and documents it.
func (s *Service) ActivatePartner(ctx context.Context, adminID, partnerID uuid.UUID, reason string) (*models.AdminOverride, error) {
	return s.setPartnerSuspension(ctx, adminID, partnerID, reason, false)
}

func (s *Service) setPartnerSuspension(ctx context.Context, adminID, partnerID uuid.UUID, reason string, suspend bool) (*models.AdminOverride, error) {
	if err := validateActor(adminID, partnerID, reason); err != nil {
		return nil, err
	}

	var override *models.AdminOverride
	err := s.retryStale(ctx, adminID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			partnerRepo := s.partners.WithTx(tx)
			balance, err := partnerRepo.Get(ctx, partnerID)
			if err != nil {
				return err
			}
			wasSuspended := balance.SuspendedAt != nil
			if wasSuspended == suspend {
				return errorsx.New(errorsx.CodeStateConflict, "partner suspension already in requested state")
			}

			action := enums.OverrideActionAccountActivate
			if suspend {
				action = enums.OverrideActionAccountSuspend
				now := s.now()
				balance.SuspendedAt = &now
			} else {
				balance.SuspendedAt = nil
			}
			if err := partnerRepo.UpdateVersioned(ctx, balance); err != nil {
				return err
			}

			var innerErr error
			override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
				AdminID:       adminID,
				TargetType:    enums.OverrideTargetPartner,
				TargetID:      partnerID,
				Action:        action,
				PreviousValue: mustJSON(map[string]bool{"suspended": wasSuspended}),
				NewValue:      mustJSON(map[string]bool{"suspended": suspend}),
				Reason:        reason,
			})
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// HoldPayouts parks a seller's or partner's withdrawals until released. New
// withdrawal requests against the account are rejected while the hold is on.
func (s *Service) HoldPayouts(ctx context.Context, adminID uuid.UUID, target enums.OverrideTarget, targetID uuid.UUID, reason string) (*models.AdminOverride, error) {
	return s.setPayoutHold(ctx, adminID, target, targetID, reason, true)
}

// ReleasePayouts lifts an account-level payout hold and documents it.
func (s *Service) ReleasePayouts(ctx context.Context, adminID uuid.UUID, target enums.OverrideTarget, targetID uuid.UUID, reason string) (*models.AdminOverride, error) {
	return s.setPayoutHold(ctx, adminID, target, targetID, reason, false)
}

func (s *Service) setPayoutHold(ctx context.Context, adminID uuid.UUID, target enums.OverrideTarget, targetID uuid.UUID, reason string, hold bool) (*models.AdminOverride, error) {
	if err := validateActor(adminID, targetID, reason); err != nil {
		return nil, err
	}
	if target != enums.OverrideTargetSeller && target != enums.OverrideTargetPartner {
		return nil, errorsx.New(errorsx.CodeValidation,
			fmt.Sprintf("payout holds target sellers or partners, not %q", target))
	}

	var override *models.AdminOverride
	err := s.retryStale(ctx, adminID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var wasHeld bool
			switch target {
			case enums.OverrideTargetSeller:
				sellerRepo := s.sellers.WithTx(tx)
				stats, err := sellerRepo.Get(ctx, targetID)
				if err != nil {
					return err
				}
				wasHeld = stats.PayoutsHeld
				if wasHeld == hold {
					return errorsx.New(errorsx.CodeStateConflict, "payout hold already in requested state")
				}
				stats.PayoutsHeld = hold
				if err := sellerRepo.UpdateVersioned(ctx, stats); err != nil {
					return err
				}
			case enums.OverrideTargetPartner:
				partnerRepo := s.partners.WithTx(tx)
				balance, err := partnerRepo.Get(ctx, targetID)
				if err != nil {
					return err
				}
				wasHeld = balance.PayoutsHeld
				if wasHeld == hold {
					return errorsx.New(errorsx.CodeStateConflict, "payout hold already in requested state")
				}
				balance.PayoutsHeld = hold
				if err := partnerRepo.UpdateVersioned(ctx, balance); err != nil {
					return err
				}
			}

			action := enums.OverrideActionPayoutRelease
			if hold {
				action = enums.OverrideActionPayoutHold
			}
			var innerErr error
			override, innerErr = s.recordTx(ctx, tx, &models.AdminOverride{
				AdminID:       adminID,
				TargetType:    target,
				TargetID:      targetID,
				Action:        action,
				PreviousValue: mustJSON(map[string]bool{"payouts_held": wasHeld}),
				NewValue:      mustJSON(map[string]bool{"payouts_held": hold}),
				Reason:        reason,
			})
			return innerErr
		})
	})
	if err != nil {
		return nil, err
	}
	return override, nil
}

// List returns the override audit trail, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.AdminOverride, *pagination.Cursor, error) {
	if filter.TargetType != nil && !filter.TargetType.IsValid() {
		return nil, nil, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid override target %q", *filter.TargetType))
	}
	return s.repo.List(ctx, filter, params)
}

// recordTx appends the audit row and mirrors it onto the outbox.
func (s *Service) recordTx(ctx context.Context, tx *gorm.DB, override *models.AdminOverride) (*models.AdminOverride, error) {
	if override.ID == uuid.Nil {
		override.ID = uuid.New()
	}
	if err := s.repo.WithTx(tx).Create(ctx, override); err != nil {
		return nil, err
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAdminOverride,
		AggregateType: enums.AggregateAdminOverride,
		AggregateID:   override.ID,
		Actor:         &outbox.ActorRef{MemberID: override.AdminID, Role: enums.MemberRoleAdmin.String()},
		Version:       1,
		Data: payloads.AdminOverrideRecordedEvent{
			OverrideID: override.ID,
			AdminID:    override.AdminID,
			TargetType: override.TargetType,
			TargetID:   override.TargetID,
			Action:     override.Action,
			Reason:     override.Reason,
		},
	}); err != nil {
		return nil, err
	}
	return override, nil
}

func validateActor(adminID, targetID uuid.UUID, reason string) error {
	if adminID == uuid.Nil {
		return errorsx.New(errorsx.CodeValidation, "admin id is required")
	}
	if targetID == uuid.Nil {
		return errorsx.New(errorsx.CodeValidation, "target id is required")
	}
	if reason == "" {
		return errorsx.New(errorsx.CodeValidation, "reason is required")
	}
	return nil
}

func mustJSON(value any) json.RawMessage {
	raw, err := json.Marshal(value)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

func (s *Service) retryStale(ctx context.Context, adminID uuid.UUID, fn func() error) error {
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
				"admin_id": adminID.String(),
				"attempt":  attempt,
			})
			s.logg.Warn(logCtx, "override write conflicted, retrying")
		}
	}
	return err
}
