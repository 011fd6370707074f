package withdrawal

import (
	"context"
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
	"github.com/fastfare/fastfare-backend/pkg/payout"
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

// RequestInput opens a withdrawal request for a seller or partner.
type RequestInput struct {
	OwnerKind enums.ActorKind
	OwnerID   uuid.UUID
	// AmountPaise is claimed against the owner's withdrawable balance.
	AmountPaise int64
	// PayoutAccount is the provider-side linked account funds go to.
	PayoutAccount string
	Actor         *outbox.ActorRef
}

// ServiceParams groups dependencies for the withdrawal workflow.
type ServiceParams struct {
	Repo         Repository
	Sellers      sellers.Repository
	Partners     partners.Repository
	Ledger       ledgerWriter
	Tx           txRunner
	Outbox       outboxPublisher
	Provider     payout.Provider
	Logger       *logger.Logger
	WriteRetries int
	Now          func() time.Time
}

// Service runs seller and partner payout requests through admin review, the
// payout provider and final ledger settlement. The requested amount stays
// reserved on the owner's balance from request until a terminal state.
type Service struct {
	repo         Repository
	sellers      sellers.Repository
	partners     partners.Repository
	ledger       ledgerWriter
	tx           txRunner
	outbox       outboxPublisher
	provider     payout.Provider
	logg         *logger.Logger
	writeRetries int
	now          func() time.Time
}

// NewService wires a withdrawal service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("withdrawal repository required")
	}
	if params.Sellers == nil {
		return nil, errors.New("sellers repository required")
	}
	if params.Partners == nil {
		return nil, errors.New("partners repository required")
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
	if params.Provider == nil {
		return nil, errors.New("payout provider required")
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
		partners:     params.Partners,
		ledger:       params.Ledger,
		tx:           params.Tx,
		outbox:       params.Outbox,
		provider:     params.Provider,
		logg:         params.Logger,
		writeRetries: retries,
		now:          now,
	}, nil
}

// Request opens a pending withdrawal and reserves the amount so concurrent
// requests cannot claim the same funds twice.
func (s *Service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if !input.OwnerKind.IsValid() {
		return nil, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid owner kind %q", input.OwnerKind))
	}
	if input.OwnerID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "owner id is required")
	}
	if input.AmountPaise <= 0 {
		return nil, errorsx.New(errorsx.CodeValidation, "amount must be positive")
	}

	var request *models.WithdrawalRequest
	err := s.retryStale(ctx, input.OwnerID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			balanceAtRequest, err := s.reserveTx(ctx, tx, input.OwnerKind, input.OwnerID, input.AmountPaise)
			if err != nil {
				return err
			}

			request = &models.WithdrawalRequest{
				ID:                    uuid.New(),
				OwnerKind:             input.OwnerKind,
				OwnerID:               input.OwnerID,
				AmountPaise:           input.AmountPaise,
				Status:                enums.WithdrawalStatusPending,
				BalanceAtRequestPaise: balanceAtRequest,
			}
			if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
				return err
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventWithdrawalRequested,
				AggregateType: enums.AggregateWithdrawal,
				AggregateID:   request.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: payloads.WithdrawalRequestedEvent{
					RequestID:             request.ID,
					OwnerKind:             request.OwnerKind,
					OwnerID:               request.OwnerID,
					AmountPaise:           request.AmountPaise,
					BalanceAtRequestPaise: request.BalanceAtRequestPaise,
				},
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// reserveTx claims the amount on the owner's balance and returns the balance
// snapshot to record on the request.
func (s *Service) reserveTx(ctx context.Context, tx *gorm.DB, kind enums.ActorKind, ownerID uuid.UUID, amountPaise int64) (int64, error) {
	switch kind {
	case enums.ActorKindSeller:
		sellerRepo := s.sellers.WithTx(tx)
		stats, err := sellerRepo.Get(ctx, ownerID)
		if err != nil {
			return 0, err
		}
		if stats.PayoutsHeld {
			return 0, errorsx.New(errorsx.CodeStateConflict, "seller payouts are held")
		}
		if amountPaise > stats.AvailablePaise() {
			return 0, errorsx.New(errorsx.CodeInsufficientBalance,
				fmt.Sprintf("requested %d paise exceeds available %d paise", amountPaise, stats.AvailablePaise()))
		}
		stats.ReservedPaise += amountPaise
		if err := sellerRepo.UpdateVersioned(ctx, stats); err != nil {
			return 0, err
		}
		return stats.AvailableForWithdrawalPaise, nil
	case enums.ActorKindPartner:
		partnerRepo := s.partners.WithTx(tx)
		balance, err := partnerRepo.Get(ctx, ownerID)
		if err != nil {
			return 0, err
		}
		if balance.SuspendedAt != nil {
			return 0, errorsx.New(errorsx.CodeStateConflict, "partner account is suspended")
		}
		if balance.PayoutsHeld {
			return 0, errorsx.New(errorsx.CodeStateConflict, "partner payouts are held")
		}
		if amountPaise > balance.AvailablePaise() {
			return 0, errorsx.New(errorsx.CodeInsufficientBalance,
				fmt.Sprintf("requested %d paise exceeds available %d paise", amountPaise, balance.AvailablePaise()))
		}
		balance.ReservedPaise += amountPaise
		if err := partnerRepo.UpdateVersioned(ctx, balance); err != nil {
			return 0, err
		}
		return balance.BalancePaise, nil
	default:
		return 0, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid owner kind %q", kind))
	}
}

// releaseTx hands a reservation back after a reject.
func (s *Service) releaseTx(ctx context.Context, tx *gorm.DB, kind enums.ActorKind, ownerID uuid.UUID, amountPaise int64) error {
	switch kind {
	case enums.ActorKindSeller:
		sellerRepo := s.sellers.WithTx(tx)
		stats, err := sellerRepo.Get(ctx, ownerID)
		if err != nil {
			return err
		}
		stats.ReservedPaise -= amountPaise
		if stats.ReservedPaise < 0 {
			stats.ReservedPaise = 0
		}
		return sellerRepo.UpdateVersioned(ctx, stats)
	case enums.ActorKindPartner:
		partnerRepo := s.partners.WithTx(tx)
		balance, err := partnerRepo.Get(ctx, ownerID)
		if err != nil {
			return err
		}
		balance.ReservedPaise -= amountPaise
		if balance.ReservedPaise < 0 {
			balance.ReservedPaise = 0
		}
		return partnerRepo.UpdateVersioned(ctx, balance)
	default:
		return errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid owner kind %q", kind))
	}
}

// Approve moves a pending request into processing and initiates the provider
// payout. The provider call happens after the transaction commits, so the
// per-owner lock is never held across network I/O; a failed call leaves the
// request in processing for the stuck sweep or a manual Confirm.
func (s *Service) Approve(ctx context.Context, requestID, adminID uuid.UUID, payoutAccount string) (*models.WithdrawalRequest, error) {
	if adminID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "admin id is required")
	}

	var request *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).Get(ctx, requestID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(enums.WithdrawalStatusApproved) {
			return errorsx.New(errorsx.CodeStateConflict,
				fmt.Sprintf("cannot approve withdrawal in status %q", current.Status))
		}

		now := s.now()
		current.Status = enums.WithdrawalStatusProcessing
		current.ReviewedBy = &adminID
		current.ReviewedAt = &now
		current.ProcessingAt = &now
		if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.WithdrawalStatusPending); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalApproved,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   current.ID,
			Actor:         &outbox.ActorRef{MemberID: adminID, Role: enums.MemberRoleAdmin.String()},
			Version:       1,
			Data: payloads.WithdrawalApprovedEvent{
				RequestID:   current.ID,
				OwnerKind:   current.OwnerKind,
				OwnerID:     current.OwnerID,
				AmountPaise: current.AmountPaise,
				ReviewedBy:  adminID,
			},
		}); err != nil {
			return err
		}
		request = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.provider.CreatePayout(ctx, payout.Request{
		Account:     payoutAccount,
		AmountPaise: request.AmountPaise,
		Reference:   request.ID.String(),
	})
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"request_id": request.ID.String(),
				"owner_kind": request.OwnerKind.String(),
				"owner_id":   request.OwnerID.String(),
			})
			s.logg.Error(logCtx, "payout initiation failed, request left in processing", err)
		}
		return request, errorsx.Wrap(errorsx.CodeDependency, err, "payout initiation failed")
	}

	ref := result.ProviderRef
	request.TransactionRef = &ref
	if err := s.repo.UpdateTransitioned(ctx, request, enums.WithdrawalStatusProcessing); err != nil {
		return request, err
	}
	return request, nil
}

// Confirm completes a processing request once the provider confirms the
// transfer: the payout ledger entry consumes the reservation and the final
// balance snapshot lands on the request.
func (s *Service) Confirm(ctx context.Context, requestID uuid.UUID, transactionRef string, actor *outbox.ActorRef) (*models.WithdrawalRequest, error) {
	var request *models.WithdrawalRequest
	err := s.retryStale(ctx, requestID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.repo.WithTx(tx).Get(ctx, requestID)
			if err != nil {
				return err
			}
			if !current.Status.CanTransitionTo(enums.WithdrawalStatusCompleted) {
				return errorsx.New(errorsx.CodeStateConflict,
					fmt.Sprintf("cannot complete withdrawal in status %q", current.Status))
			}

			ref := transactionRef
			if ref == "" && current.TransactionRef != nil {
				ref = *current.TransactionRef
			}
			if ref == "" {
				return errorsx.New(errorsx.CodeValidation, "transaction reference is required")
			}

			after, err := s.settleTx(ctx, tx, current, ref, actor)
			if err != nil {
				return err
			}

			now := s.now()
			current.Status = enums.WithdrawalStatusCompleted
			current.TransactionRef = &ref
			current.BalanceAfterPayoutPaise = &after
			current.CompletedAt = &now
			if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.WithdrawalStatusProcessing); err != nil {
				return err
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventWithdrawalCompleted,
				AggregateType: enums.AggregateWithdrawal,
				AggregateID:   current.ID,
				Actor:         actor,
				Version:       1,
				Data: payloads.WithdrawalCompletedEvent{
					RequestID:      current.ID,
					OwnerKind:      current.OwnerKind,
					OwnerID:        current.OwnerID,
					AmountPaise:    current.AmountPaise,
					TransactionRef: ref,
					CompletedAt:    now,
				},
			}); err != nil {
				return err
			}
			request = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// settleTx writes the payout ledger entry for the owner and returns the
// balance after the funds left.
func (s *Service) settleTx(ctx context.Context, tx *gorm.DB, request *models.WithdrawalRequest, ref string, actor *outbox.ActorRef) (int64, error) {
	switch request.OwnerKind {
	case enums.ActorKindSeller:
		if _, err := s.ledger.RecordSellerEntryTx(ctx, tx, ledger.RecordSellerEntryInput{
			SellerID:    request.OwnerID,
			Type:        enums.SellerEntryTypeWithdrawal,
			AmountPaise: request.AmountPaise,
			Description: fmt.Sprintf("payout for withdrawal %s", request.ID),
			Actor:       actor,
		}); err != nil {
			return 0, err
		}
		stats, err := s.sellers.WithTx(tx).Get(ctx, request.OwnerID)
		if err != nil {
			return 0, err
		}
		return stats.AvailableForWithdrawalPaise, nil
	case enums.ActorKindPartner:
		if _, err := s.ledger.RecordPartnerEntryTx(ctx, tx, ledger.RecordPartnerEntryInput{
			PartnerID:       request.OwnerID,
			Type:            enums.PartnerEntryTypePayout,
			AmountPaise:     request.AmountPaise,
			Description:     fmt.Sprintf("payout for withdrawal %s", request.ID),
			PayoutReference: &ref,
			Actor:           actor,
		}); err != nil {
			return 0, err
		}
		balance, err := s.partners.WithTx(tx).Get(ctx, request.OwnerID)
		if err != nil {
			return 0, err
		}
		return balance.BalancePaise, nil
	default:
		return 0, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid owner kind %q", request.OwnerKind))
	}
}

// Reject declines a pending request and releases its reservation. No ledger
// entry is written.
func (s *Service) Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	if adminID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "admin id is required")
	}
	if reason == "" {
		return nil, errorsx.New(errorsx.CodeValidation, "reject reason is required")
	}

	var request *models.WithdrawalRequest
	err := s.retryStale(ctx, requestID, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.repo.WithTx(tx).Get(ctx, requestID)
			if err != nil {
				return err
			}
			if !current.Status.CanTransitionTo(enums.WithdrawalStatusRejected) {
				return errorsx.New(errorsx.CodeStateConflict,
					fmt.Sprintf("cannot reject withdrawal in status %q", current.Status))
			}

			now := s.now()
			current.Status = enums.WithdrawalStatusRejected
			current.ReviewedBy = &adminID
			current.ReviewedAt = &now
			current.RejectReason = &reason
			if err := s.repo.WithTx(tx).UpdateTransitioned(ctx, current, enums.WithdrawalStatusPending); err != nil {
				return err
			}

			if err := s.releaseTx(ctx, tx, current.OwnerKind, current.OwnerID, current.AmountPaise); err != nil {
				return err
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventWithdrawalRejected,
				AggregateType: enums.AggregateWithdrawal,
				AggregateID:   current.ID,
				Actor:         &outbox.ActorRef{MemberID: adminID, Role: enums.MemberRoleAdmin.String()},
				Version:       1,
				Data: payloads.WithdrawalRejectedEvent{
					RequestID:    current.ID,
					OwnerKind:    current.OwnerKind,
					OwnerID:      current.OwnerID,
					AmountPaise:  current.AmountPaise,
					ReviewedBy:   adminID,
					RejectReason: reason,
				},
			}); err != nil {
				return err
			}
			request = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if requestID == uuid.Nil {
		return nil, errorsx.New(errorsx.CodeValidation, "request id is required")
	}
	return s.repo.Get(ctx, requestID)
}

// ListByOwner returns a seller's or partner's requests, newest first.
func (s *Service) ListByOwner(ctx context.Context, kind enums.ActorKind, ownerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error) {
	if !kind.IsValid() {
		return nil, nil, errorsx.New(errorsx.CodeValidation, fmt.Sprintf("invalid owner kind %q", kind))
	}
	if ownerID == uuid.Nil {
		return nil, nil, errorsx.New(errorsx.CodeValidation, "owner id is required")
	}
	return s.repo.ListByOwner(ctx, kind, ownerID, params)
}

// AlertStuck logs processing requests older than threshold. Withdrawals moved
// money through an external provider, so the sweep never auto-reverses them;
// it surfaces them for an operator.
func (s *Service) AlertStuck(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := s.now().Add(-threshold)
	stuck, err := s.repo.ListStuckProcessing(ctx, cutoff, 0)
	if err != nil {
		return 0, err
	}
	for _, request := range stuck {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"request_id":    request.ID.String(),
				"owner_kind":    request.OwnerKind.String(),
				"owner_id":      request.OwnerID.String(),
				"processing_at": request.ProcessingAt,
			})
			s.logg.Error(logCtx, "withdrawal stuck in processing, operator action required", nil)
		}
	}
	return len(stuck), nil
}

func (s *Service) retryStale(ctx context.Context, id uuid.UUID, fn func() error) error {
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
				"id":      id.String(),
				"attempt": attempt,
			})
			s.logg.Warn(logCtx, "withdrawal balance write conflicted, retrying")
		}
	}
	return err
}
