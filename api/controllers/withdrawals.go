package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/api/validators"
	"github.com/fastfare/fastfare-backend/internal/withdrawal"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type withdrawalService interface {
	Request(ctx context.Context, input withdrawal.RequestInput) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	ListByOwner(ctx context.Context, kind enums.ActorKind, ownerID uuid.UUID, params pagination.Params) ([]models.WithdrawalRequest, *pagination.Cursor, error)
	Approve(ctx context.Context, requestID, adminID uuid.UUID, payoutAccount string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (*models.WithdrawalRequest, error)
	Confirm(ctx context.Context, requestID uuid.UUID, transactionRef string, actor *outbox.ActorRef) (*models.WithdrawalRequest, error)
}

type createWithdrawalPayload struct {
	AmountPaise   int64  `json:"amount_paise" validate:"required,min=1"`
	PayoutAccount string `json:"payout_account" validate:"required"`
}

type approveWithdrawalPayload struct {
	PayoutAccount string `json:"payout_account" validate:"required"`
}

type rejectWithdrawalPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type confirmWithdrawalPayload struct {
	TransactionRef string `json:"transaction_ref" validate:"required"`
}

// ownerScopeAllows dispatches the per-kind scope check for the account in
// the path.
func ownerScopeAllows(ctx context.Context, kind enums.ActorKind, ownerID uuid.UUID) bool {
	if kind == enums.ActorKindSeller {
		return sellerScopeAllows(ctx, ownerID)
	}
	return partnerScopeAllows(ctx, ownerID)
}

// WithdrawalCreate opens a withdrawal request for the seller or partner in
// the path.
func WithdrawalCreate(svc withdrawalService, kind enums.ActorKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		ownerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id"))
			return
		}
		if !ownerScopeAllows(ctx, kind, ownerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account scope mismatch"))
			return
		}

		var payload createWithdrawalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Request(ctx, withdrawal.RequestInput{
			OwnerKind:     kind,
			OwnerID:       ownerID,
			AmountPaise:   payload.AmountPaise,
			PayoutAccount: strings.TrimSpace(payload.PayoutAccount),
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawal.NewRequestView(request))
	}
}

// WithdrawalGet returns one withdrawal request by id.
func WithdrawalGet(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		request, err := svc.Get(ctx, requestID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !ownerScopeAllows(ctx, request.OwnerKind, request.OwnerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account scope mismatch"))
			return
		}
		responses.WriteSuccess(w, withdrawal.NewRequestView(request))
	}
}

// WithdrawalList returns the account's withdrawal history, newest first.
func WithdrawalList(svc withdrawalService, kind enums.ActorKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		ownerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id"))
			return
		}
		if !ownerScopeAllows(ctx, kind, ownerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "account scope mismatch"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		requests, next, err := svc.ListByOwner(ctx, kind, ownerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal.NewRequestList(requests, next))
	}
}

// AdminWithdrawalApprove moves a pending request into processing and fires
// the provider payout.
func AdminWithdrawalApprove(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		var payload approveWithdrawalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Approve(ctx, requestID, adminID, strings.TrimSpace(payload.PayoutAccount))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal.NewRequestView(request))
	}
}

// AdminWithdrawalReject returns a pending request to the partner with the
// reserved amount released.
func AdminWithdrawalReject(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		var payload rejectWithdrawalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Reject(ctx, requestID, adminID, validators.SanitizeString(payload.Reason, 512))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal.NewRequestView(request))
	}
}

// AdminWithdrawalConfirm settles a processing request against the provider
// transaction reference.
func AdminWithdrawalConfirm(svc withdrawalService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal service unavailable"))
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id"))
			return
		}

		var payload confirmWithdrawalPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		request, err := svc.Confirm(ctx, requestID, strings.TrimSpace(payload.TransactionRef), actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawal.NewRequestView(request))
	}
}
