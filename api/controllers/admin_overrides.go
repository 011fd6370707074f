package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/api/validators"
	"github.com/fastfare/fastfare-backend/internal/adminops"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type adminOpsService interface {
	List(ctx context.Context, filter adminops.ListFilter, params pagination.Params) ([]models.AdminOverride, *pagination.Cursor, error)
	CorrectLedger(ctx context.Context, input adminops.LedgerCorrectionInput) (*models.AdminOverride, error)
	SuspendPartner(ctx context.Context, adminID, partnerID uuid.UUID, reason string) (*models.AdminOverride, error)
	ActivatePartner(ctx context.Context, adminID, partnerID uuid.UUID, reason string) (*models.AdminOverride, error)
	HoldPayouts(ctx context.Context, adminID uuid.UUID, target enums.OverrideTarget, targetID uuid.UUID, reason string) (*models.AdminOverride, error)
	ReleasePayouts(ctx context.Context, adminID uuid.UUID, target enums.OverrideTarget, targetID uuid.UUID, reason string) (*models.AdminOverride, error)
}

type ledgerCorrectionPayload struct {
	Target      string  `json:"target" validate:"required"`
	TargetID    string  `json:"target_id" validate:"required"`
	EntryType   string  `json:"entry_type" validate:"required"`
	AmountPaise int64   `json:"amount_paise" validate:"required"`
	OrderID     *string `json:"order_id,omitempty"`
	Reason      string  `json:"reason" validate:"required"`
}

type partnerSuspensionPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type payoutHoldPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminOverridesList returns the override audit trail with optional filters.
func AdminOverridesList(svc adminOpsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		var filter adminops.ListFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("admin_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin id filter"))
				return
			}
			filter.AdminID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("target_type")); raw != "" {
			target, err := enums.ParseOverrideTarget(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target type filter"))
				return
			}
			filter.TargetType = &target
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("target_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target id filter"))
				return
			}
			filter.TargetID = &id
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		overrides, next, err := svc.List(ctx, filter, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideList(overrides, next))
	}
}

// AdminLedgerCorrection books a manual compensating ledger entry.
func AdminLedgerCorrection(svc adminOpsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		var payload ledgerCorrectionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOverrideTarget(payload.Target)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid correction target"))
			return
		}
		targetID, err := uuid.Parse(payload.TargetID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target id"))
			return
		}
		var orderID *uuid.UUID
		if payload.OrderID != nil && strings.TrimSpace(*payload.OrderID) != "" {
			id, err := uuid.Parse(*payload.OrderID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
				return
			}
			orderID = &id
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		override, err := svc.CorrectLedger(ctx, adminops.LedgerCorrectionInput{
			AdminID:     adminID,
			Target:      target,
			TargetID:    targetID,
			EntryType:   strings.TrimSpace(payload.EntryType),
			AmountPaise: payload.AmountPaise,
			OrderID:     orderID,
			Reason:      validators.SanitizeString(payload.Reason, 512),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adminops.NewOverrideView(override))
	}
}

// AdminPartnerSuspend freezes payout activity for a partner.
func AdminPartnerSuspend(svc adminOpsService, logg *logger.Logger) http.HandlerFunc {
	return partnerSuspension(svc, logg, true)
}

// AdminPartnerActivate lifts a partner suspension.
func AdminPartnerActivate(svc adminOpsService, logg *logger.Logger) http.HandlerFunc {
	return partnerSuspension(svc, logg, false)
}

func partnerSuspension(svc adminOpsService, logg *logger.Logger, suspend bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id"))
			return
		}

		var payload partnerSuspensionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var override *models.AdminOverride
		if suspend {
			override, err = svc.SuspendPartner(ctx, adminID, partnerID, validators.SanitizeString(payload.Reason, 512))
		} else {
			override, err = svc.ActivatePartner(ctx, adminID, partnerID, validators.SanitizeString(payload.Reason, 512))
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}

// AdminPayoutHold parks withdrawals for the seller or partner in the path.
func AdminPayoutHold(svc adminOpsService, target enums.OverrideTarget, logg *logger.Logger) http.HandlerFunc {
	return payoutHold(svc, target, logg, true)
}

// AdminPayoutRelease lifts an account-level payout hold.
func AdminPayoutRelease(svc adminOpsService, target enums.OverrideTarget, logg *logger.Logger) http.HandlerFunc {
	return payoutHold(svc, target, logg, false)
}

func payoutHold(svc adminOpsService, target enums.OverrideTarget, logg *logger.Logger, hold bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		targetID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id"))
			return
		}

		var payload payoutHoldPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var override *models.AdminOverride
		if hold {
			override, err = svc.HoldPayouts(ctx, adminID, target, targetID, validators.SanitizeString(payload.Reason, 512))
		} else {
			override, err = svc.ReleasePayouts(ctx, adminID, target, targetID, validators.SanitizeString(payload.Reason, 512))
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}
