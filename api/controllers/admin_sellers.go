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
	"github.com/fastfare/fastfare-backend/internal/tier"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type tierService interface {
	EvaluateManual(ctx context.Context, sellerID, adminID uuid.UUID) (*models.TierEvaluationLog, error)
	ListLogs(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.TierEvaluationLog, *pagination.Cursor, error)
}

type tierOverrideService interface {
	OverrideTier(ctx context.Context, adminID, sellerID uuid.UUID, newTier enums.SellerTier, reason string) (*models.AdminOverride, error)
}

// adminSellerTierPayload drives the manual tier endpoint. Without a tier the
// seller is re-evaluated against the standard thresholds; with one the tier
// is forced and audited as an override.
type adminSellerTierPayload struct {
	Tier   string `json:"tier,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AdminSellerTier re-evaluates or force-sets a seller's tier.
func AdminSellerTier(evaluator tierService, overrides tierOverrideService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if evaluator == nil || overrides == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		sellerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		var payload adminSellerTierPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if strings.TrimSpace(payload.Tier) == "" {
			log, err := evaluator.EvaluateManual(ctx, sellerID, adminID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccess(w, tier.NewEvaluationView(log))
			return
		}

		newTier, err := enums.ParseSellerTier(payload.Tier)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller tier"))
			return
		}
		reason := validators.SanitizeString(payload.Reason, 512)
		if reason == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reason is required for a tier override"))
			return
		}

		override, err := overrides.OverrideTier(ctx, adminID, sellerID, newTier, reason)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}

// AdminSellerTierLogs returns the tier evaluation history for a seller.
func AdminSellerTierLogs(svc tierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tier service unavailable"))
			return
		}

		sellerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logs, next, err := svc.ListLogs(ctx, sellerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, tier.NewEvaluationList(logs, next))
	}
}
