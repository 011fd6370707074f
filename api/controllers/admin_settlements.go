package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/api/validators"
	"github.com/fastfare/fastfare-backend/internal/adminops"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
)

type settlementReadService interface {
	Get(ctx context.Context, scheduleID uuid.UUID) (*models.SettlementSchedule, error)
}

type settlementHoldService interface {
	HoldSettlement(ctx context.Context, adminID, scheduleID uuid.UUID, reason string) (*models.AdminOverride, error)
	ReleaseSettlement(ctx context.Context, adminID, scheduleID uuid.UUID, reason string) (*models.AdminOverride, error)
}

type holdSettlementPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type releaseSettlementPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminSettlementGet returns one settlement batch by id.
func AdminSettlementGet(svc settlementReadService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settlement id"))
			return
		}

		schedule, err := svc.Get(ctx, scheduleID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement.NewScheduleView(schedule))
	}
}

// AdminSettlementHold parks a batch so the processor skips it.
func AdminSettlementHold(svc settlementHoldService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settlement id"))
			return
		}

		var payload holdSettlementPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		override, err := svc.HoldSettlement(ctx, adminID, scheduleID, validators.SanitizeString(payload.Reason, 512))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}

// AdminSettlementRelease returns a held batch to the processing queue.
func AdminSettlementRelease(svc settlementHoldService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		scheduleID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid settlement id"))
			return
		}

		var payload releaseSettlementPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		override, err := svc.ReleaseSettlement(ctx, adminID, scheduleID, validators.SanitizeString(payload.Reason, 512))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}
