package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/api/validators"
	"github.com/fastfare/fastfare-backend/internal/adminops"
	"github.com/fastfare/fastfare-backend/internal/cod"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type codService interface {
	Collect(ctx context.Context, input cod.CollectInput) (*models.CODCollection, error)
	Remit(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.CODCollection, error)
	Reconcile(ctx context.Context, orderID uuid.UUID, actor *outbox.ActorRef) (*models.CODCollection, error)
	Dispute(ctx context.Context, orderID uuid.UUID, discrepancyPaise int64, reason string, actor *outbox.ActorRef) (*models.CODCollection, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.CODCollection, error)
	ListByStatus(ctx context.Context, status enums.RemittanceStatus, params pagination.Params) ([]models.CODCollection, *pagination.Cursor, error)
}

type codDisputeService interface {
	ResolveCODDispute(ctx context.Context, adminID, orderID uuid.UUID, reason string) (*models.AdminOverride, error)
}

type collectCODPayload struct {
	CollectedAmountPaise int64 `json:"collected_amount_paise" validate:"required,min=1"`
}

type resolveCODPayload struct {
	Reason string `json:"reason" validate:"required"`
}

type disputeCODPayload struct {
	DiscrepancyPaise int64  `json:"discrepancy_paise" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
}

// CODCollect marks cash collected at the doorstep for one order.
func CODCollect(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		collection, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !partnerScopeAllows(ctx, collection.PartnerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "partner scope mismatch"))
			return
		}

		var payload collectCODPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := svc.Collect(ctx, cod.CollectInput{
			OrderID:              orderID,
			CollectedAmountPaise: payload.CollectedAmountPaise,
			Actor:                actor,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionView(updated))
	}
}

// CODRemit marks the partner's collected cash as handed in for one order.
func CODRemit(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		collection, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !partnerScopeAllows(ctx, collection.PartnerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "partner scope mismatch"))
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := svc.Remit(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionView(updated))
	}
}

// CODGet returns one COD collection record by order id.
func CODGet(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		collection, err := svc.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !partnerScopeAllows(ctx, collection.PartnerID) && !sellerScopeAllows(ctx, collection.SellerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order scope mismatch"))
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionView(collection))
	}
}

// AdminCODReconcile verifies remitted cash against the expected amount.
func AdminCODReconcile(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.Reconcile(ctx, orderID, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionView(collection))
	}
}

// AdminCODDispute flags a reconciled collection whose money turned out wrong
// after the fact, parking it for the resolution flow.
func AdminCODDispute(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload disputeCODPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor, err := actorFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collection, err := svc.Dispute(ctx, orderID, payload.DiscrepancyPaise, validators.SanitizeString(payload.Reason, 512), actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionView(collection))
	}
}

// AdminCODResolve settles a disputed collection with compensating entries.
func AdminCODResolve(svc codDisputeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin operations service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload resolveCODPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adminID, err := adminFrom(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		override, err := svc.ResolveCODDispute(ctx, adminID, orderID, validators.SanitizeString(payload.Reason, 512))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adminops.NewOverrideView(override))
	}
}

// AdminCODList filters collections by remittance status for the ops queue.
func AdminCODList(svc codService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cod service unavailable"))
			return
		}

		status, err := enums.ParseRemittanceStatus(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid remittance status"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		collections, next, err := svc.ListByStatus(ctx, status, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cod.NewCollectionList(collections, next))
	}
}
