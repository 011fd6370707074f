package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type partnerBalanceService interface {
	GetBalance(ctx context.Context, partnerID uuid.UUID) (*partners.BalanceView, error)
}

type partnerLedgerService interface {
	ListPartnerLedger(ctx context.Context, partnerID uuid.UUID, params pagination.Params) ([]models.PartnerLedgerEntry, *pagination.Cursor, error)
}

// PartnerBalance returns the partner wallet aggregate.
func PartnerBalance(svc partnerBalanceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "partners service unavailable"))
			return
		}

		partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id"))
			return
		}
		if !partnerScopeAllows(ctx, partnerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "partner scope mismatch"))
			return
		}

		balance, err := svc.GetBalance(ctx, partnerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

// PartnerLedgerList returns the paginated partner ledger, newest first.
func PartnerLedgerList(svc partnerLedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		partnerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner id"))
			return
		}
		if !partnerScopeAllows(ctx, partnerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "partner scope mismatch"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, next, err := svc.ListPartnerLedger(ctx, partnerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.NewPartnerEntryList(entries, next))
	}
}
