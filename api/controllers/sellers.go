package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/responses"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type sellerStatsService interface {
	GetStats(ctx context.Context, sellerID uuid.UUID) (*sellers.StatsView, error)
}

type sellerLedgerService interface {
	ListSellerLedger(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.SellerLedgerEntry, *pagination.Cursor, error)
}

// SellerStats returns the seller aggregate for the dashboard.
func SellerStats(svc sellerStatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sellers service unavailable"))
			return
		}

		sellerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}
		if !sellerScopeAllows(ctx, sellerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller scope mismatch"))
			return
		}

		stats, err := svc.GetStats(ctx, sellerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// SellerLedgerList returns the paginated seller ledger, newest first.
func SellerLedgerList(svc sellerLedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		sellerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}
		if !sellerScopeAllows(ctx, sellerID) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller scope mismatch"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries, next, err := svc.ListSellerLedger(ctx, sellerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ledger.NewSellerEntryList(entries, next))
	}
}
