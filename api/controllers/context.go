package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/api/middleware"
	"github.com/fastfare/fastfare-backend/api/validators"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	pkgerrors "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// actorFrom rebuilds the authenticated actor reference the middleware seeded.
func actorFrom(ctx context.Context) (*outbox.ActorRef, error) {
	raw := middleware.MemberIDFromContext(ctx)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "member context missing")
	}
	memberID, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid member context")
	}
	actor := &outbox.ActorRef{MemberID: memberID, Role: middleware.RoleFromContext(ctx)}
	if sellerID := middleware.SellerIDFromContext(ctx); sellerID != "" {
		if id, err := uuid.Parse(sellerID); err == nil {
			actor.ActorID = &id
		}
	} else if partnerID := middleware.PartnerIDFromContext(ctx); partnerID != "" {
		if id, err := uuid.Parse(partnerID); err == nil {
			actor.ActorID = &id
		}
	}
	return actor, nil
}

// adminFrom returns the member id of a staff caller.
func adminFrom(ctx context.Context) (uuid.UUID, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return actor.MemberID, nil
}

// sellerScopeAllows reports whether the caller may read the given seller's
// data. Staff roles see everything; sellers see only their own account.
func sellerScopeAllows(ctx context.Context, sellerID uuid.UUID) bool {
	if enums.MemberRole(middleware.RoleFromContext(ctx)).IsStaff() {
		return true
	}
	return middleware.SellerIDFromContext(ctx) == sellerID.String()
}

// partnerScopeAllows is the partner-side counterpart of sellerScopeAllows.
func partnerScopeAllows(ctx context.Context, partnerID uuid.UUID) bool {
	if enums.MemberRole(middleware.RoleFromContext(ctx)).IsStaff() {
		return true
	}
	return middleware.PartnerIDFromContext(ctx) == partnerID.String()
}

// pageParams reads the shared limit and cursor query parameters.
func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
