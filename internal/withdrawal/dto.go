package withdrawal

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// RequestView is the API projection of one withdrawal request.
type RequestView struct {
	ID                      uuid.UUID              `json:"id"`
	OwnerKind               enums.ActorKind        `json:"owner_kind"`
	OwnerID                 uuid.UUID              `json:"owner_id"`
	AmountPaise             int64                  `json:"amount_paise"`
	Status                  enums.WithdrawalStatus `json:"status"`
	BalanceAtRequestPaise   int64                  `json:"balance_at_request_paise"`
	BalanceAfterPayoutPaise *int64                 `json:"balance_after_payout_paise,omitempty"`
	TransactionRef          *string                `json:"transaction_ref,omitempty"`
	ReviewedBy              *uuid.UUID             `json:"reviewed_by,omitempty"`
	ReviewedAt              *time.Time             `json:"reviewed_at,omitempty"`
	RejectReason            *string                `json:"reject_reason,omitempty"`
	CompletedAt             *time.Time             `json:"completed_at,omitempty"`
	CreatedAt               time.Time              `json:"created_at"`
}

// RequestList wraps a paginated withdrawal page plus the next cursor.
type RequestList struct {
	Withdrawals []RequestView `json:"withdrawals"`
	NextCursor  string        `json:"next_cursor,omitempty"`
}

// NewRequestView maps a persisted withdrawal request into its API shape.
func NewRequestView(request *models.WithdrawalRequest) RequestView {
	return RequestView{
		ID:                      request.ID,
		OwnerKind:               request.OwnerKind,
		OwnerID:                 request.OwnerID,
		AmountPaise:             request.AmountPaise,
		Status:                  request.Status,
		BalanceAtRequestPaise:   request.BalanceAtRequestPaise,
		BalanceAfterPayoutPaise: request.BalanceAfterPayoutPaise,
		TransactionRef:          request.TransactionRef,
		ReviewedBy:              request.ReviewedBy,
		ReviewedAt:              request.ReviewedAt,
		RejectReason:            request.RejectReason,
		CompletedAt:             request.CompletedAt,
		CreatedAt:               request.CreatedAt,
	}
}

// NewRequestList builds the list response from a repository page.
func NewRequestList(requests []models.WithdrawalRequest, next *pagination.Cursor) RequestList {
	list := RequestList{Withdrawals: make([]RequestView, 0, len(requests))}
	for i := range requests {
		list.Withdrawals = append(list.Withdrawals, NewRequestView(&requests[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
