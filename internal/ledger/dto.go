package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// SellerEntryView is the API projection of one seller ledger entry.
type SellerEntryView struct {
	ID                   uuid.UUID             `json:"id"`
	SellerID             uuid.UUID             `json:"seller_id"`
	OrderID              *uuid.UUID            `json:"order_id,omitempty"`
	SettlementID         *uuid.UUID            `json:"settlement_id,omitempty"`
	Type                 enums.SellerEntryType `json:"type"`
	AmountPaise          int64                 `json:"amount_paise"`
	Description          string                `json:"description"`
	PendingBeforePaise   int64                 `json:"pending_before_paise"`
	PendingAfterPaise    int64                 `json:"pending_after_paise"`
	AvailableBeforePaise int64                 `json:"available_before_paise"`
	AvailableAfterPaise  int64                 `json:"available_after_paise"`
	CreatedAt            time.Time             `json:"created_at"`
}

// SellerEntryList wraps a seller ledger page plus the next page cursor.
type SellerEntryList struct {
	Entries    []SellerEntryView `json:"entries"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// PartnerEntryView is the API projection of one partner ledger entry.
type PartnerEntryView struct {
	ID                 uuid.UUID              `json:"id"`
	PartnerID          uuid.UUID              `json:"partner_id"`
	OrderID            *uuid.UUID             `json:"order_id,omitempty"`
	Type               enums.PartnerEntryType `json:"type"`
	AmountPaise        int64                  `json:"amount_paise"`
	Description        string                 `json:"description"`
	BalanceBeforePaise int64                  `json:"balance_before_paise"`
	BalanceAfterPaise  int64                  `json:"balance_after_paise"`
	PayoutReference    *string                `json:"payout_reference,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

// PartnerEntryList wraps a partner ledger page plus the next page cursor.
type PartnerEntryList struct {
	Entries    []PartnerEntryView `json:"entries"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// NewSellerEntryList builds the list response from a repository page.
func NewSellerEntryList(entries []models.SellerLedgerEntry, next *pagination.Cursor) SellerEntryList {
	list := SellerEntryList{Entries: make([]SellerEntryView, 0, len(entries))}
	for _, entry := range entries {
		list.Entries = append(list.Entries, SellerEntryView{
			ID:                   entry.ID,
			SellerID:             entry.SellerID,
			OrderID:              entry.OrderID,
			SettlementID:         entry.SettlementID,
			Type:                 entry.Type,
			AmountPaise:          entry.AmountPaise,
			Description:          entry.Description,
			PendingBeforePaise:   entry.PendingBeforePaise,
			PendingAfterPaise:    entry.PendingAfterPaise,
			AvailableBeforePaise: entry.AvailableBeforePaise,
			AvailableAfterPaise:  entry.AvailableAfterPaise,
			CreatedAt:            entry.CreatedAt,
		})
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}

// NewPartnerEntryList builds the list response from a repository page.
func NewPartnerEntryList(entries []models.PartnerLedgerEntry, next *pagination.Cursor) PartnerEntryList {
	list := PartnerEntryList{Entries: make([]PartnerEntryView, 0, len(entries))}
	for _, entry := range entries {
		list.Entries = append(list.Entries, PartnerEntryView{
			ID:                 entry.ID,
			PartnerID:          entry.PartnerID,
			OrderID:            entry.OrderID,
			Type:               entry.Type,
			AmountPaise:        entry.AmountPaise,
			Description:        entry.Description,
			BalanceBeforePaise: entry.BalanceBeforePaise,
			BalanceAfterPaise:  entry.BalanceAfterPaise,
			PayoutReference:    entry.PayoutReference,
			CreatedAt:          entry.CreatedAt,
		})
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
