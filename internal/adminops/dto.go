package adminops

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// OverrideView is the API projection of one admin override audit row.
type OverrideView struct {
	ID            uuid.UUID            `json:"id"`
	AdminID       uuid.UUID            `json:"admin_id"`
	TargetType    enums.OverrideTarget `json:"target_type"`
	TargetID      uuid.UUID            `json:"target_id"`
	Action        enums.OverrideAction `json:"action"`
	PreviousValue json.RawMessage      `json:"previous_value,omitempty"`
	NewValue      json.RawMessage      `json:"new_value,omitempty"`
	Reason        string               `json:"reason"`
	CreatedAt     time.Time            `json:"created_at"`
}

// OverrideList wraps a paginated override page plus the next cursor.
type OverrideList struct {
	Overrides  []OverrideView `json:"overrides"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// NewOverrideView maps a persisted audit row into its API shape.
func NewOverrideView(override *models.AdminOverride) OverrideView {
	return OverrideView{
		ID:            override.ID,
		AdminID:       override.AdminID,
		TargetType:    override.TargetType,
		TargetID:      override.TargetID,
		Action:        override.Action,
		PreviousValue: override.PreviousValue,
		NewValue:      override.NewValue,
		Reason:        override.Reason,
		CreatedAt:     override.CreatedAt,
	}
}

// NewOverrideList builds the list response from a repository page.
func NewOverrideList(overrides []models.AdminOverride, next *pagination.Cursor) OverrideList {
	list := OverrideList{Overrides: make([]OverrideView, 0, len(overrides))}
	for i := range overrides {
		list.Overrides = append(list.Overrides, NewOverrideView(&overrides[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
