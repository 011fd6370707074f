package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fastfare/fastfare-backend/pkg/enums"
)

// AdminOverride documents a human-authorized out-of-band change. The row is
// evidence only; the compensating mutation happens in the same transaction
// through the targeted aggregate's own service.
type AdminOverride struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdminID       uuid.UUID            `gorm:"column:admin_id;type:uuid;not null"`
	TargetType    enums.OverrideTarget `gorm:"column:target_type;type:override_target_enum;not null"`
	TargetID      uuid.UUID            `gorm:"column:target_id;type:uuid;not null"`
	Action        enums.OverrideAction `gorm:"column:action;type:override_action_enum;not null"`
	PreviousValue json.RawMessage      `gorm:"column:previous_value;type:jsonb"`
	NewValue      json.RawMessage      `gorm:"column:new_value;type:jsonb"`
	Reason        string               `gorm:"column:reason;not null"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
