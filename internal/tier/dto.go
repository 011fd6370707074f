package tier

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

// EvaluationView is the API projection of one tier evaluation log row.
type EvaluationView struct {
	ID               uuid.UUID        `json:"id"`
	SellerID         uuid.UUID        `json:"seller_id"`
	PreviousTier     enums.SellerTier `json:"previous_tier"`
	NewTier          enums.SellerTier `json:"new_tier"`
	MonthlyOrders    int              `json:"monthly_orders"`
	MonthlyDelivered int              `json:"monthly_delivered"`
	MonthlyRTO       int              `json:"monthly_rto"`
	RTOPercent       decimal.Decimal  `json:"rto_percent"`
	Reason           string           `json:"reason"`
	AutoUpgrade      bool             `json:"auto_upgrade"`
	TriggeredBy      *uuid.UUID       `json:"triggered_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// EvaluationList wraps a paginated evaluation page plus the next cursor.
type EvaluationList struct {
	Evaluations []EvaluationView `json:"evaluations"`
	NextCursor  string           `json:"next_cursor,omitempty"`
}

// NewEvaluationView maps a persisted log row into its API shape.
func NewEvaluationView(log *models.TierEvaluationLog) EvaluationView {
	return EvaluationView{
		ID:               log.ID,
		SellerID:         log.SellerID,
		PreviousTier:     log.PreviousTier,
		NewTier:          log.NewTier,
		MonthlyOrders:    log.MonthlyOrders,
		MonthlyDelivered: log.MonthlyDelivered,
		MonthlyRTO:       log.MonthlyRTO,
		RTOPercent:       log.RTOPercent,
		Reason:           log.Reason,
		AutoUpgrade:      log.AutoUpgrade,
		TriggeredBy:      log.TriggeredBy,
		CreatedAt:        log.CreatedAt,
	}
}

// NewEvaluationList builds the list response from a repository page.
func NewEvaluationList(logs []models.TierEvaluationLog, next *pagination.Cursor) EvaluationList {
	list := EvaluationList{Evaluations: make([]EvaluationView, 0, len(logs))}
	for i := range logs {
		list.Evaluations = append(list.Evaluations, NewEvaluationView(&logs[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list
}
