package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/pkg/db/models"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
)

const settlementOrdersSchema = `
CREATE TABLE settlement_orders (
    id TEXT PRIMARY KEY,
    schedule_id TEXT NOT NULL,
    seller_id TEXT NOT NULL,
    order_id TEXT NOT NULL,
    amount_paise INTEGER NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX uq_settlement_orders_active_order
    ON settlement_orders (order_id) WHERE active;`

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Exec(settlementOrdersSchema).Error)
	return db
}

func newMemberOrder(scheduleID, orderID uuid.UUID) *models.SettlementOrder {
	return &models.SettlementOrder{
		ID:          uuid.New(),
		ScheduleID:  scheduleID,
		SellerID:    uuid.New(),
		OrderID:     orderID,
		AmountPaise: 2500,
		Active:      true,
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRepositoryAddOrderDuplicateActiveMembership(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)

	orderID := uuid.New()
	require.NoError(t, repo.AddOrder(context.Background(), newMemberOrder(uuid.New(), orderID)))

	// A racing insert for the same order must land on the unique index and
	// come back as the coded conflict, not a raw driver error.
	err := repo.AddOrder(context.Background(), newMemberOrder(uuid.New(), orderID))
	require.Error(t, err)
	assert.True(t, errorsx.HasCode(err, errorsx.CodeDuplicateMembership), "got %v", err)
}

func TestRepositoryAddOrderAllowsRejoinAfterDeactivation(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewRepository(db)

	scheduleID := uuid.New()
	orderID := uuid.New()
	require.NoError(t, repo.AddOrder(context.Background(), newMemberOrder(scheduleID, orderID)))
	require.NoError(t, repo.DeactivateOrders(context.Background(), scheduleID))

	require.NoError(t, repo.AddOrder(context.Background(), newMemberOrder(uuid.New(), orderID)))
}
