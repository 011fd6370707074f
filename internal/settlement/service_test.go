package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
)

type fakeRepo struct {
	schedules map[uuid.UUID]*models.SettlementSchedule
	orders    []*models.SettlementOrder
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{schedules: map[uuid.UUID]*models.SettlementSchedule{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateSchedule(ctx context.Context, schedule *models.SettlementSchedule) error {
	copied := *schedule
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeRepo) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*models.SettlementSchedule, error) {
	schedule, ok := f.schedules[scheduleID]
	if !ok {
		return nil, errorsx.New(errorsx.CodeNotFound, "settlement schedule not found")
	}
	copied := *schedule
	return &copied, nil
}

func (f *fakeRepo) FindOpenSchedule(ctx context.Context, sellerID uuid.UUID, from time.Time) (*models.SettlementSchedule, error) {
	var best *models.SettlementSchedule
	for _, schedule := range f.schedules {
		if schedule.SellerID != sellerID || schedule.Status != enums.SettlementStatusScheduled {
			continue
		}
		if schedule.SettlementDate.Before(from) {
			continue
		}
		if best == nil || schedule.SettlementDate.Before(best.SettlementDate) {
			best = schedule
		}
	}
	if best == nil {
		return nil, errorsx.New(errorsx.CodeNotFound, "no open settlement schedule")
	}
	copied := *best
	return &copied, nil
}

func (f *fakeRepo) UpdateTransitioned(ctx context.Context, schedule *models.SettlementSchedule, from enums.SettlementStatus) error {
	stored, ok := f.schedules[schedule.ID]
	if !ok || stored.Status != from {
		return errorsx.New(errorsx.CodeStateConflict, "settlement schedule was modified concurrently")
	}
	copied := *schedule
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeRepo) AddOrder(ctx context.Context, order *models.SettlementOrder) error {
	for _, existing := range f.orders {
		if existing.OrderID == order.OrderID && existing.Active {
			return errorsx.New(errorsx.CodeDuplicateMembership, "order already belongs to an active settlement batch")
		}
	}
	copied := *order
	f.orders = append(f.orders, &copied)
	return nil
}

func (f *fakeRepo) HasActiveMembership(ctx context.Context, orderID uuid.UUID) (bool, error) {
	for _, order := range f.orders {
		if order.OrderID == orderID && order.Active {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListOrders(ctx context.Context, scheduleID uuid.UUID) ([]models.SettlementOrder, error) {
	var out []models.SettlementOrder
	for _, order := range f.orders {
		if order.ScheduleID == scheduleID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeactivateOrders(ctx context.Context, scheduleID uuid.UUID) error {
	for _, order := range f.orders {
		if order.ScheduleID == scheduleID {
			order.Active = false
		}
	}
	return nil
}

func (f *fakeRepo) ListDue(ctx context.Context, asOf time.Time, limit int) ([]models.SettlementSchedule, error) {
	var out []models.SettlementSchedule
	for _, schedule := range f.schedules {
		if schedule.Status == enums.SettlementStatusScheduled && !schedule.SettlementDate.After(asOf) {
			out = append(out, *schedule)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListFailedRetryable(ctx context.Context, maxRetries int, limit int) ([]models.SettlementSchedule, error) {
	var out []models.SettlementSchedule
	for _, schedule := range f.schedules {
		if schedule.Status == enums.SettlementStatusFailed && schedule.RetryCount < maxRetries {
			out = append(out, *schedule)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListStuckProcessing(ctx context.Context, before time.Time, limit int) ([]models.SettlementSchedule, error) {
	var out []models.SettlementSchedule
	for _, schedule := range f.schedules {
		if schedule.Status == enums.SettlementStatusProcessing && schedule.ProcessingAt != nil && schedule.ProcessingAt.Before(before) {
			out = append(out, *schedule)
		}
	}
	return out, nil
}

type fakeSellersRepo struct {
	stats map[uuid.UUID]*models.SellerStats
}

func (f *fakeSellersRepo) WithTx(tx *gorm.DB) sellers.Repository { return f }

func (f *fakeSellersRepo) Get(ctx context.Context, sellerID uuid.UUID) (*models.SellerStats, error) {
	stats, ok := f.stats[sellerID]
	if !ok {
		return nil, errorsx.New(errorsx.CodeNotFound, "seller stats not found")
	}
	copied := *stats
	return &copied, nil
}

func (f *fakeSellersRepo) Create(ctx context.Context, stats *models.SellerStats) error { return nil }

func (f *fakeSellersRepo) UpdateVersioned(ctx context.Context, stats *models.SellerStats) error {
	return nil
}

func (f *fakeSellersRepo) ListAfter(ctx context.Context, afterSellerID uuid.UUID, limit int) ([]models.SellerStats, error) {
	return nil, nil
}

func (f *fakeSellersRepo) ListWithResetBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SellerStats, error) {
	return nil, nil
}

type fakeLedgerWriter struct {
	inputs []ledger.RecordSellerEntryInput
	err    error
}

func (f *fakeLedgerWriter) RecordSellerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordSellerEntryInput) (*models.SellerLedgerEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &models.SellerLedgerEntry{ID: uuid.New(), SellerID: input.SellerID, Type: input.Type, AmountPaise: input.AmountPaise}, nil
}

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var out []outbox.DomainEvent
	for _, event := range f.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *fakeRepo, sellersRepo *fakeSellersRepo, lw *fakeLedgerWriter, ob *fakeOutbox) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:              repo,
		Sellers:           sellersRepo,
		Ledger:            lw,
		Tx:                &fakeTxRunner{},
		Outbox:            ob,
		EligibilityWindow: 48 * time.Hour,
		MaxRetries:        3,
		Now:               func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func sellerWithTier(tier enums.SellerTier) (*fakeSellersRepo, uuid.UUID) {
	sellerID := uuid.New()
	return &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{
		sellerID: {SellerID: sellerID, CurrentTier: tier},
	}}, sellerID
}

func TestTrigger_CreatesBatchAtCycleBoundary(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierGold)
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, ob)

	deliveredAt := time.Date(2026, 3, 8, 9, 30, 0, 0, time.UTC)
	schedule, err := svc.Trigger(context.Background(), TriggerInput{
		SellerID:    sellerID,
		OrderID:     uuid.New(),
		AmountPaise: 42500,
		DeliveredAt: deliveredAt,
	})
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	// eligible 2026-03-10 09:30, aligned to midnight 03-11, gold cadence +3d.
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !schedule.SettlementDate.Equal(want) {
		t.Fatalf("settlement date = %v, want %v", schedule.SettlementDate, want)
	}
	if schedule.Tier != enums.SellerTierGold {
		t.Fatalf("tier = %s", schedule.Tier)
	}
	if schedule.TotalAmountPaise != 42500 || schedule.OrderCount != 1 {
		t.Fatalf("totals = %+v", schedule)
	}
	if len(ob.byType(enums.EventSettlementScheduled)) != 1 {
		t.Fatalf("expected one settlement_scheduled event")
	}
}

func TestTrigger_AppendsToOpenBatch(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, ob)

	first, err := svc.Trigger(context.Background(), TriggerInput{SellerID: sellerID, OrderID: uuid.New(), AmountPaise: 10000})
	if err != nil {
		t.Fatalf("first Trigger: %v", err)
	}
	second, err := svc.Trigger(context.Background(), TriggerInput{SellerID: sellerID, OrderID: uuid.New(), AmountPaise: 5000})
	if err != nil {
		t.Fatalf("second Trigger: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("orders must share the open batch")
	}
	if second.TotalAmountPaise != 15000 || second.OrderCount != 2 {
		t.Fatalf("totals = %+v", second)
	}
	if len(ob.byType(enums.EventSettlementScheduled)) != 1 {
		t.Fatalf("scheduled event must fire once per batch")
	}
}

func TestTrigger_RejectsDuplicateMembership(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, &fakeOutbox{})

	orderID := uuid.New()
	if _, err := svc.Trigger(context.Background(), TriggerInput{SellerID: sellerID, OrderID: orderID, AmountPaise: 10000}); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	_, err := svc.Trigger(context.Background(), TriggerInput{SellerID: sellerID, OrderID: orderID, AmountPaise: 10000})
	if !errorsx.HasCode(err, errorsx.CodeDuplicateMembership) {
		t.Fatalf("expected DUPLICATE_SETTLEMENT_MEMBERSHIP, got %v", err)
	}
}

func seedDueSchedule(repo *fakeRepo, sellerID uuid.UUID, total int64, orderCount int) *models.SettlementSchedule {
	schedule := &models.SettlementSchedule{
		ID:               uuid.New(),
		SellerID:         sellerID,
		Tier:             enums.SellerTierBronze,
		TotalAmountPaise: total,
		OrderCount:       orderCount,
		SettlementDate:   testNow.Add(-time.Hour),
		Status:           enums.SettlementStatusScheduled,
	}
	repo.schedules[schedule.ID] = schedule
	for i := 0; i < orderCount; i++ {
		repo.orders = append(repo.orders, &models.SettlementOrder{
			ID: uuid.New(), ScheduleID: schedule.ID, SellerID: sellerID, OrderID: uuid.New(), Active: true,
		})
	}
	return schedule
}

func TestProcess_CompletesDueBatch(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	lw := &fakeLedgerWriter{}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, lw, ob)
	seeded := seedDueSchedule(repo, sellerID, 47500, 2)

	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Completed != 1 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	stored := repo.schedules[seeded.ID]
	if stored.Status != enums.SettlementStatusCompleted || stored.CompletedAt == nil {
		t.Fatalf("batch not completed: %+v", stored)
	}
	if len(lw.inputs) != 1 {
		t.Fatalf("expected one settlement entry, got %d", len(lw.inputs))
	}
	entry := lw.inputs[0]
	if entry.Type != enums.SellerEntryTypeSettlement || entry.AmountPaise != 47500 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.SettlementID == nil || *entry.SettlementID != seeded.ID {
		t.Fatalf("settlement id not threaded: %+v", entry)
	}
	for _, order := range repo.orders {
		if order.Active {
			t.Fatalf("member orders must deactivate on completion")
		}
	}
	if len(ob.byType(enums.EventSettlementCompleted)) != 1 {
		t.Fatalf("expected settlement_completed event")
	}
}

func TestProcess_FailureRecordedThenRetried(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	lw := &fakeLedgerWriter{err: errors.New("payout rail down")}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, lw, ob)
	seeded := seedDueSchedule(repo, sellerID, 47500, 1)

	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	stored := repo.schedules[seeded.ID]
	if stored.Status != enums.SettlementStatusFailed || stored.RetryCount != 1 {
		t.Fatalf("failure not recorded: %+v", stored)
	}
	if stored.FailureReason == nil || *stored.FailureReason != "payout rail down" {
		t.Fatalf("failure reason = %v", stored.FailureReason)
	}
	if len(ob.byType(enums.EventSettlementFailed)) != 1 {
		t.Fatalf("expected settlement_failed event")
	}

	// The rail recovers and the next sweep picks the failed batch up again.
	lw.err = nil
	report, err = svc.Process(context.Background())
	if err != nil {
		t.Fatalf("retry Process: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("retry report = %+v", report)
	}
	if repo.schedules[seeded.ID].Status != enums.SettlementStatusCompleted {
		t.Fatalf("retry did not complete batch")
	}
}

func TestProcess_ExhaustedRetriesLeftForOperator(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, &fakeOutbox{})
	seeded := seedDueSchedule(repo, sellerID, 47500, 1)
	seeded.Status = enums.SettlementStatusFailed
	seeded.RetryCount = 3

	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Completed != 0 || report.Failed != 0 {
		t.Fatalf("exhausted batch must be skipped: %+v", report)
	}
}

func TestHoldAndRelease(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, ob)
	seeded := seedDueSchedule(repo, sellerID, 47500, 1)
	adminID := uuid.New()

	held, err := svc.HoldTx(context.Background(), nil, seeded.ID, adminID, "kyc review")
	if err != nil {
		t.Fatalf("HoldTx: %v", err)
	}
	if held.Status != enums.SettlementStatusHeld || held.HoldReason == nil {
		t.Fatalf("hold not applied: %+v", held)
	}

	// Held batches never process.
	report, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Completed != 0 {
		t.Fatalf("held batch must be skipped")
	}

	released, err := svc.ReleaseTx(context.Background(), nil, seeded.ID, adminID)
	if err != nil {
		t.Fatalf("ReleaseTx: %v", err)
	}
	if released.Status != enums.SettlementStatusScheduled || released.ReleasedAt == nil || released.HoldReason != nil {
		t.Fatalf("release not applied: %+v", released)
	}
	if len(ob.byType(enums.EventSettlementHeld)) != 1 || len(ob.byType(enums.EventSettlementReleased)) != 1 {
		t.Fatalf("hold/release events missing")
	}

	report, err = svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process after release: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("released batch must process")
	}
}

func TestSweepStuck(t *testing.T) {
	repo := newFakeRepo()
	sellersRepo, sellerID := sellerWithTier(enums.SellerTierBronze)
	svc := newTestService(t, repo, sellersRepo, &fakeLedgerWriter{}, &fakeOutbox{})
	seeded := seedDueSchedule(repo, sellerID, 47500, 1)
	stuckAt := testNow.Add(-48 * time.Hour)
	seeded.Status = enums.SettlementStatusProcessing
	seeded.ProcessingAt = &stuckAt

	requeued, err := svc.SweepStuck(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepStuck: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("requeued = %d", requeued)
	}
	stored := repo.schedules[seeded.ID]
	if stored.Status != enums.SettlementStatusScheduled || stored.ProcessingAt != nil {
		t.Fatalf("stuck batch not re-queued: %+v", stored)
	}
}
