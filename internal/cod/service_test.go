package cod

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type fakeRepo struct {
	byOrder map[uuid.UUID]*models.CODCollection
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byOrder: map[uuid.UUID]*models.CODCollection{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, collection *models.CODCollection) error {
	if _, ok := f.byOrder[collection.OrderID]; ok {
		return errorsx.New(errorsx.CodeStateConflict, "cod collection already exists for order")
	}
	copied := *collection
	f.byOrder[collection.OrderID] = &copied
	return nil
}

func (f *fakeRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.CODCollection, error) {
	collection, ok := f.byOrder[orderID]
	if !ok {
		return nil, errorsx.New(errorsx.CodeNotFound, "cod collection not found")
	}
	copied := *collection
	return &copied, nil
}

func (f *fakeRepo) UpdateTransitioned(ctx context.Context, collection *models.CODCollection, from enums.RemittanceStatus) error {
	stored, ok := f.byOrder[collection.OrderID]
	if !ok || stored.RemittanceStatus != from {
		return errorsx.New(errorsx.CodeStateConflict, "cod collection was modified concurrently")
	}
	copied := *collection
	f.byOrder[collection.OrderID] = &copied
	return nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status enums.RemittanceStatus, params pagination.Params) ([]models.CODCollection, *pagination.Cursor, error) {
	var out []models.CODCollection
	for _, collection := range f.byOrder {
		if collection.RemittanceStatus == status {
			out = append(out, *collection)
		}
	}
	return out, nil, nil
}

func (f *fakeRepo) ListStaleInStatus(ctx context.Context, status enums.RemittanceStatus, before time.Time, limit int) ([]models.CODCollection, error) {
	return nil, nil
}

type fakeLedgerWriter struct {
	inputs []ledger.RecordPartnerEntryInput
	err    error
}

func (f *fakeLedgerWriter) RecordPartnerEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordPartnerEntryInput) (*models.PartnerLedgerEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, input)
	return &models.PartnerLedgerEntry{ID: uuid.New(), PartnerID: input.PartnerID, Type: input.Type, AmountPaise: input.AmountPaise}, nil
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

func newTestService(t *testing.T, repo *fakeRepo, lw *fakeLedgerWriter, ob *fakeOutbox, tolerance int64) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		Ledger:         lw,
		Tx:             &fakeTxRunner{},
		Outbox:         ob,
		TolerancePaise: tolerance,
		Now:            func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedCollection(repo *fakeRepo, status enums.RemittanceStatus, codAmount int64, collected *int64) *models.CODCollection {
	collection := &models.CODCollection{
		ID:                   uuid.New(),
		OrderID:              uuid.New(),
		SellerID:             uuid.New(),
		PartnerID:            uuid.New(),
		CODAmountPaise:       codAmount,
		ShippingChargePaise:  500,
		PlatformFeePaise:     25,
		CODHandlingFeePaise:  100,
		CollectedAmountPaise: collected,
		RemittanceStatus:     status,
	}
	repo.byOrder[collection.OrderID] = collection
	return collection
}

func TestCollect(t *testing.T) {
	repo := newFakeRepo()
	lw := &fakeLedgerWriter{}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, lw, ob, 0)
	seeded := seedCollection(repo, enums.RemittanceStatusPending, 90000, nil)

	got, err := svc.Collect(context.Background(), CollectInput{OrderID: seeded.OrderID, CollectedAmountPaise: 90000})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got.RemittanceStatus != enums.RemittanceStatusCollected {
		t.Fatalf("status = %s", got.RemittanceStatus)
	}
	if got.CollectedAmountPaise == nil || *got.CollectedAmountPaise != 90000 {
		t.Fatalf("collected amount not recorded: %+v", got)
	}
	if got.CollectedAt == nil {
		t.Fatalf("collected_at not set")
	}
	if len(lw.inputs) != 1 || lw.inputs[0].Type != enums.PartnerEntryTypeCODCollection {
		t.Fatalf("expected cod_collection ledger entry, got %+v", lw.inputs)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCODCollected {
		t.Fatalf("expected cod_collected event, got %+v", ob.events)
	}
}

func TestCollect_RejectsWrongState(t *testing.T) {
	repo := newFakeRepo()
	lw := &fakeLedgerWriter{}
	svc := newTestService(t, repo, lw, &fakeOutbox{}, 0)
	collected := int64(90000)
	seeded := seedCollection(repo, enums.RemittanceStatusRemitted, 90000, &collected)

	_, err := svc.Collect(context.Background(), CollectInput{OrderID: seeded.OrderID, CollectedAmountPaise: 90000})
	if !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if len(lw.inputs) != 0 {
		t.Fatalf("no ledger entry expected on rejected transition")
	}
}

func TestRemit(t *testing.T) {
	repo := newFakeRepo()
	lw := &fakeLedgerWriter{}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, lw, ob, 0)
	collected := int64(90000)
	seeded := seedCollection(repo, enums.RemittanceStatusCollected, 90000, &collected)

	got, err := svc.Remit(context.Background(), seeded.OrderID, nil)
	if err != nil {
		t.Fatalf("Remit: %v", err)
	}
	if got.RemittanceStatus != enums.RemittanceStatusRemitted || got.RemittedAt == nil {
		t.Fatalf("remit not applied: %+v", got)
	}
	if len(lw.inputs) != 1 || lw.inputs[0].Type != enums.PartnerEntryTypeCODRemittance || lw.inputs[0].AmountPaise != 90000 {
		t.Fatalf("expected cod_remittance entry for 90000, got %+v", lw.inputs)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCODRemitted {
		t.Fatalf("expected cod_remitted event, got %+v", ob.events)
	}
}

func TestReconcile_WithinTolerance(t *testing.T) {
	repo := newFakeRepo()
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, &fakeLedgerWriter{}, ob, 100)
	collected := int64(89950) // 50 paise short, inside tolerance
	seeded := seedCollection(repo, enums.RemittanceStatusRemitted, 90000, &collected)

	got, err := svc.Reconcile(context.Background(), seeded.OrderID, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got.RemittanceStatus != enums.RemittanceStatusReconciled || got.ReconciledAt == nil {
		t.Fatalf("expected reconciled, got %+v", got)
	}
	wantNet := collected - 500 - 25 - 100
	if got.NetSettlementPaise == nil || *got.NetSettlementPaise != wantNet {
		t.Fatalf("net settlement = %v, want %d", got.NetSettlementPaise, wantNet)
	}
	if got.DiscrepancyAmountPaise != -50 {
		t.Fatalf("discrepancy = %d", got.DiscrepancyAmountPaise)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCODReconciled {
		t.Fatalf("expected cod_reconciled event, got %+v", ob.events)
	}
}

func TestReconcile_MismatchDisputes(t *testing.T) {
	repo := newFakeRepo()
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, &fakeLedgerWriter{}, ob, 0)
	collected := int64(85000)
	seeded := seedCollection(repo, enums.RemittanceStatusRemitted, 90000, &collected)

	got, err := svc.Reconcile(context.Background(), seeded.OrderID, nil)
	if !errorsx.HasCode(err, errorsx.CodeReconMismatch) {
		t.Fatalf("expected RECONCILIATION_MISMATCH, got %v", err)
	}
	if got == nil {
		t.Fatalf("disputed collection must be returned alongside the mismatch")
	}
	if got.RemittanceStatus != enums.RemittanceStatusDisputed || got.DisputedAt == nil {
		t.Fatalf("expected disputed, got %+v", got)
	}
	if got.DiscrepancyAmountPaise != -5000 {
		t.Fatalf("discrepancy = %d, want -5000", got.DiscrepancyAmountPaise)
	}
	if got.NetSettlementPaise != nil {
		t.Fatalf("disputed collection must not settle")
	}
	// The disputed transition commits even though the call errors.
	stored := repo.byOrder[seeded.OrderID]
	if stored.RemittanceStatus != enums.RemittanceStatusDisputed {
		t.Fatalf("stored status = %s", stored.RemittanceStatus)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCODDisputed {
		t.Fatalf("expected cod_disputed event, got %+v", ob.events)
	}
}

func TestDispute_ReopensReconciledCollection(t *testing.T) {
	repo := newFakeRepo()
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, &fakeLedgerWriter{}, ob, 0)
	collected := int64(90000)
	seeded := seedCollection(repo, enums.RemittanceStatusReconciled, 90000, &collected)

	got, err := svc.Dispute(context.Background(), seeded.OrderID, -3000, "deposit bounced at the bank", nil)
	if err != nil {
		t.Fatalf("Dispute: %v", err)
	}
	if got.RemittanceStatus != enums.RemittanceStatusDisputed || got.DisputedAt == nil {
		t.Fatalf("expected disputed, got %+v", got)
	}
	if got.DiscrepancyAmountPaise != -3000 {
		t.Fatalf("discrepancy = %d, want -3000", got.DiscrepancyAmountPaise)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCODDisputed {
		t.Fatalf("expected cod_disputed event, got %+v", ob.events)
	}

	// The resolution flow closes the dispute as usual.
	if _, err := svc.ResolveDisputeTx(context.Background(), nil, seeded.OrderID); err != nil {
		t.Fatalf("ResolveDisputeTx: %v", err)
	}
}

func TestDispute_RequiresReconciled(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeLedgerWriter{}, &fakeOutbox{}, 0)
	collected := int64(90000)
	seeded := seedCollection(repo, enums.RemittanceStatusRemitted, 90000, &collected)

	if _, err := svc.Dispute(context.Background(), seeded.OrderID, -3000, "audit finding", nil); !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
	if _, err := svc.Dispute(context.Background(), seeded.OrderID, 0, "audit finding", nil); !errorsx.HasCode(err, errorsx.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for zero discrepancy, got %v", err)
	}
}

func TestReconcile_RequiresRemitted(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeLedgerWriter{}, &fakeOutbox{}, 0)
	collected := int64(90000)
	seeded := seedCollection(repo, enums.RemittanceStatusCollected, 90000, &collected)

	if _, err := svc.Reconcile(context.Background(), seeded.OrderID, nil); !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestResolveDisputeTx(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeLedgerWriter{}, &fakeOutbox{}, 0)
	collected := int64(85000)
	seeded := seedCollection(repo, enums.RemittanceStatusDisputed, 90000, &collected)
	seeded.DiscrepancyAmountPaise = -5000

	got, err := svc.ResolveDisputeTx(context.Background(), nil, seeded.OrderID)
	if err != nil {
		t.Fatalf("ResolveDisputeTx: %v", err)
	}
	if got.RemittanceStatus != enums.RemittanceStatusReconciled || got.ReconciledAt == nil {
		t.Fatalf("expected reconciled, got %+v", got)
	}
	if got.NetSettlementPaise == nil || *got.NetSettlementPaise != 85000-500-25-100 {
		t.Fatalf("net settlement = %v", got.NetSettlementPaise)
	}

	// Resolving twice is a state conflict.
	if _, err := svc.ResolveDisputeTx(context.Background(), nil, seeded.OrderID); !errorsx.HasCode(err, errorsx.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT on second resolve, got %v", err)
	}
}

func TestOpenTx_Validation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &fakeLedgerWriter{}, &fakeOutbox{}, 0)

	if _, err := svc.OpenTx(context.Background(), nil, OpenInput{
		OrderID:   uuid.New(),
		SellerID:  uuid.New(),
		PartnerID: uuid.New(),
	}); !errorsx.HasCode(err, errorsx.CodeValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}

	opened, err := svc.OpenTx(context.Background(), nil, OpenInput{
		OrderID:        uuid.New(),
		SellerID:       uuid.New(),
		PartnerID:      uuid.New(),
		CODAmountPaise: 90000,
	})
	if err != nil {
		t.Fatalf("OpenTx: %v", err)
	}
	if opened.RemittanceStatus != enums.RemittanceStatusPending {
		t.Fatalf("new collection must start pending")
	}
}
