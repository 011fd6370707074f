package tier

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/pkg/db/models"
	"github.com/fastfare/fastfare-backend/pkg/enums"
	errorsx "github.com/fastfare/fastfare-backend/pkg/errors"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/pagination"
)

type fakeRepo struct {
	logs []models.TierEvaluationLog
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateLog(ctx context.Context, log *models.TierEvaluationLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeRepo) ListLogs(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.TierEvaluationLog, *pagination.Cursor, error) {
	return f.logs, nil, nil
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
	copied := *stats
	f.stats[stats.SellerID] = &copied
	return nil
}

func (f *fakeSellersRepo) ListAfter(ctx context.Context, afterSellerID uuid.UUID, limit int) ([]models.SellerStats, error) {
	var out []models.SellerStats
	for _, stats := range f.stats {
		if stats.SellerID.String() > afterSellerID.String() {
			out = append(out, *stats)
		}
	}
	return out, nil
}

func (f *fakeSellersRepo) ListWithResetBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.SellerStats, error) {
	return nil, nil
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

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo *fakeRepo, sellersRepo *fakeSellersRepo, ob *fakeOutbox) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Sellers: sellersRepo,
		Tx:      &fakeTxRunner{},
		Outbox:  ob,
		Now:     func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedSeller(repo *fakeSellersRepo, tier enums.SellerTier, monthlyOrders, monthlyRTO int) uuid.UUID {
	sellerID := uuid.New()
	repo.stats[sellerID] = &models.SellerStats{
		SellerID:         sellerID,
		CurrentTier:      tier,
		MonthlyOrders:    monthlyOrders,
		MonthlyDelivered: monthlyOrders - monthlyRTO,
		MonthlyRTO:       monthlyRTO,
		MonthlyResetDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	return sellerID
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name   string
		orders int
		rto    string
		want   enums.SellerTier
	}{
		{"gold volume clean rto", 800, "10", enums.SellerTierGold},
		{"gold volume dirty rto", 1000, "15.01", enums.SellerTierBronze},
		{"silver volume", 300, "15", enums.SellerTierSilver},
		{"silver volume dirty rto", 500, "20", enums.SellerTierBronze},
		{"below silver", 299, "0", enums.SellerTierBronze},
		{"no orders", 0, "0", enums.SellerTierBronze},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rto, err := decimal.NewFromString(tc.rto)
			if err != nil {
				t.Fatalf("bad rto fixture: %v", err)
			}
			if got := Decide(tc.orders, rto); got != tc.want {
				t.Fatalf("Decide(%d, %s) = %s, want %s", tc.orders, tc.rto, got, tc.want)
			}
		})
	}
}

func TestRTOPercent(t *testing.T) {
	if got := RTOPercent(0, 0); !got.IsZero() {
		t.Fatalf("zero orders must give zero percent, got %s", got)
	}
	if got := RTOPercent(800, 120); !got.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("120/800 = %s, want 15", got)
	}
	if got := RTOPercent(3, 1); got.String() != "33.33" {
		t.Fatalf("1/3 = %s, want 33.33", got)
	}
}

func TestEvaluate_Upgrade(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, ob)
	sellerID := seedSeller(sellersRepo, enums.SellerTierBronze, 850, 40)

	log, err := svc.Evaluate(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if log.PreviousTier != enums.SellerTierBronze || log.NewTier != enums.SellerTierGold {
		t.Fatalf("log = %+v", log)
	}
	if !log.AutoUpgrade || log.TriggeredBy != nil {
		t.Fatalf("auto run mislabeled: %+v", log)
	}
	stored := sellersRepo.stats[sellerID]
	if stored.CurrentTier != enums.SellerTierGold || stored.TierUpdatedAt == nil {
		t.Fatalf("stats not updated: %+v", stored)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventTierChanged {
		t.Fatalf("expected tier_changed event, got %+v", ob.events)
	}
}

func TestEvaluate_Downgrade(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	svc := newTestService(t, repo, sellersRepo, &fakeOutbox{})
	sellerID := seedSeller(sellersRepo, enums.SellerTierGold, 200, 10)

	log, err := svc.Evaluate(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if log.NewTier != enums.SellerTierBronze {
		t.Fatalf("expected downgrade to bronze, got %s", log.NewTier)
	}
	if sellersRepo.stats[sellerID].CurrentTier != enums.SellerTierBronze {
		t.Fatalf("downgrade not persisted")
	}
}

func TestEvaluate_UnchangedStillLogs(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, ob)
	sellerID := seedSeller(sellersRepo, enums.SellerTierSilver, 400, 20)

	for i := 0; i < 3; i++ {
		if _, err := svc.Evaluate(context.Background(), sellerID); err != nil {
			t.Fatalf("Evaluate #%d: %v", i, err)
		}
	}
	if len(repo.logs) != 3 {
		t.Fatalf("every run must append a log, got %d", len(repo.logs))
	}
	if len(ob.events) != 0 {
		t.Fatalf("no tier_changed event for unchanged tier")
	}
	if sellersRepo.stats[sellerID].TierUpdatedAt != nil {
		t.Fatalf("tier_updated_at must stay unset when tier holds")
	}
}

func TestEvaluateManual(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	svc := newTestService(t, repo, sellersRepo, &fakeOutbox{})
	sellerID := seedSeller(sellersRepo, enums.SellerTierBronze, 350, 10)
	adminID := uuid.New()

	log, err := svc.EvaluateManual(context.Background(), sellerID, adminID)
	if err != nil {
		t.Fatalf("EvaluateManual: %v", err)
	}
	if log.AutoUpgrade {
		t.Fatalf("manual run must not flag auto upgrade")
	}
	if log.TriggeredBy == nil || *log.TriggeredBy != adminID {
		t.Fatalf("triggered_by = %v", log.TriggeredBy)
	}
	if log.NewTier != enums.SellerTierSilver {
		t.Fatalf("tier = %s", log.NewTier)
	}
}

func TestEvaluate_RollsOverStaleMonth(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	svc := newTestService(t, repo, sellersRepo, &fakeOutbox{})
	sellerID := seedSeller(sellersRepo, enums.SellerTierGold, 900, 10)
	sellersRepo.stats[sellerID].MonthlyResetDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	log, err := svc.Evaluate(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// Counters reset before the decision, so last month's volume cannot hold gold.
	if log.MonthlyOrders != 0 || log.NewTier != enums.SellerTierBronze {
		t.Fatalf("stale counters leaked into evaluation: %+v", log)
	}
	if !sellersRepo.stats[sellerID].MonthlyResetDate.After(testNow) {
		t.Fatalf("rollover not persisted")
	}
}

func TestOverrideTierTx(t *testing.T) {
	repo := &fakeRepo{}
	sellersRepo := &fakeSellersRepo{stats: map[uuid.UUID]*models.SellerStats{}}
	ob := &fakeOutbox{}
	svc := newTestService(t, repo, sellersRepo, ob)
	sellerID := seedSeller(sellersRepo, enums.SellerTierBronze, 10, 0)
	adminID := uuid.New()

	log, err := svc.OverrideTierTx(context.Background(), nil, sellerID, enums.SellerTierGold, adminID, "pilot partner onboarding")
	if err != nil {
		t.Fatalf("OverrideTierTx: %v", err)
	}
	if log.NewTier != enums.SellerTierGold || log.Reason != "pilot partner onboarding" {
		t.Fatalf("log = %+v", log)
	}
	if sellersRepo.stats[sellerID].CurrentTier != enums.SellerTierGold {
		t.Fatalf("override not persisted")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventTierChanged {
		t.Fatalf("expected tier_changed event")
	}

	if _, err := svc.OverrideTierTx(context.Background(), nil, sellerID, enums.SellerTier("platinum"), adminID, "x"); !errorsx.HasCode(err, errorsx.CodeValidation) {
		t.Fatalf("expected validation error for unknown tier, got %v", err)
	}
}
