package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fastfare/fastfare-backend/api/controllers"
	"github.com/fastfare/fastfare-backend/api/routes"
	"github.com/fastfare/fastfare-backend/internal/adminops"
	"github.com/fastfare/fastfare-backend/internal/cod"
	"github.com/fastfare/fastfare-backend/internal/ledger"
	"github.com/fastfare/fastfare-backend/internal/partners"
	"github.com/fastfare/fastfare-backend/internal/sellers"
	"github.com/fastfare/fastfare-backend/internal/settlement"
	"github.com/fastfare/fastfare-backend/internal/tier"
	"github.com/fastfare/fastfare-backend/internal/withdrawal"
	"github.com/fastfare/fastfare-backend/pkg/config"
	"github.com/fastfare/fastfare-backend/pkg/db"
	"github.com/fastfare/fastfare-backend/pkg/logger"
	"github.com/fastfare/fastfare-backend/pkg/migrate"
	"github.com/fastfare/fastfare-backend/pkg/outbox"
	"github.com/fastfare/fastfare-backend/pkg/payout"
	"github.com/fastfare/fastfare-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	sellersRepo := sellers.NewRepository(gormDB)
	partnersRepo := partners.NewRepository(gormDB)

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Repo:         ledger.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Partners:     partnersRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	sellersSvc, err := sellers.NewService(sellers.ServiceParams{Repo: sellersRepo, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create sellers service", err)
		os.Exit(1)
	}

	partnersSvc, err := partners.NewService(partners.ServiceParams{Repo: partnersRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create partners service", err)
		os.Exit(1)
	}

	codSvc, err := cod.NewService(cod.ServiceParams{
		Repo:           cod.NewRepository(gormDB),
		Ledger:         ledgerSvc,
		Tx:             dbClient,
		Outbox:         outboxSvc,
		Logger:         logg,
		TolerancePaise: cfg.Settlement.CODTolerancePaise,
		WriteRetries:   cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cod service", err)
		os.Exit(1)
	}

	settlementSvc, err := settlement.NewService(settlement.ServiceParams{
		Repo:              settlement.NewRepository(gormDB),
		Sellers:           sellersRepo,
		Ledger:            ledgerSvc,
		Tx:                dbClient,
		Outbox:            outboxSvc,
		Logger:            logg,
		EligibilityWindow: cfg.Settlement.EligibilityWindow,
		MaxRetries:        cfg.Settlement.MaxRetries,
		WriteRetries:      cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	tierSvc, err := tier.NewService(tier.ServiceParams{
		Repo:         tier.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tier service", err)
		os.Exit(1)
	}

	payoutProvider, err := payout.New(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout provider", err)
		os.Exit(1)
	}

	withdrawalSvc, err := withdrawal.NewService(withdrawal.ServiceParams{
		Repo:         withdrawal.NewRepository(gormDB),
		Sellers:      sellersRepo,
		Partners:     partnersRepo,
		Ledger:       ledgerSvc,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Provider:     payoutProvider,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	adminOpsSvc, err := adminops.NewService(adminops.ServiceParams{
		Repo:         adminops.NewRepository(gormDB),
		Ledger:       ledgerSvc,
		Tier:         tierSvc,
		Settlement:   settlementSvc,
		COD:          codSvc,
		Sellers:      sellersRepo,
		Partners:     partnersRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
		WriteRetries: cfg.Settlement.LedgerWriteRetries,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create admin operations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, redisClient,
		map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
		routes.Services{
			Sellers:     sellersSvc,
			Partners:    partnersSvc,
			Ledger:      ledgerSvc,
			COD:         codSvc,
			Withdrawals: withdrawalSvc,
			Settlements: settlementSvc,
			Tier:        tierSvc,
			AdminOps:    adminOpsSvc,
		})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
